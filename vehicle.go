package loadout

import (
	"context"

	"github.com/goliatone/go-loadout/pkg/activity"
)

type vehicleConfig struct {
	index       *ModifierIndex
	factories   *ModuleFactories
	diagnostics DiagnosticsLogger
	hooks       activity.Hooks
	descriptor  string
}

// VehicleOption configures a Vehicle at construction time.
type VehicleOption func(*vehicleConfig)

// WithModifierIndex replaces the static source-key table.
func WithModifierIndex(index *ModifierIndex) VehicleOption {
	return func(cfg *vehicleConfig) {
		if index != nil {
			cfg.index = index
		}
	}
}

// WithModuleFactories replaces the module constructor table.
func WithModuleFactories(factories *ModuleFactories) VehicleOption {
	return func(cfg *vehicleConfig) {
		if factories != nil {
			cfg.factories = factories
		}
	}
}

// WithDiagnostics attaches a diagnostics logger.
func WithDiagnostics(logger DiagnosticsLogger) VehicleOption {
	return func(cfg *vehicleConfig) {
		if logger == nil {
			cfg.diagnostics = noopDiagnostics{}
			return
		}
		cfg.diagnostics = logger
	}
}

// WithActivityHooks registers lifecycle event hooks.
func WithActivityHooks(hooks ...activity.Hook) VehicleOption {
	return func(cfg *vehicleConfig) {
		cfg.hooks = append(cfg.hooks, hooks...)
	}
}

// WithDescriptor sets the initial module selection, default "stock".
func WithDescriptor(descriptor string) VehicleOption {
	return func(cfg *vehicleConfig) {
		if descriptor != "" {
			cfg.descriptor = descriptor
		}
	}
}

type trackedSource struct {
	kind      sourceKind
	key       string
	modifiers []Modifier
}

// Vehicle is the aggregate root: one record wrapper with own surface
// properties enabled by default, the current module selection, and the
// ordered list of active modifier sources.
type Vehicle struct {
	*Record
	pristine map[string]any
	cfg      vehicleConfig

	lines   ModuleLines
	modules map[string]*EquipmentModule
	trace   SelectionTrace

	captain        *Captain
	camouflage     *Camouflage
	signals        []*Signal
	modernizations []*Modernization
	tracked        []trackedSource
}

// NewVehicle builds a vehicle from a raw record and selects the initial
// loadout. The record is owned by the vehicle from here on.
func NewVehicle(raw map[string]any, opts ...VehicleOption) (*Vehicle, error) {
	if raw == nil {
		return nil, typeMismatch("new vehicle", "nil record")
	}
	cfg := vehicleConfig{
		index:       DefaultModifierIndex(),
		factories:   NewModuleFactories(),
		diagnostics: noopDiagnostics{},
		descriptor:  "stock",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	v := &Vehicle{
		pristine: raw,
		cfg:      cfg,
		modules:  map[string]*EquipmentModule{},
	}
	v.Record = NewRecord(raw, WithProperties(v.surfaceProperties), WithSelf(v)).WithOwnDefault()

	if err := v.SelectModules(cfg.descriptor); err != nil {
		return nil, err
	}
	return v, nil
}

// Name returns the vehicle's identity key, read from the record so renames
// are reflected immediately.
func (v *Vehicle) Name() string {
	name, _ := v.pristine["name"].(string)
	return name
}

// Tier returns the vehicle's level, 0 when unset.
func (v *Vehicle) Tier() float64 {
	tier, _ := toFloat(v.pristine["level"])
	return tier
}

// Class returns the vehicle's typeinfo species.
func (v *Vehicle) Class() string {
	kind, _ := moduleKindOf(v.pristine)
	return kind.Species
}

// Nation returns the vehicle's typeinfo nation, if any.
func (v *Vehicle) Nation() string {
	typeinfo, _ := v.pristine["typeinfo"].(map[string]any)
	nation, _ := typeinfo["nation"].(string)
	return nation
}

// Module returns the currently selected module for a component, or nil.
func (v *Vehicle) Module(component string) *EquipmentModule {
	return v.modules[component]
}

// Modules returns the current selection keyed by component.
func (v *Vehicle) Modules() map[string]*EquipmentModule {
	out := make(map[string]*EquipmentModule, len(v.modules))
	for component, module := range v.modules {
		out[component] = module
	}
	return out
}

// Hull returns the selected hull module.
func (v *Vehicle) Hull() *EquipmentModule { return v.modules["hull"] }

// Artillery returns the selected artillery module.
func (v *Vehicle) Artillery() *EquipmentModule { return v.modules["artillery"] }

// Torpedoes returns the selected torpedoes module.
func (v *Vehicle) Torpedoes() *EquipmentModule { return v.modules["torpedoes"] }

// Engine returns the selected engine module.
func (v *Vehicle) Engine() *EquipmentModule { return v.modules["engine"] }

// FireControl returns the selected fire-control module.
func (v *Vehicle) FireControl() *EquipmentModule { return v.modules["fireControl"] }

// Captain returns the assigned captain, if any.
func (v *Vehicle) Captain() *Captain { return v.captain }

// Camouflage returns the equipped camouflage, if any.
func (v *Vehicle) Camouflage() *Camouflage { return v.camouflage }

// Signals lists hoisted signals in hoisting order.
func (v *Vehicle) Signals() []*Signal {
	return append([]*Signal(nil), v.signals...)
}

// Modernizations lists equipped modernizations in equipping order.
func (v *Vehicle) Modernizations() []*Modernization {
	return append([]*Modernization(nil), v.modernizations...)
}

// LastSelection returns the provenance of the most recent module selection,
// including the ambiguity count.
func (v *Vehicle) LastSelection() SelectionTrace {
	return v.trace
}

func (v *Vehicle) surfaceProperties() map[string]any {
	props := make(map[string]any, len(v.modules))
	for component, module := range v.modules {
		props[component] = module
	}
	return props
}

// snapshot is the vehicle environment handed to calculation expressions.
func (v *Vehicle) snapshot() map[string]any {
	return map[string]any{
		"name":   v.Name(),
		"tier":   v.Tier(),
		"class":  v.Class(),
		"nation": v.Nation(),
	}
}

func (v *Vehicle) moduleLines() (ModuleLines, error) {
	if v.lines != nil {
		return v.lines, nil
	}
	table, _ := v.pristine[upgradesKey].(map[string]any)
	lines, err := buildModuleLines(table)
	if err != nil {
		return nil, err
	}
	v.lines = lines
	return lines, nil
}

// SelectModules resolves descriptor to one module per component, rebuilds
// every equipment module fresh from the pristine record, and re-applies all
// tracked modifier sources in their original order against the new
// substrate.
func (v *Vehicle) SelectModules(descriptor string) error {
	lines, err := v.moduleLines()
	if err != nil {
		return err
	}
	clauses, err := parseDescriptor(descriptor)
	if err != nil {
		return err
	}

	categories := sortedKeys(lines)
	known := make(map[string]bool, len(categories))
	for _, category := range categories {
		known[categoryKey(category)] = true
	}
	for key := range clauses {
		if key != othersClause && !known[key] {
			return typeMismatch("select modules", "descriptor %q names unknown category %q", descriptor, key)
		}
	}

	steps := make(map[string]*UpgradeStep, len(categories))
	traceSteps := make(map[string]string, len(categories))
	for _, category := range categories {
		key := categoryKey(category)
		level, ok := clauses[key]
		if !ok {
			level, ok = clauses[othersClause]
		}
		if !ok {
			return typeMismatch("select modules", "descriptor %q leaves category %q unassigned", descriptor, key)
		}
		chain := lines[category]
		index, err := level.pick(len(chain))
		if err != nil {
			return err
		}
		steps[category] = chain[index]
		traceSteps[key] = chain[index].Name
	}

	// merge candidate lists across the chosen steps: first sighting is
	// accepted as-is, every further sighting intersects
	merged := map[string][]string{}
	for _, category := range categories {
		for component, candidates := range steps[category].Components {
			if existing, ok := merged[component]; ok {
				merged[component] = intersect(existing, candidates)
				continue
			}
			merged[component] = append([]string(nil), candidates...)
		}
	}

	trace := SelectionTrace{Descriptor: descriptor, Steps: traceSteps}
	modules := make(map[string]*EquipmentModule, len(merged))
	for _, component := range sortedKeys(merged) {
		candidates := merged[component]
		if len(candidates) == 0 {
			return &AmbiguityError{Path: component}
		}
		chosen := candidates[0]
		resolution := ComponentResolution{Component: component, Module: chosen}
		if len(candidates) > 1 {
			resolution.Discarded = candidates[1:]
			trace.Ambiguities++
			v.cfg.diagnostics.LogAmbiguity(AmbiguityEvent{
				Vehicle:    v.Name(),
				Descriptor: descriptor,
				Component:  component,
				Chosen:     chosen,
				Discarded:  resolution.Discarded,
			})
		}
		trace.Components = append(trace.Components, resolution)

		raw, err := v.moduleRecord(chosen)
		if err != nil {
			return err
		}
		modules[component] = v.cfg.factories.Build(component, chosen, raw, v)
	}

	// effects on the vehicle's own record survive the module swap, so every
	// tracked source is reversed first and re-applied against the fresh set
	for i := len(v.tracked) - 1; i >= 0; i-- {
		modifiers := v.tracked[i].modifiers
		for j := len(modifiers) - 1; j >= 0; j-- {
			inverted, err := modifiers[j].Invert()
			if err != nil {
				return err
			}
			if err := inverted.ApplyTo(v); err != nil {
				return err
			}
		}
	}

	v.modules = modules
	v.trace = trace

	for _, tracked := range v.tracked {
		for _, m := range tracked.modifiers {
			if err := m.ApplyTo(v); err != nil {
				return err
			}
		}
	}

	v.emit(activity.BuildModulesSelectedEvent(activity.Input{
		Vehicle:    v.Name(),
		Descriptor: descriptor,
		Metadata:   map[string]any{"ambiguities": trace.Ambiguities},
	}))
	return nil
}

// moduleRecord clones the named module's pristine record for a fresh build.
func (v *Vehicle) moduleRecord(name string) (map[string]any, error) {
	switch record := v.pristine[name].(type) {
	case map[string]any:
		return cloneRecord(record), nil
	case *Record:
		return cloneRecord(record.Raw()), nil
	default:
		return nil, typeMismatch("select modules", "module %q has no record", name)
	}
}

// SetCaptain assigns a captain, reversing the previous captain's effects
// first. A nil captain just removes the current one.
func (v *Vehicle) SetCaptain(captain *Captain) error {
	if v.captain != nil {
		if err := v.retractSource(kindCaptain, v.captain.Name()); err != nil {
			return err
		}
		v.captain = nil
	}
	if captain == nil {
		return nil
	}
	if err := v.applySource(kindCaptain, captain.Name(), captain.modifiers(v, v.cfg.index)); err != nil {
		return err
	}
	v.captain = captain
	return nil
}

// SetCamouflage equips a cosmetic skin. Returns false without error when the
// camouflage is not eligible for this vehicle; eligibility is the only gate.
// A nil camouflage removes the current one.
func (v *Vehicle) SetCamouflage(camouflage *Camouflage) (bool, error) {
	if v.camouflage != nil {
		if err := v.retractSource(kindCamouflage, v.camouflage.Name()); err != nil {
			return false, err
		}
		v.camouflage = nil
	}
	if camouflage == nil {
		return true, nil
	}
	if !camouflage.EligibleFor(v) {
		return false, nil
	}
	if err := v.applySource(kindCamouflage, camouflage.Name(), modifiersFor(camouflage.Raw(), v.cfg.index)); err != nil {
		return false, err
	}
	v.camouflage = camouflage
	return true, nil
}

// Hoist raises a signal flag. Re-hoisting an already-hoisted flag is a
// no-op reported as false.
func (v *Vehicle) Hoist(signal *Signal) (bool, error) {
	if signal == nil {
		return false, typeMismatch("hoist", "nil signal")
	}
	for _, hoisted := range v.signals {
		if hoisted.Name() == signal.Name() {
			return false, nil
		}
	}
	if err := v.applySource(kindSignal, signal.Name(), modifiersFor(signal.Raw(), v.cfg.index)); err != nil {
		return false, err
	}
	v.signals = append(v.signals, signal)
	return true, nil
}

// Lower strikes a hoisted signal flag. Lowering a flag that was never
// hoisted returns false, no error.
func (v *Vehicle) Lower(signal *Signal) (bool, error) {
	if signal == nil {
		return false, typeMismatch("lower", "nil signal")
	}
	for i, hoisted := range v.signals {
		if hoisted.Name() == signal.Name() {
			if err := v.retractSource(kindSignal, signal.Name()); err != nil {
				return false, err
			}
			v.signals = append(v.signals[:i], v.signals[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// EquipModernization mounts an upgrade. Re-equipping an already-equipped
// modernization is a no-op reported as false, as is an ineligible one.
func (v *Vehicle) EquipModernization(modernization *Modernization) (bool, error) {
	if modernization == nil {
		return false, typeMismatch("equip modernization", "nil modernization")
	}
	for _, equipped := range v.modernizations {
		if equipped.Name() == modernization.Name() {
			return false, nil
		}
	}
	if !modernization.EligibleFor(v) {
		return false, nil
	}
	if err := v.applySource(kindModernization, modernization.Name(), modifiersFor(modernization.Raw(), v.cfg.index)); err != nil {
		return false, err
	}
	v.modernizations = append(v.modernizations, modernization)
	return true, nil
}

// UnequipModernization removes an upgrade. Unequipping something never
// equipped returns false, no error.
func (v *Vehicle) UnequipModernization(modernization *Modernization) (bool, error) {
	if modernization == nil {
		return false, typeMismatch("unequip modernization", "nil modernization")
	}
	for i, equipped := range v.modernizations {
		if equipped.Name() == modernization.Name() {
			if err := v.retractSource(kindModernization, modernization.Name()); err != nil {
				return false, err
			}
			v.modernizations = append(v.modernizations[:i], v.modernizations[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// applySource applies a source's modifiers and tracks it. Set-mode modifiers
// are refused before any effect is applied because they cannot be undone
// when the source is removed later.
func (v *Vehicle) applySource(kind sourceKind, key string, modifiers []Modifier) error {
	for _, m := range modifiers {
		if m.Mode == ModeSet {
			return typeMismatch("equip "+kind.String(), "modifier %q is set-mode and cannot be undone later", m.Key)
		}
	}
	for _, m := range modifiers {
		if err := m.ApplyTo(v); err != nil {
			return err
		}
	}
	v.tracked = append(v.tracked, trackedSource{kind: kind, key: key, modifiers: modifiers})
	v.emit(activity.BuildSourceEquippedEvent(activity.Input{
		Vehicle:    v.Name(),
		SourceKind: kind.String(),
		SourceKey:  key,
	}))
	return nil
}

// retractSource undoes a tracked source's effects via its own inverted
// modifiers and forgets it. Unknown sources are ignored.
func (v *Vehicle) retractSource(kind sourceKind, key string) error {
	for i, tracked := range v.tracked {
		if tracked.kind != kind || tracked.key != key {
			continue
		}
		for j := len(tracked.modifiers) - 1; j >= 0; j-- {
			inverted, err := tracked.modifiers[j].Invert()
			if err != nil {
				return err
			}
			if err := inverted.ApplyTo(v); err != nil {
				return err
			}
		}
		v.tracked = append(v.tracked[:i], v.tracked[i+1:]...)
		v.emit(activity.BuildSourceRemovedEvent(activity.Input{
			Vehicle:    v.Name(),
			SourceKind: kind.String(),
			SourceKey:  key,
		}))
		return nil
	}
	return nil
}

func (v *Vehicle) emit(event activity.Event) {
	if !v.cfg.hooks.Enabled() {
		return
	}
	// lifecycle events are best-effort; hook failures never fail the
	// operation that triggered them
	_ = v.cfg.hooks.Notify(context.Background(), event)
}

func intersect(a, b []string) []string {
	keep := make(map[string]bool, len(b))
	for _, s := range b {
		keep[s] = true
	}
	var out []string
	for _, s := range a {
		if keep[s] {
			out = append(out, s)
		}
	}
	return out
}
