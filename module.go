package loadout

// EquipmentModule is a record wrapper tagged with its component category and
// a non-owning reference back to the vehicle it is mounted on. Modules are
// rebuilt fresh from the pristine record on every selection change.
type EquipmentModule struct {
	*Record
	category string
	name     string
	vehicle  *Vehicle
}

// NewEquipmentModule wraps raw as the module for category. The raw record is
// owned by the module.
func NewEquipmentModule(category, name string, raw map[string]any, vehicle *Vehicle) *EquipmentModule {
	return &EquipmentModule{
		Record:   NewRecord(raw),
		category: category,
		name:     name,
		vehicle:  vehicle,
	}
}

// Category returns the component category this module fills.
func (m *EquipmentModule) Category() string {
	return m.category
}

// Name returns the module's key in the source record.
func (m *EquipmentModule) Name() string {
	return m.name
}

// Vehicle returns the vehicle this module is mounted on.
func (m *EquipmentModule) Vehicle() *Vehicle {
	return m.vehicle
}

// ModuleFactory builds one equipment module from its cloned raw record.
type ModuleFactory func(category, name string, raw map[string]any, vehicle *Vehicle) *EquipmentModule

// ModuleKind is the (type, species) discriminator pair read from a module
// record's typeinfo entry.
type ModuleKind struct {
	Type    string
	Species string
}

// ModuleFactories is the closed lookup table from record discriminators to
// module constructors. Unmatched kinds fall back to the default factory.
type ModuleFactories struct {
	table    map[ModuleKind]ModuleFactory
	fallback ModuleFactory
}

// FactoriesOption configures a ModuleFactories table.
type FactoriesOption func(*ModuleFactories)

// FactoryFor registers factory for kind.
func FactoryFor(kind ModuleKind, factory ModuleFactory) FactoriesOption {
	return func(f *ModuleFactories) {
		if factory != nil {
			f.table[kind] = factory
		}
	}
}

// FallbackFactory replaces the default factory.
func FallbackFactory(factory ModuleFactory) FactoriesOption {
	return func(f *ModuleFactories) {
		if factory != nil {
			f.fallback = factory
		}
	}
}

// NewModuleFactories builds a factory table. Without options every module is
// built by NewEquipmentModule.
func NewModuleFactories(opts ...FactoriesOption) *ModuleFactories {
	f := &ModuleFactories{
		table:    make(map[ModuleKind]ModuleFactory),
		fallback: NewEquipmentModule,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Build constructs the module for raw, dispatching on its typeinfo entry.
func (f *ModuleFactories) Build(category, name string, raw map[string]any, vehicle *Vehicle) *EquipmentModule {
	factory := f.fallback
	if kind, ok := moduleKindOf(raw); ok {
		if registered, ok := f.table[kind]; ok {
			factory = registered
		}
	}
	return factory(category, name, raw, vehicle)
}

func moduleKindOf(raw map[string]any) (ModuleKind, bool) {
	typeinfo, ok := raw["typeinfo"].(map[string]any)
	if !ok {
		return ModuleKind{}, false
	}
	kind := ModuleKind{}
	if t, ok := typeinfo["type"].(string); ok {
		kind.Type = t
	}
	if s, ok := typeinfo["species"].(string); ok {
		kind.Species = s
	}
	return kind, kind != ModuleKind{}
}
