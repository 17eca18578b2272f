package loadout

// TargetSpec describes one target path a well-known source-data key maps to.
// Calc and Expr are optional; Expr is compiled by the index's engine and wins
// over the default calculation, Calc wins over both.
type TargetSpec struct {
	Path string
	Mode Mode
	Calc CalcFunc
	Expr string
}

// ModifierIndex is the static table from well-known source-data keys to
// target specs. It is immutable after construction and injected into each
// Vehicle, never shared process state.
type ModifierIndex struct {
	targets map[string][]TargetSpec
	engine  CalcEngine
	logger  CalcLogger
}

// IndexOption configures a ModifierIndex.
type IndexOption func(*ModifierIndex)

// IndexWithEngine sets the engine compiling expression-backed calculations.
func IndexWithEngine(engine CalcEngine) IndexOption {
	return func(ix *ModifierIndex) {
		if engine != nil {
			ix.engine = engine
		}
	}
}

// IndexWithCalcLogger records every expression evaluation the index performs.
func IndexWithCalcLogger(logger CalcLogger) IndexOption {
	return func(ix *ModifierIndex) {
		if logger == nil {
			ix.logger = noopCalcLogger{}
			return
		}
		ix.logger = logger
	}
}

// NewModifierIndex copies entries into an immutable index.
func NewModifierIndex(entries map[string][]TargetSpec, opts ...IndexOption) *ModifierIndex {
	ix := &ModifierIndex{
		targets: make(map[string][]TargetSpec, len(entries)),
		engine:  NewExprCalc(ExprWithProgramCache(NewMemoryProgramCache())),
		logger:  noopCalcLogger{},
	}
	for key, specs := range entries {
		ix.targets[key] = append([]TargetSpec(nil), specs...)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ix)
		}
	}
	return ix
}

// From returns one Modifier per target path registered for key, or nil when
// the key is unknown. Callers filter out unknown keys this way.
func (ix *ModifierIndex) From(key string, raw any) []Modifier {
	specs, ok := ix.targets[key]
	if !ok {
		return nil
	}
	modifiers := make([]Modifier, 0, len(specs))
	for _, spec := range specs {
		m := Modifier{
			Key:    key,
			Target: spec.Path,
			Base:   raw,
			Mode:   spec.Mode,
			calc:   spec.Calc,
		}
		if m.calc == nil && spec.Expr != "" {
			m.calc = ix.exprCalc(key, spec.Expr)
		}
		modifiers = append(modifiers, m)
	}
	return modifiers
}

// Knows reports whether key has registered targets.
func (ix *ModifierIndex) Knows(key string) bool {
	_, ok := ix.targets[key]
	return ok
}

func (ix *ModifierIndex) exprCalc(key, source string) CalcFunc {
	return func(v *Vehicle, base any) (float64, error) {
		ctx := CalcContext{
			Base:      base,
			SourceKey: key,
		}
		if v != nil {
			ctx.Subject = v.snapshot()
		}
		out, err := ix.engine.Evaluate(ctx, source)
		ix.logger.LogCalc(CalcLogEvent{
			Engine: engineName(ix.engine),
			Expr:   source,
			Source: key,
			Err:    err,
		})
		if err != nil {
			return 0, err
		}
		f, ok := toFloat(out)
		if !ok {
			return 0, typeMismatch("calc", "expression %q produced %v (%T), want number", source, out, out)
		}
		return f, nil
	}
}

func engineName(engine CalcEngine) string {
	switch engine.(type) {
	case *exprCalcEngine:
		return "expr"
	case *celCalcEngine:
		return "cel"
	default:
		return "custom"
	}
}

// DefaultModifierIndex covers the well-known game-parameter coefficient keys.
// The per-class entries rely on the default calculation; healthPerTier shows
// an expression-backed additive bonus.
func DefaultModifierIndex(opts ...IndexOption) *ModifierIndex {
	return NewModifierIndex(map[string][]TargetSpec{
		"GMShotDelay":       {{Path: "artillery.mounts.*.shotDelay"}},
		"GMRotationSpeed":   {{Path: "artillery.mounts.*.rotationSpeed"}},
		"GMMaxDist":         {{Path: "artillery.maxDist"}},
		"GTShotDelay":       {{Path: "torpedoes.mounts.*.shotDelay"}},
		"GTMaxDist":         {{Path: "torpedoes.maxDist"}},
		"burnChanceBonus":   {{Path: "artillery.burnProbability", Mode: ModeAdd}},
		"visibilityFactor":  {{Path: "hull.visibilityFactor"}},
		"rudderTimeCoeff":   {{Path: "hull.rudderTime"}},
		"healthCoeff":       {{Path: "hull.maxHealth"}},
		"healthPerTier":     {{Path: "hull.maxHealth", Mode: ModeAdd, Expr: "base * vehicle.tier"}},
		"engineUpTimeCoeff": {{Path: "engine.upTime"}},
		"speedCoeff":        {{Path: "engine.maxSpeed"}},
		"workTimeCoeff":     {{Path: "consumables.*.workTime"}},
		"reloadTimeCoeff":   {{Path: "consumables.*.reloadTime"}},
		"sonarWorkRadius":   {{Path: "fireControl.sonarRadius"}},
	}, opts...)
}
