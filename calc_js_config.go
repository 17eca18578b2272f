package loadout

type jsCalcConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSCalcOption configures the JS calc engine.
type JSCalcOption func(*jsCalcConfig)

// JSWithProgramCache applies a ProgramCache to the JS engine.
func JSWithProgramCache(cache ProgramCache) JSCalcOption {
	return func(cfg *jsCalcConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry applies a FunctionRegistry to the JS engine.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSCalcOption {
	return func(cfg *jsCalcConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyJSCalcOptions(opts []JSCalcOption) jsCalcConfig {
	cfg := jsCalcConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
