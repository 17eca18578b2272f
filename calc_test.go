package loadout

import (
	"math"
	"testing"
	"time"
)

var calcEngineFactories = []struct {
	name string
	new  func(cache ProgramCache, registry *FunctionRegistry) CalcEngine
}{
	{
		name: "expr",
		new: func(cache ProgramCache, registry *FunctionRegistry) CalcEngine {
			opts := []ExprCalcOption{}
			if cache != nil {
				opts = append(opts, ExprWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, ExprWithFunctionRegistry(registry))
			}
			return NewExprCalc(opts...)
		},
	},
	{
		name: "cel",
		new: func(cache ProgramCache, registry *FunctionRegistry) CalcEngine {
			opts := []CELCalcOption{}
			if cache != nil {
				opts = append(opts, CELWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, CELWithFunctionRegistry(registry))
			}
			return NewCELCalc(opts...)
		},
	},
}

func assertNumber(t *testing.T, value any, want float64) {
	t.Helper()
	f, ok := toFloat(value)
	if !ok {
		t.Fatalf("result %v (%T) is not numeric", value, value)
	}
	if math.Abs(f-want) > 1e-9 {
		t.Fatalf("unexpected result: %v, want %v", f, want)
	}
}

func TestCalcEnginesEvaluateBaseAndVehicle(t *testing.T) {
	for _, factory := range calcEngineFactories {
		t.Run(factory.name, func(t *testing.T) {
			engine := factory.new(nil, nil)
			ctx := CalcContext{
				Base:    250.0,
				Subject: map[string]any{"tier": 8.0, "class": "Cruiser"},
			}
			out, err := engine.Evaluate(ctx, "base * vehicle.tier")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertNumber(t, out, 2000.0)
		})
	}
}

func TestCalcEnginesRejectEmptyExpression(t *testing.T) {
	for _, factory := range calcEngineFactories {
		t.Run(factory.name, func(t *testing.T) {
			engine := factory.new(nil, nil)
			if _, err := engine.Evaluate(CalcContext{}, ""); err == nil {
				t.Fatalf("expected error for empty expression")
			}
			if _, err := engine.Compile(""); err == nil {
				t.Fatalf("expected error for empty expression")
			}
		})
	}
}

func TestCalcEnginesCompileAndReuse(t *testing.T) {
	for _, factory := range calcEngineFactories {
		t.Run(factory.name, func(t *testing.T) {
			cache := NewMemoryProgramCache()
			engine := factory.new(cache, nil)

			compiled, err := engine.Compile("base * 2.0")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, ok := cache.Get("base * 2.0"); !ok {
				t.Fatalf("compiled program not cached")
			}

			out, err := compiled.Evaluate(CalcContext{Base: 21.0})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertNumber(t, out, 42.0)

			out, err = compiled.Evaluate(CalcContext{Base: 5.0})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertNumber(t, out, 10.0)
		})
	}
}

func TestCalcEnginesCallRegisteredFunctions(t *testing.T) {
	for _, factory := range calcEngineFactories {
		t.Run(factory.name, func(t *testing.T) {
			registry := NewFunctionRegistry()
			err := registry.Register("double", func(args ...any) (any, error) {
				f, _ := toFloat(args[0])
				return f * 2, nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			err = registry.Register("sum", func(args ...any) (any, error) {
				total := 0.0
				for _, arg := range args {
					f, _ := toFloat(arg)
					total += f
				}
				return total, nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			engine := factory.new(nil, registry)
			out, err := engine.Evaluate(CalcContext{}, `call("double", 21.0)`)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertNumber(t, out, 42.0)

			out, err = engine.Evaluate(CalcContext{}, `call("sum", 20.0, 22.0)`)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertNumber(t, out, 42.0)
		})
	}
}

func TestCalcContextDefaults(t *testing.T) {
	ctx := CalcContext{}.withDefaults()
	if ctx.Now == nil || ctx.Now.IsZero() {
		t.Fatalf("expected Now to default")
	}
	if ctx.Subject == nil || ctx.Args == nil || ctx.Metadata == nil {
		t.Fatalf("expected empty collections to default")
	}

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	pinned := CalcContext{Now: &now}
	if got := pinned.timestamp(); !got.Equal(now) {
		t.Fatalf("pinned timestamp not honoured: %v", got)
	}

	if (CalcContext{}).sourceLabel() != "unknown" {
		t.Fatalf("expected unknown source label")
	}
	if (CalcContext{SourceKey: "speedCoeff"}).sourceLabel() != "speedCoeff" {
		t.Fatalf("expected source key label")
	}
}

func TestFunctionRegistry(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("", func(...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if err := registry.Register("nilFn", nil); err == nil {
		t.Fatalf("expected error for nil function")
	}
	if err := registry.Register("answer", func(...any) (any, error) { return 42, nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := registry.Register("answer", func(...any) (any, error) { return 0, nil }); err == nil {
		t.Fatalf("expected duplicate registration error")
	}

	out, err := registry.Call("answer")
	if err != nil || out != 42 {
		t.Fatalf("unexpected call result: %v %v", out, err)
	}
	if _, err := registry.Call("missing"); err == nil {
		t.Fatalf("expected error for unregistered function")
	}

	clone := registry.Clone()
	if err := clone.Register("extra", func(...any) (any, error) { return nil, nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(registry.Names()) != 1 {
		t.Fatalf("clone registration leaked into the original: %v", registry.Names())
	}
}

func TestJSCalcAvailability(t *testing.T) {
	if jsCalcAvailable() {
		if NewJSCalc() == nil {
			t.Fatalf("expected a JS engine when the build tag is set")
		}
		return
	}
	if NewJSCalc() != nil {
		t.Fatalf("expected nil engine without the build tag")
	}
}

func TestMemoryProgramCache(t *testing.T) {
	cache := NewMemoryProgramCache()
	if _, ok := cache.Get("missing"); ok {
		t.Fatalf("unexpected hit on an empty cache")
	}
	cache.Set("expr", "program")
	value, ok := cache.Get("expr")
	if !ok || value != "program" {
		t.Fatalf("unexpected cached value: %v %v", value, ok)
	}
}
