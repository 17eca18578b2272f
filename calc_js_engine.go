//go:build js_calc

package loadout

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsCalcEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSCalc constructs a CalcEngine backed by goja.
func NewJSCalc(opts ...JSCalcOption) CalcEngine {
	cfg := applyJSCalcOptions(opts)
	return &jsCalcEngine{
		cache:    cfg.cache,
		registry: cfg.registry,
	}
}

func (e *jsCalcEngine) Evaluate(ctx CalcContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEngineError("js", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	if e.cache == nil {
		return e.run(ctx, expression, nil)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

func (e *jsCalcEngine) Compile(expression string, _ ...CompileOption) (CompiledCalc, error) {
	if expression == "" {
		return nil, wrapEngineError("js", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &jsCompiledCalc{
		engine:     e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *jsCalcEngine) loadOrCompile(expression string) (*goja.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", e.wrapExpression(expression), false)
	if err != nil {
		return nil, wrapCalcError("js", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func (e *jsCalcEngine) run(ctx CalcContext, expression string, program *goja.Program) (any, error) {
	vm := goja.New()
	e.injectContext(vm, ctx)
	if program != nil {
		value, err := vm.RunProgram(program)
		if err != nil {
			return nil, wrapCalcError("js", expression, ctx.sourceLabel(), err)
		}
		return value.Export(), nil
	}
	value, err := vm.RunString(e.wrapExpression(expression))
	if err != nil {
		return nil, wrapCalcError("js", expression, ctx.sourceLabel(), err)
	}
	return value.Export(), nil
}

func (e *jsCalcEngine) injectContext(vm *goja.Runtime, ctx CalcContext) {
	vm.Set("base", ctx.Base)
	vm.Set("vehicle", ctx.Subject)
	vm.Set("now", ctx.timestamp())
	vm.Set("args", ctx.Args)
	vm.Set("metadata", ctx.Metadata)
	if e.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		})
		for _, name := range e.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			})
		}
	}
}

func (e *jsCalcEngine) wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsCompiledCalc struct {
	engine     *jsCalcEngine
	expression string
	program    *goja.Program
}

func (c *jsCompiledCalc) Evaluate(ctx CalcContext) (any, error) {
	if c.engine == nil {
		return nil, wrapEngineError("js", fmt.Errorf("compiled calc missing engine"))
	}
	ctx = ctx.withDefaults()
	return c.engine.run(ctx, c.expression, c.program)
}

func jsCalcAvailable() bool {
	return true
}
