package loadout

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprCalcOption configures an expr calc engine instance.
type ExprCalcOption func(*exprCalcEngine)

// ExprWithProgramCache wires a ProgramCache into the expr engine.
func ExprWithProgramCache(cache ProgramCache) ExprCalcOption {
	return func(e *exprCalcEngine) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr engine.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprCalcOption {
	return func(e *exprCalcEngine) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// exprCalcEngine executes calculation expressions using expr-lang/expr.
type exprCalcEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprCalc constructs the default CalcEngine backed by expr-lang/expr.
func NewExprCalc(opts ...ExprCalcOption) CalcEngine {
	e := &exprCalcEngine{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Evaluate compiles and runs expression against ctx.
func (e *exprCalcEngine) Evaluate(ctx CalcContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEngineError("expr", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	env := e.environment(ctx)
	if e.cache == nil {
		result, err := exprlang.Eval(expression, env)
		if err != nil {
			return nil, wrapCalcError("expr", expression, ctx.sourceLabel(), err)
		}
		return result, nil
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapCalcError("expr", expression, ctx.sourceLabel(), err)
	}
	return result, nil
}

// Compile returns a compiled calculation evaluated per invocation.
func (e *exprCalcEngine) Compile(expression string, _ ...CompileOption) (CompiledCalc, error) {
	if expression == "" {
		return nil, wrapEngineError("expr", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiledCalc{
		engine:     e,
		program:    program,
		expression: expression,
	}, nil
}

func (e *exprCalcEngine) loadOrCompile(expression string) (*exprvm.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.registryNames() {
		fn := e.registryFunction(name)
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapCalcError("expr", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

type exprCompiledCalc struct {
	engine     *exprCalcEngine
	program    *exprvm.Program
	expression string
}

func (c *exprCompiledCalc) Evaluate(ctx CalcContext) (any, error) {
	if c.engine == nil {
		return nil, wrapEngineError("expr", fmt.Errorf("compiled calc missing engine"))
	}
	ctx = ctx.withDefaults()
	if c.program == nil {
		return c.engine.Evaluate(ctx, c.expression)
	}
	env := c.engine.environment(ctx)
	result, err := exprlang.Run(c.program, env)
	if err != nil {
		return nil, wrapCalcError("expr", c.expression, ctx.sourceLabel(), err)
	}
	return result, nil
}

func (e *exprCalcEngine) environment(ctx CalcContext) map[string]any {
	env := map[string]any{
		"base":     ctx.Base,
		"vehicle":  ctx.Subject,
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
	}
	if e.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
		for _, name := range e.registry.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			}
		}
	}
	return env
}

func (e *exprCalcEngine) registryNames() []string {
	if e == nil || e.registry == nil {
		return nil
	}
	return e.registry.Names()
}

func (e *exprCalcEngine) registryFunction(name string) func(...any) (any, error) {
	if e == nil || e.registry == nil {
		return nil
	}
	return func(arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}
}
