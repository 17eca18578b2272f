package loadout

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELCalcOption configures the CEL calc engine.
type CELCalcOption func(*celCalcEngine)

// CELWithProgramCache wires a ProgramCache into the CEL engine.
func CELWithProgramCache(cache ProgramCache) CELCalcOption {
	return func(e *celCalcEngine) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL engine.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELCalcOption {
	return func(e *celCalcEngine) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celCalcEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELCalc constructs a CalcEngine backed by cel-go.
func NewCELCalc(opts ...CELCalcOption) CalcEngine {
	e := &celCalcEngine{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celCalcEngine) Evaluate(ctx CalcContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEngineError("cel", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(e.activation(ctx))
	if err != nil {
		return nil, wrapCalcError("cel", expression, ctx.sourceLabel(), err)
	}
	return out.Value(), nil
}

func (e *celCalcEngine) Compile(expression string, _ ...CompileOption) (CompiledCalc, error) {
	if expression == "" {
		return nil, wrapEngineError("cel", fmt.Errorf("expression must not be empty"))
	}
	if _, err := e.loadOrCompile(expression); err != nil {
		return nil, err
	}
	return &celCompiledCalc{
		engine:     e,
		expression: expression,
	}, nil
}

func (e *celCalcEngine) loadOrCompile(expression string) (*celProgram, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, wrapCalcError("cel", expression, "", err)
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapCalcError("cel", expression, "", issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, wrapCalcError("cel", expression, "", issues.Err())
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, wrapCalcError("cel", expression, "", err)
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if e.cache != nil {
		e.cache.Set(expression, bundle)
	}
	return bundle, nil
}

func (e *celCalcEngine) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("base", celgo.DynType),
		celgo.Variable("vehicle", celgo.DynType),
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
	}
	if e.registry != nil {
		// one overload per supported arity; CEL has no var-arg declarations
		binding := celgo.FunctionBinding(e.callBinding())
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string",
				[]*celgo.Type{celgo.StringType},
				celgo.DynType, binding),
			celgo.Overload("call_string_dyn",
				[]*celgo.Type{celgo.StringType, celgo.DynType},
				celgo.DynType, binding),
			celgo.Overload("call_string_dyn_dyn",
				[]*celgo.Type{celgo.StringType, celgo.DynType, celgo.DynType},
				celgo.DynType, binding),
		))
	}
	return celgo.NewEnv(opts...)
}

// activation binds the context variables; the registry is reached through
// the env-declared call function, not the activation.
func (e *celCalcEngine) activation(ctx CalcContext) map[string]any {
	return map[string]any{
		"base":     ctx.Base,
		"vehicle":  ctx.Subject,
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
	}
}

type celCompiledCalc struct {
	engine     *celCalcEngine
	expression string
}

func (c *celCompiledCalc) Evaluate(ctx CalcContext) (any, error) {
	if c.engine == nil {
		return nil, wrapEngineError("cel", fmt.Errorf("compiled calc missing engine"))
	}
	return c.engine.Evaluate(ctx, c.expression)
}

func (e *celCalcEngine) callBinding() functions.FunctionOp {
	return func(values ...ref.Val) ref.Val {
		if e.registry == nil {
			return types.NewErr("loadout: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("loadout: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("loadout: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
