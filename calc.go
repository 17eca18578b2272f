package loadout

import "time"

// CalcContext carries the inputs available to a modifier calculation
// expression: the raw base value and a snapshot of the vehicle it is being
// applied to.
type CalcContext struct {
	Base      any
	Subject   map[string]any
	Args      map[string]any
	Metadata  map[string]any
	Now       *time.Time
	SourceKey string
}

func (ctx CalcContext) withDefaults() CalcContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Subject == nil {
		ctx.Subject = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx CalcContext) timestamp() time.Time {
	ctx = ctx.withDefaults()
	return *ctx.Now
}

func (ctx CalcContext) sourceLabel() string {
	if ctx.SourceKey != "" {
		return ctx.SourceKey
	}
	return "unknown"
}

// CalcEngine executes calculation expressions against a CalcContext. All
// engines expose the variables base, vehicle, now, args and metadata.
type CalcEngine interface {
	Evaluate(ctx CalcContext, expression string) (any, error)
	Compile(expression string, opts ...CompileOption) (CompiledCalc, error)
}

// CompiledCalc is a reusable compiled calculation program.
type CompiledCalc interface {
	Evaluate(ctx CalcContext) (any, error)
}

// CompileOption configures engine compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}
