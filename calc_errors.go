package loadout

import (
	"errors"
	"fmt"
	"strings"
)

// CalcError captures engine metadata alongside the originating error of a
// failed calculation.
type CalcError struct {
	Engine string
	Expr   string
	Source string
	Err    error
}

func (e *CalcError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("loadout: %s calc %s source=%s: %v", e.Engine, describeExpression(e.Expr), e.Source, e.Err)
}

func (e *CalcError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEngineError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var calcErr *CalcError
	if errors.As(err, &calcErr) {
		return err
	}
	if strings.HasPrefix(err.Error(), "loadout:") {
		return err
	}
	return fmt.Errorf("loadout: %s calc: %w", engine, err)
}

func wrapCalcError(engine, expr, source string, err error) error {
	if err == nil {
		return nil
	}

	var calcErr *CalcError
	if errors.As(err, &calcErr) {
		if calcErr.Engine == "" {
			calcErr.Engine = engine
		}
		if calcErr.Expr == "" {
			calcErr.Expr = expr
		}
		if calcErr.Source == "" {
			calcErr.Source = source
		}
		return calcErr
	}

	return &CalcError{
		Engine: engine,
		Expr:   expr,
		Source: source,
		Err:    err,
	}
}
