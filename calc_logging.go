package loadout

import "time"

// CalcLogEvent describes one calculation attempt for logging.
type CalcLogEvent struct {
	Engine   string
	Expr     string
	Source   string
	Duration time.Duration
	Err      error
}

// CalcLogger records calculation events.
type CalcLogger interface {
	LogCalc(CalcLogEvent)
}

// CalcLoggerFunc adapts a function to CalcLogger.
type CalcLoggerFunc func(CalcLogEvent)

// LogCalc implements CalcLogger.
func (f CalcLoggerFunc) LogCalc(event CalcLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopCalcLogger struct{}

func (noopCalcLogger) LogCalc(CalcLogEvent) {}
