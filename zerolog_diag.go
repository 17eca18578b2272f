package loadout

import "github.com/rs/zerolog"

// ZerologDiagnostics adapts a zerolog.Logger to DiagnosticsLogger.
type ZerologDiagnostics struct {
	logger zerolog.Logger
}

// NewZerologDiagnostics wraps logger.
func NewZerologDiagnostics(logger zerolog.Logger) *ZerologDiagnostics {
	return &ZerologDiagnostics{logger: logger}
}

// LogAmbiguity emits one warning per deterministically resolved ambiguity.
func (d *ZerologDiagnostics) LogAmbiguity(event AmbiguityEvent) {
	d.logger.Warn().
		Str("vehicle", event.Vehicle).
		Str("descriptor", event.Descriptor).
		Str("component", event.Component).
		Str("chosen", event.Chosen).
		Strs("discarded", event.Discarded).
		Msg("ambiguous component resolution")
}
