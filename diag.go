package loadout

// AmbiguityEvent describes one deterministically resolved component
// ambiguity for diagnostics.
type AmbiguityEvent struct {
	Vehicle    string
	Descriptor string
	Component  string
	Chosen     string
	Discarded  []string
}

// DiagnosticsLogger receives ambiguity diagnostics. The resolution itself is
// never an error; source data is occasionally genuinely ambiguous and a
// usable configuration must still result.
type DiagnosticsLogger interface {
	LogAmbiguity(AmbiguityEvent)
}

// DiagnosticsFunc adapts a function to DiagnosticsLogger.
type DiagnosticsFunc func(AmbiguityEvent)

// LogAmbiguity implements DiagnosticsLogger.
func (f DiagnosticsFunc) LogAmbiguity(event AmbiguityEvent) {
	if f != nil {
		f(event)
	}
}

type noopDiagnostics struct{}

func (noopDiagnostics) LogAmbiguity(AmbiguityEvent) {}
