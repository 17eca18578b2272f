package loadout

import "fmt"

// PathError reports a malformed path string. It signals a programming error
// on the caller's side and is never retried.
type PathError struct {
	Path    string
	Segment string
	Reason  string
}

func (e *PathError) Error() string {
	if e == nil {
		return "<nil>"
	}
	where := e.Path
	if where == "" {
		where = e.Segment
	}
	return fmt.Sprintf("loadout: invalid path %q: %s", where, e.Reason)
}

// AmbiguityError reports that a collated lookup matched multiple divergent
// values. Values holds every distinct match.
type AmbiguityError struct {
	Path   string
	Values []any
}

func (e *AmbiguityError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Values) == 0 {
		return fmt.Sprintf("loadout: %q resolved to no candidates", e.Path)
	}
	return fmt.Sprintf("loadout: path %q matched %d divergent values", e.Path, len(e.Values))
}

// TypeMismatchError reports a value or argument of the wrong shape: a
// malformed descriptor clause, a non-numeric modifier operand, an attempt to
// invert a set-mode modifier, and similar.
type TypeMismatchError struct {
	Op     string
	Detail string
}

func (e *TypeMismatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("loadout: %s: %s", e.Op, e.Detail)
}

func typeMismatch(op, format string, args ...any) *TypeMismatchError {
	return &TypeMismatchError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
