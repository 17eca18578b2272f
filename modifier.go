package loadout

// Mode selects how a modifier combines its calculated value with the target.
type Mode int

const (
	// ModeMultiply scales the target by the calculated value.
	ModeMultiply Mode = iota
	// ModeAdd offsets the target by the calculated value.
	ModeAdd
	// ModeSet overwrites the target. Set-mode modifiers have no inverse.
	ModeSet
)

func (m Mode) String() string {
	switch m {
	case ModeMultiply:
		return "multiply"
	case ModeAdd:
		return "add"
	case ModeSet:
		return "set"
	default:
		return "unknown"
	}
}

// CalcFunc turns a modifier's base value into the concrete numeric operand
// for one vehicle. Implementations must be deterministic for a given vehicle
// state so that re-application after a substrate swap reproduces the same
// effect.
type CalcFunc func(v *Vehicle, base any) (float64, error)

// Modifier is an immutable, invertible description of one change to one
// target path. Modifiers hold no state and may be shared across vehicles.
type Modifier struct {
	Key    string
	Target string
	Base   any
	Mode   Mode
	calc   CalcFunc
}

// NewModifier constructs a modifier with the default calculation and mode.
func NewModifier(key, target string, base any) Modifier {
	return Modifier{Key: key, Target: target, Base: base, Mode: ModeMultiply}
}

// WithCalc returns a copy using fn as its calculation.
func (m Modifier) WithCalc(fn CalcFunc) Modifier {
	m.calc = fn
	return m
}

// WithMode returns a copy using mode.
func (m Modifier) WithMode(mode Mode) Modifier {
	m.Mode = mode
	return m
}

// Value resolves the concrete operand for v.
func (m Modifier) Value(v *Vehicle) (float64, error) {
	calc := m.calc
	if calc == nil {
		calc = defaultCalc
	}
	return calc(v, m.Base)
}

// ApplyTo applies the modifier to v. A modifier without a target is a no-op.
func (m Modifier) ApplyTo(v *Vehicle, opts ...CallOption) error {
	if m.Target == "" {
		return nil
	}
	value, err := m.Value(v)
	if err != nil {
		return err
	}
	switch m.Mode {
	case ModeMultiply:
		return v.Multiply(m.Target, value, opts...)
	case ModeAdd:
		return v.applyFunc(m.Target, func(current any) (any, error) {
			f, ok := toFloat(current)
			if !ok {
				return nil, typeMismatch("add", "path %q: %v (%T) is not numeric", m.Target, current, current)
			}
			return f + value, nil
		}, opts)
	case ModeSet:
		return v.Set(m.Target, value, opts...)
	default:
		return typeMismatch("apply modifier", "unknown mode %d", int(m.Mode))
	}
}

// Invert returns a modifier that exactly undoes this one: reciprocal for
// multiply, negation for add. Set-mode modifiers are not invertible.
func (m Modifier) Invert() (Modifier, error) {
	base := m
	switch m.Mode {
	case ModeMultiply:
		return m.WithCalc(func(v *Vehicle, _ any) (float64, error) {
			value, err := base.Value(v)
			if err != nil {
				return 0, err
			}
			if value == 0 {
				return 0, typeMismatch("invert", "modifier %q multiplies by zero", base.Key)
			}
			return 1 / value, nil
		}), nil
	case ModeAdd:
		return m.WithCalc(func(v *Vehicle, _ any) (float64, error) {
			value, err := base.Value(v)
			if err != nil {
				return 0, err
			}
			return -value, nil
		}), nil
	default:
		return Modifier{}, typeMismatch("invert", "modifier %q has mode %s, which is not invertible", m.Key, m.Mode)
	}
}

// defaultCalc resolves a per-class base mapping against the vehicle's class
// when present, otherwise uses the base value unchanged.
func defaultCalc(v *Vehicle, base any) (float64, error) {
	if mapping, ok := base.(map[string]any); ok {
		if v != nil {
			if entry, ok := mapping[v.Class()]; ok {
				return numericBase(entry)
			}
		}
		return 0, typeMismatch("calc", "per-class base %v has no entry for vehicle", mapping)
	}
	return numericBase(base)
}

func numericBase(base any) (float64, error) {
	f, ok := toFloat(base)
	if !ok {
		return 0, typeMismatch("calc", "base value %v (%T) is not numeric", base, base)
	}
	return f, nil
}
