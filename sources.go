package loadout

type sourceKind int

const (
	kindCaptain sourceKind = iota
	kindCamouflage
	kindSignal
	kindModernization
)

func (k sourceKind) String() string {
	switch k {
	case kindCaptain:
		return "captain"
	case kindCamouflage:
		return "camouflage"
	case kindSignal:
		return "signal"
	case kindModernization:
		return "modernization"
	default:
		return "unknown"
	}
}

func sourceName(raw map[string]any, kind string) (string, error) {
	name, ok := raw["name"].(string)
	if !ok || name == "" {
		return "", typeMismatch("new "+kind, "record has no name")
	}
	return name, nil
}

// modifiersFor turns a source record's "modifiers" entry into concrete
// Modifiers via the index. Keys the index does not know and targets that do
// not resolve produce nothing.
func modifiersFor(raw map[string]any, index *ModifierIndex) []Modifier {
	entries, _ := raw["modifiers"].(map[string]any)
	var out []Modifier
	for _, key := range sortedKeys(entries) {
		for _, m := range index.From(key, entries[key]) {
			if m.Target != "" {
				out = append(out, m)
			}
		}
	}
	return out
}

// Captain contributes the modifiers of its learned skills. Skills live under
// the record's "skills" entry; a skill with a "classes" list applies only to
// vehicles of a listed class.
type Captain struct {
	*Record
	name    string
	learned []string
}

// NewCaptain wraps a captain record.
func NewCaptain(raw map[string]any) (*Captain, error) {
	name, err := sourceName(raw, "captain")
	if err != nil {
		return nil, err
	}
	return &Captain{Record: NewRecord(raw), name: name}, nil
}

// Name returns the captain's identity key.
func (c *Captain) Name() string {
	return c.name
}

// Learn marks a skill as learned. Returns false when the record defines no
// such skill or it is already learned.
func (c *Captain) Learn(skill string) bool {
	skills, _ := c.Raw()["skills"].(map[string]any)
	if _, ok := skills[skill]; !ok {
		return false
	}
	for _, learned := range c.learned {
		if learned == skill {
			return false
		}
	}
	c.learned = append(c.learned, skill)
	return true
}

// Learned lists learned skills in learning order.
func (c *Captain) Learned() []string {
	return append([]string(nil), c.learned...)
}

func (c *Captain) modifiers(v *Vehicle, index *ModifierIndex) []Modifier {
	skills, _ := c.Raw()["skills"].(map[string]any)
	var out []Modifier
	for _, name := range c.learned {
		skill, ok := skills[name].(map[string]any)
		if !ok {
			continue
		}
		if classes, ok := skill["classes"].([]any); ok && len(classes) > 0 {
			if !containsString(classes, v.Class()) {
				continue
			}
		}
		out = append(out, modifiersFor(skill, index)...)
	}
	return out
}

// Camouflage is a cosmetic skin. Expendable camouflages fit any vehicle;
// permanent ones only fit vehicles that list them in their compatible set.
type Camouflage struct {
	*Record
	name string
}

// NewCamouflage wraps a camouflage record.
func NewCamouflage(raw map[string]any) (*Camouflage, error) {
	name, err := sourceName(raw, "camouflage")
	if err != nil {
		return nil, err
	}
	return &Camouflage{Record: NewRecord(raw), name: name}, nil
}

// Name returns the camouflage's identity key.
func (c *Camouflage) Name() string {
	return c.name
}

// Permanent reports whether this is a permanent skin.
func (c *Camouflage) Permanent() bool {
	kind, _ := moduleKindOf(c.Raw())
	return kind.Species == "Permoflage"
}

// EligibleFor reports whether the camouflage may be equipped on v. This is
// the only gate on equipping.
func (c *Camouflage) EligibleFor(v *Vehicle) bool {
	if !c.Permanent() {
		return true
	}
	compatible, _ := v.pristine["permoflages"].([]any)
	return containsString(compatible, c.name)
}

// Signal is a hoistable flag contributing its modifiers while hoisted.
type Signal struct {
	*Record
	name string
}

// NewSignal wraps a signal flag record.
func NewSignal(raw map[string]any) (*Signal, error) {
	name, err := sourceName(raw, "signal")
	if err != nil {
		return nil, err
	}
	return &Signal{Record: NewRecord(raw), name: name}, nil
}

// Name returns the signal's identity key.
func (s *Signal) Name() string {
	return s.name
}

// Modernization is an equippable upgrade with data-driven eligibility.
type Modernization struct {
	*Record
	name string
}

// NewModernization wraps a modernization record.
func NewModernization(raw map[string]any) (*Modernization, error) {
	name, err := sourceName(raw, "modernization")
	if err != nil {
		return nil, err
	}
	return &Modernization{Record: NewRecord(raw), name: name}, nil
}

// Name returns the modernization's identity key.
func (m *Modernization) Name() string {
	return m.name
}

// EligibleFor checks the record's constraint lists against v. An explicit
// listing in "ships" wins over the tier and class constraints; "excludes"
// always loses a vehicle its eligibility.
func (m *Modernization) EligibleFor(v *Vehicle) bool {
	raw := m.Raw()
	if excludes, ok := raw["excludes"].([]any); ok && containsString(excludes, v.Name()) {
		return false
	}
	if ships, ok := raw["ships"].([]any); ok && len(ships) > 0 {
		return containsString(ships, v.Name())
	}
	if tiers, ok := raw["tiers"].([]any); ok && len(tiers) > 0 {
		if !containsNumber(tiers, v.Tier()) {
			return false
		}
	}
	if classes, ok := raw["classes"].([]any); ok && len(classes) > 0 {
		if !containsString(classes, v.Class()) {
			return false
		}
	}
	return true
}

func containsString(list []any, want string) bool {
	for _, item := range list {
		if s, ok := item.(string); ok && s == want {
			return true
		}
	}
	return false
}

func containsNumber(list []any, want float64) bool {
	for _, item := range list {
		if f, ok := toFloat(item); ok && f == want {
			return true
		}
	}
	return false
}
