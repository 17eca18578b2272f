package loadout

import (
	"strconv"
	"strings"
)

// othersClause assigns every category the descriptor does not name.
const othersClause = "others"

type levelKind int

const (
	levelStock levelKind = iota
	levelTop
	levelIndex
)

type moduleLevel struct {
	kind  levelKind
	index int
}

// parseDescriptor expands and validates a loadout descriptor. The grammar is
// comma-separated "category: level" clauses where level is stock, top or a
// zero-based chain index; the shorthands "stock" and "top" expand to
// "others: stock" / "others: top".
func parseDescriptor(descriptor string) (map[string]moduleLevel, error) {
	trimmed := strings.TrimSpace(descriptor)
	switch trimmed {
	case "stock", "top":
		trimmed = othersClause + ": " + trimmed
	case "":
		return nil, typeMismatch("select modules", "empty descriptor")
	}

	clauses := make(map[string]moduleLevel)
	for _, clause := range strings.Split(trimmed, ",") {
		parts := strings.Split(clause, ":")
		if len(parts) != 2 {
			return nil, typeMismatch("select modules", "malformed clause %q in descriptor %q", strings.TrimSpace(clause), descriptor)
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		if key == "" {
			return nil, typeMismatch("select modules", "malformed clause %q in descriptor %q", strings.TrimSpace(clause), descriptor)
		}
		level, err := parseLevel(strings.TrimSpace(parts[1]), descriptor)
		if err != nil {
			return nil, err
		}
		clauses[key] = level
	}
	return clauses, nil
}

func parseLevel(level, descriptor string) (moduleLevel, error) {
	switch level {
	case "stock":
		return moduleLevel{kind: levelStock}, nil
	case "top":
		return moduleLevel{kind: levelTop}, nil
	}
	index, err := strconv.Atoi(level)
	if err != nil || index < 0 {
		return moduleLevel{}, typeMismatch("select modules", "level %q in descriptor %q is not stock, top or a chain index", level, descriptor)
	}
	return moduleLevel{kind: levelIndex, index: index}, nil
}

// pick resolves the level against a chain of length n, returning the chain
// index to use.
func (l moduleLevel) pick(n int) (int, error) {
	switch l.kind {
	case levelStock:
		return 0, nil
	case levelTop:
		return n - 1, nil
	default:
		if l.index >= n {
			return 0, typeMismatch("select modules", "chain index %d out of range for a chain of %d steps", l.index, n)
		}
		return l.index, nil
	}
}
