package loadout

// cloneValue deep-copies a raw record value. Nested wrappers are cloned
// through their own Clone so independently-owned records stay independent.
func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneRecord(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case *Record:
		return v.Clone()
	case interface{ Clone() *Record }:
		return v.Clone()
	default:
		return v
	}
}

func cloneRecord(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for key, value := range record {
		out[key] = cloneValue(value)
	}
	return out
}
