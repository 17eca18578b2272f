package loadout

import (
	"sort"
	"strconv"
	"strings"
)

const (
	pathSeparator = "."
	wildcard      = "*"
)

// Segments splits a dotted path into its segments. An empty path has no
// segments.
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, pathSeparator)
}

// JoinSegments is the inverse of Segments.
func JoinSegments(segments []string) string {
	return strings.Join(segments, pathSeparator)
}

// IsCompound reports whether path contains more than one segment.
func IsCompound(path string) bool {
	return strings.Contains(path, pathSeparator)
}

// IsComplex reports whether path contains at least one wildcard segment.
func IsComplex(path string) bool {
	return strings.Contains(path, wildcard)
}

// resolveSegment returns the keys among candidates matched by segment. A
// segment is either a literal key or contains a single wildcard that stands
// for any run of characters. Candidates keep their input order, so callers
// control determinism by passing ordered key sets.
func resolveSegment(segment string, candidates []string) ([]string, error) {
	if segment == "" {
		return nil, &PathError{Segment: segment, Reason: "empty segment"}
	}
	if IsCompound(segment) {
		return nil, &PathError{Segment: segment, Reason: "compound string used as a single segment"}
	}
	if !strings.Contains(segment, wildcard) {
		for _, key := range candidates {
			if key == segment {
				return []string{key}, nil
			}
		}
		return nil, nil
	}
	if strings.Count(segment, wildcard) > 1 {
		return nil, &PathError{Segment: segment, Reason: "more than one wildcard"}
	}

	cut := strings.Index(segment, wildcard)
	prefix, suffix := segment[:cut], segment[cut+1:]
	var matched []string
	for _, key := range candidates {
		if len(key) < len(prefix)+len(suffix) {
			continue
		}
		if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, suffix) {
			matched = append(matched, key)
		}
	}
	return matched, nil
}

func sortedKeys[V any](record map[string]V) []string {
	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sequenceKeys(sequence []any) []string {
	keys := make([]string, len(sequence))
	for i := range sequence {
		keys[i] = strconv.Itoa(i)
	}
	return keys
}
