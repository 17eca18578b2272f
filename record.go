package loadout

import (
	"reflect"
	"strconv"
	"strings"
)

// CallOption configures a single Get, Set, Multiply or Apply invocation.
type CallOption func(*callConfig)

type callConfig struct {
	collate    *bool
	ownProps   *bool
	createLeaf bool
}

// Collate forces the result of a lookup to be collapsed to one value (true)
// or returned as the full match list (false), overriding the default derived
// from the path shape.
func Collate(enabled bool) CallOption {
	return func(cfg *callConfig) {
		cfg.collate = &enabled
	}
}

// OwnProperties includes the wrapper's own surface properties in the
// candidate set alongside the wrapped record.
func OwnProperties(enabled bool) CallOption {
	return func(cfg *callConfig) {
		cfg.ownProps = &enabled
	}
}

func (cfg callConfig) own() bool {
	return cfg.ownProps != nil && *cfg.ownProps
}

// leafCreation marks a mutation as one that may create a missing literal
// leaf key. Only Set opts in; every other mutation leaves unmatched paths
// untouched.
func leafCreation(cfg *callConfig) {
	cfg.createLeaf = true
}

// PathAddressable is the capability traversal checks before delegating the
// remainder of a path to a nested, independently-owned wrapper.
type PathAddressable interface {
	Get(path string, opts ...CallOption) (any, error)
	Set(path string, value any, opts ...CallOption) error
	Multiply(path string, factor float64, opts ...CallOption) error
	Apply(path string, fn func(current any) any, opts ...CallOption) error
}

// mutator is the internal mutation callback. The public Apply surface wraps
// plain functions into it.
type mutator func(current any) (any, error)

type pathMutable interface {
	applyFunc(path string, fn mutator, opts []CallOption) error
}

// Record wraps one raw nested record and exposes the path-based read/write
// surface over it. Mutation is always in place on the owned record, never on
// a copy.
type Record struct {
	raw      map[string]any
	props    func() map[string]any
	self     PathAddressable
	defaults callConfig
}

// RecordOption configures a Record at construction time.
type RecordOption func(*Record)

// WithProperties supplies the wrapper's own surface properties. The function
// is consulted on every call so properties may change between calls.
func WithProperties(fn func() map[string]any) RecordOption {
	return func(r *Record) {
		r.props = fn
	}
}

// WithSelf registers the outer entity this record is embedded in, so that a
// surface property resolving back to that entity is not descended into.
func WithSelf(self PathAddressable) RecordOption {
	return func(r *Record) {
		r.self = self
	}
}

// NewRecord wraps raw. The record is owned by the wrapper from here on.
func NewRecord(raw map[string]any, opts ...RecordOption) *Record {
	if raw == nil {
		raw = map[string]any{}
	}
	r := &Record{raw: raw}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// WithOwnDefault returns a wrapper over the same record whose calls include
// own surface properties unless overridden per call. This is the explicit
// construction-time decorator; the underlying record is shared, not copied.
func (r *Record) WithOwnDefault() *Record {
	clone := *r
	enabled := true
	clone.defaults.ownProps = &enabled
	return &clone
}

// Raw exposes the wrapped record. Callers must treat it as owned by the
// wrapper and mutate it only through the path operations.
func (r *Record) Raw() map[string]any {
	return r.raw
}

// Clone deep-copies the wrapped record into a fresh wrapper.
func (r *Record) Clone() *Record {
	clone := *r
	clone.raw = cloneRecord(r.raw)
	return &clone
}

func (r *Record) callConfig(opts []CallOption) callConfig {
	cfg := r.defaults
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (r *Record) identity() any {
	if r.self != nil {
		return r.self
	}
	return r
}

func (r *Record) isSelfIdentity(pa PathAddressable) bool {
	if pa == PathAddressable(r) {
		return true
	}
	return r.self != nil && pa == r.self
}

// Get walks path and returns the matching values. By default a simple path
// collates to a single value (divergent matches fail with an AmbiguityError)
// and a complex path returns the full match list; Collate overrides either
// way. An empty path yields the wrapper itself.
func (r *Record) Get(path string, opts ...CallOption) (any, error) {
	cfg := r.callConfig(opts)
	matches, err := r.gather(Segments(path), cfg)
	if err != nil {
		return nil, err
	}

	collate := !IsComplex(path)
	if cfg.collate != nil {
		collate = *cfg.collate
	}
	if !collate {
		return matches, nil
	}
	if len(matches) == 0 {
		return nil, nil
	}
	distinct := []any{matches[0]}
	for _, match := range matches[1:] {
		if !valuesEqual(match, distinct[0]) {
			distinct = appendDistinct(distinct, match)
		}
	}
	if len(distinct) > 1 {
		return nil, &AmbiguityError{Path: path, Values: distinct}
	}
	return distinct[0], nil
}

// Set writes value at every position matched by path. A missing literal leaf
// key on the wrapped record is created; Set is the only mutation that
// creates keys.
func (r *Record) Set(path string, value any, opts ...CallOption) error {
	opts = append([]CallOption{leafCreation}, opts...)
	return r.applyFunc(path, func(any) (any, error) { return value, nil }, opts)
}

// Multiply scales every numeric leaf matched by path. Non-numeric matches
// fail with a TypeMismatchError; paths that match nothing are left
// untouched.
func (r *Record) Multiply(path string, factor float64, opts ...CallOption) error {
	return r.applyFunc(path, func(current any) (any, error) {
		f, ok := toFloat(current)
		if !ok {
			return nil, typeMismatch("multiply", "path %q: %v (%T) is not numeric", path, current, current)
		}
		return f * factor, nil
	}, opts)
}

// Apply transforms every leaf matched by path through fn, in place.
func (r *Record) Apply(path string, fn func(current any) any, opts ...CallOption) error {
	if fn == nil {
		return typeMismatch("apply", "nil function for path %q", path)
	}
	return r.applyFunc(path, func(current any) (any, error) {
		return fn(current), nil
	}, opts)
}

func (r *Record) gather(segs []string, cfg callConfig) ([]any, error) {
	if len(segs) == 0 {
		return []any{r.identity()}, nil
	}
	seg, rest := segs[0], segs[1:]

	keys, err := resolveSegment(seg, sortedKeys(r.raw))
	if err != nil {
		return nil, err
	}
	var out []any
	for _, key := range keys {
		sub, err := gatherValue(r.raw[key], rest, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}

	if cfg.own() && r.props != nil {
		props := r.props()
		propKeys, err := resolveSegment(seg, sortedKeys(props))
		if err != nil {
			return nil, err
		}
		for _, key := range propKeys {
			value := props[key]
			if pa, ok := value.(PathAddressable); ok && r.isSelfIdentity(pa) {
				if len(rest) == 0 {
					out = append(out, value)
				}
				continue
			}
			sub, err := gatherValue(value, rest, cfg)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

func gatherValue(value any, rest []string, cfg callConfig) ([]any, error) {
	if pa, ok := value.(PathAddressable); ok {
		opts := []CallOption{Collate(false)}
		if cfg.ownProps != nil {
			opts = append(opts, OwnProperties(*cfg.ownProps))
		}
		result, err := pa.Get(JoinSegments(rest), opts...)
		if err != nil {
			return nil, err
		}
		if list, ok := result.([]any); ok {
			return list, nil
		}
		return []any{result}, nil
	}
	if len(rest) == 0 {
		return []any{value}, nil
	}
	switch container := value.(type) {
	case map[string]any:
		keys, err := resolveSegment(rest[0], sortedKeys(container))
		if err != nil {
			return nil, err
		}
		var out []any
		for _, key := range keys {
			sub, err := gatherValue(container[key], rest[1:], cfg)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	case []any:
		keys, err := resolveSegment(rest[0], sequenceKeys(container))
		if err != nil {
			return nil, err
		}
		var out []any
		for _, key := range keys {
			index, _ := strconv.Atoi(key)
			sub, err := gatherValue(container[index], rest[1:], cfg)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	default:
		return nil, nil
	}
}

func (r *Record) applyFunc(path string, fn mutator, opts []CallOption) error {
	cfg := r.callConfig(opts)
	segs := Segments(path)
	if len(segs) == 0 {
		return r.applySelf(fn)
	}

	ownMatched := false
	if cfg.own() && r.props != nil {
		props := r.props()
		propKeys, err := resolveSegment(segs[0], sortedKeys(props))
		if err != nil {
			return err
		}
		for _, key := range propKeys {
			pa, ok := props[key].(PathAddressable)
			if !ok || r.isSelfIdentity(pa) {
				continue
			}
			ownMatched = true
			if err := delegateMutation(pa, JoinSegments(segs[1:]), fn, cfg); err != nil {
				return err
			}
		}
	}
	return mutateContainer(r.raw, segs, fn, cfg, cfg.createLeaf && !ownMatched)
}

// applySelf mutates the wrapped record as a whole, preserving the wrapper's
// identity and any aliases of the record by replacing contents in place.
func (r *Record) applySelf(fn mutator) error {
	next, err := fn(r.raw)
	if err != nil {
		return err
	}
	replacement, ok := next.(map[string]any)
	if !ok {
		return typeMismatch("apply", "cannot replace record contents with %T", next)
	}
	if reflect.ValueOf(replacement).Pointer() == reflect.ValueOf(r.raw).Pointer() {
		return nil
	}
	for key := range r.raw {
		delete(r.raw, key)
	}
	for key, value := range replacement {
		r.raw[key] = value
	}
	return nil
}

func mutateContainer(container any, segs []string, fn mutator, cfg callConfig, create bool) error {
	seg, rest := segs[0], segs[1:]
	switch parent := container.(type) {
	case map[string]any:
		keys, err := resolveSegment(seg, sortedKeys(parent))
		if err != nil {
			return err
		}
		if len(keys) == 0 && len(rest) == 0 && create && !strings.Contains(seg, wildcard) {
			keys = []string{seg}
		}
		for _, key := range keys {
			value := parent[key]
			if pa, ok := value.(PathAddressable); ok {
				if err := delegateMutation(pa, JoinSegments(rest), fn, cfg); err != nil {
					return err
				}
				continue
			}
			if len(rest) == 0 {
				next, err := fn(value)
				if err != nil {
					return err
				}
				parent[key] = next
				continue
			}
			if err := mutateContainer(value, rest, fn, cfg, create); err != nil {
				return err
			}
		}
		return nil
	case []any:
		keys, err := resolveSegment(seg, sequenceKeys(parent))
		if err != nil {
			return err
		}
		for _, key := range keys {
			index, _ := strconv.Atoi(key)
			value := parent[index]
			if pa, ok := value.(PathAddressable); ok {
				if err := delegateMutation(pa, JoinSegments(rest), fn, cfg); err != nil {
					return err
				}
				continue
			}
			if len(rest) == 0 {
				next, err := fn(value)
				if err != nil {
					return err
				}
				parent[index] = next
				continue
			}
			if err := mutateContainer(value, rest, fn, cfg, create); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

func delegateMutation(pa PathAddressable, path string, fn mutator, cfg callConfig) error {
	var opts []CallOption
	if cfg.ownProps != nil {
		opts = append(opts, OwnProperties(*cfg.ownProps))
	}
	if cfg.createLeaf {
		opts = append(opts, leafCreation)
	}
	if pm, ok := pa.(pathMutable); ok {
		return pm.applyFunc(path, fn, opts)
	}
	var failure error
	err := pa.Apply(path, func(current any) any {
		next, err := fn(current)
		if err != nil {
			if failure == nil {
				failure = err
			}
			return current
		}
		return next
	}, opts...)
	if err != nil {
		return err
	}
	return failure
}

func appendDistinct(distinct []any, value any) []any {
	for _, seen := range distinct {
		if valuesEqual(value, seen) {
			return distinct
		}
	}
	return append(distinct, value)
}

func valuesEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
