// Package hydrate converts raw data-source payloads into the nested record
// shape the loadout core consumes. It normalizes every number to float64 so
// record arithmetic never has to distinguish integer and floating payloads.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Context carries identifiers tied to a payload.
type Context struct {
	Key    string // record identity, e.g. the vehicle name
	Source string // where the payload came from, for error messages
}

// PreHook lets callers mutate or normalise the decoded payload before number
// normalization.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the finished record.
type PostHook func(Context, map[string]any) error

// DecoderOption configures a Decoder instance.
type DecoderOption func(*Decoder)

// Decoder converts JSON payloads into normalized records.
type Decoder struct {
	preHooks  []PreHook
	postHooks []PostHook
}

// WithPreHook applies hook prior to normalization.
func WithPreHook(hook PreHook) DecoderOption {
	return func(d *Decoder) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after normalization completes.
func WithPostHook(hook PostHook) DecoderOption {
	return func(d *Decoder) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// NewDecoder constructs a decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into a normalized record, applying configured
// hooks.
func (d *Decoder) Decode(ctx Context, payload []byte) (map[string]any, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("hydrate: payload is empty for key %q", ctx.Key)
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	var current map[string]any
	if err := decoder.Decode(&current); err != nil {
		return nil, fmt.Errorf("hydrate: decode key %q: %w", ctx.Key, err)
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hydrate: pre-hook for key %q failed: %w", ctx.Key, err)
		}
		if next != nil {
			current = next
		}
	}

	record, ok := normalizeValue(current).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("hydrate: payload for key %q is not a record", ctx.Key)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, record); err != nil {
			return nil, fmt.Errorf("hydrate: post-hook for key %q failed: %w", ctx.Key, err)
		}
	}

	return record, nil
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, item := range v {
			v[key] = normalizeValue(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = normalizeValue(item)
		}
		return v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return v.String()
		}
		return f
	default:
		return v
	}
}
