package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrETagMismatch reports a concurrent update detected on Save.
var ErrETagMismatch = errors.New("state: etag mismatch")

// Ref identifies one persisted snapshot.
type Ref struct {
	Kind string // snapshot domain, e.g. "vehicle"
	Name string // identity key within the domain
}

// Identifier returns the deterministic storage key for the reference.
func (r Ref) Identifier() (string, error) {
	if r.Kind == "" {
		return "", fmt.Errorf("state: ref kind is required")
	}
	if r.Name == "" {
		return "", fmt.Errorf("state: ref name is required")
	}
	return fmt.Sprintf("%s/%s", r.Kind, r.Name), nil
}

// Meta is storage-owned metadata used for trace/audit and concurrency
// control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// NewMeta mints metadata for a fresh snapshot.
func NewMeta() Meta {
	return Meta{
		SnapshotID: uuid.NewString(),
		UpdatedAt:  time.Now(),
	}
}

// Store loads and saves one snapshot per reference.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
}

// Mutate loads the snapshot for ref, applies fn, and saves the result. A
// missing snapshot starts from the zero value.
func Mutate[T any](ctx context.Context, store Store[T], ref Ref, fn func(*T) error) (T, Meta, error) {
	var zero T
	if store == nil {
		return zero, Meta{}, fmt.Errorf("state: store is required")
	}
	if fn == nil {
		return zero, Meta{}, fmt.Errorf("state: mutator is required")
	}

	snapshot, meta, _, err := store.Load(ctx, ref)
	if err != nil {
		return zero, Meta{}, err
	}
	if err := fn(&snapshot); err != nil {
		return zero, Meta{}, err
	}
	saved, err := store.Save(ctx, ref, snapshot, meta)
	if err != nil {
		return zero, Meta{}, err
	}
	return snapshot, saved, nil
}
