package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation suitable for tests and
// single-process providers. It uses Ref.Identifier() as its key and makes no
// persistence assumptions beyond that.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records map[string]memoryRecord[T]
}

type memoryRecord[T any] struct {
	snapshot T
	meta     Meta
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{records: map[string]memoryRecord[T]{}}
}

// Load returns the snapshot stored under ref, if any.
func (s *MemoryStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return zero, Meta{}, false, nil
	}
	return record.snapshot, cloneMeta(record.meta), true, nil
}

// Save stores snapshot under ref. When meta carries an ETag it must match
// the stored one, otherwise ErrETagMismatch is returned. The returned Meta
// carries a fresh ETag.
func (s *MemoryStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[key]; ok && meta.ETag != "" && meta.ETag != existing.meta.ETag {
		return Meta{}, ErrETagMismatch
	}

	stored := cloneMeta(meta)
	if stored.SnapshotID == "" {
		stored.SnapshotID = uuid.NewString()
	}
	stored.ETag = uuid.NewString()
	stored.UpdatedAt = time.Now()
	s.records[key] = memoryRecord[T]{snapshot: snapshot, meta: stored}
	return cloneMeta(stored), nil
}

func cloneMeta(meta Meta) Meta {
	cloned := meta
	if len(meta.Extra) > 0 {
		cloned.Extra = make(map[string]string, len(meta.Extra))
		for key, value := range meta.Extra {
			cloned.Extra[key] = value
		}
	} else {
		cloned.Extra = nil
	}
	return cloned
}
