package state

import (
	"context"
	"errors"
	"testing"
)

type loadoutSnapshot struct {
	Descriptor string
	Signals    []string
}

func TestRefIdentifier(t *testing.T) {
	key, err := (Ref{Kind: "vehicle", Name: "PASC020"}).Identifier()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "vehicle/PASC020" {
		t.Fatalf("unexpected identifier: %q", key)
	}

	if _, err := (Ref{Name: "PASC020"}).Identifier(); err == nil {
		t.Fatalf("expected error for missing kind")
	}
	if _, err := (Ref{Kind: "vehicle"}).Identifier(); err == nil {
		t.Fatalf("expected error for missing name")
	}
}

func TestMemoryStoreLoadSave(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[loadoutSnapshot]()
	ref := Ref{Kind: "vehicle", Name: "PASC020"}

	_, _, ok, err := store.Load(ctx, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected a miss on an empty store")
	}

	meta, err := store.Save(ctx, ref, loadoutSnapshot{Descriptor: "stock"}, Meta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.ETag == "" || meta.SnapshotID == "" || meta.UpdatedAt.IsZero() {
		t.Fatalf("saved metadata incomplete: %+v", meta)
	}

	snapshot, loaded, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("unexpected load result: %v %v", ok, err)
	}
	if snapshot.Descriptor != "stock" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if loaded.ETag != meta.ETag {
		t.Fatalf("metadata mismatch: %q != %q", loaded.ETag, meta.ETag)
	}
}

func TestMemoryStoreDetectsConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[loadoutSnapshot]()
	ref := Ref{Kind: "vehicle", Name: "PASC020"}

	first, err := store.Save(ctx, ref, loadoutSnapshot{Descriptor: "stock"}, Meta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := store.Save(ctx, ref, loadoutSnapshot{Descriptor: "top"}, first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ETag == first.ETag {
		t.Fatalf("expected a fresh etag on save")
	}

	// a save carrying the stale etag must be refused
	_, err = store.Save(ctx, ref, loadoutSnapshot{Descriptor: "stale"}, first)
	if !errors.Is(err, ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
}

func TestMutate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[loadoutSnapshot]()
	ref := Ref{Kind: "vehicle", Name: "PASC020"}

	snapshot, meta, err := Mutate(ctx, store, ref, func(s *loadoutSnapshot) error {
		s.Descriptor = "top"
		s.Signals = append(s.Signals, "PCEF001")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot.Descriptor != "top" || len(snapshot.Signals) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if meta.ETag == "" {
		t.Fatalf("expected saved metadata")
	}

	boom := errors.New("boom")
	if _, _, err := Mutate(ctx, store, ref, func(*loadoutSnapshot) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected mutator error to surface, got %v", err)
	}

	if _, _, err := Mutate[loadoutSnapshot](ctx, nil, ref, func(*loadoutSnapshot) error { return nil }); err == nil {
		t.Fatalf("expected error for nil store")
	}
	if _, _, err := Mutate(ctx, store, ref, nil); err == nil {
		t.Fatalf("expected error for nil mutator")
	}
}
