package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventFillsDefaults(t *testing.T) {
	event := NormalizeEvent(Event{
		Verb:       "  loadout.modules.selected ",
		ObjectType: " loadout ",
		ObjectID:   " PASC020 ",
	})
	if event.Verb != "loadout.modules.selected" || event.ObjectType != "loadout" || event.ObjectID != "PASC020" {
		t.Fatalf("fields not trimmed: %+v", event)
	}
	if event.ID == "" {
		t.Fatalf("expected a minted ID")
	}
	if event.OccurredAt.IsZero() {
		t.Fatalf("expected a default timestamp")
	}
}

func TestNormalizeEventClonesMetadata(t *testing.T) {
	metadata := map[string]any{"descriptor": "stock"}
	event := NormalizeEvent(Event{Metadata: metadata})
	metadata["descriptor"] = "top"
	if event.Metadata["descriptor"] != "stock" {
		t.Fatalf("metadata not cloned: %v", event.Metadata)
	}
}

func TestHooksNotifySkipsIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}

	if err := hooks.Notify(context.Background(), Event{Verb: "loadout.source.equipped"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("incomplete event should be dropped, got %d", len(capture.Events))
	}
}

func TestHooksNotifyJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := &CaptureHook{Err: boom}
	capture := &CaptureHook{}
	hooks := Hooks{failing, nil, capture}

	err := hooks.Notify(nil, Event{
		Verb:       "loadout.source.equipped",
		ObjectType: "loadout.source",
		ObjectID:   "PCEF001",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected hook error to surface, got %v", err)
	}
	// the failing hook never blocks the others
	if len(capture.Events) != 1 {
		t.Fatalf("remaining hooks should still be notified, got %d", len(capture.Events))
	}
}

func TestHooksEnabled(t *testing.T) {
	if (Hooks{}).Enabled() {
		t.Fatalf("empty hooks reported enabled")
	}
	if !(Hooks{&CaptureHook{}}).Enabled() {
		t.Fatalf("non-empty hooks reported disabled")
	}
}

func TestBuildLoadoutEvents(t *testing.T) {
	occurred := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	selected := BuildModulesSelectedEvent(Input{
		Vehicle:    "PASC020",
		Descriptor: "hull: top, others: stock",
		OccurredAt: occurred,
	})
	if selected.Verb != "loadout.modules.selected" || selected.ObjectType != "loadout" {
		t.Fatalf("unexpected selected event: %+v", selected)
	}
	if selected.ObjectID != "PASC020" || !selected.OccurredAt.Equal(occurred) {
		t.Fatalf("unexpected selected event: %+v", selected)
	}
	if selected.Metadata["descriptor"] != "hull: top, others: stock" {
		t.Fatalf("descriptor missing from metadata: %v", selected.Metadata)
	}

	equipped := BuildSourceEquippedEvent(Input{
		Vehicle:    "PASC020",
		SourceKind: "signal",
		SourceKey:  "PCEF001",
	})
	if equipped.Verb != "loadout.source.equipped" || equipped.ObjectID != "PCEF001" {
		t.Fatalf("unexpected equipped event: %+v", equipped)
	}
	if equipped.Metadata["source_kind"] != "signal" {
		t.Fatalf("source kind missing from metadata: %v", equipped.Metadata)
	}

	removed := BuildSourceRemovedEvent(Input{SourceKind: "signal", SourceKey: "PCEF001"})
	if removed.Verb != "loadout.source.removed" {
		t.Fatalf("unexpected removed event: %+v", removed)
	}
}

func TestEmitter(t *testing.T) {
	capture := &CaptureHook{}

	disabled := NewEmitter(Hooks{capture}, Config{})
	if disabled.Enabled() {
		t.Fatalf("emitter should honour disabled config")
	}
	if err := disabled.Emit(context.Background(), BuildSourceRemovedEvent(Input{SourceKey: "PCEF001"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("disabled emitter must not notify")
	}

	enabled := NewEmitter(Hooks{capture, nil}, Config{Enabled: true})
	if !enabled.Enabled() {
		t.Fatalf("emitter should be enabled")
	}
	event := BuildSourceEquippedEvent(Input{SourceKind: "signal", SourceKey: "PCEF001"})
	if err := enabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capture.Events) != 1 || capture.Events[0].Verb != "loadout.source.equipped" {
		t.Fatalf("unexpected captured events: %+v", capture.Events)
	}

	if NewEmitter(nil, Config{Enabled: true}).Enabled() {
		t.Fatalf("emitter without hooks should report disabled")
	}
}
