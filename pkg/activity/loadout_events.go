package activity

import "time"

// Input describes the common fields for loadout lifecycle events.
type Input struct {
	Vehicle    string
	Descriptor string
	SourceKind string
	SourceKey  string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildModulesSelectedEvent constructs a normalized event for a module
// selection.
func BuildModulesSelectedEvent(input Input) Event {
	return buildLoadoutEvent("loadout.modules.selected", "loadout", input.Vehicle, input)
}

// BuildSourceEquippedEvent constructs a normalized event for a modifier
// source being equipped.
func BuildSourceEquippedEvent(input Input) Event {
	return buildLoadoutEvent("loadout.source.equipped", "loadout.source", input.SourceKey, input)
}

// BuildSourceRemovedEvent constructs a normalized event for a modifier
// source being removed.
func BuildSourceRemovedEvent(input Input) Event {
	return buildLoadoutEvent("loadout.source.removed", "loadout.source", input.SourceKey, input)
}

func buildLoadoutEvent(verb, objectType, objectID string, input Input) Event {
	metadata := cloneMap(input.Metadata)
	if input.Descriptor != "" {
		metadata = ensureMetadata(metadata)
		metadata["descriptor"] = input.Descriptor
	}
	if input.SourceKind != "" {
		metadata = ensureMetadata(metadata)
		metadata["source_kind"] = input.SourceKind
	}
	return NormalizeEvent(Event{
		Verb:       verb,
		ObjectType: objectType,
		ObjectID:   objectID,
		Vehicle:    input.Vehicle,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	})
}

func ensureMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return make(map[string]any)
	}
	return metadata
}
