package loadout

import "encoding/json"

// SelectionTrace captures provenance for one module selection: the step
// chosen per category, how every component resolved, and how many component
// resolutions were ambiguous.
type SelectionTrace struct {
	Descriptor  string                `json:"descriptor"`
	Steps       map[string]string     `json:"steps"`
	Components  []ComponentResolution `json:"components"`
	Ambiguities int                   `json:"ambiguities"`
}

// ComponentResolution details how one component collapsed to a module.
type ComponentResolution struct {
	Component string   `json:"component"`
	Module    string   `json:"module"`
	Discarded []string `json:"discarded,omitempty"`
}

// ToJSON serialises the trace for logging or transport helpers.
func (t SelectionTrace) ToJSON() ([]byte, error) {
	type alias SelectionTrace
	return json.Marshal(alias(t))
}

// SelectionTraceFromJSON deserialises a payload previously produced by
// ToJSON.
func SelectionTraceFromJSON(payload []byte) (SelectionTrace, error) {
	type alias SelectionTrace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return SelectionTrace{}, err
	}
	return SelectionTrace(trace), nil
}
