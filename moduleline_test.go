package loadout

import (
	"reflect"
	"strings"
	"testing"
)

func chainNames(chain []*UpgradeStep) []string {
	names := make([]string, len(chain))
	for i, step := range chain {
		names[i] = step.Name
	}
	return names
}

func TestBuildModuleLinesOrdersByPredecessor(t *testing.T) {
	// names sort ahead of their predecessors so the queue has to re-enqueue
	table := map[string]any{
		"a_top": map[string]any{
			"category":   "_Hull",
			"prev":       "b_mid",
			"components": map[string]any{"hull": []any{"HullC"}},
		},
		"b_mid": map[string]any{
			"category":   "_Hull",
			"prev":       "c_base",
			"components": map[string]any{"hull": []any{"HullB"}},
		},
		"c_base": map[string]any{
			"category":   "_Hull",
			"prev":       "",
			"components": map[string]any{"hull": []any{"HullA"}},
		},
	}

	lines, err := buildModuleLines(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chain := lines["_Hull"]
	if !reflect.DeepEqual(chainNames(chain), []string{"c_base", "b_mid", "a_top"}) {
		t.Fatalf("unexpected chain order: %v", chainNames(chain))
	}
	for i, step := range chain {
		if step.Distance != i {
			t.Fatalf("step %q has distance %d, want %d", step.Name, step.Distance, i)
		}
	}
}

func TestBuildModuleLinesCrossCategoryPredecessor(t *testing.T) {
	table := map[string]any{
		"A_Hull": map[string]any{
			"category":   "_Hull",
			"prev":       "",
			"components": map[string]any{"hull": []any{"A_Hull"}},
		},
		"B_Hull": map[string]any{
			"category":   "_Hull",
			"prev":       "A_Hull",
			"components": map[string]any{"hull": []any{"B_Hull"}},
		},
		// the engine step hangs off the hull progression
		"AB2_Engine": map[string]any{
			"category":   "_Engine",
			"prev":       "B_Hull",
			"components": map[string]any{"engine": []any{"AB2_Engine"}},
		},
	}

	lines, err := buildModuleLines(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	engine := lines["_Engine"]
	if len(engine) != 1 || engine[0].Name != "AB2_Engine" {
		t.Fatalf("unexpected engine chain: %v", chainNames(engine))
	}
	if engine[0].Distance != 2 {
		t.Fatalf("cross-chain distance not inherited: %d", engine[0].Distance)
	}
}

func TestBuildModuleLinesIgnoresNonStepEntries(t *testing.T) {
	table := map[string]any{
		"A_Hull": map[string]any{
			"category":   "_Hull",
			"prev":       "",
			"components": map[string]any{"hull": []any{"A_Hull"}},
		},
		"costXP":    1500.0,
		"canBuy":    true,
		"noCat":     map[string]any{"components": map[string]any{}},
		"noPayload": map[string]any{"category": "_Hull"},
	}

	lines, err := buildModuleLines(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 || len(lines["_Hull"]) != 1 {
		t.Fatalf("expected a single one-step chain, got %v", lines)
	}
}

func TestBuildModuleLinesUnknownPredecessor(t *testing.T) {
	table := map[string]any{
		"B_Hull": map[string]any{
			"category":   "_Hull",
			"prev":       "A_Hull",
			"components": map[string]any{"hull": []any{"B_Hull"}},
		},
	}

	_, err := buildModuleLines(table)
	if err == nil || !strings.Contains(err.Error(), "unknown predecessor") {
		t.Fatalf("expected unknown-predecessor error, got %v", err)
	}
}

func TestParseUpgradeStepFiltersComponentLists(t *testing.T) {
	step := parseUpgradeStep("A_Hull", map[string]any{
		"category": "_Hull",
		"prev":     "",
		"components": map[string]any{
			"hull":   []any{"A_Hull", 42.0},
			"radars": "not-a-list",
		},
	})
	if step == nil {
		t.Fatalf("expected a parsed step")
	}
	if !reflect.DeepEqual(step.Components["hull"], []string{"A_Hull"}) {
		t.Fatalf("unexpected hull candidates: %v", step.Components["hull"])
	}
	if _, ok := step.Components["radars"]; ok {
		t.Fatalf("non-list component payload should be dropped")
	}
}

func TestCategoryKey(t *testing.T) {
	if got := categoryKey("_Hull"); got != "hull" {
		t.Fatalf("unexpected key: %q", got)
	}
	if got := categoryKey("FireControl"); got != "firecontrol" {
		t.Fatalf("unexpected key: %q", got)
	}
}
