package loadout

import (
	"fmt"
	"strings"
)

// upgradesKey is the record key holding the flat upgrade-step table.
const upgradesKey = "upgrades"

// UpgradeStep is one reconstructed node of a module line.
type UpgradeStep struct {
	Name       string
	Category   string
	Prev       string
	Distance   int
	Components map[string][]string
}

// ModuleLines maps each category tag to its ordered upgrade progression,
// increasing distance from the chain start.
type ModuleLines map[string][]*UpgradeStep

// categoryKey normalizes a category tag to its descriptor clause key
// ("_Hull" becomes "hull").
func categoryKey(category string) string {
	return strings.ToLower(strings.TrimPrefix(category, "_"))
}

// buildModuleLines reconstructs the per-category progressions from a flat
// name-to-definition table whose steps reference predecessors by key only.
// Entries that do not look like step definitions are ignored. The work queue
// re-enqueues steps whose predecessor has not been placed yet; the
// predecessor search spans all chains because legacy data may hang a step
// off another category's progression. Quadratic in the worst case, which is
// fine at tens of steps per vehicle.
func buildModuleLines(table map[string]any) (ModuleLines, error) {
	queue := make([]*UpgradeStep, 0, len(table))
	for _, name := range sortedKeys(table) {
		step := parseUpgradeStep(name, table[name])
		if step != nil {
			queue = append(queue, step)
		}
	}

	lines := make(ModuleLines)
	stuck := 0
	for len(queue) > 0 {
		step := queue[0]
		queue = queue[1:]

		if step.Prev == "" {
			lines[step.Category] = insertByDistance(lines[step.Category], step)
			stuck = 0
			continue
		}

		prev := findStep(lines, step.Prev)
		if prev == nil {
			// predecessor not placed yet; try again after the rest
			queue = append(queue, step)
			stuck++
			if stuck > len(queue) {
				return nil, fmt.Errorf("loadout: upgrade step %q references unknown predecessor %q", step.Name, step.Prev)
			}
			continue
		}
		step.Distance = prev.Distance + 1
		lines[step.Category] = insertByDistance(lines[step.Category], step)
		stuck = 0
	}
	return lines, nil
}

func parseUpgradeStep(name string, value any) *UpgradeStep {
	record, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	category, ok := record["category"].(string)
	if !ok || category == "" {
		return nil
	}
	rawComponents, ok := record["components"].(map[string]any)
	if !ok {
		return nil
	}

	step := &UpgradeStep{
		Name:       name,
		Category:   category,
		Components: make(map[string][]string, len(rawComponents)),
	}
	if prev, ok := record["prev"].(string); ok {
		step.Prev = prev
	}
	for component, candidates := range rawComponents {
		list, ok := candidates.([]any)
		if !ok {
			continue
		}
		names := make([]string, 0, len(list))
		for _, candidate := range list {
			if s, ok := candidate.(string); ok {
				names = append(names, s)
			}
		}
		step.Components[component] = names
	}
	return step
}

func findStep(lines ModuleLines, name string) *UpgradeStep {
	for _, chain := range lines {
		for _, step := range chain {
			if step.Name == name {
				return step
			}
		}
	}
	return nil
}

// insertByDistance places step at the unique position where the left
// neighbour's distance is smaller and the right neighbour's is not.
func insertByDistance(chain []*UpgradeStep, step *UpgradeStep) []*UpgradeStep {
	at := len(chain)
	for i, existing := range chain {
		if existing.Distance > step.Distance {
			at = i
			break
		}
	}
	chain = append(chain, nil)
	copy(chain[at+1:], chain[at:])
	chain[at] = step
	return chain
}
