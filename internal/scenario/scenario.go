// internal/scenario/scenario.go
//
// A scenario is one crisis prompt handed to the arbiter at session start.
// Batch mode walks a catalog of them, one session each.

package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario names one crisis prompt.
type Scenario struct {
	Name   string `yaml:"name"`
	Prompt string `yaml:"prompt"`
}

// BuiltIn returns the stock catalog of twelve crises.
func BuiltIn() []Scenario {
	return []Scenario{
		{Name: "plague", Prompt: "God, create a crisis involving a plague."},
		{Name: "fire", Prompt: "God, create a crisis involving a massive fire."},
		{Name: "lost-culture", Prompt: "God, create a crisis involving a loss of history and culture"},
		{Name: "invasion", Prompt: "God, create a crisis involving an invading barbarian horde."},
		{Name: "crop-failure", Prompt: "God, create a crisis involving a catastrophic crop failure."},
		{Name: "airborne-virus", Prompt: "God, create a crisis involving a deadly airborne virus."},
		{Name: "earthquake", Prompt: "God, create a crisis involving a massive earthquake destroying bridges and roads."},
		{Name: "devaluation", Prompt: "God, create a crisis involving a sudden devaluation of currency and trade halt."},
		{Name: "unrest", Prompt: "God, create a crisis involving a spread of dangerous lies and civil unrest."},
		{Name: "dry-wells", Prompt: "God, create a crisis involving the drying up of all major wells."},
		{Name: "apathy", Prompt: "God, create a crisis involving a wave of inexplicable depression and apathy."},
		{Name: "comms-failure", Prompt: "God, create a crisis involving the failure of all communication networks."},
	}
}

// Load reads a custom catalog: a yaml list of name/prompt pairs.
func Load(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	var catalog []Scenario
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("scenario: parse %s: %w", path, err)
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("scenario: %s contains no scenarios", path)
	}
	for i := range catalog {
		catalog[i].Name = strings.TrimSpace(catalog[i].Name)
		catalog[i].Prompt = strings.TrimSpace(catalog[i].Prompt)
		if catalog[i].Prompt == "" {
			return nil, fmt.Errorf("scenario: entry %d has no prompt", i)
		}
		if catalog[i].Name == "" {
			catalog[i].Name = fmt.Sprintf("scenario-%d", i+1)
		}
	}
	return catalog, nil
}
