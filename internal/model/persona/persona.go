package persona

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ID selects one of the fixed assistant personas.
type ID string

const (
	ManasBridge ID = "manasbridge"
	Zen         ID = "zen"
	Chirpy      ID = "chirpy"
)

// DefaultID is used when no persona has been chosen.
const DefaultID = ManasBridge

// Persona captures the assistant configuration exposed to the frontend.
type Persona struct {
	ID           ID     `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description"`
	Example      string `json:"example" yaml:"example"`
	Instructions string `json:"-" yaml:"instructions"`
}

//go:embed personas.yaml
var seedYAML []byte

// Parse decodes a persona catalogue and rejects entries without an id or instructions.
func Parse(data []byte) ([]Persona, error) {
	var items []Persona
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode personas: %w", err)
	}

	seen := make(map[ID]bool, len(items))
	for i, p := range items {
		if p.ID == "" || p.Instructions == "" {
			return nil, fmt.Errorf("persona %d: id and instructions are required", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("persona %s: duplicate id", p.ID)
		}
		seen[p.ID] = true
	}
	return items, nil
}

// Seed provides the compiled-in personas.
func Seed() []Persona {
	items, err := Parse(seedYAML)
	if err != nil {
		panic(err)
	}
	return items
}
