// Package tools implements the structured data tool pipeline: a declarative
// catalog of tools, keyword matching against user input, prompt instructions
// for the model, strict parsing of JSON tool calls out of model replies,
// dispatch to per-tool backends, and rendering of backend data as terminal
// cards.
//
// The pipeline is prompt-contract based: matched tools are described to the
// model as literal instructions, and the model invokes a tool by replying with
// raw JSON of the shape {"tool": "<id>", ...}. Replies that are not exactly
// that shape are treated as ordinary chat messages.
package tools

import (
	"encoding/json"
	"fmt"
	"os"
)

// Definition describes one tool from the catalog. Immutable once loaded.
type Definition struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Keywords        []string `json:"keywords"`
	KeywordContext  []string `json:"keyword_context,omitempty"`
	LLMInstructions string   `json:"llm_instructions"`
	BackendEndpoint string   `json:"backend_endpoint"`
	Renderer        string   `json:"renderer"`
}

// Catalog is the set of registered tool definitions, in file order.
type Catalog struct {
	Tools []Definition `json:"tools"`
}

// LoadCatalog reads and validates a tool catalog from a JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tool catalog: %w", err)
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse tool catalog: %w", err)
	}

	if err := catalog.validate(); err != nil {
		return nil, err
	}

	return &catalog, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool)
	for _, tool := range c.Tools {
		if tool.ID == "" {
			return fmt.Errorf("tool catalog entry missing id")
		}
		if seen[tool.ID] {
			return fmt.Errorf("duplicate tool id: %s", tool.ID)
		}
		seen[tool.ID] = true

		if len(tool.Keywords) == 0 {
			return fmt.Errorf("tool %q has no keywords", tool.ID)
		}
		if tool.BackendEndpoint == "" {
			return fmt.Errorf("tool %q has no backend endpoint", tool.ID)
		}
		if tool.Renderer == "" {
			return fmt.Errorf("tool %q has no renderer", tool.ID)
		}
	}
	return nil
}

// Find returns the definition for a tool id, or nil if not registered.
func (c *Catalog) Find(id string) *Definition {
	for i := range c.Tools {
		if c.Tools[i].ID == id {
			return &c.Tools[i]
		}
	}
	return nil
}
