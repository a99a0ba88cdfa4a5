// Package deck drives whole-deck generation: a JSON plan names the slides,
// a bounded worker pool renders them, and the finished images can be bound
// into a single PDF.
package deck

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed plan_schema.json
var planSchemaJSON []byte

// Slide is one page of the plan.
type Slide struct {
	Filename string   `json:"filename"`
	Prompt   string   `json:"prompt"`
	Settings []string `json:"settings,omitempty"`
}

// Plan describes a full deck. Deck-level settings keys apply to every slide,
// slide-level keys are appended per slide.
type Plan struct {
	StylePrefix string   `json:"style_prefix,omitempty"`
	Settings    []string `json:"settings,omitempty"`
	Slides      []Slide  `json:"slides"`
}

// LoadPlan reads and validates a plan file. Validation failures report the
// schema violation rather than a downstream nil-field panic.
func LoadPlan(path string) (*Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	if err := validatePlan(raw); err != nil {
		return nil, fmt.Errorf("invalid plan %s: %w", path, err)
	}
	var p Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return &p, nil
}

func validatePlan(raw []byte) error {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("plan_schema.json", bytes.NewReader(planSchemaJSON)); err != nil {
		return fmt.Errorf("schema resource: %w", err)
	}
	s, err := c.Compile("plan_schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return s.Validate(doc)
}
