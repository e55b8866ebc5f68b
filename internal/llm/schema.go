package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nature-catalyst/impact-intake/constants"
)

// BuildProjectJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// model's reply as a generic map. Enumerated fields are constrained to their
// vocabularies; numeric fields accept numbers or numeric strings because the
// coercion step normalizes them afterwards.
func BuildProjectJSONSchema() map[string]any {
	props := map[string]any{
		"businessModel": textProp(),
		"maturityStage": map[string]any{"type": "string", "enum": constants.MaturityStages},
		"region":        map[string]any{"type": "string", "enum": constants.Regions},
		"mainCountry":   textProp(),
		"instrument":    map[string]any{"type": "string", "enum": constants.Instruments},
		"coreTeam":      textProp(),
		"impactArea":    textProp(),
		"keyRisks":      textProp(),
		"barriers":      textProp(),
		"revenues":      numericProp(),
		"breakeven":     numericProp(),
		"marketSize":    numericProp(),
		"expectedIRR":   numericProp(),
		"financingNeed": numericProp(),
		"useOfProceeds": textProp(),
		"sdgs": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string", "enum": constants.SDGs},
			"maxItems": constants.MaxSDGs,
		},
		"problem":  textProp(),
		"solution": textProp(),
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []string{"businessModel", "maturityStage", "region", "problem", "solution"},
	}
}

func textProp() map[string]any {
	return map[string]any{"type": "string", "minLength": 1}
}

func numericProp() map[string]any {
	return map[string]any{"type": []string{"number", "string"}}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
