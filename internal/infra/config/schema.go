package config

import (
	_ "embed"
	"fmt"

	"github.com/kaptinlin/jsonschema"
	"gopkg.in/yaml.v3"
)

// schemaJSON is the JSON Schema describing the config file shape. The doctor
// command validates the raw YAML against it to catch typos Validate cannot
// see, such as misspelled keys.
//
//go:embed schema.json
var schemaJSON []byte

// CheckSchema validates raw config YAML against the embedded schema.
// A nil return means the document conforms; otherwise the error carries the
// violation summary.
func CheckSchema(raw []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return nil
	}

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(schemaJSON)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	result := schema.Validate(doc)
	if !result.IsValid() {
		return fmt.Errorf("%s", result.Error())
	}
	return nil
}
