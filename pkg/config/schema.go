package config

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var schemaYAML []byte

// ValidateConfig checks a YAML or JSON project config against the embedded
// schema.
func ValidateConfig(configData []byte) error {
	var schemaDoc any
	if err := yaml.Unmarshal(schemaYAML, &schemaDoc); err != nil {
		return fmt.Errorf("failed to parse config schema: %v", err)
	}

	var doc any
	if err := yaml.Unmarshal(configData, &doc); err != nil {
		return fmt.Errorf("failed to parse config: %v", err)
	}
	if doc == nil {
		// An empty file is an empty config.
		doc = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schemaDoc), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %v", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}
