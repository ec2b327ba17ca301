package rules

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/standardbeagle/javafmt/internal/errs"
)

// ConfigSchema is implemented by a RuleConfig type that wants its
// accepted keys/types documented and validated declaratively, the way
// the teacher declares each MCP tool's input shape (server.go's
// registerTools: Type/Properties/Description/Required struct literals)
// rather than hand-rolling a validation function per field.
type ConfigSchema interface {
	RuleConfig
	// Schema describes this configuration's accepted keys; ValidateConfig
	// checks option values against it (spec.md §4.8).
	Schema() *jsonschema.Schema
}

// ResolveConfig scans configs in order for the first entry of type T,
// returning it and true. If none matches, it returns fallback and
// false — the rule's own declared default (spec.md §4.8: "falling back
// to a declared default" on a type-filtered ordered list). Unknown
// entries (any other RuleConfig type) are ignored, never an error.
func ResolveConfig[T RuleConfig](configs []RuleConfig, fallback T) (T, bool) {
	for _, c := range configs {
		if typed, ok := c.(T); ok {
			return typed, true
		}
	}
	return fallback, false
}

// ValidateConfig walks the JSON-Schema-declared required/type
// constraints of cfg's declared schema against fields, the caller-supplied
// option values keyed by option name, and raises InvalidConfiguration for
// the first violation (spec.md §4.8).
// Schemas that declare no Properties/Required are trivially valid —
// this is a presence/type checker over the shape the rule author
// declared, not a full recursive JSON Schema validator.
func ValidateConfig(cfg ConfigSchema, fields map[string]any) error {
	schema := cfg.Schema()
	if schema == nil {
		return nil
	}
	for _, name := range schema.Required {
		if _, present := fields[name]; !present {
			return errs.NewEngineError(errs.KindInvalidConfiguration, cfg.RuleID(),
				fmt.Errorf("missing required option %q", name))
		}
	}
	for name, propSchema := range schema.Properties {
		val, present := fields[name]
		if !present || propSchema == nil || propSchema.Type == "" {
			continue
		}
		if !matchesJSONType(val, propSchema.Type) {
			return errs.NewEngineError(errs.KindInvalidConfiguration, cfg.RuleID(),
				fmt.Errorf("option %q: expected %s, got %T", name, propSchema.Type, val))
		}
	}
	return nil
}

func matchesJSONType(val any, jsonType string) bool {
	switch jsonType {
	case "string":
		_, ok := val.(string)
		return ok
	case "integer":
		switch val.(type) {
		case int, int32, int64:
			return true
		default:
			return false
		}
	case "number":
		switch val.(type) {
		case int, int32, int64, float32, float64:
			return true
		default:
			return false
		}
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "object":
		_, ok := val.(map[string]any)
		return ok
	case "array":
		_, ok := val.([]any)
		return ok
	default:
		return true
	}
}
