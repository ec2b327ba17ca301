package rules

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
)

type fakeLineLengthConfig struct {
	MaxLength int
}

func (fakeLineLengthConfig) RuleID() string { return "line-length" }

type otherConfig struct{}

func (otherConfig) RuleID() string { return "other-rule" }

func TestResolveConfigFindsMatchingType(t *testing.T) {
	configs := []RuleConfig{otherConfig{}, fakeLineLengthConfig{MaxLength: 80}}
	resolved, found := ResolveConfig(configs, fakeLineLengthConfig{MaxLength: 120})
	assert.True(t, found)
	assert.Equal(t, 80, resolved.MaxLength)
}

func TestResolveConfigFallsBackToDefault(t *testing.T) {
	configs := []RuleConfig{otherConfig{}}
	resolved, found := ResolveConfig(configs, fakeLineLengthConfig{MaxLength: 120})
	assert.False(t, found)
	assert.Equal(t, 120, resolved.MaxLength)
}

type schemaConfig struct {
	name string
}

func (c schemaConfig) RuleID() string { return c.name }
func (c schemaConfig) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"max_length"},
		Properties: map[string]*jsonschema.Schema{
			"max_length": {Type: "integer"},
		},
	}
}

func TestValidateConfigRejectsMissingRequiredField(t *testing.T) {
	cfg := schemaConfig{name: "line-length"}
	err := ValidateConfig(cfg, map[string]any{})
	assert.Error(t, err)
}

func TestValidateConfigRejectsWrongType(t *testing.T) {
	cfg := schemaConfig{name: "line-length"}
	err := ValidateConfig(cfg, map[string]any{"max_length": "not a number"})
	assert.Error(t, err)
}

func TestValidateConfigAcceptsWellFormedFields(t *testing.T) {
	cfg := schemaConfig{name: "line-length"}
	err := ValidateConfig(cfg, map[string]any{"max_length": 100})
	assert.NoError(t, err)
}
