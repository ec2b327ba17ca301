package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/javafmt/internal/rules"
)

func TestIdentifierClarityFlagsAllFillerClassName(t *testing.T) {
	ctx := newTestContext(t, "class DataManager {\n}\n")

	rule := NewIdentifierClarityRule()
	violations, err := rule.Analyze(ctx, nil)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, IdentifierClarityRuleID, violations[0].RuleID)
	assert.Contains(t, violations[0].Message, "DataManager")
}

func TestIdentifierClarityIgnoresMeaningfulName(t *testing.T) {
	ctx := newTestContext(t, "class InvoiceReconciler {\n}\n")

	rule := NewIdentifierClarityRule()
	violations, err := rule.Analyze(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestIdentifierClarityExtractsFieldNameNotType(t *testing.T) {
	ctx := newTestContext(t, "class A { private final String tmpData; }")

	rule := NewIdentifierClarityRule()
	violations, err := rule.Analyze(ctx, nil)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "tmpData")
}

func TestIdentifierClarityExtractsMethodNameFromGenericSignature(t *testing.T) {
	ctx := newTestContext(t, "class A { public <T> List<T> dataUtil() { return null; } }")

	rule := NewIdentifierClarityRule()
	violations, err := rule.Analyze(ctx, nil)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "dataUtil")
}

func TestIdentifierClarityRespectsCustomBannedWords(t *testing.T) {
	ctx := newTestContext(t, "class Widget {\n}\n")

	rule := NewIdentifierClarityRule()
	configs := []rules.RuleConfig{IdentifierClarityConfig{BannedWords: []string{"widget"}}}
	violations, err := rule.Analyze(ctx, configs)
	require.NoError(t, err)
	require.Len(t, violations, 1)
}

func TestSplitWordsHandlesCamelCaseAndAcronyms(t *testing.T) {
	assert.Equal(t, []string{"http", "server", "id"}, splitWords("httpServerID"))
	assert.Equal(t, []string{"data", "manager"}, splitWords("DataManager"))
	assert.Equal(t, []string{"tmp", "value"}, splitWords("tmp_value"))
}

func TestIdentifierClarityFormatIsIdentity(t *testing.T) {
	src := "class DataManager {\n}\n"
	ctx := newTestContext(t, src)

	rule := NewIdentifierClarityRule()
	out, err := rule.Format(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}
