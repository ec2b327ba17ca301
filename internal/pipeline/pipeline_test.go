package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/javafmt/internal/parser"
	"github.com/standardbeagle/javafmt/internal/rules"
	"github.com/standardbeagle/javafmt/internal/rules/builtin"
	"github.com/standardbeagle/javafmt/internal/strategy"
)

func writeTempJavaFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Sample.java")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func buildTestPipeline(t *testing.T) *FileProcessorPipeline {
	t.Helper()
	registry := strategy.NewRegistry()
	ruleSet := []rules.FormattingRule{builtin.NewBraceStyleRule()}
	pl, err := NewBuilder().
		WithParseStage(NewDefaultParseStage(registry, parser.DefaultLanguageVersion)).
		WithFormatStage(NewDefaultFormatStage(ruleSet, nil, rules.DefaultSecurityConfig(), registry, parser.DefaultLanguageVersion)).
		WithWriteStage(NewDefaultWriteStage(nil)).
		Build()
	require.NoError(t, err)
	return pl
}

func TestBuilderFailsEmptyPipeline(t *testing.T) {
	_, err := NewBuilder().Build()
	assert.Error(t, err)
}

func TestBuilderFailsPartialPipeline(t *testing.T) {
	_, err := NewBuilder().WithParseStage(NewDefaultParseStage(strategy.NewRegistry(), parser.DefaultLanguageVersion)).Build()
	assert.Error(t, err)
}

func TestProcessRewritesFileInPlace(t *testing.T) {
	path := writeTempJavaFile(t, "class A\n{\n}\n")
	pl := buildTestPipeline(t)

	result := pl.Process(context.Background(), path, 5*time.Second, nil)
	require.Equal(t, OutcomeSuccess, result.Outcome)

	rewritten, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "class A {\n}\n", string(rewritten))
}

func TestProcessClosesArenaOnSuccess(t *testing.T) {
	path := writeTempJavaFile(t, "class A {\n}\n")
	pl := buildTestPipeline(t)

	result := pl.Process(context.Background(), path, 5*time.Second, nil)
	require.Equal(t, OutcomeSuccess, result.Outcome)
	require.NotNil(t, result.Arena)
	assert.False(t, result.Arena.IsAlive())
}

func TestProcessFailsCleanlyOnMissingFile(t *testing.T) {
	pl := buildTestPipeline(t)
	result := pl.Process(context.Background(), "/nonexistent/Path.java", 5*time.Second, nil)
	assert.Equal(t, OutcomeFailure, result.Outcome)
	assert.Equal(t, "parse", result.FailureStageID)
}

func TestProcessOnClosedPipelineFails(t *testing.T) {
	pl := buildTestPipeline(t)
	pl.Close()

	path := writeTempJavaFile(t, "class A {}\n")
	result := pl.Process(context.Background(), path, 5*time.Second, nil)
	assert.Equal(t, OutcomeFailure, result.Outcome)
}

func TestWriteStageRejectsEmptyOutput(t *testing.T) {
	path := writeTempJavaFile(t, "class A {}\n")
	stage := NewDefaultWriteStage(nil)
	pc := NewProcessingContext(path, time.Now(), time.Second, nil)

	res := stage.Execute(context.Background(), "", pc)
	assert.Error(t, res.Err)
}
