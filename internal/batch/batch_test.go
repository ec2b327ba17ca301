package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/javafmt/internal/memsem"
	"github.com/standardbeagle/javafmt/internal/parser"
	"github.com/standardbeagle/javafmt/internal/pipeline"
	"github.com/standardbeagle/javafmt/internal/rules"
	"github.com/standardbeagle/javafmt/internal/rules/builtin"
	"github.com/standardbeagle/javafmt/internal/strategy"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}

func buildTestPipeline(t *testing.T) *pipeline.FileProcessorPipeline {
	t.Helper()
	registry := strategy.NewRegistry()
	ruleSet := []rules.FormattingRule{builtin.NewLineLengthRule()}
	pl, err := pipeline.NewBuilder().
		WithParseStage(pipeline.NewDefaultParseStage(registry, parser.DefaultLanguageVersion)).
		WithFormatStage(pipeline.NewDefaultFormatStage(ruleSet, nil, rules.DefaultSecurityConfig(), registry, parser.DefaultLanguageVersion)).
		WithWriteStage(pipeline.NewDefaultWriteStage(nil)).
		Build()
	require.NoError(t, err)
	return pl
}

func writeJavaFiles(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("File%d.java", i))
		require.NoError(t, os.WriteFile(path, []byte("class A {\n    int x;\n}\n"), 0o644))
		paths[i] = path
	}
	return paths
}

type recordingObserver struct {
	mu        sync.Mutex
	completed []string
}

func (o *recordingObserver) OnFileComplete(completedSoFar, total int, path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, path)
}

func (o *recordingObserver) OnRateSample(filesPerSecond float64) {}

func TestBatchProcessesAllFilesSuccessfully(t *testing.T) {
	paths := writeJavaFiles(t, 5)
	mem := memsem.NewMemoryReservationManager(512 * 1024 * 1024)
	bp := NewBatchProcessor(buildTestPipeline(t), mem)

	result := bp.Process(context.Background(), paths, ParallelProcessingConfig{MaxConcurrency: 3})
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 5, result.SuccessCount)
	assert.Equal(t, 0, result.FailureCount)
	require.Len(t, result.Results, 5)
	for i, r := range result.Results {
		assert.Equal(t, paths[i], r.Path)
	}
}

func TestBatchPreservesInputOrderDespiteConcurrency(t *testing.T) {
	paths := writeJavaFiles(t, 8)
	mem := memsem.NewMemoryReservationManager(512 * 1024 * 1024)
	bp := NewBatchProcessor(buildTestPipeline(t), mem)

	result := bp.Process(context.Background(), paths, ParallelProcessingConfig{MaxConcurrency: 8})
	for i, r := range result.Results {
		assert.Equal(t, paths[i], r.Path, "result at index %d should match input order", i)
	}
}

func TestBatchContinuesAfterFailureUnderContinueStrategy(t *testing.T) {
	paths := writeJavaFiles(t, 3)
	paths = append(paths, filepath.Join(filepath.Dir(paths[0]), "Missing.java"))
	mem := memsem.NewMemoryReservationManager(512 * 1024 * 1024)
	bp := NewBatchProcessor(buildTestPipeline(t), mem)

	result := bp.Process(context.Background(), paths, ParallelProcessingConfig{MaxConcurrency: 4, ErrorStrategy: Continue})
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 3, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
}

func TestBatchInvokesProgressExactlyOncePerFile(t *testing.T) {
	paths := writeJavaFiles(t, 4)
	mem := memsem.NewMemoryReservationManager(512 * 1024 * 1024)
	bp := NewBatchProcessor(buildTestPipeline(t), mem)
	observer := &recordingObserver{}

	bp.Process(context.Background(), paths, ParallelProcessingConfig{MaxConcurrency: 2, Progress: observer})

	observer.mu.Lock()
	defer observer.mu.Unlock()
	assert.Len(t, observer.completed, 4)
}

func TestBatchSkipsPatternMatchedPaths(t *testing.T) {
	paths := writeJavaFiles(t, 3)
	mem := memsem.NewMemoryReservationManager(512 * 1024 * 1024)
	bp := NewBatchProcessor(buildTestPipeline(t), mem)

	result := bp.Process(context.Background(), paths, ParallelProcessingConfig{
		MaxConcurrency: 2,
		SkipPatterns:   []string{paths[0]},
	})
	assert.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, 2, result.SuccessCount)
}

func TestBatchReportsThroughput(t *testing.T) {
	paths := writeJavaFiles(t, 2)
	mem := memsem.NewMemoryReservationManager(512 * 1024 * 1024)
	bp := NewBatchProcessor(buildTestPipeline(t), mem)

	result := bp.Process(context.Background(), paths, ParallelProcessingConfig{MaxConcurrency: 2})
	assert.Greater(t, result.FilesPerSecond, 0.0)
	assert.True(t, result.Duration > 0)
	_ = time.Now()
}
