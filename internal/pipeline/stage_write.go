package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/standardbeagle/javafmt/internal/errs"
)

// DefaultWriteStage writes formatted content back to its originating
// path atomically: write to a sibling temporary file, then rename over
// the target. Empty content is rejected outright (EmptyOutput). Before
// the rename, the target's parent directory is resolved through
// filepath.EvalSymlinks so the temporary file lands in the real
// directory a symlinked parent points at, rather than silently writing
// into (or failing against) the symlink itself — the same defensive
// posture the teacher's directory walker uses against symlink cycles
// (internal/indexing/pipeline.go's visitedDirs guard), applied here to a
// single write instead of a traversal.
type DefaultWriteStage struct {
	targetPath func(inputPath string) string
}

// NewDefaultWriteStage builds a write stage that writes back to the same
// path the file was parsed from. targetPath, if non-nil, lets a caller
// redirect output elsewhere (e.g. a dry-run staging directory); nil
// means "write in place".
func NewDefaultWriteStage(targetPath func(inputPath string) string) *DefaultWriteStage {
	return &DefaultWriteStage{targetPath: targetPath}
}

func (s *DefaultWriteStage) ID() string                  { return "write" }
func (s *DefaultWriteStage) SupportsErrorRecovery() bool { return false }

func (s *DefaultWriteStage) Execute(ctx context.Context, content string, pc *ProcessingContext) StageResult[string] {
	select {
	case <-ctx.Done():
		return StageResult[string]{Err: ctx.Err()}
	default:
	}

	if content == "" {
		return StageResult[string]{Err: errs.NewStageError(errs.KindEmptyOutput, s.ID(), fmt.Errorf("content to write is empty"))}
	}

	path := pc.Path
	if s.targetPath != nil {
		path = s.targetPath(pc.Path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return StageResult[string]{Err: errs.NewStageError(errs.KindWriteFailed, s.ID(), fmt.Errorf("creating parent directory %s: %w", dir, err))}
	}

	realDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		// Directory genuinely unresolvable (broken symlink, permissions);
		// fall back to the literal path rather than failing the write.
		realDir = dir
	}

	tmp, err := os.CreateTemp(realDir, ".javafmt-*.tmp")
	if err != nil {
		return StageResult[string]{Err: errs.NewStageError(errs.KindWriteFailed, s.ID(), fmt.Errorf("creating temp file in %s: %w", realDir, err))}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return StageResult[string]{Err: errs.NewStageError(errs.KindWriteFailed, s.ID(), fmt.Errorf("writing temp file %s: %w", tmpPath, err))}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return StageResult[string]{Err: errs.NewStageError(errs.KindWriteFailed, s.ID(), fmt.Errorf("closing temp file %s: %w", tmpPath, err))}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return StageResult[string]{Err: errs.NewStageError(errs.KindWriteFailed, s.ID(), fmt.Errorf("renaming %s to %s: %w", tmpPath, path, err))}
	}

	return StageResult[string]{Output: path}
}
