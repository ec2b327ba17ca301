package security

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReturnsDefaultsWhenNoFilesPresent(t *testing.T) {
	dir := t.TempDir()

	limits, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimits(), limits)
}

func TestLoadReadsTimeoutAndHeapFromKDL(t *testing.T) {
	dir := t.TempDir()
	kdlSrc := "security {\n    timeout_ms 5000\n    max_heap_mb 512\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, kdlFileName), []byte(kdlSrc), 0o644))

	limits, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, limits.Timeout)
	assert.Equal(t, int64(512*1024*1024), limits.MaxHeapBytes)
}

func TestLoadReadsHeapSizeSuffixFromKDL(t *testing.T) {
	dir := t.TempDir()
	kdlSrc := "security {\n    max_heap \"1GB\"\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, kdlFileName), []byte(kdlSrc), 0o644))

	limits, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(1024*1024*1024), limits.MaxHeapBytes)
}

func TestLoadTOMLOverridesKDLValues(t *testing.T) {
	dir := t.TempDir()
	kdlSrc := "security {\n    timeout_ms 5000\n    max_heap_mb 512\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, kdlFileName), []byte(kdlSrc), 0o644))
	tomlSrc := "[security]\ntimeout_ms = 9000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, tomlFileName), []byte(tomlSrc), 0o644))

	limits, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9*time.Second, limits.Timeout)
	assert.Equal(t, int64(512*1024*1024), limits.MaxHeapBytes, "TOML left max_heap_mb untouched, KDL value should survive")
}

func TestLoadTOMLAloneOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	tomlSrc := "[security]\nmax_heap_mb = 256\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, tomlFileName), []byte(tomlSrc), 0o644))

	limits, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimits().Timeout, limits.Timeout)
	assert.Equal(t, int64(256*1024*1024), limits.MaxHeapBytes)
}

func TestLoadRejectsZeroTimeoutOverride(t *testing.T) {
	dir := t.TempDir()
	tomlSrc := "[security]\ntimeout_ms = 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, tomlFileName), []byte(tomlSrc), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSecurityProjectsIntoRulesSecurityConfig(t *testing.T) {
	limits := Limits{Timeout: 7 * time.Second, MaxHeapBytes: 1024}
	assert.Equal(t, 7*time.Second, limits.Security().Timeout)
}
