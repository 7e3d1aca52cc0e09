package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "jobsift.db", cfg.Store.SQLitePath)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.True(t, cfg.LLM.StructuredOutput)
	assert.Equal(t, 4, cfg.LLM.MaxRetries)
	assert.Equal(t, 10, cfg.Enrich.BatchSize)
	assert.Equal(t, 4, cfg.Enrich.MaxConcurrent)
	assert.Equal(t, 1500, cfg.Enrich.DescriptionBudget)
	assert.Equal(t, 15, cfg.Enrich.ReportIntervalSecs)
	assert.Equal(t, 3, cfg.Enrich.MaxFailedCycles)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("JOBSIFT_LLM_MODEL", "o1-mini")
	t.Setenv("JOBSIFT_ENRICH_BATCH_SIZE", "25")
	t.Setenv("JOBSIFT_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "o1-mini", cfg.LLM.Model)
	assert.Equal(t, 25, cfg.Enrich.BatchSize)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
llm:
  provider: anthropic
  model: claude-haiku-4-5
enrich:
  batch_size: 5
  max_concurrent: 2
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-haiku-4-5", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.Enrich.BatchSize)
	assert.Equal(t, 2, cfg.Enrich.MaxConcurrent)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 1500, cfg.Enrich.DescriptionBudget)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("llm: ["), 0o644))
	chdir(t, dir)

	_, err := Load()
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Enrich.BatchSize)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level", Format: "json"})
	require.Error(t, err)
}
