package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "stockbatch.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 300, cfg.Catalog.RefreshSecs)
	assert.Equal(t, "https://api.stockdepot.io", cfg.Lookup.BaseURL)
	assert.Equal(t, 30, cfg.Lookup.TimeoutSecs)
	assert.Equal(t, 8, cfg.Resolver.Workers)
	assert.InDelta(t, 10.0, cfg.Resolver.RatePerSec, 0.001)
	assert.Equal(t, 10, cfg.Resolver.Burst)
	assert.Equal(t, 20, cfg.Resolver.ItemTimeoutSecs)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/stockbatch
log:
  level: debug
  format: console
resolver:
  workers: 3
  rate_per_sec: 2.5
catalog:
  refresh_secs: 60
  seed_file: providers.yaml
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/stockbatch", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 3, cfg.Resolver.Workers)
	assert.InDelta(t, 2.5, cfg.Resolver.RatePerSec, 0.001)
	assert.Equal(t, 60, cfg.Catalog.RefreshSecs)
	assert.Equal(t, "providers.yaml", cfg.Catalog.SeedFile)

	// Untouched sections keep defaults.
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Resolver.Burst)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	err := InitLogger(LogConfig{Level: "not-a-level", Format: "json"})
	assert.Error(t, err)
}
