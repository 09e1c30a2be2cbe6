package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ValidateWithDetails(cfg))

	assert.Equal(t, "norah", cfg.App.Name)
	assert.Equal(t, 800, cfg.Engine.MaxReplyLen)
	assert.Equal(t, 20, cfg.Engine.ClueWindow)
	assert.Equal(t, 30*time.Second, cfg.Engine.SeedBucket)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, *DefaultConfig(), *cfg)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "norah.yaml")
	content := `
log:
  level: debug
store:
  path: /tmp/norah-test.db
engine:
  max_reply_len: 600
  seed_bucket: 1m
server:
  addr: 127.0.0.1:9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/norah-test.db", cfg.Store.Path)
	assert.Equal(t, 600, cfg.Engine.MaxReplyLen)
	assert.Equal(t, time.Minute, cfg.Engine.SeedBucket)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	// untouched keys keep their defaults
	assert.Equal(t, 20, cfg.Engine.ClueWindow)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "norah.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"engine": {"clue_window": 5}}`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Engine.ClueWindow)
}

func TestLoadUnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "norah.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	_, err := Load(path, nil)
	assert.ErrorContains(t, err, "unsupported config file format")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.ErrorContains(t, err, "config file not found")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "norah.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  max_reply_len: 600\n"), 0o644))

	t.Setenv("NORAH_ENGINE_MAX_REPLY_LEN", "700")
	t.Setenv("NORAH_STORE_PATH", "/var/lib/norah.db")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 700, cfg.Engine.MaxReplyLen)
	assert.Equal(t, "/var/lib/norah.db", cfg.Store.Path)
}

func TestLoadOverridesWin(t *testing.T) {
	t.Setenv("NORAH_LOG_LEVEL", "warn")

	cfg, err := Load("", map[string]interface{}{"log.level": "debug"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadValidationFailure(t *testing.T) {
	cfg, err := Load("", map[string]interface{}{
		"engine.max_reply_len": 10,
		"log.level":            "loud",
	})
	require.Error(t, err)
	assert.Nil(t, cfg)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
	assert.Contains(t, err.Error(), "Config.Engine.MaxReplyLen")
	assert.Contains(t, err.Error(), "must be one of")
}

func TestValidateEpoch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.Epoch = "01/09/2025"
	err := ValidateWithDetails(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a date")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "engine.max_reply_len", envKey("NORAH_ENGINE_MAX_REPLY_LEN"))
	assert.Equal(t, "log.level", envKey("NORAH_LOG_LEVEL"))
}

func TestEngineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.Epoch = "2025-10-06"

	ec, err := cfg.EngineConfig(zap.NewNop(), nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC), ec.Epoch)
	assert.Equal(t, cfg.Store.Path, ec.DBPath)
	assert.Equal(t, 800, ec.MaxReplyLen)
	assert.NotNil(t, ec.Logger)

	cfg.Engine.Epoch = "bad"
	_, err = cfg.EngineConfig(zap.NewNop(), nil)
	assert.Error(t, err)
}
