// Package config loads the norah command configuration from defaults, an
// optional YAML/JSON file and NORAH_ environment variables.
package config

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goblincore/norah"
)

// EpochLayout is the date format of engine.epoch.
const EpochLayout = "2006-01-02"

// Config is the full configuration of the norah binary.
type Config struct {
	App     AppConfig     `mapstructure:"app" validate:"required"`
	Log     LogConfig     `mapstructure:"log" validate:"required"`
	Store   StoreConfig   `mapstructure:"store" validate:"required"`
	Engine  EngineConfig  `mapstructure:"engine" validate:"required"`
	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// AppConfig holds application metadata.
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// EngineConfig tunes reply generation.
type EngineConfig struct {
	// Epoch is the first day of week 1, as YYYY-MM-DD.
	Epoch       string        `mapstructure:"epoch" validate:"required,datetime=2006-01-02"`
	ClueWindow  int           `mapstructure:"clue_window" validate:"min=1,max=200"`
	MaxReplyLen int           `mapstructure:"max_reply_len" validate:"min=100,max=4000"`
	SeedBucket  time.Duration `mapstructure:"seed_bucket" validate:"gte=1s"`
	SessionTTL  time.Duration `mapstructure:"session_ttl" validate:"gte=1s"`
}

// ServerConfig holds the HTTP API settings used by `norah serve`.
type ServerConfig struct {
	Addr          string        `mapstructure:"addr" validate:"required"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	RateLimit     float64       `mapstructure:"rate_limit" validate:"gte=0"`
	Burst         int           `mapstructure:"burst" validate:"min=1"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gte=1s"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// EpochTime parses Engine.Epoch.
func (c *Config) EpochTime() (time.Time, error) {
	t, err := time.Parse(EpochLayout, c.Engine.Epoch)
	if err != nil {
		return time.Time{}, fmt.Errorf("engine.epoch: %w", err)
	}
	return t.UTC(), nil
}

// EngineConfig converts the loaded configuration into a norah.Config.
func (c *Config) EngineConfig(logger *zap.Logger, metrics *norah.Metrics) (norah.Config, error) {
	epoch, err := c.EpochTime()
	if err != nil {
		return norah.Config{}, err
	}
	return norah.Config{
		DBPath:      c.Store.Path,
		Epoch:       epoch,
		ClueWindow:  c.Engine.ClueWindow,
		MaxReplyLen: c.Engine.MaxReplyLen,
		SeedBucket:  c.Engine.SeedBucket,
		SessionTTL:  c.Engine.SessionTTL,
		Logger:      logger,
		Metrics:     metrics,
	}, nil
}
