package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "norah",
			Environment: "development",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Path: "./data/norah.db",
		},
		Engine: EngineConfig{
			Epoch:       "2025-09-01",
			ClueWindow:  20,
			MaxReplyLen: 800,
			SeedBucket:  30 * time.Second,
			SessionTTL:  30 * time.Minute,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			RateLimit:     2,
			Burst:         5,
			SweepInterval: time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// defaultValues flattens DefaultConfig into koanf keys.
func defaultValues() map[string]interface{} {
	d := DefaultConfig()
	return map[string]interface{}{
		"app.name":              d.App.Name,
		"app.environment":       d.App.Environment,
		"log.level":             d.Log.Level,
		"log.format":            d.Log.Format,
		"store.path":            d.Store.Path,
		"engine.epoch":          d.Engine.Epoch,
		"engine.clue_window":    d.Engine.ClueWindow,
		"engine.max_reply_len":  d.Engine.MaxReplyLen,
		"engine.seed_bucket":    d.Engine.SeedBucket.String(),
		"engine.session_ttl":    d.Engine.SessionTTL.String(),
		"server.addr":           d.Server.Addr,
		"server.read_timeout":   d.Server.ReadTimeout.String(),
		"server.write_timeout":  d.Server.WriteTimeout.String(),
		"server.rate_limit":     d.Server.RateLimit,
		"server.burst":          d.Server.Burst,
		"server.sweep_interval": d.Server.SweepInterval.String(),
		"metrics.enabled":       d.Metrics.Enabled,
		"metrics.path":          d.Metrics.Path,
	}
}
