// norah runs the AION analyst engine as an MCP stdio server, an HTTP API,
// or an interactive terminal chat.
//
// Configuration comes from defaults, an optional --config file (YAML or
// JSON) and NORAH_* environment variables, e.g.
//
//	NORAH_STORE_PATH=./data/norah.db
//	NORAH_SERVER_ADDR=:8080
//	NORAH_ENGINE_MAX_REPLY_LEN=800
//
// Usage:
//
//	norah import fixtures.yaml
//	norah serve
//	norah mcp
//	norah chat --user u1
package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goblincore/norah"
	"github.com/goblincore/norah/internal/config"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:          "norah",
	Short:        "Norah, the AION clue analyst",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath, nil)
		if err != nil {
			return err
		}
		logger, err = newLogger(cfg.Log, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd, mcpCmd, chatCmd, importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds a production zap logger writing to stderr, so the MCP
// stdio transport keeps stdout to itself.
func newLogger(lc config.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	level, err := zap.ParseAtomicLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if lc.Format == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return zc.Build()
}

// app is the engine plus the store it reads from.
type app struct {
	engine   *norah.Engine
	store    *norah.Store
	registry *prometheus.Registry
}

// openApp opens the SQLite store and builds the engine over it.
func openApp() (*app, error) {
	reg := prometheus.NewRegistry()
	var metrics *norah.Metrics
	if cfg.Metrics.Enabled {
		metrics = norah.NewMetrics(reg)
	}

	ec, err := cfg.EngineConfig(logger, metrics)
	if err != nil {
		return nil, err
	}
	store, err := norah.NewStore(ec.DBPath)
	if err != nil {
		return nil, err
	}
	logger.Info("store opened", zap.String("path", ec.DBPath))

	return &app{
		engine:   norah.New(store, ec),
		store:    store,
		registry: reg,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
