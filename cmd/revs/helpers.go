package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abelbrown/reviews/internal/config"
	"github.com/abelbrown/reviews/internal/logging"
	"github.com/abelbrown/reviews/internal/store"
)

// loadConfig reads the config file and environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if dbFlag != "" {
		cfg.Source.DBPath = dbFlag
	}
	return cfg, nil
}

// openDB opens the store named by cfg, creating its directory.
func openDB(cfg *config.Config) (*store.Store, error) {
	path := cfg.DBPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return store.Open(path)
}

// initLogging starts the file logger under the data dir. Failure is not
// fatal for a CLI; diagnostics are simply dropped.
func initLogging(cfg *config.Config) {
	if err := logging.Init(cfg.DataDir, logging.ParseLevel(cfg.LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}
}
