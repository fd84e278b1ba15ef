// Command reviews is the infinitely scrolling reviews list.
//
// Configuration is read from ~/.reviews/config.yaml (or $REVIEWS_CONFIG)
// and REVIEWS_* environment variables. Diagnostics go to
// <data dir>/logs and the event log to <data dir>/events.jsonl.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/reviews/internal/config"
	"github.com/abelbrown/reviews/internal/feed"
	"github.com/abelbrown/reviews/internal/fetch"
	"github.com/abelbrown/reviews/internal/images"
	"github.com/abelbrown/reviews/internal/layout"
	"github.com/abelbrown/reviews/internal/logging"
	"github.com/abelbrown/reviews/internal/otel"
	"github.com/abelbrown/reviews/internal/ui"
)

// ringSize is the number of recent events kept for the debug overlay.
const ringSize = 1024

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(envOrDefault("REVIEWS_CONFIG", config.ConfigPath()))
	if err != nil {
		fatal("Failed to load config: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		fatal("Invalid environment: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("Invalid config: %v", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		fatal("Failed to create data directory: %v", err)
	}

	// Initialize logging
	if err := logging.Init(cfg.DataDir, logging.ParseLevel(cfg.LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()

	// Event log + ring buffer for the debug overlay
	events := otel.NewNullLogger()
	if f, err := os.OpenFile(cfg.EventLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
		logging.Warn("Event log disabled", "error", err)
	} else {
		defer f.Close()
		events = otel.NewLogger(f)
	}
	defer events.Close()
	ring := otel.NewRingBuffer(ringSize)
	events.SetRingBuffer(ring)
	events.Info(otel.KindStartup, "main", "reviews starting")

	// Page source
	src, closeSource, err := fetch.FromConfig(cfg)
	if err != nil {
		fatal("Failed to open %s source: %v", cfg.Source.Kind, err)
	}
	defer closeSource()
	logging.Info("Source ready", "kind", cfg.Source.Kind, "page_size", cfg.PageSize)

	// A zero max_lines in the config means every body starts expanded.
	maxLines := cfg.MaxLines
	if maxLines == 0 {
		maxLines = -1
	}
	pager := feed.NewPager(src, feed.Config{
		Limit:           cfg.PageSize,
		PrefetchScreens: cfg.PrefetchScreens,
		MaxLines:        maxLines,
		Context:         ctx,
		Events:          events,
	})

	var loader *images.Loader
	if cfg.Images.Enabled {
		loader = images.NewLoader(images.NewMemoryCache(cfg.Images.CacheSize), images.Options{
			Timeout:     cfg.Images.Timeout(),
			RatePerSec:  cfg.Images.RatePerSec,
			Concurrency: cfg.Images.Concurrency,
			Events:      events,
		})
	}

	app := ui.NewApp(ui.AppConfig{
		Pager:        pager,
		Engine:       layout.New(layout.Default()),
		Images:       loader,
		Obs:          ui.ObsConfig{Ring: ring, Events: events},
		SmoothScroll: cfg.UI.SmoothScroll,
		Context:      ctx,
	})
	defer app.Close()

	var opts []tea.ProgramOption
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	program := tea.NewProgram(app, opts...)

	// Run UI (blocks until quit)
	logging.Info("Starting UI")
	if _, err := program.Run(); err != nil {
		logging.Error("Application error", "error", err)
		events.Error(otel.KindError, "main", err)
	}

	// Graceful shutdown: in-flight fetches see the cancelled context and
	// the closed pager drops whatever they return.
	cancel()
	events.Info(otel.KindShutdown, "main", "reviews exiting")
	logging.Info("Reviews exiting normally")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
