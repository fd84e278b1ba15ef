package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abelbrown/reviews/internal/fetch"
	"github.com/abelbrown/reviews/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the store as a paged JSON endpoint",
	Long: `Serves GET /reviews?offset=N&limit=M from the SQLite store in the
page wire format, plus GET /healthz. Point the TUI at it with
REVIEWS_SOURCE=http REVIEWS_URL=http://localhost:8080/reviews.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initLogging(cfg)

	st, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "serving %s on %s\n", cfg.DBPath(), serveAddr)
	return server.New(serveAddr, fetch.NewStoreSource(st)).Run(ctx)
}
