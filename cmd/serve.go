package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vitaldesk/vitaldesk/api"
	"github.com/vitaldesk/vitaldesk/internal/app"
	"github.com/vitaldesk/vitaldesk/internal/config"
	"github.com/vitaldesk/vitaldesk/internal/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe initializes and starts the HTTP API server.
func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{})
	logger.Info("starting vitaldesk", "version", Version)
	if !cfg.ModelConfigured() {
		logger.Warn("no model credential configured, chat requests will fail",
			"provider", cfg.Provider)
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	srv := api.NewServer(a.Assistant, a.Reporter, a.Store, a.DBPool, logger.With("component", "api"))

	addr := fmt.Sprintf(":%d", cfg.Port)
	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("HTTP server: %w", err)
	}
	return nil
}
