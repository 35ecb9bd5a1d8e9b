package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/taskpulse"
	"github.com/jpalmerr/taskpulse/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// serveCmd starts the TaskPulse server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the task list server",
	Long: `Start the TaskPulse server.

The server will:
  - Load configuration from the specified YAML file
  - Restore persisted tasks if a data file is configured
  - Serve the web UI, API, peer, and WebSocket endpoints on the configured port

Flags override their config file counterparts when set.

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  taskpulse serve -c config.yaml
  taskpulse serve -c config.yaml --port 9090 --title "Standup Board"`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
	serveCmd.Flags().String("data-file", "", "sqlite snapshot path (overrides config)")
	serveCmd.Flags().String("title", "", "web UI title (overrides config)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// flag overrides take precedence over the config file
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("data-file") {
		cfg.DataFile, _ = cmd.Flags().GetString("data-file")
	}
	if cmd.Flags().Changed("title") {
		cfg.Title, _ = cmd.Flags().GetString("title")
	}

	logger.Info("config loaded",
		"port", cfg.Port,
		"peers", len(cfg.Peers),
		"persistence", cfg.DataFile != "",
	)

	tp, err := taskpulse.New(config.BuildOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("failed to create TaskPulse: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- tp.Start(ctx)
	}()

	// wait for server to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
