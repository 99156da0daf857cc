package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/chromaqr/internal/config"
	"github.com/MeKo-Tech/chromaqr/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server for composing and scanning",
		Long: `Start an HTTP server that provides REST and WebSocket endpoints.

The server provides the following endpoints:
  POST /compose   - Compose three uploaded images (or ?preview=red|green|blue)
  POST /generate  - Generate a colour QR image from up to three texts
  POST /scan      - Decode an uploaded image (format=overlay for a PNG)
  GET  /ws/scan   - Live scanning: binary frames in, hits out
  GET  /health    - Health check endpoint
  GET  /metrics   - Prometheus metrics

Examples:
  chromaqr serve
  chromaqr serve --port 8080
  chromaqr serve --host 0.0.0.0 --port 3000 --requests-per-minute 120`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.settings()
			shutdownTimeout := applyServeFlags(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), server.ConfigFrom(cfg), shutdownTimeout)
		},
	}
	cmd.Flags().StringP("host", "H", "localhost", "server host")
	cmd.Flags().IntP("port", "p", 8080, "server port")
	cmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	cmd.Flags().Int("max-upload-size", 20, "maximum upload size in MB")
	cmd.Flags().Int("timeout", 30, "request timeout in seconds")
	cmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	cmd.Flags().Bool("overlay-enable", true, "enable overlay image responses")
	cmd.Flags().String("backend", "", "detection backend (gozxing, goqr)")
	cmd.Flags().Int("requests-per-minute", 0, "maximum requests per minute per client (0 disables)")
	cmd.Flags().Int64("max-upload-mb-per-day", 0, "maximum upload volume per client and day in MB (0 disables)")
	return cmd
}

// applyServeFlags copies explicitly set flags over cfg and returns the
// shutdown timeout.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) time.Duration {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("cors-origin") {
		cfg.Server.CORSOrigin, _ = flags.GetString("cors-origin")
	}
	if flags.Changed("max-upload-size") {
		cfg.Server.MaxUploadMB, _ = flags.GetInt("max-upload-size")
	}
	if flags.Changed("timeout") {
		cfg.Server.TimeoutSec, _ = flags.GetInt("timeout")
	}
	if flags.Changed("shutdown-timeout") {
		cfg.Server.ShutdownTimeout, _ = flags.GetInt("shutdown-timeout")
	}
	if flags.Changed("overlay-enable") {
		cfg.Server.OverlayEnabled, _ = flags.GetBool("overlay-enable")
	}
	if flags.Changed("backend") {
		cfg.Scan.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("requests-per-minute") {
		cfg.Server.RateLimit.RequestsPerMinute, _ = flags.GetInt("requests-per-minute")
	}
	if flags.Changed("max-upload-mb-per-day") {
		cfg.Server.RateLimit.MaxUploadMBPerDay, _ = flags.GetInt64("max-upload-mb-per-day")
	}
	return time.Duration(cfg.Server.ShutdownTimeout) * time.Second
}

func runServe(parent context.Context, serverConfig server.Config, shutdownTimeout time.Duration) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	srv, err := server.NewServer(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	timeout := time.Duration(serverConfig.TimeoutSec) * time.Second
	httpServer := &http.Server{
		Addr:              serverConfig.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting chromaqr server", "host", serverConfig.Host, "port", serverConfig.Port,
			"backend", serverConfig.Settings.Scan.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			serveErr <- err
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("Context cancelled, initiating shutdown")
	}

	slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout.String())
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return err
	}
	slog.Info("Graceful shutdown completed")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}
