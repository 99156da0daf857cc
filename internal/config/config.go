package config

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/chromaqr/internal/barcode"
	"github.com/MeKo-Tech/chromaqr/internal/overlay"
	"github.com/MeKo-Tech/chromaqr/internal/qrgen"
	"github.com/MeKo-Tech/chromaqr/internal/scan"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	worker := scan.DefaultWorkerConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Scan: ScanConfig{
			Backend:    barcode.BackendGozxing,
			Formats:    []string{"qr"},
			TryHarder:  false,
			Localize:   true,
			PerChannel: true,
			Workers:    worker.Workers,
			QueueSize:  worker.QueueSize,
		},
		Overlay: OverlayConfig{
			Color:   overlay.DefaultColorHex,
			WidthPx: overlay.DefaultWidthPx,
		},
		Generate: GenerateConfig{
			Size:  qrgen.DefaultSize,
			Level: "medium",
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     20,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			OverlayEnabled:  true,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if c.Scan.Backend != "" && !contains(barcode.BackendNames(), c.Scan.Backend) {
		return fmt.Errorf("invalid scan backend: %s (must be one of: %s)", c.Scan.Backend, strings.Join(barcode.BackendNames(), ", "))
	}
	if _, err := barcode.ParseFormats(c.Scan.Formats); err != nil {
		return fmt.Errorf("invalid scan formats: %w", err)
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("invalid scan workers: %d (must be positive)", c.Scan.Workers)
	}
	if c.Scan.QueueSize <= 0 {
		return fmt.Errorf("invalid scan queue size: %d (must be positive)", c.Scan.QueueSize)
	}

	if _, err := overlay.NewStyle(c.Overlay.Color, c.Overlay.WidthPx); err != nil {
		return fmt.Errorf("invalid overlay: %w", err)
	}

	if c.Generate.Size <= 0 {
		return fmt.Errorf("invalid generate size: %d (must be positive)", c.Generate.Size)
	}
	if _, err := qrgen.ParseLevel(c.Generate.Level); err != nil {
		return fmt.Errorf("invalid generate level: %w", err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.RateLimit.RequestsPerMinute < 0 || c.Server.RateLimit.MaxUploadMBPerDay < 0 {
		return fmt.Errorf("invalid rate limit: %+v (must not be negative)", c.Server.RateLimit)
	}

	return nil
}

// ToDecodeOptions converts the scan settings to backend decode options.
func (c *Config) ToDecodeOptions() (barcode.Options, error) {
	formats, err := barcode.ParseFormats(c.Scan.Formats)
	if err != nil {
		return barcode.Options{}, err
	}
	return barcode.Options{Formats: formats, TryHarder: c.Scan.TryHarder}, nil
}

// ToStyle converts the overlay settings to a stroke style.
func (c *Config) ToStyle() (overlay.Style, error) {
	return overlay.NewStyle(c.Overlay.Color, c.Overlay.WidthPx)
}

// ToSessionOptions converts the scan settings to session options.
func (c *Config) ToSessionOptions() scan.Options {
	return scan.Options{WantLocalization: c.Scan.Localize, PerChannel: c.Scan.PerChannel}
}

// ToWorkerConfig converts the scan settings to a frame worker configuration.
func (c *Config) ToWorkerConfig() scan.WorkerConfig {
	return scan.WorkerConfig{Workers: c.Scan.Workers, QueueSize: c.Scan.QueueSize}
}

// NewSession builds a scanning session from the configuration.
func (c *Config) NewSession() (*scan.Session, error) {
	opts, err := c.ToDecodeOptions()
	if err != nil {
		return nil, err
	}
	style, err := c.ToStyle()
	if err != nil {
		return nil, err
	}
	return scan.NewSessionForBackend(c.Scan.Backend, opts, style, c.ToSessionOptions())
}

// GenerateLevel returns the configured error correction level.
func (c *Config) GenerateLevel() (qrgen.Level, error) {
	return qrgen.ParseLevel(c.Generate.Level)
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
