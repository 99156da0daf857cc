//nolint:lll
package config

// Config represents the complete configuration for the chromaqr application.
// It includes settings for all commands (compose, generate, scan, serve) and
// supports loading from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Detection and live scanning
	Scan ScanConfig `mapstructure:"scan" yaml:"scan" json:"scan"`

	// Overlay stroke
	Overlay OverlayConfig `mapstructure:"overlay" yaml:"overlay" json:"overlay"`

	// QR symbol generation
	Generate GenerateConfig `mapstructure:"generate" yaml:"generate" json:"generate"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// ScanConfig contains detection settings.
type ScanConfig struct {
	Backend    string   `mapstructure:"backend" yaml:"backend" json:"backend"`
	Formats    []string `mapstructure:"formats" yaml:"formats" json:"formats"`
	TryHarder  bool     `mapstructure:"try_harder" yaml:"try_harder" json:"try_harder"`
	Localize   bool     `mapstructure:"localize" yaml:"localize" json:"localize"`
	PerChannel bool     `mapstructure:"per_channel" yaml:"per_channel" json:"per_channel"`
	Workers    int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	QueueSize  int      `mapstructure:"queue_size" yaml:"queue_size" json:"queue_size"`
}

// OverlayConfig contains the stroke used to outline detected codes.
type OverlayConfig struct {
	Color   string `mapstructure:"color" yaml:"color" json:"color"`
	WidthPx int    `mapstructure:"width_px" yaml:"width_px" json:"width_px"`
}

// GenerateConfig contains QR generation settings.
type GenerateConfig struct {
	Size  int    `mapstructure:"size" yaml:"size" json:"size"`
	Level string `mapstructure:"level" yaml:"level" json:"level"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	Dir    string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	OverlayEnabled  bool   `mapstructure:"overlay_enabled" yaml:"overlay_enabled" json:"overlay_enabled"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig limits requests per client. Zero disables a limit.
type RateLimitConfig struct {
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxUploadMBPerDay int64 `mapstructure:"max_upload_mb_per_day" yaml:"max_upload_mb_per_day" json:"max_upload_mb_per_day"`
}
