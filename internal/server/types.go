package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/chromaqr/internal/barcode"
	"github.com/MeKo-Tech/chromaqr/internal/config"
	"github.com/MeKo-Tech/chromaqr/internal/qrgen"
	"github.com/MeKo-Tech/chromaqr/internal/scan"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	still          *scan.Session
	newSession     func() (*scan.Session, error)
	worker         scan.WorkerConfig
	generateSize   int
	generateLevel  qrgen.Level
	corsOrigin     string
	maxUploadMB    int64
	timeoutSec     int
	overlayEnabled bool
	rateLimiter    *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	CORSOrigin     string
	MaxUploadMB    int64
	TimeoutSec     int
	OverlayEnabled bool
	// Settings supplies the scan, overlay and generate settings.
	Settings config.Config
}

// ConfigFrom builds a server configuration from the application config.
func ConfigFrom(cfg config.Config) Config {
	return Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		CORSOrigin:     cfg.Server.CORSOrigin,
		MaxUploadMB:    int64(cfg.Server.MaxUploadMB),
		TimeoutSec:     cfg.Server.TimeoutSec,
		OverlayEnabled: cfg.Server.OverlayEnabled,
		Settings:       cfg,
	}
}

// Response types for API endpoints.
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version,omitempty"`
	Backend      string `json:"backend"`
	Capabilities string `json:"capabilities"`
	Time         string `json:"time"`
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	Red   string `json:"red"`
	Green string `json:"green"`
	Blue  string `json:"blue"`
	Size  int    `json:"size,omitempty"`
	Level string `json:"level,omitempty"`
}

// ScanResponse is the JSON body of POST /scan.
type ScanResponse struct {
	Result     barcode.DetectionResult            `json:"result"`
	Channels   map[string]barcode.DetectionResult `json:"channels,omitempty"`
	Summary    string                             `json:"summary"`
	DurationMs int64                              `json:"duration_ms"`
	RequestID  string                             `json:"request_id,omitempty"`
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewServer creates a new server instance. Backend construction errors
// surface here rather than on the first request.
func NewServer(cfg Config) (*Server, error) {
	settings := cfg.Settings
	still, err := settings.NewSession()
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	level, err := settings.GenerateLevel()
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s := &Server{
		still:          still,
		newSession:     settings.NewSession,
		worker:         settings.ToWorkerConfig(),
		generateSize:   settings.Generate.Size,
		generateLevel:  level,
		corsOrigin:     cfg.CORSOrigin,
		maxUploadMB:    cfg.MaxUploadMB,
		timeoutSec:     cfg.TimeoutSec,
		overlayEnabled: cfg.OverlayEnabled,
	}
	if rl := settings.Server.RateLimit; rl.RequestsPerMinute > 0 || rl.MaxUploadMBPerDay > 0 {
		s.rateLimiter = NewRateLimiter(rl.RequestsPerMinute, rl.MaxUploadMBPerDay*1024*1024)
	}
	return s, nil
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware, s.corsMiddleware)

	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/compose", s.rateLimitMiddleware(s.composeHandler)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/generate", s.rateLimitMiddleware(s.generateHandler)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/scan", s.rateLimitMiddleware(s.scanHandler)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/ws/scan", s.scanWebSocketHandler).Methods(http.MethodGet)
	return r
}

// Addr joins host and port for http.Server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
