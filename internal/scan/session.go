// Package scan runs detection over live frames and still images, gating
// frame analysis while a result is being presented.
package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/chromaqr/internal/barcode"
	"github.com/MeKo-Tech/chromaqr/internal/overlay"
	"github.com/MeKo-Tech/chromaqr/internal/raster"
)

// ErrSuspended is returned by AnalyzeFrame while the gate is suspended.
var ErrSuspended = errors.New("scan: analysis suspended")

// Options configures a Session.
type Options struct {
	// WantLocalization requests corner points and an annotated raster.
	WantLocalization bool
	// PerChannel analyses the red, green and blue planes separately.
	PerChannel bool
}

// Outcome is the result of analysing one frame or still image.
type Outcome struct {
	Result    barcode.DetectionResult
	Channels  *barcode.ChannelResults
	Annotated *raster.Raster
	Summary   string
	Duration  time.Duration
}

// Hit reports whether anything was decoded.
func (o *Outcome) Hit() bool { return o != nil && !o.Result.Empty() }

// Session pairs a detection adapter with an overlay renderer and a gate.
type Session struct {
	adapter  *barcode.Adapter
	renderer *overlay.Renderer
	gate     *Gate
	opts     Options
}

// NewSession creates a session. A nil renderer uses the default style.
func NewSession(adapter *barcode.Adapter, renderer *overlay.Renderer, opts Options) (*Session, error) {
	if adapter == nil {
		return nil, errors.New("scan: nil adapter")
	}
	if renderer == nil {
		renderer = overlay.NewRenderer(overlay.DefaultStyle())
	}
	return &Session{adapter: adapter, renderer: renderer, gate: NewGate(), opts: opts}, nil
}

// NewSessionForBackend constructs the named backend and a session on top of
// it. Backend construction errors are returned here, once.
func NewSessionForBackend(name string, decode barcode.Options, style overlay.Style, opts Options) (*Session, error) {
	adapter, err := barcode.NewAdapterByName(name, decode)
	if err != nil {
		return nil, fmt.Errorf("scan: start session: %w", err)
	}
	return NewSession(adapter, overlay.NewRenderer(style), opts)
}

// Gate returns the session's analysis gate.
func (s *Session) Gate() *Gate { return s.gate }

// Options returns the session options.
func (s *Session) Options() Options { return s.opts }

// Adapter returns the detection adapter.
func (s *Session) Adapter() *barcode.Adapter { return s.adapter }

// Resume re-opens the gate after a hit has been presented.
func (s *Session) Resume() { s.gate.Resume() }

// AnalyzeFrame analyses a live frame. It returns ErrSuspended without
// touching the frame while the gate is suspended. When nothing is decoded
// the gate re-opens and AnalyzeFrame returns (nil, nil). On a hit the gate
// stays suspended until Resume.
func (s *Session) AnalyzeFrame(ctx context.Context, frame image.Image) (*Outcome, error) {
	if !s.gate.TryAcquire() {
		return nil, ErrSuspended
	}
	out, err := s.analyze(ctx, frame)
	if err != nil || !out.Hit() {
		s.gate.Resume()
		if err != nil {
			return nil, err
		}
		return nil, nil
	}
	return out, nil
}

// AnalyzeStill analyses a still image. The gate is not consulted. The
// outcome is returned even when nothing was decoded.
func (s *Session) AnalyzeStill(ctx context.Context, img image.Image) (*Outcome, error) {
	return s.analyze(ctx, img)
}

func (s *Session) analyze(ctx context.Context, img image.Image) (*Outcome, error) {
	start := time.Now()
	src, err := raster.FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	out := &Outcome{}
	if s.opts.PerChannel {
		cr, err := s.adapter.DetectChannels(ctx, src, s.opts.WantLocalization)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out.Channels = &cr
		out.Result = barcode.Merge(cr.Get(raster.Red), cr.Get(raster.Green), cr.Get(raster.Blue), cr.Full)
	} else {
		out.Result = s.adapter.Detect(ctx, src, s.opts.WantLocalization)
	}

	if out.Result.Localized && !out.Result.Empty() {
		annotated, err := s.renderer.RenderResult(src, out.Result)
		if err != nil {
			slog.Warn("Overlay rendering failed", "backend", out.Result.Backend, "error", err)
		} else {
			out.Annotated = annotated
		}
	}
	out.Summary = Summary(out.Result, out.Channels)
	out.Duration = time.Since(start)

	slog.Debug("Analysis complete",
		"backend", out.Result.Backend,
		"codes", out.Result.Count(),
		"per_channel", s.opts.PerChannel,
		"duration_ms", out.Duration.Milliseconds())
	return out, nil
}
