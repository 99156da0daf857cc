package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MeKo-Tech/chromaqr/internal/raster"
	"github.com/MeKo-Tech/chromaqr/internal/scan"
)

const formatOverlay = "overlay"

// scanHandler decodes every code in the multipart field "image". The
// default reply is JSON; format=overlay returns the annotated PNG.
func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.parseUpload(w, r); err != nil {
		scanRequestsTotal.WithLabelValues("still", "error").Inc()
		s.writeError(w, r, err)
		return
	}

	format := r.FormValue("format")
	if format == "" {
		format = r.URL.Query().Get("format")
	}
	if format == formatOverlay && !s.overlayEnabled {
		s.writeErrorResponse(w, r, "overlay output disabled", http.StatusForbidden)
		return
	}

	img, err := s.formImage(r, "image")
	if errors.Is(err, http.ErrMissingFile) {
		err = fmt.Errorf("%w: no image file provided", errBadUpload)
	}
	if err != nil {
		scanRequestsTotal.WithLabelValues("still", "error").Inc()
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()
	out, err := s.still.AnalyzeStill(ctx, img)
	if err != nil {
		scanRequestsTotal.WithLabelValues("still", "error").Inc()
		s.writeError(w, r, err)
		return
	}
	recordScan("still", out)

	if format == formatOverlay {
		annotated := out.Annotated
		if annotated == nil {
			// nothing localized: the source comes back unchanged
			annotated, err = raster.FromImage(img)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
		}
		s.writePNG(w, r, annotated)
		return
	}

	s.writeJSON(w, r, http.StatusOK, newScanResponse(out, requestIDFrom(r.Context())))
}

// requestContext bounds detection by the configured request timeout.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeoutSec <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), time.Duration(s.timeoutSec)*time.Second)
}

func newScanResponse(out *scan.Outcome, requestID string) ScanResponse {
	resp := ScanResponse{
		Result:     out.Result,
		Summary:    out.Summary,
		DurationMs: out.Duration.Milliseconds(),
		RequestID:  requestID,
	}
	if out.Channels != nil {
		resp.Channels = out.Channels.ByName()
	}
	return resp
}

func recordScan(kind string, out *scan.Outcome) {
	status := "miss"
	if out.Hit() {
		status = "hit"
	}
	scanRequestsTotal.WithLabelValues(kind, status).Inc()
	scanDuration.WithLabelValues(kind).Observe(out.Duration.Seconds())
	scanCodesDetected.WithLabelValues(kind).Observe(float64(out.Result.Count()))
}
