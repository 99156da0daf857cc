package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"

	"github.com/MeKo-Tech/chromaqr/internal/overlay"
	"github.com/MeKo-Tech/chromaqr/internal/qrgen"
	"github.com/MeKo-Tech/chromaqr/internal/raster"
	"github.com/MeKo-Tech/chromaqr/internal/utils"
	"github.com/MeKo-Tech/chromaqr/internal/version"
)

// errBadUpload marks request bodies that could not be read as images.
var errBadUpload = errors.New("bad upload")

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	adapter := s.still.Adapter()
	response := HealthResponse{
		Status:       "healthy",
		Version:      version.Version,
		Backend:      adapter.Backend().Name(),
		Capabilities: adapter.Backend().Capabilities().String(),
		Time:         time.Now().UTC().Format(time.RFC3339),
	}
	s.writeJSON(w, r, http.StatusOK, response)
}

// statusForError maps typed domain errors to client errors and everything
// else to an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, raster.ErrDimensionMismatch),
		errors.Is(err, raster.ErrUnsupportedFormat),
		errors.Is(err, raster.ErrMissingInput),
		errors.Is(err, overlay.ErrInvalidGeometry),
		errors.Is(err, qrgen.ErrEmptyText),
		errors.Is(err, errBadUpload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with the status chosen by statusForError.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logRequestError(r, "Request failed", err)
	}
	s.writeErrorResponse(w, r, err.Error(), status)
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	s.writeJSON(w, r, statusCode, ErrorResponse{Error: message, RequestID: requestIDFrom(r.Context())})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logRequestError(r, "Failed to encode response", err)
	}
}

// writePNG encodes img as PNG. Encoding happens before the header is sent
// so a failure can still produce an error status.
func (s *Server) writePNG(w http.ResponseWriter, r *http.Request, img image.Image) {
	var buf bytes.Buffer
	if err := utils.EncodeImage(&buf, img, imaging.PNG); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Debug("Failed to write PNG response", "error", err)
	}
}

// parseUpload limits and parses a multipart request body.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) error {
	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if r.ContentLength > 0 {
		uploadSizeBytes.Observe(float64(r.ContentLength))
	}
	if err := r.ParseMultipartForm(limit); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return fmt.Errorf("%w: upload exceeds %d MB", errBadUpload, s.maxUploadMB)
		}
		return fmt.Errorf("%w: failed to parse form data: %v", errBadUpload, err)
	}
	return nil
}

// formImage decodes the image in multipart field name. A missing field
// returns http.ErrMissingFile unwrapped.
func (s *Server) formImage(r *http.Request, name string) (image.Image, error) {
	file, _, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, http.ErrMissingFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errBadUpload, name, err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errBadUpload, name, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: invalid image format: %v", errBadUpload, name, err)
	}
	return img, nil
}
