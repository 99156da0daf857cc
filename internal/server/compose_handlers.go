package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/MeKo-Tech/chromaqr/internal/qrgen"
	"github.com/MeKo-Tech/chromaqr/internal/raster"
)

// composeHandler combines the multipart images red, green and blue into one
// RGB PNG. With ?preview=<channel> it returns that source's tinted preview
// instead, and only that field is required.
func (s *Server) composeHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.parseUpload(w, r); err != nil {
		composeRequestsTotal.WithLabelValues("compose", "error").Inc()
		s.writeError(w, r, err)
		return
	}

	if p := r.URL.Query().Get("preview"); p != "" {
		s.previewHandler(w, r, p)
		return
	}

	planes := make([]*raster.Raster, 0, len(raster.Channels))
	for _, ch := range raster.Channels {
		plane, err := s.formPlane(r, ch)
		if err != nil {
			composeRequestsTotal.WithLabelValues("compose", "error").Inc()
			s.writeError(w, r, err)
			return
		}
		planes = append(planes, plane)
	}

	// absent fields stay nil in their slot and are reported by ComposeSlots
	composite, err := raster.ComposeSlots(planes)
	if err != nil {
		composeRequestsTotal.WithLabelValues("compose", "error").Inc()
		s.writeError(w, r, err)
		return
	}
	composeRequestsTotal.WithLabelValues("compose", "success").Inc()
	s.writePNG(w, r, composite)
}

func (s *Server) previewHandler(w http.ResponseWriter, r *http.Request, name string) {
	ch, err := raster.ParseChannel(name)
	if err != nil {
		composeRequestsTotal.WithLabelValues("preview", "error").Inc()
		s.writeErrorResponse(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	plane, err := s.formPlane(r, ch)
	if err == nil && plane == nil {
		err = &raster.MissingInputError{Op: "preview", Want: 1, Got: 0}
	}
	if err != nil {
		composeRequestsTotal.WithLabelValues("preview", "error").Inc()
		s.writeError(w, r, err)
		return
	}
	preview, err := raster.TintPreview(plane, ch)
	if err != nil {
		composeRequestsTotal.WithLabelValues("preview", "error").Inc()
		s.writeError(w, r, err)
		return
	}
	composeRequestsTotal.WithLabelValues("preview", "success").Inc()
	s.writePNG(w, r, preview)
}

// formPlane decodes the field named after ch and normalizes it to one
// channel. A missing field yields a nil plane and no error.
func (s *Server) formPlane(r *http.Request, ch raster.Channel) (*raster.Raster, error) {
	img, err := s.formImage(r, ch.String())
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	plane, err := raster.NormalizeImage(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ch, err)
	}
	return plane, nil
}

// maxGenerateSize caps the requested edge length of generated symbols.
const maxGenerateSize = 4096

// generateHandler encodes up to three texts and returns their composite.
func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		composeRequestsTotal.WithLabelValues("generate", "error").Inc()
		s.writeErrorResponse(w, r, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	size := req.Size
	if size <= 0 {
		size = s.generateSize
	}
	if size > maxGenerateSize {
		composeRequestsTotal.WithLabelValues("generate", "error").Inc()
		s.writeErrorResponse(w, r, fmt.Sprintf("size %d exceeds %d", size, maxGenerateSize), http.StatusBadRequest)
		return
	}
	level := s.generateLevel
	if req.Level != "" {
		l, err := qrgen.ParseLevel(req.Level)
		if err != nil {
			composeRequestsTotal.WithLabelValues("generate", "error").Inc()
			s.writeErrorResponse(w, r, err.Error(), http.StatusBadRequest)
			return
		}
		level = l
	}

	planes, err := qrgen.GenerateSet([3]string{req.Red, req.Green, req.Blue}, size, level)
	if err != nil {
		composeRequestsTotal.WithLabelValues("generate", "error").Inc()
		s.writeError(w, r, err)
		return
	}
	composite, err := raster.Compose(planes[0], planes[1], planes[2])
	if err != nil {
		composeRequestsTotal.WithLabelValues("generate", "error").Inc()
		s.writeError(w, r, err)
		return
	}
	composeRequestsTotal.WithLabelValues("generate", "success").Inc()
	s.writePNG(w, r, composite)
}
