package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/chromaqr/internal/config"
	"github.com/MeKo-Tech/chromaqr/internal/overlay"
	"github.com/MeKo-Tech/chromaqr/internal/qrgen"
	"github.com/MeKo-Tech/chromaqr/internal/raster"
)

func TestServer_HealthHandler(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name           string
		method         string
		expectedStatus int
		checkResponse  bool
	}{
		{name: "GET request success", method: http.MethodGet, expectedStatus: http.StatusOK, checkResponse: true},
		{name: "POST request not allowed", method: http.MethodPost, expectedStatus: http.StatusMethodNotAllowed},
		{name: "PUT request not allowed", method: http.MethodPut, expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, httptest.NewRequest(tt.method, "/health", nil))
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.checkResponse {
				var response HealthResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, "healthy", response.Status)
				assert.Equal(t, "gozxing", response.Backend)
				assert.Equal(t, "decode|localize", response.Capabilities)
				assert.NotEmpty(t, response.Time)
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestServer_HealthReportsTextOnlyBackend(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Scan.Backend = "goqr" })
	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "goqr", response.Backend)
	assert.Equal(t, "decode", response.Capabilities)
}

func TestNewServer_UnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scan.Backend = "zbar"
	_, err := NewServer(ConfigFrom(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zbar")
}

func TestServer_RequestID(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	require.NoError(t, err, "a fresh id is assigned")

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, id)
	w = serve(s, req)
	assert.Equal(t, id, w.Header().Get(RequestIDHeader), "a valid incoming id is kept")

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\r\n")
	w = serve(s, req)
	assert.NotEqual(t, "not-a-uuid\r\n", w.Header().Get(RequestIDHeader))
}

func TestServer_ErrorResponseCarriesRequestID(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("{"))
	w := serve(s, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
	assert.Equal(t, w.Header().Get(RequestIDHeader), resp.RequestID)
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t, nil)
	serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	w := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "chromaqr_http_requests_total")
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&raster.DimensionMismatchError{Op: "compose"}, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", &raster.UnsupportedFormatError{Op: "x", Channels: 2}), http.StatusBadRequest},
		{&raster.MissingInputError{Op: "compose", Want: 3, Got: 2}, http.StatusBadRequest},
		{&overlay.InvalidGeometryError{Index: 0}, http.StatusBadRequest},
		{qrgen.ErrEmptyText, http.StatusBadRequest},
		{fmt.Errorf("%w: too big", errBadUpload), http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}
