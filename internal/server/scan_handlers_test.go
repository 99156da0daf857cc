package server

import (
	"encoding/json"
	"image/color"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/chromaqr/internal/config"
	"github.com/MeKo-Tech/chromaqr/internal/testutil"
)

var overlayGreen = color.RGBA{R: 0x00, G: 0xE6, B: 0x76, A: 0xFF}

func TestScanHandler_JSON(t *testing.T) {
	s := newTestServer(t, nil)
	data := encodePNG(t, testutil.QRImage(t, "hello", testutil.DefaultQRSize))

	w := serve(s, multipartRequest(t, "/scan", map[string][]byte{"image": data}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"hello"}, resp.Result.Texts)
	assert.True(t, resp.Result.Localized)
	require.Len(t, resp.Result.Quads, 1)
	assert.Len(t, resp.Result.Quads[0], 4)
	assert.Equal(t, "gozxing", resp.Result.Backend)
	assert.Contains(t, resp.Summary, "[0] hello")
	assert.Contains(t, resp.Channels, "full")
	assert.Equal(t, []string{"hello"}, resp.Channels["blue"].Texts)
	assert.Equal(t, w.Header().Get(RequestIDHeader), resp.RequestID)
}

func TestScanHandler_NothingFound(t *testing.T) {
	s := newTestServer(t, nil)
	data := encodePNG(t, testutil.TextImage("no code here", 200, 80))

	w := serve(s, multipartRequest(t, "/scan", map[string][]byte{"image": data}))
	require.Equal(t, http.StatusOK, w.Code)

	// empty results are arrays, never null
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Contains(t, raw, "request_id")

	var result map[string]any
	require.NoError(t, json.Unmarshal(raw["result"], &result))
	assert.Equal(t, []any{}, result["texts"])
	assert.Equal(t, []any{}, result["quads"])
}

func TestScanHandler_TextOnlyBackend(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Scan.Backend = "goqr"
		c.Scan.PerChannel = false
	})
	data := encodePNG(t, testutil.QRImage(t, "plain", testutil.DefaultQRSize))

	w := serve(s, multipartRequest(t, "/scan", map[string][]byte{"image": data}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"plain"}, resp.Result.Texts)
	assert.False(t, resp.Result.Localized)
	assert.Empty(t, resp.Result.Quads)
	assert.Nil(t, resp.Channels)
}

func TestScanHandler_Overlay(t *testing.T) {
	s := newTestServer(t, nil)
	src := testutil.QRImage(t, "outline me", testutil.DefaultQRSize)

	w := serve(s, multipartRequest(t, "/scan?format=overlay", map[string][]byte{"image": encodePNG(t, src)}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img := decodePNG(t, w.Body.Bytes())
	assert.Equal(t, src.Bounds().Size(), img.Bounds().Size())
	assert.Positive(t, testutil.CountColor(img, overlayGreen))
	assert.Zero(t, testutil.CountColor(src, overlayGreen))
}

func TestScanHandler_OverlayWithoutHitReturnsSource(t *testing.T) {
	s := newTestServer(t, nil)
	src := testutil.TextImage("nothing", 120, 40)

	w := serve(s, multipartRequest(t, "/scan?format=overlay", map[string][]byte{"image": encodePNG(t, src)}))
	require.Equal(t, http.StatusOK, w.Code)

	img := decodePNG(t, w.Body.Bytes())
	for y := 0; y < 40; y++ {
		for x := 0; x < 120; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			require.Equal(t, [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}, rgbAt(img, x, y))
		}
	}
}

func TestScanHandler_OverlayDisabled(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Server.OverlayEnabled = false })
	data := encodePNG(t, testutil.QRImage(t, "x", 64))

	w := serve(s, multipartRequest(t, "/scan?format=overlay", map[string][]byte{"image": data}))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestScanHandler_BadInput(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, multipartRequest(t, "/scan", map[string][]byte{"other": encodePNG(t, testutil.QRImage(t, "x", 64))}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no image file provided")

	w = serve(s, multipartRequest(t, "/scan", map[string][]byte{"image": []byte("garbage")}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
