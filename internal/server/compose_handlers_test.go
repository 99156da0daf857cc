package server

import (
	"bytes"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/chromaqr/internal/config"
	"github.com/MeKo-Tech/chromaqr/internal/testutil"
)

func TestComposeHandler(t *testing.T) {
	s := newTestServer(t, nil)
	size := testutil.DefaultQRSize
	r := testutil.QRPlane(t, "red-payload", size)
	g := testutil.QRPlane(t, "green-payload", size)
	b := testutil.QRPlane(t, "blue-payload", size)

	req := multipartRequest(t, "/compose", map[string][]byte{
		"red":   encodePNG(t, r),
		"green": encodePNG(t, g),
		"blue":  encodePNG(t, b),
	})
	w := serve(s, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img := decodePNG(t, w.Body.Bytes())
	require.Equal(t, size, img.Bounds().Dx())
	require.Equal(t, size, img.Bounds().Dy())
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := r.PixOffset(x, y)
			want := [3]uint8{r.Pix[i], g.Pix[i], b.Pix[i]}
			if got := rgbAt(img, x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestComposeHandler_Errors(t *testing.T) {
	s := newTestServer(t, nil)
	plane := encodePNG(t, testutil.QRPlane(t, "x", 64))
	small := encodePNG(t, testutil.QRPlane(t, "x", 32))

	tests := []struct {
		name    string
		files   map[string][]byte
		message string
	}{
		{name: "missing blue", files: map[string][]byte{"red": plane, "green": plane}, message: "missing input: want 3 source rasters, got 2"},
		{name: "only green", files: map[string][]byte{"green": plane}, message: "got 1"},
		{name: "size mismatch", files: map[string][]byte{"red": plane, "green": plane, "blue": small}, message: "dimension mismatch"},
		{name: "not an image", files: map[string][]byte{"red": plane, "green": []byte("nope"), "blue": plane}, message: "invalid image format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, multipartRequest(t, "/compose", tt.files))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.message)
		})
	}

	t.Run("not multipart", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodPost, "/compose", strings.NewReader("raw")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestComposeHandler_Preview(t *testing.T) {
	s := newTestServer(t, nil)
	plane := testutil.QRPlane(t, "green-payload", 128)

	req := multipartRequest(t, "/compose?preview=green", map[string][]byte{"green": encodePNG(t, plane)})
	w := serve(s, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	img := decodePNG(t, w.Body.Bytes())
	dark, light := 0, 0
	for _, v := range plane.Pix {
		if v == 0 {
			dark++
		} else {
			light++
		}
	}
	// dark modules become white background, the light background the slot colour
	assert.Equal(t, dark, testutil.CountColor(img, color.White))
	assert.Equal(t, light, testutil.CountColor(img, color.RGBA{G: 255, A: 255}))

	t.Run("unknown channel", func(t *testing.T) {
		req := multipartRequest(t, "/compose?preview=purple", map[string][]byte{"green": encodePNG(t, plane)})
		assert.Equal(t, http.StatusBadRequest, serve(s, req).Code)
	})

	t.Run("missing source", func(t *testing.T) {
		req := multipartRequest(t, "/compose?preview=red", map[string][]byte{"green": encodePNG(t, plane)})
		w := serve(s, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "missing input")
	})
}

func TestComposeHandler_UploadLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Server.MaxUploadMB = 1 })
	big := bytes.Repeat([]byte{0xff}, 2<<20)
	w := serve(s, multipartRequest(t, "/compose", map[string][]byte{"red": big}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateHandler_ScansBack(t *testing.T) {
	s := newTestServer(t, nil)

	body, err := json.Marshal(GenerateRequest{Red: "alpha", Green: "beta", Blue: "gamma", Size: 256})
	require.NoError(t, err)
	w := serve(s, httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	composite := w.Body.Bytes()
	sw := serve(s, multipartRequest(t, "/scan", map[string][]byte{"image": composite}))
	require.Equal(t, http.StatusOK, sw.Code, sw.Body.String())

	var resp ScanResponse
	require.NoError(t, json.Unmarshal(sw.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{"alpha", "beta", "gamma"}, resp.Result.Texts)
	assert.Equal(t, []string{"alpha"}, resp.Channels["red"].Texts)
	assert.Equal(t, []string{"beta"}, resp.Channels["green"].Texts)
	assert.Equal(t, []string{"gamma"}, resp.Channels["blue"].Texts)
}

func TestGenerateHandler_Errors(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: "{"},
		{name: "all empty", body: `{"red":"","green":"","blue":""}`},
		{name: "bad level", body: `{"red":"a","level":"ultra"}`},
		{name: "too large", body: `{"red":"a","size":100000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGenerateHandler_DefaultSizeAndPadding(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Generate.Size = 200 })
	w := serve(s, httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"green":"only green","level":"high"}`)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	img := decodePNG(t, w.Body.Bytes())
	assert.GreaterOrEqual(t, img.Bounds().Dx(), 200)
	// empty slots are plain background, so red and blue are 255 everywhere
	got := rgbAt(img, 0, 0)
	assert.Equal(t, uint8(255), got[0])
	assert.Equal(t, uint8(255), got[2])
}
