package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/MeKo-Tech/chromaqr/internal/raster"
)

// DefaultQRSize is the edge length used for generated test symbols. It is
// large enough for every backend to decode a short payload reliably.
const DefaultQRSize = 256

// QRImage renders text as a black-on-white QR symbol with a quiet zone.
func QRImage(t *testing.T, text string, size int) image.Image {
	t.Helper()

	q, err := qrcode.New(text, qrcode.Medium)
	require.NoError(t, err, "Failed to encode QR payload %q", text)
	return q.Image(size)
}

// QRPlane renders text as a single-channel raster (modules 0, background 255).
func QRPlane(t *testing.T, text string, size int) *raster.Raster {
	t.Helper()

	r, err := raster.NormalizeImage(QRImage(t, text, size))
	require.NoError(t, err)
	return r
}

// ColorQR composes three QR symbols into the red, green and blue channels.
func ColorQR(t *testing.T, red, green, blue string, size int) *raster.Raster {
	t.Helper()

	c, err := raster.Compose(QRPlane(t, red, size), QRPlane(t, green, size), QRPlane(t, blue, size))
	require.NoError(t, err)
	return c
}

// TextImage renders a line of text on a white background. It contains no
// machine-readable symbol.
func TextImage(text string, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Src: image.NewUniform(color.Black), Face: face}
	textWidth := font.MeasureString(face, text).Ceil()
	textHeight := face.Metrics().Height.Ceil()
	drawer.Dot = fixed.P((width-textWidth)/2, (height+textHeight)/2)
	drawer.DrawString(text)
	return img
}

// SaveImage saves an image as PNG to the specified path.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	dir := filepath.Dir(path)
	require.NoError(t, os.MkdirAll(dir, 0o750), "Failed to create directory %s", dir)

	file, err := os.Create(path) //nolint:gosec // G304: Test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}

// LoadImage loads an image from the specified path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	file, err := os.Open(path) //nolint:gosec // G304: Test file reading with controlled path
	require.NoError(t, err, "Failed to open image file %s", path)
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	require.NoError(t, err, "Failed to decode image")

	return img
}

// CountColor returns how many pixels of img equal c exactly.
func CountColor(img image.Image, c color.Color) int {
	want := color.RGBAModel.Convert(c)
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.RGBAModel.Convert(img.At(x, y)) == want {
				n++
			}
		}
	}
	return n
}
