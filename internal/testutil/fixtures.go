package testutil

import (
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/chromaqr/internal/raster"
)

// ColorFixture describes a generated colour QR composite and the payload
// expected in each channel.
type ColorFixture struct {
	Name  string
	Texts [3]string
	Size  int
}

// ColorFixtures are the composites shared by scanner and server tests.
var ColorFixtures = []ColorFixture{
	{Name: "ascii", Texts: [3]string{"red-payload", "green-payload", "blue-payload"}, Size: DefaultQRSize},
	{Name: "urls", Texts: [3]string{"https://example.org/r", "https://example.org/g", "https://example.org/b"}, Size: 320},
	{Name: "digits", Texts: [3]string{"0123456789", "9876543210", "5555555555"}, Size: DefaultQRSize},
}

// Build renders the fixture composite.
func (f ColorFixture) Build(t *testing.T) *raster.Raster {
	t.Helper()
	return ColorQR(t, f.Texts[0], f.Texts[1], f.Texts[2], f.Size)
}

// WritePNG renders the fixture into dir and returns the file path.
func (f ColorFixture) WritePNG(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, f.Name+".png")
	SaveImage(t, f.Build(t), path)
	return path
}
