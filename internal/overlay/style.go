package overlay

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Default stroke parameters.
const (
	DefaultColorHex = "#00E676"
	DefaultWidthPx  = 4
)

// Style is the stroke used for every quadrilateral.
type Style struct {
	Color   color.Color
	WidthPx int
}

// DefaultStyle returns the accent-green, 4px stroke.
func DefaultStyle() Style {
	return Style{Color: color.RGBA{R: 0x00, G: 0xE6, B: 0x76, A: 0xFF}, WidthPx: DefaultWidthPx}
}

// NewStyle builds a Style from a hex colour string and a width.
func NewStyle(hex string, widthPx int) (Style, error) {
	c, err := ParseHexColor(hex)
	if err != nil {
		return Style{}, err
	}
	if widthPx < 1 {
		return Style{}, fmt.Errorf("stroke width must be positive, got %d", widthPx)
	}
	return Style{Color: c, WidthPx: widthPx}, nil
}

// ParseHexColor parses "#RRGGBB", "RRGGBB" or "#RGB" into an opaque colour.
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}

// HexColor formats c as "#RRGGBB".
func HexColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02X%02X%02X", n.R, n.G, n.B)
}
