// Package qrgen renders QR symbols as single-channel rasters ready for
// channel composition.
package qrgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/MeKo-Tech/chromaqr/internal/raster"
)

// Level is the error correction level of a generated symbol.
type Level = qrcode.RecoveryLevel

// Error correction levels.
const (
	Low     = qrcode.Low
	Medium  = qrcode.Medium
	High    = qrcode.High
	Highest = qrcode.Highest
)

// DefaultSize is the default edge length in pixels.
const DefaultSize = 512

// ErrEmptyText is returned when there is nothing to encode.
var ErrEmptyText = errors.New("qrgen: empty text")

// ParseLevel parses "low", "medium", "high" or "highest" (also L, M, Q, H).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "l":
		return Low, nil
	case "medium", "m", "":
		return Medium, nil
	case "high", "q":
		return High, nil
	case "highest", "h":
		return Highest, nil
	default:
		return Medium, fmt.Errorf("unknown error correction level %q", s)
	}
}

// Generate encodes text into a size×size single-channel raster with dark
// modules 0 and background 255. Payloads that do not fit produce a larger
// raster, never a truncated symbol.
func Generate(text string, size int, level Level) (*raster.Raster, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if size <= 0 {
		size = DefaultSize
	}
	q, err := qrcode.New(text, level)
	if err != nil {
		return nil, fmt.Errorf("qrgen: encode: %w", err)
	}
	r, err := raster.NormalizeImage(q.Image(size))
	if err != nil {
		return nil, fmt.Errorf("qrgen: rasterize: %w", err)
	}
	return r, nil
}

// GenerateSet encodes up to three texts as planes of identical size so they
// can be composed. Empty texts produce a plain background plane. At least
// one text must be non-empty.
func GenerateSet(texts [3]string, size int, level Level) ([3]*raster.Raster, error) {
	var out [3]*raster.Raster
	edge := size
	for i, t := range texts {
		if t == "" {
			continue
		}
		r, err := Generate(t, size, level)
		if err != nil {
			return out, fmt.Errorf("%s: %w", raster.Channels[i], err)
		}
		out[i] = r
		if r.Width > edge {
			edge = r.Width
		}
	}

	found := false
	for i, t := range texts {
		if t == "" {
			continue
		}
		found = true
		if out[i].Width != edge {
			r, err := Generate(t, edge, level)
			if err != nil {
				return out, fmt.Errorf("%s: %w", raster.Channels[i], err)
			}
			out[i] = r
		}
	}
	if !found {
		return out, ErrEmptyText
	}
	if edge <= 0 {
		edge = DefaultSize
	}
	for i := range out {
		if out[i] == nil {
			out[i] = raster.Filled(edge, edge, 255)
		}
	}
	return out, nil
}
