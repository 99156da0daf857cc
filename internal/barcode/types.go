package barcode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/MeKo-Tech/chromaqr/internal/utils"
)

// Format represents a barcode symbology.
type Format int

const (
	FormatUnknown Format = iota
	FormatQR
	FormatDataMatrix
	FormatAztec
	FormatCode128
)

var formatNames = map[Format]string{
	FormatUnknown:    "unknown",
	FormatQR:         "qr",
	FormatDataMatrix: "datamatrix",
	FormatAztec:      "aztec",
	FormatCode128:    "code128",
}

// String returns the lower-case symbology name.
func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFormat parses a symbology name such as "qr" or "code128".
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range formatNames {
		if f != FormatUnknown && name == s {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown barcode format %q", s)
}

// ParseFormats parses a list of symbology names. An empty list yields QR.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return []Format{FormatQR}, nil
	}
	out := make([]Format, 0, len(names))
	for _, n := range names {
		f, err := ParseFormat(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Options controls backend decoding behavior.
type Options struct {
	// Formats constrains the set of symbologies to search. Backends that
	// only read QR ignore it.
	Formats []Format

	// TryHarder enables a second pass with a global histogram binarizer
	// and more exhaustive search.
	TryHarder bool
}

// Capability is a bit set describing what a backend reports.
type Capability uint8

const (
	// CapDecode means the backend returns decoded text.
	CapDecode Capability = 1 << iota
	// CapLocalize means the backend returns corner points per symbol.
	CapLocalize
)

// Has reports whether all bits of o are set in c.
func (c Capability) Has(o Capability) bool { return c&o == o }

func (c Capability) String() string {
	var parts []string
	if c.Has(CapDecode) {
		parts = append(parts, "decode")
	}
	if c.Has(CapLocalize) {
		parts = append(parts, "localize")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Result represents one decoded symbol as reported by a backend.
type Result struct {
	Format Format
	Text   string
	// Points are the corner points in source pixel coordinates. Empty for
	// backends without CapLocalize.
	Points []utils.Point
}

// Backend is a pluggable barcode decoder implementation.
type Backend interface {
	Name() string
	Capabilities() Capability
	Decode(ctx context.Context, img image.Image, opts Options) ([]Result, error)
}

// Backend names accepted by NewBackend.
const (
	BackendGozxing = "gozxing"
	BackendGoqr    = "goqr"
)

// ErrUnknownBackend is returned by NewBackend for unsupported names.
var ErrUnknownBackend = errors.New("barcode: unknown backend")

// BackendNames lists the backends NewBackend can construct.
func BackendNames() []string { return []string{BackendGozxing, BackendGoqr} }

// NewBackend returns the backend registered under name.
func NewBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BackendGozxing, "":
		return &gozxingBackend{}, nil
	case BackendGoqr:
		return &goqrBackend{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownBackend, name, strings.Join(BackendNames(), ", "))
	}
}
