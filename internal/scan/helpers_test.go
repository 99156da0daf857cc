package scan

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"github.com/MeKo-Tech/chromaqr/internal/barcode"
	"github.com/MeKo-Tech/chromaqr/internal/utils"
)

// scriptedBackend returns the next scripted result on each Decode call and
// an empty result once the script is exhausted.
type scriptedBackend struct {
	mu      sync.Mutex
	caps    barcode.Capability
	script  [][]barcode.Result
	block   chan struct{}
	decodes atomic.Int32
}

func (s *scriptedBackend) Name() string                     { return "scripted" }
func (s *scriptedBackend) Capabilities() barcode.Capability { return s.caps }
func (s *scriptedBackend) Decode(ctx context.Context, _ image.Image, _ barcode.Options) ([]barcode.Result, error) {
	s.decodes.Add(1)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.script) == 0 {
		return nil, nil
	}
	next := s.script[0]
	s.script = s.script[1:]
	return next, nil
}

func hit(text string, x, y, size float64) barcode.Result {
	return barcode.Result{
		Format: barcode.FormatQR,
		Text:   text,
		Points: []utils.Point{{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size}},
	}
}

func newScriptedSession(caps barcode.Capability, opts Options, script ...[]barcode.Result) (*Session, *scriptedBackend) {
	be := &scriptedBackend{caps: caps, script: script}
	s, err := NewSession(barcode.NewAdapter(be, barcode.Options{}), nil, opts)
	if err != nil {
		panic(err)
	}
	return s, be
}

func frame() image.Image { return image.NewGray(image.Rect(0, 0, 32, 32)) }
