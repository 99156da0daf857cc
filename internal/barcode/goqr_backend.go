package barcode

import (
	"context"
	"errors"
	"image"

	"github.com/liyue201/goqr"
)

// goqrBackend decodes QR symbols with liyue201/goqr. It reports text only.
type goqrBackend struct{}

func (b *goqrBackend) Name() string { return BackendGoqr }

func (b *goqrBackend) Capabilities() Capability { return CapDecode }

func (b *goqrBackend) Decode(ctx context.Context, img image.Image, _ Options) ([]Result, error) {
	if img == nil {
		return nil, errors.New("goqr: nil image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	codes, err := goqr.Recognize(img)
	if err != nil {
		if errors.Is(err, goqr.ErrNoQRCode) {
			return []Result{}, nil
		}
		return nil, err
	}
	out := make([]Result, 0, len(codes))
	for _, c := range codes {
		if c == nil || len(c.Payload) == 0 {
			continue
		}
		out = append(out, Result{Format: FormatQR, Text: string(c.Payload)})
	}
	return out, nil
}
