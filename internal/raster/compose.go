package raster

import "image/color"

// PreviewBackground is emitted by TintPreview for zero-intensity samples.
var PreviewBackground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Compose stacks three single-channel rasters into one RGB raster:
// red takes r, green takes g and blue takes b, sample for sample.
//
// The transform is lossless per channel. A zero sample stays zero in the
// composite; only TintPreview maps zero to white.
func Compose(r, g, b *Raster) (*Raster, error) {
	if got := countNonNil(r, g, b); got != 3 {
		return nil, &MissingInputError{Op: "compose", Want: 3, Got: got}
	}
	for _, src := range []*Raster{r, g, b} {
		if err := requireChannels("compose", src, 1); err != nil {
			return nil, err
		}
	}
	if err := checkSameSize("compose", r, g, b); err != nil {
		return nil, err
	}

	out := New(r.Width, r.Height, 3)
	for i := range r.Pix {
		o := i * 3
		out.Pix[o] = r.Pix[i]
		out.Pix[o+1] = g.Pix[i]
		out.Pix[o+2] = b.Pix[i]
	}
	return out, nil
}

// ComposeSlots composes sources given in slot order (Red, Green, Blue).
// Exactly three non-nil sources are required; callers wanting fewer codes
// pad explicitly with Blank.
func ComposeSlots(sources []*Raster) (*Raster, error) {
	if got := countNonNil(sources...); len(sources) != 3 || got != 3 {
		return nil, &MissingInputError{Op: "compose", Want: 3, Got: got}
	}
	return Compose(sources[0], sources[1], sources[2])
}

// TintPreview renders one source raster as it would appear on its own in
// the slot's colour: zero becomes white background, any other value v is
// placed at the slot's colour position with the other two samples at 0.
func TintPreview(src *Raster, slot Channel) (*Raster, error) {
	if !slot.Valid() {
		return nil, &UnsupportedFormatError{Op: "tint-preview", Reason: "invalid slot " + slot.String()}
	}
	if err := requireChannels("tint-preview", src, 1); err != nil {
		return nil, err
	}

	out := New(src.Width, src.Height, 3)
	idx := slot.Index()
	for i, v := range src.Pix {
		o := i * 3
		if v == 0 {
			out.Pix[o] = PreviewBackground.R
			out.Pix[o+1] = PreviewBackground.G
			out.Pix[o+2] = PreviewBackground.B
			continue
		}
		out.Pix[o+idx] = v
	}
	return out, nil
}

// TintPreviews returns the three previews in slot order.
func TintPreviews(r, g, b *Raster) ([3]*Raster, error) {
	var out [3]*Raster
	for i, src := range []*Raster{r, g, b} {
		p, err := TintPreview(src, Channels[i])
		if err != nil {
			return out, err
		}
		out[i] = p
	}
	return out, nil
}

func countNonNil(rs ...*Raster) int {
	n := 0
	for _, r := range rs {
		if r != nil {
			n++
		}
	}
	return n
}
