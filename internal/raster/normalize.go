package raster

import (
	"image"

	"github.com/disintegration/imaging"
)

// BT.601 luma weights, the same ones imaging.Grayscale uses.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

func luma(r, g, b uint8) uint8 {
	return uint8(lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b) + 0.5)
}

// Normalize reduces a 1, 3 or 4 channel raster to one intensity channel of
// the same dimensions. Alpha is dropped. Single-channel input is copied.
func Normalize(r *Raster) (*Raster, error) {
	if err := requireChannels("normalize", r, 1, 3, 4); err != nil {
		return nil, err
	}
	if r.Channels == 1 {
		return r.Clone(), nil
	}
	out := New(r.Width, r.Height, 1)
	for i, j := 0, 0; j < len(out.Pix); i, j = i+r.Channels, j+1 {
		out.Pix[j] = luma(r.Pix[i], r.Pix[i+1], r.Pix[i+2])
	}
	return out, nil
}

// NormalizeImage converts a decoded image straight into a single-channel
// raster. Gray images are copied, everything else goes through
// imaging.Grayscale.
func NormalizeImage(img image.Image) (*Raster, error) {
	switch src := img.(type) {
	case nil:
		return nil, &UnsupportedFormatError{Op: "normalize", Reason: "nil image"}
	case *Raster:
		return Normalize(src)
	case *image.Gray:
		return FromImage(src)
	case *image.Alpha, *image.Alpha16, *image.CMYK:
		// FromImage produces the typed error.
		return FromImage(src)
	}

	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	out := New(b.Dx(), b.Dy(), 1)
	for y := 0; y < out.Height; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < out.Width; x++ {
			out.Pix[y*out.Width+x] = row[x*4]
		}
	}
	return out, nil
}
