// Package raster holds the 8-bit multi-channel pixel model used by the
// color QR codec together with the channel composition operations.
//
// A Raster stores samples interleaved in row-major order. Single-channel
// rasters carry intensities, three-channel rasters carry R,G,B and
// four-channel rasters additionally carry a non-premultiplied alpha sample.
package raster

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Raster is a width × height grid of 8-bit samples with 1, 3 or 4 channels.
type Raster struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8 // len = Width * Height * Channels
}

// New allocates a zeroed raster. It panics on a channel count outside
// {1,3,4} or negative dimensions, mirroring image.NewRGBA on bad input.
func New(width, height, channels int) *Raster {
	if !validChannels(channels) {
		panic("raster: invalid channel count")
	}
	if width < 0 || height < 0 {
		panic("raster: negative dimensions")
	}
	return &Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Blank returns a single-channel raster filled with zeros. Callers that
// want fewer than three codes in a composite pad the missing slots with it.
func Blank(width, height int) *Raster { return New(width, height, 1) }

// Filled returns a single-channel raster with every sample set to v.
func Filled(width, height int, v uint8) *Raster {
	r := New(width, height, 1)
	for i := range r.Pix {
		r.Pix[i] = v
	}
	return r
}

func validChannels(c int) bool { return c == 1 || c == 3 || c == 4 }

// Size returns the raster dimensions as a point.
func (r *Raster) Size() image.Point { return image.Pt(r.Width, r.Height) }

// SameSize reports whether both rasters share width and height.
func (r *Raster) SameSize(o *Raster) bool {
	return r.Width == o.Width && r.Height == o.Height
}

// PixOffset returns the index of the first sample of (x, y) in Pix.
func (r *Raster) PixOffset(x, y int) int {
	return (y*r.Width + x) * r.Channels
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	out := &Raster{Width: r.Width, Height: r.Height, Channels: r.Channels}
	out.Pix = append([]uint8(nil), r.Pix...)
	return out
}

// ColorModel implements image.Image.
func (r *Raster) ColorModel() color.Model {
	switch r.Channels {
	case 1:
		return color.GrayModel
	case 3:
		return color.RGBAModel
	default:
		return color.NRGBAModel
	}
}

// Bounds implements image.Image. Rasters are always anchored at the origin.
func (r *Raster) Bounds() image.Rectangle { return image.Rect(0, 0, r.Width, r.Height) }

// At implements image.Image.
func (r *Raster) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(r.Bounds())) {
		return color.RGBA{}
	}
	i := r.PixOffset(x, y)
	switch r.Channels {
	case 1:
		return color.Gray{Y: r.Pix[i]}
	case 3:
		return color.RGBA{R: r.Pix[i], G: r.Pix[i+1], B: r.Pix[i+2], A: 0xff}
	default:
		return color.NRGBA{R: r.Pix[i], G: r.Pix[i+1], B: r.Pix[i+2], A: r.Pix[i+3]}
	}
}

// Set implements draw.Image. Colors are converted with the raster's model.
func (r *Raster) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(r.Bounds())) {
		return
	}
	i := r.PixOffset(x, y)
	if r.Channels == 1 {
		r.Pix[i] = color.GrayModel.Convert(c).(color.Gray).Y
		return
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	r.Pix[i], r.Pix[i+1], r.Pix[i+2] = n.R, n.G, n.B
	if r.Channels == 4 {
		r.Pix[i+3] = n.A
	}
}

// FromImage copies a decoded image into a Raster.
//
// Gray images become single-channel rasters, JPEG (YCbCr) images become
// three-channel rasters and every other RGB-like image becomes a
// four-channel raster with non-premultiplied alpha. Alpha-only and CMYK
// images are rejected with UnsupportedFormatError.
func FromImage(img image.Image) (*Raster, error) {
	switch src := img.(type) {
	case nil:
		return nil, &UnsupportedFormatError{Op: "from-image", Reason: "nil image"}
	case *Raster:
		return src.Clone(), nil
	case *image.Gray:
		b := src.Bounds()
		out := New(b.Dx(), b.Dy(), 1)
		for y := 0; y < out.Height; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Width:(y+1)*out.Width], src.Pix[off:off+out.Width])
		}
		return out, nil
	case *image.Alpha, *image.Alpha16:
		return nil, &UnsupportedFormatError{Op: "from-image", Channels: 1, Reason: "alpha-only image"}
	case *image.CMYK:
		return nil, &UnsupportedFormatError{Op: "from-image", Channels: 4, Reason: "CMYK image"}
	}

	nrgba := imaging.Clone(img)
	channels := 4
	if _, ok := img.(*image.YCbCr); ok {
		channels = 3
	}
	b := nrgba.Bounds()
	out := New(b.Dx(), b.Dy(), channels)
	for y := 0; y < out.Height; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+out.Width*4]
		if channels == 4 {
			copy(out.Pix[y*out.Width*4:(y+1)*out.Width*4], row)
			continue
		}
		for x := 0; x < out.Width; x++ {
			d := (y*out.Width + x) * 3
			out.Pix[d], out.Pix[d+1], out.Pix[d+2] = row[x*4], row[x*4+1], row[x*4+2]
		}
	}
	return out, nil
}

// ToRGBA renders the raster into an *image.RGBA for encoders and drawing
// code that want the standard library type.
func (r *Raster) ToRGBA() *image.RGBA {
	dst := image.NewRGBA(r.Bounds())
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			dst.Set(x, y, r.At(x, y))
		}
	}
	return dst
}
