// Package overlay draws detected code boundaries onto a copy of a raster.
package overlay

import (
	"github.com/MeKo-Tech/chromaqr/internal/barcode"
	"github.com/MeKo-Tech/chromaqr/internal/raster"
	"github.com/MeKo-Tech/chromaqr/internal/utils"
)

// Renderer draws closed quadrilateral outlines with a fixed Style.
type Renderer struct {
	style Style
}

// NewRenderer returns a renderer using style. A zero colour or width falls
// back to the defaults.
func NewRenderer(style Style) *Renderer {
	def := DefaultStyle()
	if style.Color == nil {
		style.Color = def.Color
	}
	if style.WidthPx < 1 {
		style.WidthPx = def.WidthPx
	}
	return &Renderer{style: style}
}

// Style returns the stroke style in use.
func (r *Renderer) Style() Style { return r.style }

// Render returns a copy of src with every quadrilateral outlined. All quads
// are validated before anything is drawn. Single-channel sources are
// expanded to three channels so the stroke colour can be represented.
func (r *Renderer) Render(src *raster.Raster, quads []barcode.Quadrilateral) (*raster.Raster, error) {
	if src == nil {
		return nil, &raster.UnsupportedFormatError{Op: "overlay", Reason: "nil raster"}
	}
	for i, q := range quads {
		if !q.Valid() {
			return nil, &InvalidGeometryError{Index: i, Points: len(q)}
		}
	}

	dst := toColor(src)
	for _, q := range quads {
		utils.DrawPolygon(dst, q, r.style.Color, r.style.WidthPx)
	}
	return dst, nil
}

// RenderResult outlines the quads of a detection result. Unlocalized
// results yield a plain copy.
func (r *Renderer) RenderResult(src *raster.Raster, res barcode.DetectionResult) (*raster.Raster, error) {
	if !res.Localized {
		return r.Render(src, nil)
	}
	return r.Render(src, res.Quads)
}

func toColor(src *raster.Raster) *raster.Raster {
	if src.Channels != 1 {
		return src.Clone()
	}
	out := raster.New(src.Width, src.Height, 3)
	for i, v := range src.Pix {
		out.Pix[i*3], out.Pix[i*3+1], out.Pix[i*3+2] = v, v, v
	}
	return out
}
