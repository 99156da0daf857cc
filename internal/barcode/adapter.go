package barcode

import (
	"context"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/chromaqr/internal/utils"
)

// Quadrilateral is an ordered list of corner points in source pixel
// coordinates. Consecutive points are adjacent corners; a well-formed
// quadrilateral has exactly four points.
type Quadrilateral []utils.Point

// Valid reports whether q has exactly four corners.
func (q Quadrilateral) Valid() bool { return len(q) == 4 }

// Bounds returns the axis-aligned bounding box of q.
func (q Quadrilateral) Bounds() utils.Box { return utils.BoundingBox(q) }

// DetectionResult is the normalized output of one detection pass.
type DetectionResult struct {
	Texts     []string        `json:"texts"`
	Quads     []Quadrilateral `json:"quads"`
	Localized bool            `json:"localized"`
	Backend   string          `json:"backend"`
}

// Count returns the number of decoded symbols.
func (d DetectionResult) Count() int { return len(d.Texts) }

// Empty reports whether nothing was decoded.
func (d DetectionResult) Empty() bool { return len(d.Texts) == 0 }

func emptyResult(backend string, localized bool) DetectionResult {
	return DetectionResult{Texts: []string{}, Quads: []Quadrilateral{}, Localized: localized, Backend: backend}
}

// Adapter runs a Backend and normalizes its output into DetectionResults.
type Adapter struct {
	backend Backend
	opts    Options
}

// NewAdapter wraps backend with the given decoding options.
func NewAdapter(backend Backend, opts Options) *Adapter {
	return &Adapter{backend: backend, opts: opts}
}

// NewAdapterByName constructs the named backend and wraps it.
func NewAdapterByName(name string, opts Options) (*Adapter, error) {
	be, err := NewBackend(name)
	if err != nil {
		return nil, err
	}
	return NewAdapter(be, opts), nil
}

// Backend returns the wrapped backend.
func (a *Adapter) Backend() Backend { return a.backend }

// CanLocalize reports whether the wrapped backend returns corner points.
func (a *Adapter) CanLocalize() bool { return a.backend.Capabilities().Has(CapLocalize) }

// Detect decodes img and returns the normalized result. Backend failures
// are logged and reported as zero detections. Quads are filled only when
// wantLocalization is set and the backend can localize; in that case
// len(Quads) == len(Texts).
func (a *Adapter) Detect(ctx context.Context, img image.Image, wantLocalization bool) DetectionResult {
	localized := wantLocalization && a.CanLocalize()
	out := emptyResult(a.backend.Name(), localized)
	if img == nil {
		return out
	}

	results, err := a.backend.Decode(ctx, img, a.opts)
	if err != nil {
		slog.Debug("Barcode decode failed", "backend", a.backend.Name(), "error", err)
		return out
	}

	for _, r := range results {
		out.Texts = append(out.Texts, r.Text)
		if localized {
			q := make(Quadrilateral, len(r.Points))
			copy(q, r.Points)
			out.Quads = append(out.Quads, q)
		}
	}
	return out
}

// Merge concatenates results in order. A symbol is skipped when an
// earlier result already reported the same text at the same place; when
// the merged result is not localized, the same text is enough. Symbols
// within one result are never merged with each other. The merged result
// is localized only if every input is.
func Merge(results ...DetectionResult) DetectionResult {
	if len(results) == 0 {
		return emptyResult("", false)
	}
	localized := true
	for _, r := range results {
		localized = localized && r.Localized
	}
	out := emptyResult(results[0].Backend, localized)
	var owner []int
	for ri, r := range results {
		for i, text := range r.Texts {
			var q Quadrilateral
			if localized && i < len(r.Quads) {
				q = r.Quads[i]
			}
			if mergedAlready(out, owner, ri, text, q) {
				continue
			}
			out.Texts = append(out.Texts, text)
			owner = append(owner, ri)
			if localized {
				out.Quads = append(out.Quads, q)
			}
		}
	}
	return out
}

func mergedAlready(out DetectionResult, owner []int, from int, text string, q Quadrilateral) bool {
	for j, t := range out.Texts {
		if owner[j] == from || t != text {
			continue
		}
		if !out.Localized || len(q) == 0 || len(out.Quads[j]) == 0 {
			return true
		}
		if centreInside(q, out.Quads[j]) {
			return true
		}
	}
	return false
}

// centreInside reports whether the centre of pts lies in the bounding box
// of other.
func centreInside(pts, other []utils.Point) bool {
	c := utils.BoundingBox(pts)
	cx, cy := (c.MinX+c.MaxX)/2, (c.MinY+c.MaxY)/2
	b := utils.BoundingBox(other)
	return cx >= b.MinX && cx <= b.MaxX && cy >= b.MinY && cy <= b.MaxY
}
