package barcode

import (
	"context"
	"errors"
	"image"
	"math"

	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	"github.com/makiuchi-d/gozxing/oned"

	"github.com/MeKo-Tech/chromaqr/internal/utils"
)

// gozxingBackend decodes with makiuchi-d/gozxing and reports corner points.
type gozxingBackend struct{}

func (b *gozxingBackend) Name() string { return BackendGozxing }

func (b *gozxingBackend) Capabilities() Capability { return CapDecode | CapLocalize }

func (b *gozxingBackend) Decode(ctx context.Context, img image.Image, opts Options) ([]Result, error) {
	if img == nil {
		return nil, errors.New("gozxing: nil image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	formats := opts.Formats
	if len(formats) == 0 {
		formats = []Format{FormatQR}
	}

	src := gozxing.NewLuminanceSourceFromImage(img)
	binarizers := []func(gozxing.LuminanceSource) gozxing.Binarizer{gozxing.NewHybridBinarizer}
	if opts.TryHarder {
		binarizers = append(binarizers, gozxing.NewGlobalHistgramBinarizer)
	}

	hints := make(map[gozxing.DecodeHintType]interface{})
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	var lastErr error
	for _, newBinarizer := range binarizers {
		bmp, err := gozxing.NewBinaryBitmap(newBinarizer(src))
		if err != nil {
			lastErr = err
			continue
		}
		var out []Result
		for _, f := range formats {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results, err := decodeFormat(bmp, f, hints)
			if err != nil {
				lastErr = err
				continue
			}
			for _, r := range results {
				out = appendUnique(out, convertZXingResult(r))
			}
		}
		if len(out) > 0 {
			return out, nil
		}
	}

	if lastErr != nil && !isNotFound(lastErr) {
		return nil, lastErr
	}
	return []Result{}, nil
}

func decodeFormat(bmp *gozxing.BinaryBitmap, f Format, hints map[gozxing.DecodeHintType]interface{}) ([]*gozxing.Result, error) {
	var reader gozxing.Reader
	switch f {
	case FormatQR:
		return multiqr.NewQRCodeMultiReader().DecodeMultiple(bmp, hints)
	case FormatDataMatrix:
		reader = datamatrix.NewDataMatrixReader()
	case FormatAztec:
		reader = aztec.NewAztecReader()
	case FormatCode128:
		reader = oned.NewCode128Reader()
	default:
		return nil, nil
	}
	r, err := reader.Decode(bmp, hints)
	if err != nil {
		return nil, err
	}
	return []*gozxing.Result{r}, nil
}

func isNotFound(err error) bool {
	var nf gozxing.NotFoundException
	return errors.As(err, &nf)
}

func convertZXingResult(r *gozxing.Result) Result {
	format := mapFormatFromZXing(r.GetBarcodeFormat())
	raw := r.GetResultPoints()
	pts := make([]utils.Point, 0, len(raw))
	for _, p := range raw {
		if p == nil {
			continue
		}
		pts = append(pts, utils.Point{X: p.GetX(), Y: p.GetY()})
	}
	if format == FormatQR {
		pts = completeFinderQuad(pts, finderModuleSize(raw))
	} else if len(pts) > 4 {
		pts = pts[:4]
	}
	return Result{Format: format, Text: r.GetText(), Points: pts}
}

// finderHalfWidth is the distance in modules from a finder pattern centre
// to the symbol edge.
const finderHalfWidth = 3.5

// completeFinderQuad turns QR finder pattern centres, ordered bottom-left,
// top-left, top-right (plus an optional alignment pattern), into four
// corners in clockwise order starting top-left. The fourth corner is the
// parallelogram completion. Each corner is then pushed outward along both
// symbol axes by finderHalfWidth modules so the quad follows the symbol
// edge rather than the finder centres; a moduleSize of 0 leaves the
// centres as they are. Fewer than three points are returned as-is.
func completeFinderQuad(pts []utils.Point, moduleSize float64) []utils.Point {
	if len(pts) < 3 {
		return pts
	}
	bl, tl, tr := pts[0], pts[1], pts[2]
	br := utils.Point{X: tr.X + bl.X - tl.X, Y: tr.Y + bl.Y - tl.Y}

	d := finderHalfWidth * moduleSize
	ux, uy := unit(tr.X-tl.X, tr.Y-tl.Y)
	vx, vy := unit(bl.X-tl.X, bl.Y-tl.Y)
	shift := func(p utils.Point, su, sv float64) utils.Point {
		return utils.Point{X: p.X + d*(su*ux+sv*vx), Y: p.Y + d*(su*uy+sv*vy)}
	}
	return []utils.Point{shift(tl, -1, -1), shift(tr, 1, -1), shift(br, 1, 1), shift(bl, -1, 1)}
}

func unit(x, y float64) (float64, float64) {
	n := math.Hypot(x, y)
	if n == 0 {
		return 0, 0
	}
	return x / n, y / n
}

// finderModuleSize returns the module size the detector estimated for the
// first finder pattern, or 0 when the points do not carry one.
func finderModuleSize(raw []gozxing.ResultPoint) float64 {
	for _, p := range raw {
		if fp, ok := p.(interface{ GetEstimatedModuleSize() float64 }); ok {
			return fp.GetEstimatedModuleSize()
		}
	}
	return 0
}

// appendUnique drops a result when a symbol with the same text already
// covers its centre; the multi reader can report one symbol twice when it
// finds more than one finder pattern triplet.
func appendUnique(out []Result, r Result) []Result {
	if len(r.Points) == 0 {
		return append(out, r)
	}
	for _, o := range out {
		if o.Text == r.Text && len(o.Points) > 0 && centreInside(r.Points, o.Points) {
			return out
		}
	}
	return append(out, r)
}

func mapFormatFromZXing(bf gozxing.BarcodeFormat) Format {
	switch bf {
	case gozxing.BarcodeFormat_QR_CODE:
		return FormatQR
	case gozxing.BarcodeFormat_DATA_MATRIX:
		return FormatDataMatrix
	case gozxing.BarcodeFormat_AZTEC:
		return FormatAztec
	case gozxing.BarcodeFormat_CODE_128:
		return FormatCode128
	default:
		return FormatUnknown
	}
}
