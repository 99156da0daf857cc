package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/skip2/go-qrcode"

	"github.com/MeKo-Tech/chromaqr/internal/barcode"
	"github.com/MeKo-Tech/chromaqr/internal/overlay"
	"github.com/MeKo-Tech/chromaqr/internal/raster"
	"github.com/MeKo-Tech/chromaqr/internal/utils"
)

// featureContext carries state between steps of one scenario.
type featureContext struct {
	planes    [3]*raster.Raster
	composite *raster.Raster
	image     image.Image
	session   *Session
	outcome   *Outcome
	lastErr   error
	annotated *raster.Raster
	blank     *raster.Raster
}

func (fc *featureContext) threePlanes(w, h, r, g, b int) error {
	for i, v := range []int{r, g, b} {
		fc.planes[i] = raster.Filled(w, h, uint8(v))
	}
	return nil
}

func (fc *featureContext) iComposeThem() error {
	c, err := raster.Compose(fc.planes[0], fc.planes[1], fc.planes[2])
	fc.composite = c
	return err
}

func (fc *featureContext) everyCompositePixelIs(r, g, b int) error {
	want := []uint8{uint8(r), uint8(g), uint8(b)}
	for i := 0; i < len(fc.composite.Pix); i += 3 {
		for k := 0; k < 3; k++ {
			if fc.composite.Pix[i+k] != want[k] {
				return fmt.Errorf("sample %d: got %v, want %v", i/3, fc.composite.Pix[i:i+3], want)
			}
		}
	}
	return nil
}

func (fc *featureContext) decomposingRecoversPlanes() error {
	r, g, b, err := raster.Decompose(fc.composite)
	if err != nil {
		return err
	}
	for i, p := range []*raster.Raster{r, g, b} {
		if string(p.Pix) != string(fc.planes[i].Pix) {
			return fmt.Errorf("%s plane differs after round trip", raster.Channels[i])
		}
	}
	return nil
}

func (fc *featureContext) redPreviewIsWhite() error {
	p, err := raster.TintPreview(fc.planes[0], raster.Red)
	if err != nil {
		return err
	}
	for i, v := range p.Pix {
		if v != 255 {
			return fmt.Errorf("preview sample %d is %d, want 255", i, v)
		}
	}
	return nil
}

func (fc *featureContext) colourQR(red, green, blue string) error {
	var planes [3]*raster.Raster
	for i, text := range []string{red, green, blue} {
		q, err := qrcode.New(text, qrcode.Medium)
		if err != nil {
			return err
		}
		if planes[i], err = raster.NormalizeImage(q.Image(256)); err != nil {
			return err
		}
	}
	c, err := raster.Compose(planes[0], planes[1], planes[2])
	fc.image = c
	return err
}

func (fc *featureContext) sessionPerChannel(backend string) error {
	s, err := NewSessionForBackend(backend, barcode.Options{}, overlay.DefaultStyle(),
		Options{WantLocalization: true, PerChannel: true})
	fc.session = s
	return err
}

func (fc *featureContext) iScanTheImage() error {
	out, err := fc.session.AnalyzeStill(context.Background(), fc.image)
	fc.outcome = out
	return err
}

func (fc *featureContext) channelDecodes(name, text string) error {
	ch, err := raster.ParseChannel(name)
	if err != nil {
		return err
	}
	got := fc.outcome.Channels.Get(ch).Texts
	if len(got) != 1 || got[0] != text {
		return fmt.Errorf("%s channel decoded %q, want %q", ch, got, text)
	}
	return nil
}

func (fc *featureContext) blankRaster(w, h int) error {
	fc.blank = raster.Blank(w, h)
	return nil
}

func parsePoints(s string) (barcode.Quadrilateral, error) {
	var q barcode.Quadrilateral
	for _, pair := range strings.Fields(s) {
		x, y, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("bad point %q", pair)
		}
		fx, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, err
		}
		fy, err := strconv.ParseFloat(y, 64)
		if err != nil {
			return nil, err
		}
		q = append(q, utils.Point{X: fx, Y: fy})
	}
	return q, nil
}

func (fc *featureContext) outlineQuads(a, b string) error {
	var quads []barcode.Quadrilateral
	for _, s := range []string{a, b} {
		q, err := parsePoints(s)
		if err != nil {
			return err
		}
		quads = append(quads, q)
	}
	fc.annotated, fc.lastErr = overlay.NewRenderer(overlay.DefaultStyle()).Render(fc.blank, quads)
	return nil
}

func (fc *featureContext) annotatedIs(w, h int) error {
	if fc.lastErr != nil {
		return fc.lastErr
	}
	if fc.annotated.Width != w || fc.annotated.Height != h {
		return fmt.Errorf("annotated raster is %dx%d", fc.annotated.Width, fc.annotated.Height)
	}
	return nil
}

func (fc *featureContext) pixelColour(s string) ([3]uint8, error) {
	q, err := parsePoints(s)
	if err != nil || len(q) != 1 {
		return [3]uint8{}, fmt.Errorf("bad pixel %q", s)
	}
	o := fc.annotated.PixOffset(int(q[0].X), int(q[0].Y))
	return [3]uint8{fc.annotated.Pix[o], fc.annotated.Pix[o+1], fc.annotated.Pix[o+2]}, nil
}

func (fc *featureContext) pixelsCarryStroke(a, b string) error {
	want, _ := overlay.ParseHexColor(overlay.DefaultColorHex)
	for _, p := range []string{a, b} {
		got, err := fc.pixelColour(p)
		if err != nil {
			return err
		}
		if got != [3]uint8{want.R, want.G, want.B} {
			return fmt.Errorf("pixel %s is %v", p, got)
		}
	}
	return nil
}

func (fc *featureContext) pixelUntouched(p string) error {
	got, err := fc.pixelColour(p)
	if err != nil {
		return err
	}
	if got != [3]uint8{} {
		return fmt.Errorf("pixel %s is %v, want untouched", p, got)
	}
	return nil
}

func (fc *featureContext) renderingFails(index int) error {
	var ge *overlay.InvalidGeometryError
	if !errors.As(fc.lastErr, &ge) {
		return fmt.Errorf("expected InvalidGeometryError, got %v", fc.lastErr)
	}
	if ge.Index != index {
		return fmt.Errorf("error names quad %d, want %d", ge.Index, index)
	}
	if fc.annotated != nil {
		return errors.New("a raster was returned despite the error")
	}
	return nil
}

func (fc *featureContext) liveSession(backend string) error {
	s, err := NewSessionForBackend(backend, barcode.Options{}, overlay.DefaultStyle(), Options{WantLocalization: true})
	fc.session = s
	return err
}

func (fc *featureContext) frameWithCode(text string) error {
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return err
	}
	fc.outcome, fc.lastErr = fc.session.AnalyzeFrame(context.Background(), q.Image(256))
	return nil
}

func (fc *featureContext) sessionReports(text string) error {
	if fc.lastErr != nil {
		return fc.lastErr
	}
	if !fc.outcome.Hit() || fc.outcome.Result.Texts[0] != text {
		return fmt.Errorf("outcome %+v does not report %q", fc.outcome, text)
	}
	return nil
}

func (fc *featureContext) gateIs(state string) error {
	if got := fc.session.Gate().State().String(); got != state {
		return fmt.Errorf("gate is %s, want %s", got, state)
	}
	return nil
}

func (fc *featureContext) anotherFrameArrives() error {
	fc.outcome, fc.lastErr = fc.session.AnalyzeFrame(context.Background(), image.NewGray(image.Rect(0, 0, 8, 8)))
	return nil
}

func (fc *featureContext) frameIsSkipped() error {
	if !errors.Is(fc.lastErr, ErrSuspended) {
		return fmt.Errorf("expected ErrSuspended, got %v", fc.lastErr)
	}
	return nil
}

func (fc *featureContext) userResumes() error {
	fc.session.Resume()
	return nil
}

// InitializeScenario registers the step definitions on a fresh context.
func InitializeScenario(sc *godog.ScenarioContext) {
	fc := &featureContext{}

	sc.Step(`^three (\d+)x(\d+) planes with values (\d+), (\d+) and (\d+)$`, fc.threePlanes)
	sc.Step(`^I compose them$`, fc.iComposeThem)
	sc.Step(`^every composite pixel is (\d+), (\d+), (\d+)$`, fc.everyCompositePixelIs)
	sc.Step(`^decomposing the composite recovers the three planes$`, fc.decomposingRecoversPlanes)
	sc.Step(`^the red preview is white$`, fc.redPreviewIsWhite)

	sc.Step(`^a colour QR code with "([^"]*)", "([^"]*)" and "([^"]*)"$`, fc.colourQR)
	sc.Step(`^a "([^"]*)" scanning session analysing each channel$`, fc.sessionPerChannel)
	sc.Step(`^I scan the image$`, fc.iScanTheImage)
	sc.Step(`^the (red|green|blue) channel decodes "([^"]*)"$`, fc.channelDecodes)

	sc.Step(`^a blank (\d+)x(\d+) raster$`, fc.blankRaster)
	sc.Step(`^I outline the quads "([^"]*)" and "([^"]*)"$`, fc.outlineQuads)
	sc.Step(`^the annotated raster is (\d+)x(\d+)$`, fc.annotatedIs)
	sc.Step(`^the pixels at "([^"]*)" and "([^"]*)" carry the stroke colour$`, fc.pixelsCarryStroke)
	sc.Step(`^the pixel at "([^"]*)" is untouched$`, fc.pixelUntouched)
	sc.Step(`^rendering fails with an invalid geometry error for quad (\d+)$`, fc.renderingFails)

	sc.Step(`^a "([^"]*)" live session$`, fc.liveSession)
	sc.Step(`^a frame with the code "([^"]*)" arrives$`, fc.frameWithCode)
	sc.Step(`^the session reports "([^"]*)"$`, fc.sessionReports)
	sc.Step(`^the gate is (active|suspended)$`, fc.gateIs)
	sc.Step(`^another frame arrives$`, fc.anotherFrameArrives)
	sc.Step(`^the frame is skipped$`, fc.frameIsSkipped)
	sc.Step(`^the user resumes scanning$`, fc.userResumes)
}

// TestFeatures runs the Godog suite over every file in features/.
func TestFeatures(t *testing.T) {
	entries, err := os.ReadDir("features")
	if err != nil {
		t.Fatalf("failed to read features directory: %v", err)
	}

	format := os.Getenv("GODOG_FORMAT")
	if format == "" {
		format = "pretty"
	}

	found := false
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".feature") {
			continue
		}
		found = true
		featurePath := filepath.Join("features", e.Name())

		t.Run(e.Name(), func(t *testing.T) {
			suite := godog.TestSuite{
				ScenarioInitializer: InitializeScenario,
				Options: &godog.Options{
					Format:   format,
					Tags:     os.Getenv("GODOG_TAGS"),
					Paths:    []string{featurePath},
					TestingT: t,
					Strict:   true,
				},
			}
			if suite.Run() != 0 {
				t.Fatalf("non-zero status returned for %s", featurePath)
			}
		})
	}

	if !found {
		t.Fatalf("no .feature files found in features/")
	}
}
