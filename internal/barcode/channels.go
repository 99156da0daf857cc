package barcode

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/chromaqr/internal/raster"
)

// ChannelResults holds the detection over the full image plus one
// detection per colour channel.
type ChannelResults struct {
	Full     DetectionResult                    `json:"full"`
	Channels map[raster.Channel]DetectionResult `json:"-"`
}

// Get returns the result for ch, or an empty result if it is missing.
func (c ChannelResults) Get(ch raster.Channel) DetectionResult {
	if r, ok := c.Channels[ch]; ok {
		return r
	}
	return emptyResult(c.Full.Backend, false)
}

// Texts returns the decoded texts per channel in R, G, B order.
func (c ChannelResults) Texts() [3][]string {
	var out [3][]string
	for _, ch := range raster.Channels {
		out[ch.Index()] = c.Get(ch).Texts
	}
	return out
}

// ByName returns the full-image result under "full" and each channel's
// result under its name.
func (c ChannelResults) ByName() map[string]DetectionResult {
	out := make(map[string]DetectionResult, len(raster.Channels)+1)
	out["full"] = c.Full
	for _, ch := range raster.Channels {
		out[ch.String()] = c.Get(ch)
	}
	return out
}

// DetectChannels splits img into its red, green and blue planes and runs
// detection on each plane and on the full image concurrently. Single
// channel inputs are analysed as the same plane in every slot.
func (a *Adapter) DetectChannels(ctx context.Context, img image.Image, wantLocalization bool) (ChannelResults, error) {
	src, err := raster.FromImage(img)
	if err != nil {
		return ChannelResults{}, fmt.Errorf("per-channel detection: %w", err)
	}

	var planes [3]*raster.Raster
	if src.Channels == 1 {
		planes = [3]*raster.Raster{src, src, src}
	} else {
		r, g, b, err := raster.Decompose(src)
		if err != nil {
			return ChannelResults{}, fmt.Errorf("per-channel detection: %w", err)
		}
		planes = [3]*raster.Raster{r, g, b}
	}

	var perChannel [3]DetectionResult
	var full DetectionResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		full = a.Detect(gctx, src, wantLocalization)
		return gctx.Err()
	})
	for _, ch := range raster.Channels {
		ch := ch
		g.Go(func() error {
			perChannel[ch.Index()] = a.Detect(gctx, planes[ch.Index()], wantLocalization)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return ChannelResults{}, err
	}

	out := ChannelResults{Full: full, Channels: make(map[raster.Channel]DetectionResult, 3)}
	for _, ch := range raster.Channels {
		out.Channels[ch] = perChannel[ch.Index()]
	}
	return out, nil
}
