package scan

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/chromaqr/internal/barcode"
	"github.com/MeKo-Tech/chromaqr/internal/raster"
)

// Summary renders decoded texts one per line as "[index] text". When
// per-channel results are given, a final line lists them as
// "R: … ; G: … ; B: …" with "-" for channels that decoded nothing.
func Summary(res barcode.DetectionResult, channels *barcode.ChannelResults) string {
	var b strings.Builder
	for i, text := range res.Texts {
		fmt.Fprintf(&b, "[%d] %s\n", i, text)
	}
	if channels != nil {
		parts := make([]string, 0, len(raster.Channels))
		for _, ch := range raster.Channels {
			texts := channels.Get(ch).Texts
			val := "-"
			if len(texts) > 0 {
				val = strings.Join(texts, ", ")
			}
			parts = append(parts, ch.Short()+": "+val)
		}
		b.WriteString(strings.Join(parts, " ; "))
		b.WriteString("\n")
	}
	return b.String()
}
