package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/chromaqr/internal/barcode"
	"github.com/MeKo-Tech/chromaqr/internal/config"
	"github.com/MeKo-Tech/chromaqr/internal/raster"
	"github.com/MeKo-Tech/chromaqr/internal/scan"
	"github.com/MeKo-Tech/chromaqr/internal/utils"
)

// scanReport is the JSON form of one scanned file.
type scanReport struct {
	File       string                             `json:"file"`
	Result     barcode.DetectionResult            `json:"result"`
	Channels   map[string]barcode.DetectionResult `json:"channels,omitempty"`
	Summary    string                             `json:"summary"`
	DurationMs int64                              `json:"duration_ms"`
	Overlay    string                             `json:"overlay,omitempty"`
}

func newScanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan IMAGE...",
		Short: "Decode the codes in one or more images",
		Long: `Decode every code in the given images. By default the full image and
each of its red, green and blue planes are searched, so all three codes
of a colour composite are found.

With --overlay the detected codes are outlined and the annotated image is
written to the given path (one image) or directory (several images).

Examples:
  chromaqr scan code.png
  chromaqr scan code.png --format json
  chromaqr scan code.png --overlay outlined.png
  chromaqr scan *.png --backend goqr --per-channel=false`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.settings()
			if err := applyScanFlags(cmd, &cfg); err != nil {
				return err
			}
			overlayPath, _ := cmd.Flags().GetString("overlay")
			if overlayPath != "" {
				cfg.Scan.Localize = true
				overlayPath = a.outputPath(cfg, overlayPath)
			}
			return a.runScan(cmd, cfg, args, overlayPath)
		},
	}
	cmd.Flags().String("backend", "", "detection backend ("+strings.Join(barcode.BackendNames(), ", ")+")")
	cmd.Flags().Bool("per-channel", true, "also search each colour plane separately")
	cmd.Flags().Bool("localize", true, "report corner points of each code")
	cmd.Flags().Bool("try-harder", false, "spend more time looking for codes")
	cmd.Flags().StringSlice("formats", nil, "barcode formats to look for (qr, aztec, datamatrix, code128)")
	cmd.Flags().String("overlay", "", "write the outlined image to this path")
	cmd.Flags().StringP("format", "f", "", "output format (text, json)")
	return cmd
}

// applyScanFlags copies explicitly set scan flags over the configuration.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Scan.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("per-channel") {
		cfg.Scan.PerChannel, _ = flags.GetBool("per-channel")
	}
	if flags.Changed("localize") {
		cfg.Scan.Localize, _ = flags.GetBool("localize")
	}
	if flags.Changed("try-harder") {
		cfg.Scan.TryHarder, _ = flags.GetBool("try-harder")
	}
	if flags.Changed("formats") {
		cfg.Scan.Formats, _ = flags.GetStringSlice("formats")
	}
	if flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	switch cfg.Output.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid output format: %s (must be one of: text, json)", cfg.Output.Format)
	}
	return nil
}

func (a *app) runScan(cmd *cobra.Command, cfg config.Config, files []string, overlayPath string) error {
	session, err := cfg.NewSession()
	if err != nil {
		return err
	}
	slog.Debug("Scanning images", "count", len(files), "backend", session.Adapter().Backend().Name(),
		"per_channel", cfg.Scan.PerChannel)

	reports := make([]scanReport, 0, len(files))
	for _, file := range files {
		img, _, err := utils.LoadImageFS(a.fs, file)
		if err != nil {
			return err
		}
		out, err := session.AnalyzeStill(cmd.Context(), img)
		if err != nil {
			return fmt.Errorf("scan %s: %w", file, err)
		}

		report := newScanReport(file, out)
		if overlayPath != "" {
			dst := overlayTarget(overlayPath, file, len(files))
			if err := a.saveOverlay(dst, img, out); err != nil {
				return err
			}
			report.Overlay = dst
		}
		reports = append(reports, report)
	}

	if cfg.Output.Format == "json" {
		return writeScanJSON(cmd.OutOrStdout(), reports)
	}
	writeScanText(cmd.OutOrStdout(), reports)
	return nil
}

func newScanReport(file string, out *scan.Outcome) scanReport {
	r := scanReport{
		File:       file,
		Result:     out.Result,
		Summary:    out.Summary,
		DurationMs: out.Duration.Milliseconds(),
	}
	if out.Channels != nil {
		r.Channels = out.Channels.ByName()
	}
	return r
}

// overlayTarget names the overlay file for input. A single input writes
// to path itself; several inputs write <stem>_overlay.png into path.
func overlayTarget(path, input string, inputs int) string {
	if inputs == 1 {
		return path
	}
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(path, stem+"_overlay.png")
}

// saveOverlay writes the annotated image, or the source when nothing
// was localized.
func (a *app) saveOverlay(path string, src image.Image, out *scan.Outcome) error {
	if out.Annotated != nil {
		return utils.SaveImage(a.fs, path, out.Annotated)
	}
	plain, err := raster.FromImage(src)
	if err != nil {
		return err
	}
	return utils.SaveImage(a.fs, path, plain)
}

func writeScanJSON(w io.Writer, reports []scanReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(reports) == 1 {
		return enc.Encode(reports[0])
	}
	return enc.Encode(reports)
}

func writeScanText(w io.Writer, reports []scanReport) {
	for i, r := range reports {
		if len(reports) > 1 {
			if i > 0 {
				_, _ = fmt.Fprintln(w)
			}
			_, _ = fmt.Fprintf(w, "%s:\n", r.File)
		}
		if r.Result.Empty() {
			_, _ = fmt.Fprintln(w, "No codes found")
		}
		_, _ = fmt.Fprint(w, r.Summary)
		if r.Overlay != "" {
			_, _ = fmt.Fprintf(w, "Overlay: %s\n", r.Overlay)
		}
	}
}
