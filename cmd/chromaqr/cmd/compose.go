package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/chromaqr/internal/raster"
	"github.com/MeKo-Tech/chromaqr/internal/utils"
)

func newComposeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose RED GREEN BLUE",
		Short: "Combine three grayscale images into one RGB image",
		Long: `Combine three equally sized images into one RGB image. Each source is
converted to grayscale and becomes one channel of the result: the first
argument is red, the second green and the third blue.

A dark pixel (0) stays 0 in its channel. With --previews each source is
also written as it looks on its own in its slot colour, with dark pixels
shown as white background.

Examples:
  chromaqr compose a.png b.png c.png -o composite.png
  chromaqr compose a.png b.png c.png --previews previews/`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			previews, _ := cmd.Flags().GetString("previews")
			return a.runCompose(cmd.OutOrStdout(), args, output, previews)
		},
	}
	cmd.Flags().StringP("output", "o", "composite.png", "output image path")
	cmd.Flags().String("previews", "", "directory for tinted previews of each source")
	return cmd
}

func (a *app) runCompose(out io.Writer, sources []string, output, previewDir string) error {
	cfg := a.settings()

	var planes [3]*raster.Raster
	for i, path := range sources {
		plane, err := a.loadPlane(path)
		if err != nil {
			return fmt.Errorf("%s source: %w", raster.Channels[i], err)
		}
		planes[i] = plane
	}

	composite, err := raster.Compose(planes[0], planes[1], planes[2])
	if err != nil {
		return err
	}
	output = a.outputPath(cfg, output)
	if err := utils.SaveImage(a.fs, output, composite); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Wrote %s (%dx%d)\n", output, composite.Width, composite.Height)

	if previewDir == "" {
		return nil
	}
	previews, err := raster.TintPreviews(planes[0], planes[1], planes[2])
	if err != nil {
		return err
	}
	previewDir = a.outputPath(cfg, previewDir)
	for i, p := range previews {
		path := filepath.Join(previewDir, "preview_"+raster.Channels[i].String()+".png")
		if err := utils.SaveImage(a.fs, path, p); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Wrote %s\n", path)
	}
	return nil
}

// loadPlane reads an image from the app filesystem as one grayscale plane.
func (a *app) loadPlane(path string) (*raster.Raster, error) {
	img, _, err := utils.LoadImageFS(a.fs, path)
	if err != nil {
		return nil, err
	}
	return raster.NormalizeImage(img)
}
