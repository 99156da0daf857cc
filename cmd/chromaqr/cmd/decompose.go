package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/chromaqr/internal/raster"
	"github.com/MeKo-Tech/chromaqr/internal/utils"
)

func newDecomposeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decompose IMAGE",
		Short: "Split an RGB image into its channel planes",
		Long: `Split an RGB image into three images, one per channel. By default each
plane is written as grayscale, which is the exact inverse of compose.
With --isolated each plane keeps its colour and the other two channels
are zeroed.

Examples:
  chromaqr decompose composite.png -o planes/
  chromaqr decompose composite.png --isolated`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("output")
			isolated, _ := cmd.Flags().GetBool("isolated")
			return a.runDecompose(cmd.OutOrStdout(), args[0], a.outputPath(a.settings(), dir), isolated)
		},
	}
	cmd.Flags().StringP("output", "o", ".", "output directory")
	cmd.Flags().Bool("isolated", false, "keep each plane in its colour instead of grayscale")
	return cmd
}

func (a *app) runDecompose(out io.Writer, input, dir string, isolated bool) error {
	img, _, err := utils.LoadImageFS(a.fs, input)
	if err != nil {
		return err
	}
	src, err := raster.FromImage(img)
	if err != nil {
		return err
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	for _, ch := range raster.Channels {
		var plane *raster.Raster
		if isolated {
			plane, err = raster.IsolateChannel(src, ch)
		} else {
			plane, err = raster.ExtractChannel(src, ch)
		}
		if err != nil {
			return err
		}
		path := filepath.Join(dir, stem+"_"+ch.String()+".png")
		if err := utils.SaveImage(a.fs, path, plane); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Wrote %s\n", path)
	}
	return nil
}
