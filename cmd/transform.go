package cmd

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arcanaland/proxymancer/internal/imaging"
)

var rotateCmd = &cobra.Command{
	Use:   "rotate IMAGE...",
	Short: "Rotate images by a multiple of 90 degrees",
	Long: `Rotate turns each image counter-clockwise by --angle degrees. The angle must
be a multiple of 90; pixels are moved, not resampled. Images are rewritten in
place unless --output names a directory.`,
	Args:              cobra.MinimumNArgs(1),
	PersistentPreRunE: setupLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := envFrom(cmd).log
		angle, _ := cmd.Flags().GetFloat64("angle")
		output, _ := cmd.Flags().GetString("output")

		if _, err := imaging.QuarterTurns(angle); err != nil {
			return err
		}

		failed := 0
		for _, path := range args {
			out := ""
			if output != "" {
				out = filepath.Join(output, filepath.Base(path))
			}
			log.Info(fmt.Sprintf("Rotating %v degrees", angle), "path", path)
			asset, err := imaging.RotateFile(path, angle, out)
			if err != nil {
				log.Error("Rotate failed", "path", path, "error", err)
				failed++
				continue
			}
			log.Debug("Saved", "path", asset.Path, "width", asset.Width, "height", asset.Height)
		}
		return summarize(cmd, "rotated", len(args), failed)
	},
}

var resizeCmd = &cobra.Command{
	Use:   "resize IMAGE...",
	Short: "Fit images within a size, keeping their aspect ratio",
	Long: `Resize scales each image to the largest size that fits within --size while
keeping its aspect ratio, and rewrites it in place. The default is a standard
card at 300 dpi.`,
	Args:              cobra.MinimumNArgs(1),
	PersistentPreRunE: setupLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := envFrom(cmd).log
		size, _ := cmd.Flags().GetString("size")
		w, h, err := imaging.ParseSize(size)
		if err != nil {
			return err
		}

		failed := 0
		for _, path := range args {
			asset, err := imaging.ResizeFile(path, w, h)
			if err != nil {
				log.Error("Resize failed", "path", path, "error", err)
				failed++
				continue
			}
			log.Info("Resized", "path", asset.Path, "width", asset.Width, "height", asset.Height)
		}
		return summarize(cmd, "resized", len(args), failed)
	},
}

var redactCmd = &cobra.Command{
	Use:   "redact IMAGE...",
	Short: "Black out or replace regions of images",
	Long: `Redact first fits each image to --size, then covers every --region with black,
or with the matching --replacement image scaled to the region. Give either no
replacements or one per region.

Example:
  proxymancer redact -r 40,930,665,70 -r 600,40,100,60 *.png`,
	Args:              cobra.MinimumNArgs(1),
	PersistentPreRunE: setupLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := envFrom(cmd).log
		size, _ := cmd.Flags().GetString("size")
		regionFlags, _ := cmd.Flags().GetStringArray("region")
		replacementFlags, _ := cmd.Flags().GetStringArray("replacement")

		w, h, err := imaging.ParseSize(size)
		if err != nil {
			return err
		}
		if len(regionFlags) == 0 {
			return fmt.Errorf("at least one --region is required")
		}
		var regions []image.Rectangle
		for _, r := range regionFlags {
			rect, err := imaging.ParseRegion(r)
			if err != nil {
				return err
			}
			regions = append(regions, rect)
		}
		if len(replacementFlags) > 0 && len(replacementFlags) != len(regions) {
			return fmt.Errorf("%d replacement images for %d regions", len(replacementFlags), len(regions))
		}
		var replacements []image.Image
		for _, p := range replacementFlags {
			img, _, err := imaging.Load(p)
			if err != nil {
				return err
			}
			replacements = append(replacements, img)
		}

		failed := 0
		for _, path := range args {
			asset, err := imaging.RedactFile(path, w, h, regions, replacements)
			if err != nil {
				log.Error("Redact failed", "path", path, "error", err)
				failed++
				continue
			}
			log.Info("Redacted", "path", asset.Path, "regions", len(regions))
		}
		return summarize(cmd, "redacted", len(args), failed)
	},
}

var stitchCmd = &cobra.Command{
	Use:   "stitch IMAGE...",
	Short: "Arrange images on a grid sheet",
	Long: `Stitch places images left to right, top to bottom on a grid of --width by
--height cells and writes the sheet as _grid{W}x{H}_1.png. Every cell is as
large as the largest image; unused cells keep the background colour.

More images than cells is an error unless --paginate is given, in which case
as many sheets as needed are written.`,
	Args:              cobra.MinimumNArgs(1),
	PersistentPreRunE: setupLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := envFrom(cmd).log
		cols, _ := cmd.Flags().GetInt("width")
		rows, _ := cmd.Flags().GetInt("height")
		output, _ := cmd.Flags().GetString("output")
		paginate, _ := cmd.Flags().GetBool("paginate")
		background, _ := cmd.Flags().GetString("background")

		if !cmd.Flags().Changed("background") {
			if cfg, err := loadConfig(); err == nil {
				background = cfg.Background
			}
		}
		bg, err := imaging.ParseColor(background)
		if err != nil {
			return err
		}

		sheets, err := imaging.StitchFiles(args, imaging.Layout{Cols: cols, Rows: rows}, output, bg, paginate, log)
		if err != nil {
			return err
		}
		for _, s := range sheets {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %dx%d\n", s.Path, s.Width, s.Height)
		}
		return nil
	},
}

func init() {
	rotateCmd.Flags().Float64P("angle", "a", 90, "Counter-clockwise rotation in degrees (multiple of 90)")
	rotateCmd.Flags().StringP("output", "o", "", "Write rotated images to this directory instead of in place")

	resizeCmd.Flags().StringP("size", "s", fmt.Sprintf("%dx%d", imaging.DefaultCardWidth, imaging.DefaultCardHeight), "Bounding size WIDTHxHEIGHT")

	redactCmd.Flags().StringP("size", "s", fmt.Sprintf("%dx%d", imaging.DefaultCardWidth, imaging.DefaultCardHeight), "Size to fit images to before redacting")
	redactCmd.Flags().StringArrayP("region", "r", nil, "Region x,y,width,height (repeatable)")
	redactCmd.Flags().StringArray("replacement", nil, "Replacement image for the region at the same position (repeatable)")

	stitchCmd.Flags().IntP("width", "x", 3, "Columns per sheet")
	stitchCmd.Flags().IntP("height", "y", 3, "Rows per sheet")
	stitchCmd.Flags().StringP("output", "o", ".", "Output directory")
	stitchCmd.Flags().Bool("paginate", false, "Write several sheets when the images do not fit one")
	stitchCmd.Flags().String("background", "#ffffff", "Background colour (#rrggbb or transparent; default from config)")
}

// summarize reports a per-image batch; it fails only when nothing succeeded
func summarize(cmd *cobra.Command, verb string, total, failed int) error {
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d images %s\n", total-failed, total, verb)
	if failed == total {
		return fmt.Errorf("no images %s", verb)
	}
	return nil
}
