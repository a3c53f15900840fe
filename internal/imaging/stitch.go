package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"path/filepath"

	"github.com/arcanaland/proxymancer/internal/errs"
)

// Layout is a sheet grid
type Layout struct {
	Cols int
	Rows int
}

// Capacity is the number of cells in the grid
func (l Layout) Capacity() int {
	return l.Cols * l.Rows
}

func (l Layout) validate() error {
	if l.Cols < 1 || l.Rows < 1 {
		return errs.E("stitch", errs.KindInvalidInput, "", fmt.Errorf("grid %dx%d must be at least 1x1", l.Cols, l.Rows))
	}
	return nil
}

// Stitch places imgs left-to-right, top-to-bottom on one canvas. Every cell
// is as large as the largest input; smaller images are centred in their
// cell and unfilled cells keep the background. More images than cells is
// a layout error
func Stitch(imgs []image.Image, layout Layout, background color.Color) (*image.NRGBA, error) {
	if err := layout.validate(); err != nil {
		return nil, err
	}
	if len(imgs) == 0 {
		return nil, errs.E("stitch", errs.KindInvalidInput, "", fmt.Errorf("no images to stitch"))
	}
	if len(imgs) > layout.Capacity() {
		return nil, errs.E("stitch", errs.KindLayout, "",
			fmt.Errorf("%d images do not fit a %dx%d grid of %d cells", len(imgs), layout.Cols, layout.Rows, layout.Capacity()))
	}

	cellW, cellH := 0, 0
	for _, img := range imgs {
		b := img.Bounds()
		cellW = max(cellW, b.Dx())
		cellH = max(cellH, b.Dy())
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, cellW*layout.Cols, cellH*layout.Rows))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	for i, img := range imgs {
		b := img.Bounds()
		col, row := i%layout.Cols, i/layout.Cols
		x := col*cellW + (cellW-b.Dx())/2
		y := row*cellH + (cellH-b.Dy())/2
		r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
		draw.Draw(canvas, r, img, b.Min, draw.Over)
	}
	return canvas, nil
}

// SheetName is the file name of page n (1-based) of a layout
func SheetName(layout Layout, n int) string {
	return fmt.Sprintf("_grid%dx%d_%d.png", layout.Cols, layout.Rows, n)
}

// StitchFiles stitches the images at paths into sheets under outDir. Without
// paginate all paths must fit one sheet; with it they are split into as many
// sheets as needed, the last one padded
func StitchFiles(paths []string, layout Layout, outDir string, background color.Color, paginate bool, log *slog.Logger) ([]Asset, error) {
	if err := layout.validate(); err != nil {
		return nil, err
	}
	if !paginate && len(paths) > layout.Capacity() {
		return nil, errs.E("stitch", errs.KindLayout, "",
			fmt.Errorf("%d images do not fit a %dx%d grid of %d cells (use --paginate for multiple sheets)",
				len(paths), layout.Cols, layout.Rows, layout.Capacity()))
	}

	pages := (len(paths) + layout.Capacity() - 1) / layout.Capacity()
	log.Info(fmt.Sprintf("Arranging %d images on %d pages of %dx%d", len(paths), pages, layout.Cols, layout.Rows))

	var sheets []Asset
	for page := 0; page < pages; page++ {
		chunk := paths[page*layout.Capacity() : min((page+1)*layout.Capacity(), len(paths))]
		log.Debug("Arranging images", "page", page+1, "images", chunk)

		imgs := make([]image.Image, 0, len(chunk))
		for _, p := range chunk {
			img, _, err := Load(p)
			if err != nil {
				return sheets, err
			}
			imgs = append(imgs, img)
		}

		sheet, err := Stitch(imgs, layout, background)
		if err != nil {
			return sheets, err
		}
		written, err := Save(filepath.Join(outDir, SheetName(layout, page+1)), sheet, "png")
		if err != nil {
			return sheets, err
		}
		log.Info("Saving", "path", written)
		sheets = append(sheets, assetOf(written, sheet))
	}
	return sheets, nil
}
