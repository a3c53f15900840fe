// Package imaging holds the local raster operations: rotation, grid
// stitching, resizing and redaction
package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/arcanaland/proxymancer/internal/errs"
)

// Asset is an image file on disk
type Asset struct {
	Path   string
	Width  int
	Height int
}

func assetOf(path string, img image.Image) Asset {
	b := img.Bounds()
	return Asset{Path: path, Width: b.Dx(), Height: b.Dy()}
}

// Load decodes the image at path and reports its format name
func Load(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", errs.E("load", errs.KindUnreadableImage, path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", errs.E("load", errs.KindUnreadableImage, path, err)
	}
	return img, format, nil
}

// Save encodes img to path in the given format. Formats without an encoder
// (webp) are written as png next to path; the path actually written is
// returned
func Save(path string, img image.Image, format string) (string, error) {
	switch format {
	case "png", "jpeg", "gif", "bmp":
	default:
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
		format = "png"
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("error creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating %s: %w", path, err)
	}

	switch format {
	case "jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	case "gif":
		if p, ok := exactPaletted(img); ok {
			err = gif.Encode(f, p, nil)
		} else {
			err = gif.Encode(f, img, nil)
		}
	case "bmp":
		err = bmp.Encode(f, img)
	default:
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("error encoding %s: %w", path, err)
	}
	return path, nil
}

// exactPaletted converts img to a paletted image holding exactly its own
// colours, so GIFs round-trip without quantisation. It fails when img has
// more colours than a GIF palette allows
func exactPaletted(img image.Image) (*image.Paletted, bool) {
	if p, ok := img.(*image.Paletted); ok {
		return p, true
	}

	b := img.Bounds()
	index := make(map[color.NRGBA]uint8)
	var palette color.Palette
	dst := image.NewPaletted(b, nil)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i, ok := index[c]
			if !ok {
				if len(palette) == 256 {
					return nil, false
				}
				i = uint8(len(palette))
				index[c] = i
				palette = append(palette, c)
			}
			dst.SetColorIndex(x, y, i)
		}
	}
	dst.Palette = palette
	return dst, true
}

// toNRGBA copies img into a zero-origin NRGBA image
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// ParseSize parses "WxH"
func ParseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, errs.E("parse size", errs.KindInvalidInput, "", fmt.Errorf("want WIDTHxHEIGHT, got %q", s))
	}
	width, err1 := strconv.Atoi(strings.TrimSpace(w))
	height, err2 := strconv.Atoi(strings.TrimSpace(h))
	if err1 != nil || err2 != nil || width < 1 || height < 1 {
		return 0, 0, errs.E("parse size", errs.KindInvalidInput, "", fmt.Errorf("want positive WIDTHxHEIGHT, got %q", s))
	}
	return width, height, nil
}

// ParseColor accepts "#rrggbb", "#rgb" or "transparent"
func ParseColor(s string) (color.Color, error) {
	if strings.EqualFold(s, "transparent") || s == "" {
		return color.Transparent, nil
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, errs.E("parse color", errs.KindInvalidInput, "", err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
