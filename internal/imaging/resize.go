package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/nfnt/resize"

	"github.com/arcanaland/proxymancer/internal/errs"
)

// DefaultCardSize is a standard card at 300 dpi, in pixels
const (
	DefaultCardWidth  = 745
	DefaultCardHeight = 1040
)

// Contain scales img to the largest size that fits in width x height while
// keeping its aspect ratio. Small images are scaled up
func Contain(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	scale := min(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
	w := max(1, int(float64(b.Dx())*scale+0.5))
	h := max(1, int(float64(b.Dy())*scale+0.5))
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return resize.Resize(uint(w), uint(h), img, resize.Lanczos3)
}

// ResizeFile fits the image at path within width x height in place
func ResizeFile(path string, width, height int) (Asset, error) {
	img, format, err := Load(path)
	if err != nil {
		return Asset{}, err
	}
	resized := Contain(img, width, height)
	written, err := Save(path, resized, format)
	if err != nil {
		return Asset{}, err
	}
	return assetOf(written, resized), nil
}

// ParseRegion parses "x,y,width,height"
func ParseRegion(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, errs.E("parse region", errs.KindInvalidInput, "", fmt.Errorf("want x,y,width,height, got %q", s))
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, errs.E("parse region", errs.KindInvalidInput, "", fmt.Errorf("bad number in %q", s))
		}
		v[i] = n
	}
	if v[2] < 1 || v[3] < 1 {
		return image.Rectangle{}, errs.E("parse region", errs.KindInvalidInput, "", fmt.Errorf("region %q has no area", s))
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

// Redact covers each region with black, or with the matching replacement
// image scaled to the region when replacements are given
func Redact(img image.Image, regions []image.Rectangle, replacements []image.Image) (*image.NRGBA, error) {
	if len(replacements) > 0 && len(replacements) != len(regions) {
		return nil, errs.E("redact", errs.KindInvalidInput, "",
			fmt.Errorf("%d replacement images for %d regions", len(replacements), len(regions)))
	}

	dst := toNRGBA(img)
	black := image.NewUniform(color.NRGBA{A: 255})
	for i, r := range regions {
		if len(replacements) > 0 {
			patch := resize.Resize(uint(r.Dx()), uint(r.Dy()), replacements[i], resize.Lanczos3)
			draw.Draw(dst, r, patch, patch.Bounds().Min, draw.Src)
			continue
		}
		draw.Draw(dst, r, black, image.Point{}, draw.Src)
	}
	return dst, nil
}

// RedactFile normalises the image at path to width x height, redacts it and
// writes it back
func RedactFile(path string, width, height int, regions []image.Rectangle, replacements []image.Image) (Asset, error) {
	img, format, err := Load(path)
	if err != nil {
		return Asset{}, err
	}
	out, err := Redact(Contain(img, width, height), regions, replacements)
	if err != nil {
		return Asset{}, err
	}
	written, err := Save(path, out, format)
	if err != nil {
		return Asset{}, err
	}
	return assetOf(written, out), nil
}
