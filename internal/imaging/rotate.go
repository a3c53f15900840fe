package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/arcanaland/proxymancer/internal/errs"
)

// Rotate turns img counter-clockwise by quarterTurns * 90 degrees. Pixels
// are moved, never resampled, so rotations compose exactly
func Rotate(img image.Image, quarterTurns int) *image.NRGBA {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	turns := ((quarterTurns % 4) + 4) % 4
	if turns == 0 {
		return src
	}

	var dst *image.NRGBA
	if turns == 2 {
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewNRGBA(image.Rect(0, 0, h, w))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch turns {
			case 1:
				dx, dy = y, w-1-x
			case 2:
				dx, dy = w-1-x, h-1-y
			case 3:
				dx, dy = h-1-y, x
			}
			si := src.PixOffset(x, y)
			di := dst.PixOffset(dx, dy)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}

// QuarterTurns converts degrees to quarter turns. Only multiples of 90 in
// [-360, 360] are accepted
func QuarterTurns(degrees float64) (int, error) {
	if degrees < -360 || degrees > 360 || math.Mod(degrees, 90) != 0 {
		return 0, errs.E("rotate", errs.KindInvalidInput, "",
			fmt.Errorf("angle %v must be a multiple of 90 between -360 and 360", degrees))
	}
	return int(degrees / 90), nil
}

// RotateFile rotates the image at path and writes it to out (path itself
// when out is empty)
func RotateFile(path string, degrees float64, out string) (Asset, error) {
	turns, err := QuarterTurns(degrees)
	if err != nil {
		return Asset{}, err
	}

	img, format, err := Load(path)
	if err != nil {
		return Asset{}, err
	}

	rotated := Rotate(img, turns)
	if out == "" {
		out = path
	}
	written, err := Save(out, rotated, format)
	if err != nil {
		return Asset{}, err
	}
	return assetOf(written, rotated), nil
}
