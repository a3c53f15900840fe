// Package ansi renders images as half-block terminal art
package ansi

import (
	"crypto/md5"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"

	"github.com/arcanaland/proxymancer/internal/errs"
	"github.com/arcanaland/proxymancer/internal/imaging"
)

// Render converts img to width x height character cells. Each cell is an
// upper half block: the top two source pixels set the foreground and the
// bottom two the background
func Render(img image.Image, width, height int) string {
	resized := resize.Resize(uint(width*2), uint(height*2), img, resize.Lanczos3)

	var buf strings.Builder
	for y := 0; y < height*2; y += 2 {
		for x := 0; x < width*2; x += 2 {
			c1, _ := colorful.MakeColor(colorAt(resized, x, y))
			c2, _ := colorful.MakeColor(colorAt(resized, x+1, y))
			c3, _ := colorful.MakeColor(colorAt(resized, x, y+1))
			c4, _ := colorful.MakeColor(colorAt(resized, x+1, y+1))

			fg := averageColor(c1, c2)
			bg := averageColor(c3, c4)
			buf.WriteString(cell('▀', fg, bg))
		}
		buf.WriteString("\n")
	}
	return buf.String()
}

// Fit returns the largest cell grid within maxWidth x maxHeight that keeps
// the aspect ratio of an image of size b. A cell covers two pixel rows
func Fit(b image.Rectangle, maxWidth, maxHeight int) (int, int) {
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return maxWidth, maxHeight
	}
	width := maxWidth
	height := width * h / w / 2
	if height > maxHeight {
		height = maxHeight
		width = height * 2 * w / h
	}
	return max(width, 1), max(height, 1)
}

// RenderFile renders the image at path, reusing a cached rendering under
// cacheDir when one exists for the same file contents and size. A file
// rewritten in place gets a new modification time or length, and so a new
// cache entry
func RenderFile(path string, width, height int, cacheDir string) (string, error) {
	cachePath := ""
	if cacheDir != "" {
		info, err := os.Stat(path)
		if err != nil {
			return "", errs.E("render", errs.KindUnreadableImage, path, err)
		}
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create ANSI cache directory: %w", err)
		}
		key := fmt.Sprintf("%s@%dx%d@%d@%d", path, width, height, info.ModTime().UnixNano(), info.Size())
		cachePath = filepath.Join(cacheDir, fmt.Sprintf("%x.ansi", md5.Sum([]byte(key))))
		if data, err := os.ReadFile(cachePath); err == nil {
			return string(data), nil
		}
	}

	img, _, err := imaging.Load(path)
	if err != nil {
		return "", err
	}
	art := Render(img, width, height)

	if cachePath != "" {
		if err := os.WriteFile(cachePath, []byte(art), 0644); err != nil {
			return "", fmt.Errorf("failed to write ANSI art to file: %w", err)
		}
	}
	return art, nil
}

// Strip removes ANSI escape sequences from s
func Strip(s string) string {
	var result strings.Builder
	inEscape := false
	for _, c := range s {
		if inEscape {
			if c == 'm' {
				inEscape = false
			}
		} else if c == '\033' {
			inEscape = true
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}

func colorAt(img image.Image, x, y int) color.Color {
	b := img.Bounds()
	if image.Pt(x, y).In(b) {
		return img.At(x, y)
	}
	return color.Black
}

func averageColor(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	n := float64(len(colors))
	return colorful.Color{R: r / n, G: g / n, B: b / n}
}

func cell(char rune, fg, bg colorful.Color) string {
	r1, g1, b1 := fg.Clamped().RGB255()
	r2, g2, b2 := bg.Clamped().RGB255()
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m", r1, g1, b1, r2, g2, b2, char)
}
