package ansi

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/proxymancer/internal/errs"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRender(t *testing.T) {
	art := Render(solid(8, 8, color.NRGBA{R: 255, A: 255}), 4, 3)

	lines := strings.Split(strings.TrimSuffix(art, "\n"), "\n")
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.Equal(t, strings.Repeat("▀", 4), Strip(l))
	}
	assert.Contains(t, art, "\x1b[38;2;")
	assert.Contains(t, art, ";0;0m")
}

func TestFit(t *testing.T) {
	w, h := Fit(image.Rect(0, 0, 745, 1040), 40, 100)
	assert.Equal(t, 40, w)
	assert.Equal(t, 27, h)

	w, h = Fit(image.Rect(0, 0, 745, 1040), 40, 10)
	assert.Equal(t, 10, h)
	assert.Equal(t, 14, w)
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solid(8, 8, c)))
	require.NoError(t, f.Close())
}

func TestRenderFileCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.png")
	writePNG(t, path, color.White)

	cacheDir := filepath.Join(dir, "ansi_cache")
	first, err := RenderFile(path, 2, 2, cacheDir)
	require.NoError(t, err)

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	second, err := RenderFile(path, 2, 2, cacheDir)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	entries, err = os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, os.Remove(path))
	_, err = RenderFile(path, 2, 2, cacheDir)
	assert.True(t, errs.IsKind(err, errs.KindUnreadableImage))
}

func TestRenderFileRewrittenInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.png")
	cacheDir := filepath.Join(dir, "ansi_cache")

	writePNG(t, path, color.NRGBA{R: 255, A: 255})
	red, err := RenderFile(path, 4, 4, cacheDir)
	require.NoError(t, err)

	writePNG(t, path, color.NRGBA{B: 255, A: 255})
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	blue, err := RenderFile(path, 4, 4, cacheDir)
	require.NoError(t, err)
	assert.NotEqual(t, red, blue)
	uncached, err := RenderFile(path, 4, 4, "")
	require.NoError(t, err)
	assert.Equal(t, uncached, blue)
}

func TestStrip(t *testing.T) {
	assert.Equal(t, "ab", Strip("\x1b[38;2;1;2;3ma\x1b[0mb"))
}
