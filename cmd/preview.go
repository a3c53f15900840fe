package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/proxymancer/internal/ansi"
	"github.com/arcanaland/proxymancer/internal/card"
	"github.com/arcanaland/proxymancer/internal/config"
	"github.com/arcanaland/proxymancer/internal/imaging"
)

var previewCmd = &cobra.Command{
	Use:   "preview IMAGE",
	Short: "Show an image in the terminal with ANSI art",
	Long: `Preview renders an image as ANSI art next to its file details. Downloaded
card images show the card name, set and copy number decoded from the file
name. Renderings are cached under $XDG_CACHE_HOME/proxymancer/ansi_cache.`,
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: setupLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		width, _ := cmd.Flags().GetInt("width")

		img, format, err := imaging.Load(path)
		if err != nil {
			return err
		}

		cacheDir := ""
		if !noCache {
			cacheDir = filepath.Join(config.GetCacheDir(), "ansi_cache")
		}
		w, h := ansi.Fit(img.Bounds(), width, 48)
		art, err := ansi.RenderFile(path, w, h, cacheDir)
		if err != nil {
			return fmt.Errorf("error rendering preview: %v", err)
		}

		b := img.Bounds()
		info := []string{
			colorize.CyanString("File:   ") + colorize.HiWhiteString("%s", filepath.Base(path)),
			colorize.CyanString("Format: ") + colorize.HiWhiteString("%s", format),
			colorize.CyanString("Size:   ") + colorize.HiWhiteString("%dx%d", b.Dx(), b.Dy()),
		}
		if name, set, copyNo, back, ok := parseImageName(filepath.Base(path)); ok {
			info = append(info, "", colorize.CyanString("Card:   ")+colorize.HiWhiteString("%s", name))
			if set != "" {
				info = append(info, colorize.CyanString("Set:    ")+colorize.HiWhiteString("%s", set))
			}
			side := "front"
			if back {
				side = "back"
			}
			info = append(info, colorize.CyanString("Copy:   ")+colorize.HiWhiteString("%s · %s", copyNo, side))
		}

		displayPreview(cmd.OutOrStdout(), art, info)
		return nil
	},
}

func init() {
	previewCmd.Flags().IntP("width", "w", 40, "Width of the rendering in terminal columns")
}

// parseImageName decodes the "<name>[.SET].<copy>[.back].<ext>" file names
// written by download
func parseImageName(filename string) (name, set, copyNo string, back, ok bool) {
	parts := strings.Split(strings.TrimSuffix(filename, filepath.Ext(filename)), ".")
	if len(parts) > 1 && parts[len(parts)-1] == "back" {
		back = true
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 2 || !isDigits(parts[len(parts)-1]) {
		return "", "", "", false, false
	}
	copyNo = parts[len(parts)-1]
	parts = parts[:len(parts)-1]
	if len(parts) > 1 && parts[len(parts)-1] == strings.ToUpper(parts[len(parts)-1]) {
		set = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}
	return card.UnsanitizeName(strings.Join(parts, ".")), set, copyNo, back, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// displayPreview prints the ANSI art with the info lines to its right
func displayPreview(out io.Writer, art string, info []string) {
	artLines := strings.Split(strings.TrimSuffix(art, "\n"), "\n")
	artWidth := 0
	for _, l := range artLines {
		artWidth = max(artWidth, len([]rune(ansi.Strip(l))))
	}

	width := 80
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	spacing := 4
	if artWidth+spacing+20 > width {
		// Too narrow to sit side by side
		fmt.Fprintln(out, art)
		for _, l := range info {
			fmt.Fprintln(out, l)
		}
		return
	}

	fmt.Fprintln(out)
	for i := 0; i < max(len(artLines), len(info)); i++ {
		fmt.Fprint(out, "  ")
		if i < len(artLines) {
			fmt.Fprint(out, artLines[i])
			fmt.Fprint(out, strings.Repeat(" ", artWidth+spacing-len([]rune(ansi.Strip(artLines[i])))))
		} else {
			fmt.Fprint(out, strings.Repeat(" ", artWidth+spacing))
		}
		if i < len(info) {
			fmt.Fprint(out, info[i])
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out)
}
