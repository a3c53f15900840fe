// Package fetcher downloads card images to deterministic file names
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/arcanaland/proxymancer/internal/card"
	"github.com/arcanaland/proxymancer/internal/deck"
	"github.com/arcanaland/proxymancer/internal/errs"
)

// ImageSource retrieves raw image bytes
type ImageSource interface {
	Image(ctx context.Context, imageURL string) ([]byte, string, error)
}

// LineResolver resolves a deck line to a card record
type LineResolver interface {
	Resolve(ctx context.Context, line deck.Line) (card.Card, error)
}

// Options controls where and how images are written
type Options struct {
	OutputDir string
	// Jobs is the number of concurrent downloads in Batch; values below 1
	// mean sequential
	Jobs   int
	Force  bool
	DryRun bool
}

// Fetcher writes card images under Options.OutputDir
type Fetcher struct {
	src  ImageSource
	opts Options
	log  *slog.Logger
}

// New returns a Fetcher
func New(src ImageSource, opts Options, log *slog.Logger) *Fetcher {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	return &Fetcher{src: src, opts: opts, log: log}
}

// Target is one file to be produced: a single face of a single copy
type Target struct {
	Card card.Card
	Face card.Face
	Copy int
	Back bool
	Path string
}

// BaseName is the file name prefix shared by every copy of a printing:
// sanitized card name plus upper-case set code
func BaseName(c card.Card) string {
	name := card.SanitizeName(c.Name)
	if c.Set != "" {
		name += "." + strings.ToUpper(c.Set)
	}
	return name
}

func extension(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err == nil {
		switch ext := strings.ToLower(path.Ext(u.Path)); ext {
		case ".png", ".jpg", ".jpeg", ".gif":
			return ext
		}
	}
	return ".png"
}

// Plan lists the files for quantity copies of c, numbering copies from
// firstCopy. Names are <name>[.SET].<copy>[.back].<ext>
func (f *Fetcher) Plan(c card.Card, quantity, firstCopy int) []Target {
	base := BaseName(c)
	var targets []Target
	for i := 0; i < quantity; i++ {
		n := firstCopy + i
		for fi, face := range c.Faces() {
			suffix := ""
			if fi == 1 {
				suffix = ".back"
			}
			filename := fmt.Sprintf("%s.%d%s%s", base, n, suffix, extension(face.ImageURL))
			targets = append(targets, Target{
				Card: c,
				Face: face,
				Copy: n,
				Back: fi == 1,
				Path: filepath.Join(f.opts.OutputDir, filename),
			})
		}
	}
	return targets
}

// outcome is what happened to one target
type outcome int

const (
	written outcome = iota
	skipped
	planned
)

// download retrieves one target and writes it. Each call is one retrieval
func (f *Fetcher) download(ctx context.Context, t Target) (outcome, error) {
	log := f.log.With("card", t.Card.Name, "copy", t.Copy)

	if !f.opts.Force {
		if _, err := os.Stat(t.Path); err == nil {
			log.Info("Already downloaded", "path", t.Path)
			return skipped, nil
		}
	}
	if f.opts.DryRun {
		log.Info("DRYRUN: Downloading", "path", t.Path, "url", t.Face.ImageURL)
		return planned, nil
	}

	if t.Face.ImageURL == "" {
		return 0, errs.E("fetch", errs.KindDownload, t.Path, fmt.Errorf("%q has no image", t.Face.Name))
	}

	body, _, err := f.src.Image(ctx, t.Face.ImageURL)
	if err != nil {
		return 0, errs.E("fetch", errs.KindDownload, t.Face.ImageURL, err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(body)); err != nil {
		return 0, errs.E("fetch", errs.KindDownload, t.Face.ImageURL, fmt.Errorf("not a decodable image: %w", err))
	}

	if err := os.MkdirAll(filepath.Dir(t.Path), 0755); err != nil {
		return 0, fmt.Errorf("error creating output directory: %w", err)
	}
	if err := os.WriteFile(t.Path, body, 0644); err != nil {
		return 0, fmt.Errorf("error writing %s: %w", t.Path, err)
	}
	log.Info("Saving", "path", t.Path)
	return written, nil
}

// Fetch downloads quantity copies of every face of c, numbering copies
// from firstCopy, and returns the paths that now hold an image. A failed
// face does not stop the others; all failures are joined into the error
func (f *Fetcher) Fetch(ctx context.Context, c card.Card, quantity, firstCopy int) ([]string, error) {
	var paths []string
	var failures []error
	for _, t := range f.Plan(c, quantity, firstCopy) {
		out, err := f.download(ctx, t)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if out != planned {
			paths = append(paths, t.Path)
		}
	}
	return paths, errors.Join(failures...)
}

// Failure records a deck line that did not fully download
type Failure struct {
	Line deck.Line
	Err  error
}

// Report summarises a Batch run
type Report struct {
	Lines   int
	Written []string
	Skipped []string
	Planned []string
	// Failures lists resolution failures first, then failed downloads
	Failures []Failure
}

// Batch resolves each line in order, then downloads every planned file with
// up to Options.Jobs workers. Failures are logged and collected; the batch
// always runs to completion unless ctx is cancelled
func (f *Fetcher) Batch(ctx context.Context, lines []deck.Line, res LineResolver) (Report, error) {
	report := Report{Lines: len(lines)}

	type job struct {
		line   deck.Line
		target Target
	}
	var jobs []job
	nextCopy := make(map[string]int)

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		c, err := res.Resolve(ctx, line)
		if err != nil {
			f.log.Error("Card not found", "card", line.Name, "line", line.Number, "error", err)
			report.Failures = append(report.Failures, Failure{Line: line, Err: err})
			continue
		}

		// Repeated lines for the same printing continue its numbering
		base := BaseName(c)
		first := nextCopy[base] + 1
		nextCopy[base] += line.Quantity

		for _, t := range f.Plan(c, line.Quantity, first) {
			jobs = append(jobs, job{line: line, target: t})
		}
	}

	outcomes := make([]outcome, len(jobs))
	failures := make([]error, len(jobs))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Jobs)
	for i, j := range jobs {
		g.Go(func() error {
			out, err := f.download(gctx, j.target)
			mu.Lock()
			defer mu.Unlock()
			outcomes[i], failures[i] = out, err
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return report, err
	}

	for i, j := range jobs {
		if err := failures[i]; err != nil {
			f.log.Error("Download failed", "card", j.target.Card.Name, "path", j.target.Path, "error", err)
			report.Failures = append(report.Failures, Failure{Line: j.line, Err: err})
			continue
		}
		switch outcomes[i] {
		case written:
			report.Written = append(report.Written, j.target.Path)
		case skipped:
			report.Skipped = append(report.Skipped, j.target.Path)
		case planned:
			report.Planned = append(report.Planned, j.target.Path)
		}
	}

	f.log.Info(fmt.Sprintf("Downloaded %d images.", len(report.Written)),
		"skipped", len(report.Skipped), "failed", len(report.Failures))
	return report, nil
}
