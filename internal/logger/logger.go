// Package logger provides the colour-levelled slog handler used for all
// command output on stderr
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LevelCritical sits above slog.LevelError for failures that end the command
const LevelCritical = slog.Level(12)

// Options configures a Handler
type Options struct {
	Level     slog.Leveler
	Timestamp bool
	NoColor   bool
}

// Handler writes records as "LEVEL - message key=value"
type Handler struct {
	mu     *sync.Mutex
	w      io.Writer
	opts   Options
	attrs  []slog.Attr
	groups []string
	colors map[slog.Level]*color.Color
}

// New returns a logger writing to w
func New(w io.Writer, opts Options) *slog.Logger {
	return slog.New(NewHandler(w, opts))
}

// NewHandler creates a Handler writing to w
func NewHandler(w io.Writer, opts Options) *Handler {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}

	colors := map[slog.Level]*color.Color{
		slog.LevelDebug: color.New(color.FgBlue),
		slog.LevelInfo:  color.New(color.FgGreen),
		slog.LevelWarn:  color.New(color.FgYellow),
		slog.LevelError: color.New(color.FgRed),
		LevelCritical:   color.New(color.FgRed, color.Bold),
	}
	for _, c := range colors {
		if opts.NoColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}

	return &Handler{mu: &sync.Mutex{}, w: w, opts: opts, colors: colors}
}

// ParseLevel maps the verbosity names accepted on the command line
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "critical":
		return LevelCritical, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown verbosity %q (want critical, error, warning, info or debug)", name)
}

func levelName(l slog.Level) (string, slog.Level) {
	switch {
	case l >= LevelCritical:
		return "CRITICAL", LevelCritical
	case l >= slog.LevelError:
		return "ERROR", slog.LevelError
	case l >= slog.LevelWarn:
		return "WARNING", slog.LevelWarn
	case l >= slog.LevelInfo:
		return "INFO", slog.LevelInfo
	default:
		return "DEBUG", slog.LevelDebug
	}
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.opts.Level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	if h.opts.Timestamp && !r.Time.IsZero() {
		b.WriteString(r.Time.Format(time.DateTime))
		b.WriteString(" - ")
	}

	name, bucket := levelName(r.Level)
	b.WriteString(h.colors[bucket].Sprint(name))
	b.WriteString(" - ")
	b.WriteString(r.Message)

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, prefix+a.Key+".", ga)
		}
		return
	}

	v := a.Value.String()
	if strings.ContainsAny(v, " \t\"=") {
		v = fmt.Sprintf("%q", v)
	}
	fmt.Fprintf(b, " %s%s=%s", prefix, a.Key, v)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	h2.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		a.Key = prefix + a.Key
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string{}, h.groups...), name)
	return &h2
}

// Discard returns a logger that drops everything; handy for tests
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
