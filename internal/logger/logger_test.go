package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"critical", LevelCritical},
	}
	for _, c := range cases {
		got, err := ParseLevel(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: slog.LevelInfo, NoColor: true})

	log.Debug("hidden")
	log.Info("Saving", "path", "out/Black Lotus.LEA.1.png", "copy", 1)
	log.With("card", "Island").Warn("ambiguous")

	assert.Equal(t,
		"INFO - Saving path=\"out/Black Lotus.LEA.1.png\" copy=1\n"+
			"WARNING - ambiguous card=Island\n",
		buf.String())
}

func TestHandlerCriticalAndGroups(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: slog.LevelDebug, NoColor: true})

	log.WithGroup("http").Log(context.Background(), LevelCritical, "search failed", "status", 500)

	assert.Equal(t, "CRITICAL - search failed http.status=500\n", buf.String())
}
