package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/require"
)

func TestConsoleHandler(t *testing.T) {
	text.DisableColors()
	defer text.EnableColors()

	buf := bytes.NewBuffer(nil)
	logger := slog.New(NewConsoleHandler(buf, slog.LevelInfo))

	logger.Debug("hidden")
	logger.Info("fetching groups", "uid", "999")
	logger.Log(context.Background(), LevelSuccess, "found uid")
	logger.With("component", "cache").WithGroup("entry").Error("corrupt", "key", "abc")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], " INFO  fetching groups uid=999")
	require.Contains(t, lines[1], " SUCCESS  found uid")
	require.Contains(t, lines[2], " ERROR  corrupt component=cache entry.key=abc")
}

func TestLevelLabel(t *testing.T) {
	testCases := []struct {
		level  slog.Level
		expect string
	}{
		{slog.LevelDebug, "DEBUG"},
		{slog.LevelInfo, "INFO"},
		{LevelSuccess, "SUCCESS"},
		{slog.LevelWarn, "WARN"},
		{slog.LevelError, "ERROR"},
		{slog.LevelError + 4, "ERROR"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, levelLabel(test.level))
	}
}
