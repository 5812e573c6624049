package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFormatValueQuotesWhenNeeded(t *testing.T) {
	cases := []struct {
		value slog.Value
		want  string
	}{
		{slog.StringValue("plain"), "plain"},
		{slog.StringValue("has space"), `"has space"`},
		{slog.StringValue(""), `""`},
		{slog.Float64Value(2.5), "2.5"},
		{slog.BoolValue(true), "true"},
		{slog.DurationValue(1500 * time.Millisecond), "1.5s"},
		{slog.AnyValue(errors.New("exit status 1")), `"exit status 1"`},
	}
	for _, tc := range cases {
		if got := formatValue(tc.value); got != tc.want {
			t.Errorf("formatValue(%v) = %s, want %s", tc.value, got, tc.want)
		}
	}
}

func TestPrettyHandlerGroupsAndColor(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false, true))

	logger.WithGroup("probe").Warn("odd duration", slog.Float64("seconds", 0.25))

	line := buf.String()
	if !strings.Contains(line, "probe.seconds=0.25") {
		t.Fatalf("expected grouped key, got %q", line)
	}
	if !strings.Contains(line, ansiYellow+"WARN"+ansiReset) {
		t.Fatalf("expected colored level, got %q", line)
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newPrettyHandler(&buf, lvl, false, false))

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}
