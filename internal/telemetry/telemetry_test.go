package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLogConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "TEXT")

	cfg := LogConfigFromEnv()
	if cfg.Level != slog.LevelWarn || cfg.JSON {
		t.Errorf("unexpected config: %+v", cfg)
	}

	var buf bytes.Buffer
	cfg.Output = &buf
	logger := NewLogger(cfg)
	logger.Info("dropped")
	logger.Warn("kept")

	if out := buf.String(); strings.Contains(out, "dropped") || !strings.Contains(out, "msg=kept") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), EpisodeLogger(logger, "ep-1", "rejoin-2d", 7))
	FromContext(ctx).Info("hello")

	out := buf.String()
	for _, field := range []string{"episode.id=ep-1", "episode.task=rejoin-2d", "episode.seed=7"} {
		if !strings.Contains(out, field) {
			t.Errorf("expected %s in %q", field, out)
		}
	}

	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger for empty context")
	}
}

func TestMetrics_ObserveEpisode(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveEpisode("rejoin-2d", "failure", "crash", 120, -1.5)
	m.ObserveEpisode("rejoin-2d", "success", "", 80, 2)

	if v := testutil.ToFloat64(m.EpisodesTotal.WithLabelValues("rejoin-2d", "failure")); v != 1 {
		t.Errorf("expected 1 failed episode, got %v", v)
	}
	if v := testutil.ToFloat64(m.FailuresTotal.WithLabelValues("rejoin-2d", "crash")); v != 1 {
		t.Errorf("expected 1 crash, got %v", v)
	}
	if v := testutil.ToFloat64(m.StepsTotal.WithLabelValues("rejoin-2d")); v != 200 {
		t.Errorf("expected 200 steps, got %v", v)
	}
	if n := testutil.CollectAndCount(m.FailuresTotal); n != 1 {
		t.Errorf("expected 1 failure series, got %d", n)
	}
}
