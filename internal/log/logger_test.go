package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentLookup, Output: &buf})

	logger.Info("hello", "k", "v")
	logger.WithComponent(ComponentHTTP).Debug("debugging")

	out := buf.String()
	if !strings.Contains(out, "component=lookup") || !strings.Contains(out, "k=v") {
		t.Fatalf("missing fields in %q", out)
	}
	if !strings.Contains(out, "component=http") {
		t.Fatalf("WithComponent not applied: %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestMiddlewareAndFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Output: &buf})

	var got *Logger
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
			got.Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || !strings.Contains(buf.String(), "component=http") {
		t.Fatalf("logger not propagated: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Fatalf("request id missing: %q", buf.String())
	}

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var fallback bytes.Buffer
	SetDefault(New(Config{Output: &fallback}))
	FromContext(context.Background()).Info("outside")
	if !strings.Contains(fallback.String(), "component=unknown") {
		t.Fatalf("expected fallback logger, got %q", fallback.String())
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Component: ComponentLookup, Output: &buf}))

	sl.LogLookup(context.Background(), 12, 25, "Capricorn")
	sl.LogError(context.Background(), "lookup failed", errors.New("boom"), OpResolve, nil)
	sl.LogError(context.Background(), "render failed", errors.New("bad template"), OpRender, NewFields().WithRequestID("req_9"))

	out := buf.String()
	for _, want := range []string{"sign=Capricorn", "month=12", "day=25", "operation=lookup", "error=boom", "operation=resolve",
		"request_id=req_9", `error="bad template"`, "operation=render"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}
