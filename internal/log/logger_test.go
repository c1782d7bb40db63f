package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentApp, Output: &buf})

	logger.WithComponent(ComponentStorage).Info("ready", FieldBackend, "sqlite")

	out := buf.String()
	if !strings.Contains(out, "component=storage") || !strings.Contains(out, "backend=sqlite") {
		t.Fatalf("unexpected output %q", out)
	}
	if strings.Count(out, "component=") != 1 {
		t.Fatalf("component should be logged once, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError,
		"info": slog.LevelInfo, "": slog.LevelInfo, "chatty": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got %q", got.Component())
	}

	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Output: &buf})
	req := httptest.NewRequest("GET", "/", nil)
	ctx := NewContext(req.Context(), logger)
	if got := FromContext(ctx); got != logger {
		t.Fatalf("expected stored logger")
	}

	FromContext(WithUserContext(ctx, "u-1")).Info("hello")
	if !strings.Contains(buf.String(), "user_id=u-1") {
		t.Fatalf("expected user id in %q", buf.String())
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})
	handler := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-42" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Fatalf("expected request id in %q", buf.String())
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))
	req := httptest.NewRequest("POST", "/transactions?x=1", nil)

	sl.LogHTTPEnd(context.Background(), req, 500, 12, "10.0.0.1")

	out := buf.String()
	for _, want := range []string{"level=ERROR", "status_code=500", "path=/transactions", "client_ip=10.0.0.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}
