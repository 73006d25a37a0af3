package clog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestAttributes(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddAttributes(ctx, map[string]any{
		"user": map[string]any{"email": "a@example.com"},
	})
	AddAttributes(ctx, map[string]any{
		"user": map[string]any{"subscribed": true},
	})
	AddError(ctx, errors.New("boom"))

	attrs := GetAttributes(ctx)
	assert.Equal(t, map[string]any{"email": "a@example.com", "subscribed": true}, attrs["user"])
	assert.EqualError(t, GetError(ctx), "boom")
	assert.Empty(t, GetStack(ctx))
}

func TestAttributes_NoContext(t *testing.T) {
	ctx := context.Background()
	AddAttribute(ctx, "k", "v")
	assert.Nil(t, GetAttributes(ctx))
	assert.Equal(t, "", GetAttribute[string](ctx, "k"))
}

func TestSlogChiMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewAttributesHandler(slog.NewJSONHandler(&buf, nil)))
	prev := slog.Default()
	slog.SetDefault(logger)
	t.Cleanup(func() { slog.SetDefault(prev) })

	r := chi.NewRouter()
	r.Use(middleware.RequestID, SlogChiMiddleware(WithChiFilter(SkipPaths("/health"))))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		AddAttribute(r.Context(), "email", "a@example.com")
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"path":"/missing"`)
	assert.Contains(t, out, `"email":"a@example.com"`)
	assert.Contains(t, out, `"status":404`)
}

func TestHTTPTextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHTTPTextHandler(&buf, WithColor(false), WithLevel(slog.LevelDebug)))
	logger.Info("Not Found", "method", "GET", "path", "/x", "status", 404, ErrorAttributeKey, "nope", "extra", 1)

	out := buf.String()
	assert.Contains(t, out, "INFO GET /x 404 Not Found nope")
	assert.Contains(t, out, "    extra=1\n")
}

func TestAttributesHandler_RecordWins(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewAttributesHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := ContextWithSlog(context.Background())
	AddAttributes(ctx, map[string]any{
		"path": "/from-context",
		"user": map[string]any{"email": "a@example.com"},
	})
	logger.InfoContext(ctx, "hello", "path", "/from-record")

	out := buf.String()
	assert.Contains(t, out, `"path":"/from-record"`)
	assert.NotContains(t, out, "/from-context")
	assert.Contains(t, out, `"user":{"email":"a@example.com"}`)
}

func TestHTTPTextHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHTTPTextHandler(&buf, WithColor(false))).WithGroup("push").With("endpoint", "https://push.example/1")
	logger.Debug("hidden")
	logger.Info("sent", slog.Group("report", "sent", 1))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "    push.endpoint=https://push.example/1\n")
	assert.Contains(t, out, "    push.report.sent=1\n")
}
