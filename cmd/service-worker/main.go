//go:build js && wasm

// Command service-worker is loaded by /service-worker.js through wasm_exec.js.
package main

import (
	"log/slog"

	"github.com/kazz187/messmate-push/internal/jsbridge"
	"github.com/kazz187/messmate-push/internal/notificationrenderer"
	"github.com/kazz187/messmate-push/pkg/clog"
)

func main() {
	handler := slog.NewTextHandler(jsbridge.Console{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(clog.NewAttributesHandler(handler)).With("component", "service-worker")
	slog.SetDefault(logger)

	worker := jsbridge.NewWorker()
	worker.Listen(notificationrenderer.New(worker, logger))

	select {}
}
