//go:build js && wasm

package jsbridge

import (
	"strings"
	"syscall/js"
)

// Console is an io.Writer onto console.log, for slog handlers.
type Console struct{}

func (Console) Write(p []byte) (int, error) {
	js.Global().Get("console").Call("log", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
