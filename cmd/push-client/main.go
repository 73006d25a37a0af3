//go:build js && wasm

// Command push-client runs in the page. It subscribes the signed-in user on
// load and exposes window.messmatePush for the UI.
package main

import (
	"context"
	"log/slog"
	"syscall/js"

	"github.com/kazz187/messmate-push/internal/jsbridge"
	"github.com/kazz187/messmate-push/internal/subscriptionmanager"
	"github.com/kazz187/messmate-push/pkg/clog"
)

func main() {
	handler := slog.NewTextHandler(jsbridge.Console{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)).With("component", "push-client"))

	page := jsbridge.NewPage()
	manager := subscriptionmanager.New(page, subscriptionmanager.NewHTTPBackend(page.Origin(), nil))

	// The manager is single-threaded; every call from JS goes through calls.
	calls := make(chan func(), 1)
	js.Global().Set("messmatePush", exports(calls, manager))

	ctx := context.Background()
	whenReady(func() {
		calls <- func() { subscriptionmanager.AutoInitialize(ctx, jsbridge.LocalStorage{}, manager) }
	})

	for fn := range calls {
		fn()
	}
}

func exports(calls chan<- func(), m *subscriptionmanager.Manager) map[string]any {
	ctx := context.Background()
	call := func(fn func(args []js.Value) any) js.Func {
		return js.FuncOf(func(_ js.Value, args []js.Value) any {
			var executor js.Func
			executor = js.FuncOf(func(_ js.Value, pargs []js.Value) any {
				resolve := pargs[0]
				go func() {
					calls <- func() {
						defer executor.Release()
						resolve.Invoke(fn(args))
					}
				}()
				return nil
			})
			return js.Global().Get("Promise").New(executor)
		})
	}

	return map[string]any{
		"init": call(func(args []js.Value) any {
			return m.Initialize(ctx, stringArg(args, 0))
		}),
		"requestPermission": call(func([]js.Value) any {
			return string(m.RequestPermission(ctx))
		}),
		"subscribe": call(func(args []js.Value) any {
			return m.Subscribe(ctx, stringArg(args, 0))
		}),
		"unsubscribe": call(func([]js.Value) any {
			return m.Unsubscribe(ctx)
		}),
		"showTestNotification": call(func([]js.Value) any {
			return m.ShowTestNotification(ctx)
		}),
		"status": call(func([]js.Value) any {
			st := m.Status()
			return map[string]any{
				"registered":   st.Registered,
				"subscribed":   st.Subscribed,
				"acknowledged": st.Acknowledged,
				"endpoint":     st.Endpoint,
			}
		}),
		"teardown": call(func([]js.Value) any {
			m.Teardown()
			return nil
		}),
	}
}

func stringArg(args []js.Value, i int) string {
	if i >= len(args) || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}

// whenReady runs fn once the DOM has loaded.
func whenReady(fn func()) {
	doc := js.Global().Get("document")
	if doc.Get("readyState").String() != "loading" {
		go fn()
		return
	}
	var listener js.Func
	listener = js.FuncOf(func(js.Value, []js.Value) any {
		listener.Release()
		go fn()
		return nil
	})
	doc.Call("addEventListener", "DOMContentLoaded", listener)
}
