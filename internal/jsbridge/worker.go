//go:build js && wasm

package jsbridge

import (
	"context"
	"fmt"
	"log/slog"
	"syscall/js"

	"github.com/kazz187/messmate-push/internal/notificationrenderer"
	"github.com/kazz187/messmate-push/pkg/pushapi"
)

var _ notificationrenderer.WorkerPlatform = (*Worker)(nil)

// Worker is the service worker global scope.
type Worker struct {
	self js.Value
}

func NewWorker() *Worker {
	return &Worker{self: js.Global()}
}

func (w *Worker) clients() js.Value {
	return w.self.Get("clients")
}

func (w *Worker) SkipWaiting(ctx context.Context) error {
	_, err := Await(ctx, w.self.Call("skipWaiting"))
	return err
}

func (w *Worker) Claim(ctx context.Context) error {
	_, err := Await(ctx, w.clients().Call("claim"))
	return err
}

func (w *Worker) ShowNotification(ctx context.Context, title string, opts pushapi.NotificationOptions) error {
	jsOpts, err := toJS(opts)
	if err != nil {
		return err
	}
	if _, err := Await(ctx, w.self.Get("registration").Call("showNotification", title, jsOpts)); err != nil {
		return fmt.Errorf("failed to show notification: %w", err)
	}
	return nil
}

func (w *Worker) MatchClients(ctx context.Context, opts notificationrenderer.MatchOptions) ([]notificationrenderer.WindowClient, error) {
	list, err := Await(ctx, w.clients().Call("matchAll", map[string]any{
		"type":                opts.Type,
		"includeUncontrolled": opts.IncludeUncontrolled,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to match clients: %w", err)
	}
	out := make([]notificationrenderer.WindowClient, 0, list.Length())
	for i := 0; i < list.Length(); i++ {
		c := list.Index(i)
		out = append(out, notificationrenderer.WindowClient{
			ID:        c.Get("id").String(),
			URL:       c.Get("url").String(),
			Focusable: c.Get("focus").Type() == js.TypeFunction,
		})
	}
	return out, nil
}

func (w *Worker) Focus(ctx context.Context, c notificationrenderer.WindowClient) error {
	v, err := Await(ctx, w.clients().Call("get", c.ID))
	if err != nil {
		return err
	}
	if !isDefined(v) {
		return fmt.Errorf("client %s is gone", c.ID)
	}
	_, err = Await(ctx, v.Call("focus"))
	return err
}

func (w *Worker) OpenWindow(ctx context.Context, url string) error {
	if w.clients().Get("openWindow").Type() != js.TypeFunction {
		return nil
	}
	_, err := Await(ctx, w.clients().Call("openWindow", url))
	return err
}

type notification struct {
	v js.Value
}

func (n notification) Title() string {
	return n.v.Get("title").String()
}

func (n notification) Data() pushapi.NotificationData {
	d := n.v.Get("data")
	if !isDefined(d) {
		return nil
	}
	var data pushapi.NotificationData
	if err := fromJS(d, &data); err != nil {
		slog.Warn("unreadable notification data", "error", err)
		return nil
	}
	return data
}

func (n notification) Close() {
	n.v.Call("close")
}

// Listen wires r to the worker's install, activate, push, notificationclick
// and notificationclose events.
func (w *Worker) Listen(r *notificationrenderer.Renderer) {
	ctx := context.Background()
	on := func(event string, fn func(e js.Value) func() error) {
		w.self.Call("addEventListener", event, js.FuncOf(func(_ js.Value, args []js.Value) any {
			e := args[0]
			e.Call("waitUntil", Promise(fn(e)))
			return nil
		}))
	}

	on("install", func(js.Value) func() error {
		return func() error { return r.Install(ctx) }
	})
	on("activate", func(js.Value) func() error {
		return func() error { return r.Activate(ctx) }
	})
	on("push", func(e js.Value) func() error {
		// Read the payload while the event is still being dispatched.
		data, present := pushData(e.Get("data"))
		return func() error { return r.HandlePush(ctx, data, present) }
	})
	on("notificationclick", func(e js.Value) func() error {
		n := notification{v: e.Get("notification")}
		action := e.Get("action").String()
		return func() error { return r.HandleNotificationClick(ctx, n, action) }
	})
	on("notificationclose", func(e js.Value) func() error {
		n := notification{v: e.Get("notification")}
		return func() error { return r.HandleNotificationClose(ctx, n) }
	})
}

func pushData(d js.Value) ([]byte, bool) {
	if !isDefined(d) {
		return nil, false
	}
	buf := js.Global().Get("Uint8Array").New(d.Call("arrayBuffer"))
	b := make([]byte, buf.Length())
	js.CopyBytesToGo(b, buf)
	return b, true
}
