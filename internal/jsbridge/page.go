//go:build js && wasm

package jsbridge

import (
	"context"
	"errors"
	"fmt"
	"syscall/js"

	"github.com/kazz187/messmate-push/internal/subscriptionmanager"
	"github.com/kazz187/messmate-push/pkg/pushapi"
)

var _ subscriptionmanager.PushPlatform = (*Page)(nil)

// Page is the push platform of a browser window.
type Page struct {
	window js.Value
}

func NewPage() *Page {
	return &Page{window: js.Global()}
}

type registration struct {
	v js.Value
}

func (r *registration) Scope() string {
	return r.v.Get("scope").String()
}

func unwrap(reg subscriptionmanager.Registration) (js.Value, error) {
	r, ok := reg.(*registration)
	if !ok || r == nil {
		return js.Undefined(), errors.New("not a browser registration")
	}
	return r.v, nil
}

func (p *Page) serviceWorker() js.Value {
	return p.window.Get("navigator").Get("serviceWorker")
}

func (p *Page) Supported() bool {
	return isDefined(p.serviceWorker()) && isDefined(p.window.Get("PushManager"))
}

func (p *Page) Register(ctx context.Context, scriptURL string) (subscriptionmanager.Registration, error) {
	sw := p.serviceWorker()
	v, err := Await(ctx, sw.Call("register", scriptURL))
	if err != nil {
		return nil, fmt.Errorf("failed to register service worker: %w", err)
	}
	if _, err := Await(ctx, sw.Get("ready")); err != nil {
		return nil, fmt.Errorf("service worker never became ready: %w", err)
	}
	return &registration{v: v}, nil
}

func (p *Page) Permission() subscriptionmanager.PermissionState {
	n := p.window.Get("Notification")
	if !isDefined(n) {
		return subscriptionmanager.PermissionDenied
	}
	return subscriptionmanager.PermissionState(n.Get("permission").String())
}

func (p *Page) RequestPermission(ctx context.Context) (subscriptionmanager.PermissionState, error) {
	n := p.window.Get("Notification")
	if !isDefined(n) {
		return subscriptionmanager.PermissionDenied, nil
	}
	v, err := Await(ctx, n.Call("requestPermission"))
	if err != nil {
		return "", err
	}
	return subscriptionmanager.PermissionState(v.String()), nil
}

func (p *Page) GetSubscription(ctx context.Context, reg subscriptionmanager.Registration) (*pushapi.Subscription, error) {
	v, err := p.currentSubscription(ctx, reg)
	if err != nil || !isDefined(v) {
		return nil, err
	}
	return subscriptionFromJS(v)
}

func (p *Page) currentSubscription(ctx context.Context, reg subscriptionmanager.Registration) (js.Value, error) {
	r, err := unwrap(reg)
	if err != nil {
		return js.Undefined(), err
	}
	v, err := Await(ctx, r.Get("pushManager").Call("getSubscription"))
	if err != nil {
		return js.Undefined(), fmt.Errorf("failed to get subscription: %w", err)
	}
	return v, nil
}

func (p *Page) Subscribe(ctx context.Context, reg subscriptionmanager.Registration, opts subscriptionmanager.SubscribeOptions) (*pushapi.Subscription, error) {
	r, err := unwrap(reg)
	if err != nil {
		return nil, err
	}
	key := js.Global().Get("Uint8Array").New(len(opts.ApplicationServerKey))
	js.CopyBytesToJS(key, opts.ApplicationServerKey)

	v, err := Await(ctx, r.Get("pushManager").Call("subscribe", map[string]any{
		"userVisibleOnly":      opts.UserVisibleOnly,
		"applicationServerKey": key,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return subscriptionFromJS(v)
}

// Unsubscribe cancels the registration's current subscription when it is
// the one described by sub.
func (p *Page) Unsubscribe(ctx context.Context, reg subscriptionmanager.Registration, sub *pushapi.Subscription) (bool, error) {
	v, err := p.currentSubscription(ctx, reg)
	if err != nil {
		return false, err
	}
	if !isDefined(v) || v.Get("endpoint").String() != sub.Endpoint {
		return false, nil
	}
	ok, err := Await(ctx, v.Call("unsubscribe"))
	if err != nil {
		return false, fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return ok.Truthy(), nil
}

func (p *Page) ShowNotification(ctx context.Context, reg subscriptionmanager.Registration, title string, opts pushapi.NotificationOptions) error {
	r, err := unwrap(reg)
	if err != nil {
		return err
	}
	jsOpts, err := toJS(opts)
	if err != nil {
		return err
	}
	if _, err := Await(ctx, r.Call("showNotification", title, jsOpts)); err != nil {
		return fmt.Errorf("failed to show notification: %w", err)
	}
	return nil
}

func (p *Page) Alert(message string) {
	p.window.Call("alert", message)
}

// Origin is the page origin, used as the backend base URL.
func (p *Page) Origin() string {
	return p.window.Get("location").Get("origin").String()
}

func subscriptionFromJS(v js.Value) (*pushapi.Subscription, error) {
	var sub pushapi.Subscription
	if err := fromJS(v.Call("toJSON"), &sub); err != nil {
		return nil, fmt.Errorf("failed to read subscription: %w", err)
	}
	return &sub, nil
}
