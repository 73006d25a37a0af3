package subscriptionmanager

import (
	"context"

	"github.com/kazz187/messmate-push/pkg/pushapi"
)

// PermissionState is the browser's notification permission. It is owned by
// the browser and only read here.
type PermissionState string

const (
	PermissionDefault PermissionState = "default"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// ServiceWorkerPath is where the worker script is served from.
const ServiceWorkerPath = "/service-worker.js"

// Registration is an active service worker registration. Implementations
// carry whatever handle the platform needs.
type Registration interface {
	Scope() string
}

type SubscribeOptions struct {
	UserVisibleOnly      bool
	ApplicationServerKey []byte
}

// PushPlatform is the set of browser capabilities the manager depends on.
// Every method that takes a context may suspend until the browser answers.
type PushPlatform interface {
	// Supported reports whether service workers and push messaging exist.
	Supported() bool
	// Register registers the worker at scriptURL and returns once it is
	// active.
	Register(ctx context.Context, scriptURL string) (Registration, error)
	Permission() PermissionState
	RequestPermission(ctx context.Context) (PermissionState, error)
	// GetSubscription returns nil without error when reg has no subscription.
	GetSubscription(ctx context.Context, reg Registration) (*pushapi.Subscription, error)
	Subscribe(ctx context.Context, reg Registration, opts SubscribeOptions) (*pushapi.Subscription, error)
	Unsubscribe(ctx context.Context, reg Registration, sub *pushapi.Subscription) (bool, error)
	ShowNotification(ctx context.Context, reg Registration, title string, opts pushapi.NotificationOptions) error
	// Alert shows a blocking message to the user.
	Alert(message string)
}

// Backend is the server that stores subscriptions.
type Backend interface {
	PublicKey(ctx context.Context) (string, error)
	SaveSubscription(ctx context.Context, email string, sub *pushapi.Subscription) error
}

// UserStore is a string key-value store, localStorage in the browser.
type UserStore interface {
	Get(key string) (string, bool)
}
