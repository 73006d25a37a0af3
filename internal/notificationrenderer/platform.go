package notificationrenderer

import (
	"context"

	"github.com/kazz187/messmate-push/pkg/pushapi"
)

// WindowClient is a browser window controlled by, or in scope of, the
// worker.
type WindowClient struct {
	ID        string
	URL       string
	Focusable bool
}

type MatchOptions struct {
	Type                string
	IncludeUncontrolled bool
}

// Notification is a displayed notification handed to a click or close
// event.
type Notification interface {
	Title() string
	Data() pushapi.NotificationData
	Close()
}

// WorkerPlatform is the part of the service worker global scope the renderer
// uses.
type WorkerPlatform interface {
	SkipWaiting(ctx context.Context) error
	// Claim makes the worker the controller of every open client.
	Claim(ctx context.Context) error
	ShowNotification(ctx context.Context, title string, opts pushapi.NotificationOptions) error
	MatchClients(ctx context.Context, opts MatchOptions) ([]WindowClient, error)
	Focus(ctx context.Context, c WindowClient) error
	OpenWindow(ctx context.Context, url string) error
}
