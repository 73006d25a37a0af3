// Package notificationrenderer is the service worker side of push: it turns
// push payloads into notifications and routes clicks to a window.
package notificationrenderer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/kazz187/messmate-push/pkg/panicerr"
	"github.com/kazz187/messmate-push/pkg/pushapi"
)

const (
	DefaultTitle      = "MessMate"
	ParseFailureTitle = "MessMate Notification"
	DefaultBody       = "You have a new notification"
	DefaultIcon       = "/icon-192x192.png"
	DefaultBadge      = "/badge-72x72.png"
	NotificationTag   = "messmate-notification"
	DefaultURL        = "/dashboard"
	ActionOpen        = "open"
	ActionClose       = "close"
	clientTypeWindow  = "window"
)

var defaultVibrate = []int{200, 100, 200}

var defaultActions = []pushapi.NotificationAction{
	{Action: ActionOpen, Title: "Open App", Icon: "/icon-check.png"},
	{Action: ActionClose, Title: "Dismiss", Icon: "/icon-close.png"},
}

type State int

const (
	StateNone State = iota
	StateInstalling
	StateActivating
	StateActive
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	default:
		return "none"
	}
}

// Renderer handles service worker events. Each handler returns once the
// platform work it started has finished, which the caller feeds to
// event.waitUntil.
type Renderer struct {
	platform WorkerPlatform
	logger   *slog.Logger
	state    State
}

func New(platform WorkerPlatform, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{platform: platform, logger: logger}
}

func (r *Renderer) State() State {
	return r.state
}

// Install activates the new worker without waiting for old clients to close.
func (r *Renderer) Install(ctx context.Context) error {
	return panicerr.CatchContext(ctx, func(ctx context.Context) error {
		r.state = StateInstalling
		r.logger.InfoContext(ctx, "service worker installing")
		return r.platform.SkipWaiting(ctx)
	})
}

// Activate takes control of every open client.
func (r *Renderer) Activate(ctx context.Context) error {
	return panicerr.CatchContext(ctx, func(ctx context.Context) error {
		r.state = StateActivating
		if err := r.platform.Claim(ctx); err != nil {
			return err
		}
		r.state = StateActive
		r.logger.InfoContext(ctx, "service worker activated")
		return nil
	})
}

// HandlePush shows a notification for a push message. present is false when
// the push carried no data, in which case nothing is shown.
func (r *Renderer) HandlePush(ctx context.Context, data []byte, present bool) error {
	return panicerr.CatchContext(ctx, func(ctx context.Context) error {
		r.logger.InfoContext(ctx, "push notification received", "bytes", len(data))
		if !present {
			r.logger.InfoContext(ctx, "no data in push event")
			return nil
		}
		title, opts := r.Render(ctx, data)
		return r.platform.ShowNotification(ctx, title, opts)
	})
}

// Render builds the notification for a push payload. A payload that is not
// JSON is shown verbatim as the body.
func (r *Renderer) Render(ctx context.Context, data []byte) (string, pushapi.NotificationOptions) {
	n := r.parse(ctx, data)

	title := n.Title
	if title == "" {
		title = DefaultTitle
	}
	opts := pushapi.NotificationOptions{
		Body:               orDefault(n.Body, DefaultBody),
		Icon:               orDefault(n.Icon, DefaultIcon),
		Badge:              orDefault(n.Badge, DefaultBadge),
		Vibrate:            append([]int(nil), defaultVibrate...),
		Tag:                NotificationTag,
		RequireInteraction: false,
		Data:               n.Data,
		Actions:            append([]pushapi.NotificationAction(nil), defaultActions...),
	}
	if opts.Data == nil {
		opts.Data = pushapi.NotificationData{}
	}
	return title, opts
}

func (r *Renderer) parse(ctx context.Context, data []byte) pushapi.Notification {
	if !json.Valid(data) {
		r.logger.ErrorContext(ctx, "error parsing notification data", "error", errors.New("payload is not valid JSON"))
		return pushapi.Notification{Title: ParseFailureTitle, Body: string(data)}
	}
	var n pushapi.Notification
	// Fields of the wrong type are skipped; the rest are kept.
	if err := json.Unmarshal(data, &n); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			r.logger.ErrorContext(ctx, "error parsing notification data", "error", err)
			return pushapi.Notification{Title: ParseFailureTitle, Body: string(data)}
		}
		r.logger.DebugContext(ctx, "ignoring mistyped notification field", "error", err)
	}
	return n
}

// HandleNotificationClick closes n and brings the app to the front: an
// already open window showing the target URL is focused, otherwise a new one
// is opened. The close action only dismisses.
func (r *Renderer) HandleNotificationClick(ctx context.Context, n Notification, action string) error {
	return panicerr.CatchContext(ctx, func(ctx context.Context) error {
		r.logger.InfoContext(ctx, "notification clicked", "title", n.Title(), "action", action)
		n.Close()

		if action == ActionClose {
			return nil
		}

		target := n.Data().URL()
		if target == "" {
			target = DefaultURL
		}

		clients, err := r.platform.MatchClients(ctx, MatchOptions{
			Type:                clientTypeWindow,
			IncludeUncontrolled: true,
		})
		if err != nil {
			return err
		}
		for _, c := range clients {
			if strings.Contains(c.URL, target) && c.Focusable {
				return r.platform.Focus(ctx, c)
			}
		}
		return r.platform.OpenWindow(ctx, target)
	})
}

func (r *Renderer) HandleNotificationClose(ctx context.Context, n Notification) error {
	return panicerr.CatchContext(ctx, func(ctx context.Context) error {
		r.logger.InfoContext(ctx, "notification closed", "title", n.Title())
		return nil
	})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
