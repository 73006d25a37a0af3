// Package subscriptionmanager keeps a browser's push subscription in sync
// with the platform and the backend. Browser objects are reached through
// PushPlatform so the same logic runs in wasm and in tests.
package subscriptionmanager

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kazz187/messmate-push/pkg/pushapi"
	"github.com/kazz187/messmate-push/pkg/vapidkey"
)

var errNotRegistered = errors.New("service worker not registered")

const (
	testTitle = "MessMate Test"
	testBody  = "Notifications are working! 🎉"

	DefaultIcon  = "/icon-192x192.png"
	DefaultBadge = "/badge-72x72.png"

	permissionPrompt = "Please allow notifications to use this feature"
)

// DefaultVibrate is the vibration pattern used for every notification.
var DefaultVibrate = []int{200, 100, 200}

// Manager is not safe for concurrent use. The browser calls it from a single
// event loop.
type Manager struct {
	platform PushPlatform
	backend  Backend
	logger   *slog.Logger

	registration Registration
	subscription *pushapi.Subscription
	publicKey    string
	acknowledged bool
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func New(platform PushPlatform, backend Backend, opts ...Option) *Manager {
	m := &Manager{
		platform: platform,
		backend:  backend,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status is a snapshot of what the manager currently knows.
type Status struct {
	Registered   bool
	PublicKey    string
	Subscribed   bool
	Acknowledged bool
	Endpoint     string
}

func (m *Manager) Status() Status {
	st := Status{
		Registered:   m.registration != nil,
		PublicKey:    m.publicKey,
		Subscribed:   m.subscription != nil,
		Acknowledged: m.acknowledged,
	}
	if m.subscription != nil {
		st.Endpoint = m.subscription.Endpoint
	}
	return st
}

// Initialize fetches the VAPID key, registers the service worker and, when
// permission was already granted, subscribes email. It never prompts. It
// reports whether the setup steps succeeded; the outcome of the follow-up
// subscribe is only logged.
func (m *Manager) Initialize(ctx context.Context, email string) bool {
	if !m.platform.Supported() {
		m.logger.WarnContext(ctx, "push messaging not supported")
		return false
	}

	key, err := m.backend.PublicKey(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "push notification init error", "error", err)
		return false
	}
	m.publicKey = key

	reg, err := m.platform.Register(ctx, ServiceWorkerPath)
	if err != nil {
		m.logger.ErrorContext(ctx, "push notification init error", "error", err)
		return false
	}
	m.registration = reg
	m.logger.InfoContext(ctx, "service worker registered", "scope", reg.Scope())

	switch m.platform.Permission() {
	case PermissionGranted:
		if ok := m.Subscribe(ctx, email); !ok {
			m.logger.WarnContext(ctx, "subscribe after init failed", "email", email)
		}
	case PermissionDefault:
		m.logger.InfoContext(ctx, "notification permission not yet requested")
	}
	return true
}

// RequestPermission prompts the user. Errors count as a refusal.
func (m *Manager) RequestPermission(ctx context.Context) PermissionState {
	p, err := m.platform.RequestPermission(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "error requesting permission", "error", err)
		return PermissionDenied
	}
	m.logger.InfoContext(ctx, "notification permission", "permission", p)
	return p
}

// Subscribe reuses the registration's subscription or creates one, then
// hands it to the backend. It reports true only when both steps succeed.
func (m *Manager) Subscribe(ctx context.Context, email string) bool {
	if err := m.subscribe(ctx, email); err != nil {
		m.logger.ErrorContext(ctx, "subscription error", "error", err)
		return false
	}
	return true
}

func (m *Manager) subscribe(ctx context.Context, email string) error {
	if m.registration == nil {
		return errNotRegistered
	}

	sub, err := m.platform.GetSubscription(ctx, m.registration)
	if err != nil {
		return err
	}
	if sub == nil {
		key, err := vapidkey.Decode(m.publicKey)
		if err != nil {
			return err
		}
		sub, err = m.platform.Subscribe(ctx, m.registration, SubscribeOptions{
			UserVisibleOnly:      true,
			ApplicationServerKey: key,
		})
		if err != nil {
			return err
		}
		m.logger.InfoContext(ctx, "new push subscription created", "endpoint", sub.Endpoint)
	} else {
		m.logger.InfoContext(ctx, "already subscribed to push notifications", "endpoint", sub.Endpoint)
	}

	if m.subscription == nil || m.subscription.Endpoint != sub.Endpoint {
		m.acknowledged = false
	}
	m.subscription = sub

	if err := m.backend.SaveSubscription(ctx, email, sub); err != nil {
		return err
	}
	m.acknowledged = true
	m.logger.InfoContext(ctx, "subscription saved to server", "email", email)
	return nil
}

// Unsubscribe cancels the current subscription, if any. The backend is not
// told; its record stays until a send reports the endpoint as gone.
func (m *Manager) Unsubscribe(ctx context.Context) bool {
	sub := m.subscription
	if sub == nil {
		if m.registration == nil {
			m.logger.ErrorContext(ctx, "unsubscribe error", "error", errNotRegistered)
			return false
		}
		var err error
		sub, err = m.platform.GetSubscription(ctx, m.registration)
		if err != nil {
			m.logger.ErrorContext(ctx, "unsubscribe error", "error", err)
			return false
		}
		if sub == nil {
			return true
		}
	}

	if _, err := m.platform.Unsubscribe(ctx, m.registration, sub); err != nil {
		m.logger.ErrorContext(ctx, "unsubscribe error", "error", err)
		return false
	}
	m.subscription = nil
	m.acknowledged = false
	m.logger.InfoContext(ctx, "unsubscribed from push notifications", "endpoint", sub.Endpoint)
	return true
}

// ShowTestNotification displays a local notification without going through
// the push service, asking for permission first when needed.
func (m *Manager) ShowTestNotification(ctx context.Context) bool {
	if m.platform.Permission() != PermissionGranted {
		if m.RequestPermission(ctx) != PermissionGranted {
			m.platform.Alert(permissionPrompt)
			return false
		}
	}

	if m.registration == nil {
		return false
	}
	err := m.platform.ShowNotification(ctx, m.registration, testTitle, pushapi.NotificationOptions{
		Body:    testBody,
		Icon:    DefaultIcon,
		Badge:   DefaultBadge,
		Vibrate: DefaultVibrate,
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "test notification error", "error", err)
		return false
	}
	return true
}

// Teardown forgets everything cached. The platform subscription is left
// alone.
func (m *Manager) Teardown() {
	m.registration = nil
	m.subscription = nil
	m.publicKey = ""
	m.acknowledged = false
}
