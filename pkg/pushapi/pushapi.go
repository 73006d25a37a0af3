// Package pushapi defines the JSON shapes exchanged between the browser
// client, the service worker and the backend.
package pushapi

import "time"

const (
	PathPublicKey   = "/vapid-public-key"
	PathSubscribe   = "/subscribe"
	PathUnsubscribe = "/unsubscribe"
	PathSendTest    = "/send-test"
)

// Keys are the subscription's encryption keys, base64url encoded.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is the result of PushSubscription.toJSON() in the browser.
// ExpirationTime is milliseconds since the Unix epoch, or null.
type Subscription struct {
	Endpoint       string `json:"endpoint"`
	ExpirationTime *int64 `json:"expirationTime"`
	Keys           Keys   `json:"keys"`
}

func (s *Subscription) Expiration() *time.Time {
	if s == nil || s.ExpirationTime == nil {
		return nil
	}
	t := time.UnixMilli(*s.ExpirationTime).UTC()
	return &t
}

type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

type SubscribeRequest struct {
	Email        string        `json:"email"`
	Subscription *Subscription `json:"subscription"`
}

// Result is the envelope every mutating endpoint answers with.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

type SendTestRequest struct {
	Email string `json:"email"`
}

type SendTestResponse struct {
	Success bool `json:"success"`
	Sent    int  `json:"sent"`
	Failed  int  `json:"failed"`
}

// NotificationData is the free-form data attached to a notification. The
// "url" entry is where a click navigates to.
type NotificationData map[string]any

func (d NotificationData) URL() string {
	u, _ := d["url"].(string)
	return u
}

// Notification is the push message body sent by the backend and read by the
// service worker. Every field is optional on the wire.
type Notification struct {
	Title string           `json:"title,omitempty"`
	Body  string           `json:"body,omitempty"`
	Icon  string           `json:"icon,omitempty"`
	Badge string           `json:"badge,omitempty"`
	Data  NotificationData `json:"data,omitempty"`
}

// NotificationAction is a button shown on a notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// NotificationOptions mirrors the options argument of
// ServiceWorkerRegistration.showNotification.
type NotificationOptions struct {
	Body               string               `json:"body,omitempty"`
	Icon               string               `json:"icon,omitempty"`
	Badge              string               `json:"badge,omitempty"`
	Vibrate            []int                `json:"vibrate,omitempty"`
	Tag                string               `json:"tag,omitempty"`
	RequireInteraction bool                 `json:"requireInteraction"`
	Data               NotificationData     `json:"data"`
	Actions            []NotificationAction `json:"actions,omitempty"`
}
