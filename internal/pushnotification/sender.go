package pushnotification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/sourcegraph/conc/pool"

	"github.com/kazz187/messmate-push/internal/config"
	"github.com/kazz187/messmate-push/internal/pushsubscription"
	"github.com/kazz187/messmate-push/pkg/cerr"
	"github.com/kazz187/messmate-push/pkg/pushapi"
)

const defaultMaxConcurrency = 8

var ErrNotConfigured = errors.New("VAPID keys not configured")

// Report summarises one fan-out.
type Report struct {
	Sent    int
	Failed  int
	Removed int
}

type outcome struct {
	sent    bool
	removed bool
}

type Sender struct {
	keys           *config.VAPIDKeys
	subs           *pushsubscription.Service
	repo           pushsubscription.Repository
	httpClient     webpush.HTTPClient
	maxConcurrency int
}

type SenderOption func(*Sender)

func WithHTTPClient(c webpush.HTTPClient) SenderOption {
	return func(s *Sender) { s.httpClient = c }
}

func WithMaxConcurrency(n int) SenderOption {
	return func(s *Sender) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

func NewSender(keys *config.VAPIDKeys, repo pushsubscription.Repository, opts ...SenderOption) *Sender {
	s := &Sender{
		keys:           keys,
		subs:           pushsubscription.NewService(repo),
		repo:           repo,
		httpClient:     http.DefaultClient,
		maxConcurrency: defaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendToUser pushes n to every active subscription of email.
func (s *Sender) SendToUser(ctx context.Context, email string, n *pushapi.Notification) (*Report, error) {
	if email == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "email is required", nil)
	}
	return s.send(ctx, email, n)
}

// SendToAll pushes n to every active subscription.
func (s *Sender) SendToAll(ctx context.Context, n *pushapi.Notification) (*Report, error) {
	return s.send(ctx, "", n)
}

func (s *Sender) send(ctx context.Context, email string, n *pushapi.Notification) (*Report, error) {
	vapid := s.keys.Get()
	if !vapid.Configured() {
		return nil, cerr.NewError(cerr.FailedPrecondition, "VAPID keys not configured", ErrNotConfigured)
	}

	subs, err := s.subs.Active(ctx, email)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(n)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal payload: %w", err))
	}

	p := pool.NewWithResults[outcome]().WithMaxGoroutines(s.maxConcurrency)
	for _, sub := range subs {
		p.Go(func() outcome {
			return s.sendToSubscription(ctx, vapid, sub, data)
		})
	}

	report := &Report{}
	for _, o := range p.Wait() {
		switch {
		case o.sent:
			report.Sent++
		case o.removed:
			report.Removed++
		default:
			report.Failed++
		}
	}
	slog.InfoContext(ctx, "push notification: fan-out finished",
		"email", email, "sent", report.Sent, "failed", report.Failed, "removed", report.Removed)
	return report, nil
}

func (s *Sender) sendToSubscription(ctx context.Context, vapid config.VAPIDEnv, sub *pushsubscription.Subscription, data []byte) outcome {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, wpSub, &webpush.Options{
		HTTPClient:      s.httpClient,
		VAPIDPublicKey:  vapid.VAPIDPublicKey,
		VAPIDPrivateKey: vapid.VAPIDPrivateKey,
		// webpush-go adds the mailto: scheme itself.
		Subscriber: strings.TrimPrefix(vapid.VAPIDContact, "mailto:"),
		TTL:        vapid.VAPIDTTL,
		Urgency:    webpush.UrgencyNormal,
	})
	if err != nil {
		slog.ErrorContext(ctx, "push notification: failed to send", "endpoint", sub.Endpoint, "error", err)
		return outcome{}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// 404 and 410 both mean the push service forgot this subscription.
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		slog.InfoContext(ctx, "push notification: subscription expired, removing", "endpoint", sub.Endpoint, "status", resp.StatusCode)
		if err := s.repo.Delete(ctx, sub.ID); err != nil && !cerr.IsCode(err, cerr.NotFound) {
			slog.ErrorContext(ctx, "push notification: failed to delete expired subscription", "id", sub.ID, "error", err)
		}
		return outcome{removed: true}
	}

	if resp.StatusCode >= 400 {
		slog.WarnContext(ctx, "push notification: unexpected status", "endpoint", sub.Endpoint, "status", resp.StatusCode)
		return outcome{}
	}
	return outcome{sent: true}
}
