package subscriptionmanager_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/kazz187/messmate-push/internal/subscriptionmanager"
	"github.com/kazz187/messmate-push/pkg/pushapi"
)

type fakeRegistration struct{ scope string }

func (r *fakeRegistration) Scope() string { return r.scope }

type shownNotification struct {
	title string
	opts  pushapi.NotificationOptions
}

type fakePlatform struct {
	unsupported bool
	registerErr error

	permission        subscriptionmanager.PermissionState
	requestResult     subscriptionmanager.PermissionState
	requestErr        error
	permissionPrompts int

	current      *pushapi.Subscription
	subscribeErr error
	subscribes   []subscriptionmanager.SubscribeOptions
	unsubscribed []*pushapi.Subscription

	registeredPaths []string
	shown           []shownNotification
	alerts          []string
}

func (p *fakePlatform) Supported() bool { return !p.unsupported }

func (p *fakePlatform) Register(_ context.Context, scriptURL string) (subscriptionmanager.Registration, error) {
	if p.registerErr != nil {
		return nil, p.registerErr
	}
	p.registeredPaths = append(p.registeredPaths, scriptURL)
	return &fakeRegistration{scope: "/"}, nil
}

func (p *fakePlatform) Permission() subscriptionmanager.PermissionState {
	if p.permission == "" {
		return subscriptionmanager.PermissionDefault
	}
	return p.permission
}

func (p *fakePlatform) RequestPermission(context.Context) (subscriptionmanager.PermissionState, error) {
	p.permissionPrompts++
	if p.requestErr != nil {
		return "", p.requestErr
	}
	p.permission = p.requestResult
	return p.requestResult, nil
}

func (p *fakePlatform) GetSubscription(context.Context, subscriptionmanager.Registration) (*pushapi.Subscription, error) {
	return p.current, nil
}

func (p *fakePlatform) Subscribe(_ context.Context, _ subscriptionmanager.Registration, opts subscriptionmanager.SubscribeOptions) (*pushapi.Subscription, error) {
	if p.subscribeErr != nil {
		return nil, p.subscribeErr
	}
	p.subscribes = append(p.subscribes, opts)
	p.current = &pushapi.Subscription{
		Endpoint: fmt.Sprintf("https://push.example.com/%d", len(p.subscribes)),
		Keys:     pushapi.Keys{P256dh: "p256dh", Auth: "auth"},
	}
	return p.current, nil
}

func (p *fakePlatform) Unsubscribe(_ context.Context, _ subscriptionmanager.Registration, sub *pushapi.Subscription) (bool, error) {
	p.unsubscribed = append(p.unsubscribed, sub)
	p.current = nil
	return true, nil
}

func (p *fakePlatform) ShowNotification(_ context.Context, _ subscriptionmanager.Registration, title string, opts pushapi.NotificationOptions) error {
	p.shown = append(p.shown, shownNotification{title: title, opts: opts})
	return nil
}

func (p *fakePlatform) Alert(message string) {
	p.alerts = append(p.alerts, message)
}

type savedSubscription struct {
	email string
	sub   *pushapi.Subscription
}

type fakeBackend struct {
	publicKey    string
	publicKeyErr error
	saveErr      error
	saved        []savedSubscription
}

func (b *fakeBackend) PublicKey(context.Context) (string, error) {
	if b.publicKeyErr != nil {
		return "", b.publicKeyErr
	}
	return b.publicKey, nil
}

func (b *fakeBackend) SaveSubscription(_ context.Context, email string, sub *pushapi.Subscription) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	b.saved = append(b.saved, savedSubscription{email: email, sub: sub})
	return nil
}

type mapStore map[string]string

func (s mapStore) Get(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

var errBoom = errors.New("boom")
