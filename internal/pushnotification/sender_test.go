package pushnotification_test

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/messmate-push/internal/config"
	"github.com/kazz187/messmate-push/internal/pushnotification"
	"github.com/kazz187/messmate-push/internal/pushsubscription"
	"github.com/kazz187/messmate-push/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/messmate-push/pkg/cerr"
	"github.com/kazz187/messmate-push/pkg/pushapi"
	"github.com/kazz187/messmate-push/pkg/storage"
	"github.com/kazz187/messmate-push/pkg/vapidkey"
)

// pushService is a fake push service. Endpoints under /gone answer 410, the
// rest 201.
type pushService struct {
	*httptest.Server
	mu       sync.Mutex
	requests map[string]http.Header
}

func newPushService(t *testing.T) *pushService {
	t.Helper()
	ps := &pushService{requests: map[string]http.Header{}}
	ps.Server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.requests[r.URL.Path] = r.Header.Clone()
		ps.mu.Unlock()
		if len(r.URL.Path) >= 5 && r.URL.Path[:5] == "/gone" {
			w.WriteHeader(http.StatusGone)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(ps.Close)
	return ps
}

func (ps *pushService) header(path string) (http.Header, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	h, ok := ps.requests[path]
	return h, ok
}

func browserKeys(t *testing.T) pushapi.Keys {
	t.Helper()
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)
	return pushapi.Keys{
		P256dh: vapidkey.Encode(priv.PublicKey().Bytes()),
		Auth:   vapidkey.Encode(auth),
	}
}

type fixture struct {
	push   *pushService
	repo   pushsubscription.Repository
	subs   *pushsubscription.Service
	keys   *config.VAPIDKeys
	sender *pushnotification.Sender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kp, err := vapidkey.Generate()
	require.NoError(t, err)

	push := newPushService(t)
	repo := repositoryimpl.NewYAMLRepository(storage.NewMemoryStorage())
	keys := config.NewVAPIDKeys(config.VAPIDEnv{
		VAPIDPublicKey:  kp.PublicKey,
		VAPIDPrivateKey: kp.PrivateKey,
		VAPIDContact:    "mailto:ops@example.com",
		VAPIDTTL:        60,
	})
	return &fixture{
		push:   push,
		repo:   repo,
		subs:   pushsubscription.NewService(repo),
		keys:   keys,
		sender: pushnotification.NewSender(keys, repo, pushnotification.WithHTTPClient(push.Client())),
	}
}

func (f *fixture) register(t *testing.T, email, path string) {
	t.Helper()
	_, err := f.subs.Register(context.Background(), email, &pushapi.Subscription{
		Endpoint: f.push.URL + path,
		Keys:     browserKeys(t),
	})
	require.NoError(t, err)
}

func TestSender_SendToUser(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com", "/alice/1")
	f.register(t, "alice@example.com", "/alice/2")
	f.register(t, "bob@example.com", "/bob/1")

	report, err := f.sender.SendToUser(context.Background(), "alice@example.com", &pushapi.Notification{Title: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Sent)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Removed)

	h, ok := f.push.header("/alice/1")
	require.True(t, ok)
	assert.Equal(t, "60", h.Get("TTL"))
	assert.Equal(t, "aes128gcm", h.Get("Content-Encoding"))
	assert.Contains(t, h.Get("Authorization"), "vapid t=")

	_, ok = f.push.header("/bob/1")
	assert.False(t, ok)
}

func TestSender_RemovesGoneSubscriptions(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com", "/alice/1")
	f.register(t, "alice@example.com", "/gone/1")

	report, err := f.sender.SendToAll(context.Background(), &pushapi.Notification{Title: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Removed)

	_, err = f.repo.FindByEndpoint(context.Background(), f.push.URL+"/gone/1")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	remaining, err := f.repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, f.push.URL+"/alice/1", remaining[0].Endpoint)
}

func TestSender_NotConfigured(t *testing.T) {
	f := newFixture(t)
	f.keys.Set(config.VAPIDEnv{})

	_, err := f.sender.SendToAll(context.Background(), &pushapi.Notification{})
	assert.True(t, cerr.IsCode(err, cerr.FailedPrecondition))
	assert.ErrorIs(t, err, pushnotification.ErrNotConfigured)
}

func TestSender_SendToUserRequiresEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.sender.SendToUser(context.Background(), "", &pushapi.Notification{})
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
}
