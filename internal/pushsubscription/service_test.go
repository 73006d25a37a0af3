package pushsubscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/messmate-push/internal/pushsubscription"
	"github.com/kazz187/messmate-push/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/messmate-push/pkg/cerr"
	"github.com/kazz187/messmate-push/pkg/pushapi"
	"github.com/kazz187/messmate-push/pkg/storage"
)

func browserSub(endpoint string) *pushapi.Subscription {
	return &pushapi.Subscription{
		Endpoint: endpoint,
		Keys:     pushapi.Keys{P256dh: "BNc", Auth: "tBH"},
	}
}

func newService() (*pushsubscription.Service, pushsubscription.Repository) {
	repo := repositoryimpl.NewYAMLRepository(storage.NewMemoryStorage())
	return pushsubscription.NewService(repo), repo
}

func TestService_RegisterIsIdempotentByEndpoint(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService()

	first, err := svc.Register(ctx, "User@Example.com ", browserSub("https://push.example.com/1"))
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", first.Email)

	sub := browserSub("https://push.example.com/1")
	sub.Keys.Auth = "new-auth"
	second, err := svc.Register(ctx, "user@example.com", sub)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "new-auth", second.AuthKey)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestService_RegisterValidation(t *testing.T) {
	svc, _ := newService()
	tests := []struct {
		name  string
		email string
		sub   *pushapi.Subscription
		msg   string
	}{
		{name: "missing email", email: "", sub: browserSub("https://push.example.com/1"), msg: "email is required"},
		{name: "missing subscription", email: "a@example.com", sub: nil, msg: "subscription is required"},
		{name: "missing endpoint", email: "a@example.com", sub: browserSub(""), msg: "endpoint is required"},
		{name: "plain http", email: "a@example.com", sub: browserSub("http://push.example.com/1"), msg: "endpoint must be an https URL"},
		{name: "missing keys", email: "a@example.com", sub: &pushapi.Subscription{Endpoint: "https://push.example.com/1"}, msg: "p256dh key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.email, tt.sub)
			require.Error(t, err)
			assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))

			var ce *cerr.Error
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.msg, ce.Msg)
			assert.NotEmpty(t, ce.Details)
		})
	}
}

func TestService_Unregister(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService()
	_, err := svc.Register(ctx, "a@example.com", browserSub("https://push.example.com/1"))
	require.NoError(t, err)

	require.NoError(t, svc.Unregister(ctx, "https://push.example.com/1"))
	require.NoError(t, svc.Unregister(ctx, "https://push.example.com/1"))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.True(t, cerr.IsCode(svc.Unregister(ctx, ""), cerr.InvalidArgument))
}

func TestService_ActiveSkipsExpired(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	past := time.Now().Add(-time.Hour).UnixMilli()
	future := time.Now().Add(time.Hour).UnixMilli()

	expired := browserSub("https://push.example.com/old")
	expired.ExpirationTime = &past
	live := browserSub("https://push.example.com/new")
	live.ExpirationTime = &future

	_, err := svc.Register(ctx, "a@example.com", expired)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "a@example.com", live)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "b@example.com", browserSub("https://push.example.com/b"))
	require.NoError(t, err)

	mine, err := svc.Active(ctx, "A@example.com")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "https://push.example.com/new", mine[0].Endpoint)

	everyone, err := svc.Active(ctx, "")
	require.NoError(t, err)
	assert.Len(t, everyone, 2)
}
