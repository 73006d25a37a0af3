package subscriptionmanager_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/messmate-push/internal/subscriptionmanager"
	"github.com/kazz187/messmate-push/pkg/pushapi"
)

func TestHTTPBackend(t *testing.T) {
	var got pushapi.SubscribeRequest
	r := chi.NewRouter()
	r.Get(pushapi.PathPublicKey, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(pushapi.PublicKeyResponse{PublicKey: "BPub"})
	})
	r.Post(pushapi.PathSubscribe, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got.Email == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(pushapi.Result{Error: "email is required"})
			return
		}
		_ = json.NewEncoder(w).Encode(pushapi.Result{Success: true})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	b := subscriptionmanager.NewHTTPBackend(srv.URL+"/", srv.Client())

	key, err := b.PublicKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BPub", key)

	exp := int64(1700000000000)
	sub := &pushapi.Subscription{
		Endpoint:       "https://push.example.com/1",
		ExpirationTime: &exp,
		Keys:           pushapi.Keys{P256dh: "p", Auth: "a"},
	}
	require.NoError(t, b.SaveSubscription(context.Background(), "alice@example.com", sub))
	assert.Equal(t, "alice@example.com", got.Email)
	require.NotNil(t, got.Subscription)
	assert.Equal(t, *sub, *got.Subscription)

	err = b.SaveSubscription(context.Background(), "", sub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email is required")
}

func TestHTTPBackend_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("oops"))
	}))
	t.Cleanup(srv.Close)

	b := subscriptionmanager.NewHTTPBackend(srv.URL, nil)
	_, err := b.PublicKey(context.Background())
	assert.Error(t, err)
	assert.Error(t, b.SaveSubscription(context.Background(), "alice@example.com", &pushapi.Subscription{}))
}

func TestHTTPBackend_EmptyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
		_, _ = w.Write([]byte(`{"success":false,"error":"VAPID keys not configured"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := subscriptionmanager.NewHTTPBackend(srv.URL, nil).PublicKey(context.Background())
	assert.Error(t, err)
}
