package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/messmate-push/internal/config"
	"github.com/kazz187/messmate-push/internal/pushnotification"
	"github.com/kazz187/messmate-push/internal/pushsubscription"
	"github.com/kazz187/messmate-push/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/messmate-push/pkg/pushapi"
	"github.com/kazz187/messmate-push/pkg/storage"
)

func newTestServer(frontendURL string) *Server {
	env := &config.Env{BaseEnv: config.BaseEnv{FrontendURL: frontendURL}}
	repo := repositoryimpl.NewYAMLRepository(storage.NewMemoryStorage())
	keys := config.NewVAPIDKeys(config.VAPIDEnv{VAPIDPublicKey: "pub", VAPIDPrivateKey: "priv"})
	sender := pushnotification.NewSender(keys, repo)
	return NewServer(env, pushnotification.NewServer(keys, pushsubscription.NewService(repo), sender))
}

func TestServer_Health(t *testing.T) {
	h := newTestServer("").Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Routes(t *testing.T) {
	h := newTestServer("").Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, pushapi.PathPublicKey, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"publicKey":"pub"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"not found","code":"not_found"}`, rec.Body.String())
}

func TestServer_CORS(t *testing.T) {
	h := newTestServer("https://app.example.com").Handler()

	req := httptest.NewRequest(http.MethodOptions, pushapi.PathSubscribe, nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, pushapi.PathSubscribe, nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
