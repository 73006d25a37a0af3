package subscriptionmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kazz187/messmate-push/pkg/pushapi"
)

// HTTPBackend talks to the push endpoints of the messmate server.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBackend returns a backend rooted at baseURL. An empty baseURL means
// the page origin, which is what the browser fetch API resolves relative
// paths against.
func NewHTTPBackend(baseURL string, client *http.Client) *HTTPBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBackend{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

func (b *HTTPBackend) PublicKey(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+pushapi.PathPublicKey, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	var resp pushapi.PublicKeyResponse
	if err := b.do(req, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch public key: %w", err)
	}
	if resp.PublicKey == "" {
		return "", errors.New("server returned an empty public key")
	}
	return resp.PublicKey, nil
}

func (b *HTTPBackend) SaveSubscription(ctx context.Context, email string, sub *pushapi.Subscription) error {
	body, err := json.Marshal(&pushapi.SubscribeRequest{
		Email:        email,
		Subscription: sub,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+pushapi.PathSubscribe, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result pushapi.Result
	if err := b.do(req, &result); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("failed to save subscription: %s", result.Error)
	}
	return nil
}

// do decodes the JSON body whatever the status, since error responses carry
// {success:false, error} too.
func (b *HTTPBackend) do(req *http.Request, v any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}
