package pushnotification

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/messmate-push/internal/config"
	"github.com/kazz187/messmate-push/internal/pushsubscription"
	"github.com/kazz187/messmate-push/pkg/cerr"
	"github.com/kazz187/messmate-push/pkg/clog"
	"github.com/kazz187/messmate-push/pkg/pushapi"
)

const maxBodyBytes = 64 << 10

type Server struct {
	keys   *config.VAPIDKeys
	subs   *pushsubscription.Service
	sender *Sender
}

func NewServer(keys *config.VAPIDKeys, subs *pushsubscription.Service, sender *Sender) *Server {
	return &Server{
		keys:   keys,
		subs:   subs,
		sender: sender,
	}
}

// Mount registers the push endpoints on r. r must carry
// cerr.NewJSONResponseChiMiddleware.
func (s *Server) Mount(r chi.Router) {
	r.Get(pushapi.PathPublicKey, cerr.JSON(s.GetVapidPublicKey))
	r.Post(pushapi.PathSubscribe, cerr.JSON(s.RegisterPushSubscription))
	r.Post(pushapi.PathUnsubscribe, cerr.JSON(s.UnregisterPushSubscription))
	r.Post(pushapi.PathSendTest, cerr.JSON(s.SendTestNotification))
}

func (s *Server) GetVapidPublicKey(_ *http.Request) (any, error) {
	key := s.keys.Get().VAPIDPublicKey
	if key == "" {
		return nil, cerr.NewError(cerr.FailedPrecondition, "VAPID keys not configured", nil)
	}
	return &pushapi.PublicKeyResponse{PublicKey: key}, nil
}

func (s *Server) RegisterPushSubscription(r *http.Request) (any, error) {
	var req pushapi.SubscribeRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	sub, err := s.subs.Register(r.Context(), req.Email, req.Subscription)
	if err != nil {
		return nil, err
	}
	clog.AddAttributes(r.Context(), map[string]any{
		"email":           sub.Email,
		"subscription_id": sub.ID,
	})
	return &pushapi.Result{Success: true}, nil
}

func (s *Server) UnregisterPushSubscription(r *http.Request) (any, error) {
	var req pushapi.UnsubscribeRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if err := s.subs.Unregister(r.Context(), req.Endpoint); err != nil {
		return nil, err
	}
	return &pushapi.Result{Success: true}, nil
}

func (s *Server) SendTestNotification(r *http.Request) (any, error) {
	var req pushapi.SendTestRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	report, err := s.sender.SendToUser(r.Context(), req.Email, &pushapi.Notification{
		Title: "MessMate Test",
		Body:  "Push notifications are working!",
		Data:  pushapi.NotificationData{"url": "/dashboard"},
	})
	if err != nil {
		return nil, err
	}
	return &pushapi.SendTestResponse{
		Success: report.Sent > 0,
		Sent:    report.Sent,
		Failed:  report.Failed + report.Removed,
	}, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return cerr.NewError(cerr.InvalidArgument, "invalid request body", fmt.Errorf("failed to decode body: %w", err))
	}
	return nil
}
