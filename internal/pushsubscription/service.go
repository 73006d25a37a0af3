package pushsubscription

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/messmate-push/pkg/cerr"
	"github.com/kazz187/messmate-push/pkg/pushapi"
)

// Service applies the registration rules on top of a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register stores sub for email. It is idempotent by endpoint: a browser that
// re-subscribes with the same endpoint updates its keys and owner in place.
func (s *Service) Register(ctx context.Context, email string, sub *pushapi.Subscription) (*Subscription, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate(email, sub); err != nil {
		return nil, err
	}
	now := s.now().UTC()

	existing, err := s.repo.FindByEndpoint(ctx, sub.Endpoint)
	switch {
	case err == nil:
		existing.Email = email
		existing.P256dhKey = sub.Keys.P256dh
		existing.AuthKey = sub.Keys.Auth
		existing.ExpirationTime = sub.Expiration()
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	case !cerr.IsCode(err, cerr.NotFound):
		return nil, err
	}

	created := &Subscription{
		ID:             ulid.Make().String(),
		Email:          email,
		Endpoint:       sub.Endpoint,
		P256dhKey:      sub.Keys.P256dh,
		AuthKey:        sub.Keys.Auth,
		ExpirationTime: sub.Expiration(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

// Unregister removes the subscription for endpoint. Removing an unknown
// endpoint succeeds.
func (s *Service) Unregister(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		return cerr.NewError(cerr.InvalidArgument, "endpoint is required", nil).
			AddViolation("endpoint", "required", "value is required")
	}
	if err := s.repo.DeleteByEndpoint(ctx, endpoint); err != nil && !cerr.IsCode(err, cerr.NotFound) {
		return err
	}
	return nil
}

// Active lists the subscriptions of email that have not expired. An empty
// email lists everyone.
func (s *Service) Active(ctx context.Context, email string) ([]*Subscription, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var (
		subs []*Subscription
		err  error
	)
	if email == "" {
		subs, err = s.repo.List(ctx)
	} else {
		subs, err = s.repo.ListByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := subs[:0]
	for _, sub := range subs {
		if !sub.Expired(now) {
			active = append(active, sub)
		}
	}
	return active, nil
}

func validate(email string, sub *pushapi.Subscription) error {
	e := cerr.NewError(cerr.InvalidArgument, "", nil)
	violate := func(field, rule, msg string) {
		if e.Msg == "" {
			e.Msg = msg
		}
		e.AddViolation(field, rule, msg)
	}

	if email == "" {
		violate("email", "required", "email is required")
	}
	if sub == nil {
		violate("subscription", "required", "subscription is required")
	} else {
		switch {
		case sub.Endpoint == "":
			violate("subscription.endpoint", "required", "endpoint is required")
		case !strings.HasPrefix(sub.Endpoint, "https://"):
			violate("subscription.endpoint", "https", "endpoint must be an https URL")
		}
		if sub.Keys.P256dh == "" {
			violate("subscription.keys.p256dh", "required", "p256dh key is required")
		}
		if sub.Keys.Auth == "" {
			violate("subscription.keys.auth", "required", "auth key is required")
		}
	}

	if len(e.Details) == 0 {
		return nil
	}
	return e
}
