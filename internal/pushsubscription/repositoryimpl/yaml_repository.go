package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/messmate-push/internal/pushsubscription"
	"github.com/kazz187/messmate-push/pkg/cerr"
	"github.com/kazz187/messmate-push/pkg/storage"
)

const pushSubscriptionsPrefix = "push_subscriptions"

// YAMLRepository stores one YAML document per subscription. Lookups by
// endpoint or email scan the whole prefix, which is fine for the handful of
// browsers a deployment of this size serves.
type YAMLRepository struct {
	storage storage.Storage
}

var _ pushsubscription.Repository = (*YAMLRepository)(nil)

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", pushSubscriptionsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, s *pushsubscription.Subscription) error {
	exists, err := r.storage.Exists(ctx, path(s.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("push_subscription", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "push subscription already exists", nil)
	}
	return r.write(ctx, s)
}

func (r *YAMLRepository) Update(ctx context.Context, s *pushsubscription.Subscription) error {
	exists, err := r.storage.Exists(ctx, path(s.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("push_subscription", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "push subscription not found", nil)
	}
	return r.write(ctx, s)
}

func (r *YAMLRepository) write(ctx context.Context, s *pushsubscription.Subscription) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal push subscription: %w", err))
	}
	if err := r.storage.Write(ctx, path(s.ID), data); err != nil {
		return cerr.WrapStorageWriteError("push_subscription", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*pushsubscription.Subscription, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("push_subscription", err)
	}
	var s pushsubscription.Subscription
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal push subscription: %w", err))
	}
	return &s, nil
}

// scan visits every readable subscription in path order until fn returns
// false. Unreadable documents are skipped.
func (r *YAMLRepository) scan(ctx context.Context, fn func(*pushsubscription.Subscription) bool) error {
	paths, err := r.storage.List(ctx, pushSubscriptionsPrefix)
	if err != nil {
		return cerr.WrapStorageReadError("push_subscriptions", err)
	}
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var s pushsubscription.Subscription
		if err := yaml.Unmarshal(data, &s); err != nil {
			continue
		}
		if !fn(&s) {
			return nil
		}
	}
	return nil
}

func (r *YAMLRepository) List(ctx context.Context) ([]*pushsubscription.Subscription, error) {
	var all []*pushsubscription.Subscription
	err := r.scan(ctx, func(s *pushsubscription.Subscription) bool {
		all = append(all, s)
		return true
	})
	return all, err
}

func (r *YAMLRepository) ListByEmail(ctx context.Context, email string) ([]*pushsubscription.Subscription, error) {
	var subs []*pushsubscription.Subscription
	err := r.scan(ctx, func(s *pushsubscription.Subscription) bool {
		if s.Email == email {
			subs = append(subs, s)
		}
		return true
	})
	return subs, err
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("push_subscription", err)
	}
	return nil
}

func (r *YAMLRepository) FindByEndpoint(ctx context.Context, endpoint string) (*pushsubscription.Subscription, error) {
	var found *pushsubscription.Subscription
	err := r.scan(ctx, func(s *pushsubscription.Subscription) bool {
		if s.Endpoint == endpoint {
			found = s
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, cerr.NewError(cerr.NotFound, "push subscription not found", nil)
	}
	return found, nil
}

func (r *YAMLRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	s, err := r.FindByEndpoint(ctx, endpoint)
	if err != nil {
		return err
	}
	return r.Delete(ctx, s.ID)
}
