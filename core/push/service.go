package push

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
)

var (
	// ErrNotFound is returned when a subscription does not exist.
	ErrNotFound = errors.New("subscription not found")

	errInvalidSubscription = core.NewValidationError(errors.New("invalid subscription"))
	errEndpointRequired    = core.NewValidationError(errors.New("endpoint is required"))
)

// Repository persists push subscriptions.
type Repository interface {
	// UpsertSubscription inserts or, when the endpoint exists, refreshes
	// the owner and keys of the stored subscription.
	UpsertSubscription(ctx context.Context, sub Subscription) (Subscription, error)
	DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error
	QueryAllSubscriptions(ctx context.Context) ([]Subscription, error)
}

type ServiceInterface interface {
	Subscribe(ctx context.Context, userID string, data Subscribe) (Subscription, error)
	Unsubscribe(ctx context.Context, data Unsubscribe) error
	All(ctx context.Context) ([]Subscription, error)
}

type Service struct {
	repo Repository
}

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Subscribe(ctx context.Context, userID string, data Subscribe) (Subscription, error) {
	data.Clean()
	if !data.IsValid() {
		return Subscription{}, errInvalidSubscription
	}
	sub := Subscription{
		UserID:   userID,
		Endpoint: data.Endpoint,
		Keys:     data.Keys,
	}
	return svc.repo.UpsertSubscription(ctx, sub)
}

func (svc *Service) Unsubscribe(ctx context.Context, data Unsubscribe) error {
	endpoint := strings.TrimSpace(data.Endpoint)
	if endpoint == "" {
		return errEndpointRequired
	}
	err := svc.repo.DeleteSubscriptionByEndpoint(ctx, endpoint)
	if errors.Cause(err) == ErrNotFound {
		return nil // already gone
	}
	return err
}

func (svc *Service) All(ctx context.Context) ([]Subscription, error) {
	return svc.repo.QueryAllSubscriptions(ctx)
}
