package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/bataanhss/websystem/core/push"
)

type pushRepository struct {
	db *DB
}

var _ push.Repository = (*pushRepository)(nil) // interface compliance check

func NewPushRepository(db *DB) *pushRepository {
	return &pushRepository{db: db}
}

func (repo *pushRepository) UpsertSubscription(ctx context.Context, sub push.Subscription) (push.Subscription, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	for _, existing := range repo.db.pushSubs {
		if existing.Endpoint == sub.Endpoint {
			existing.UserID = sub.UserID
			existing.Keys = sub.Keys
			existing.UpdatedAt = now
			return *existing, nil
		}
	}
	sub.ID = repo.db.nextID()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	repo.db.pushSubs[sub.ID] = &sub
	return sub, nil
}

func (repo *pushRepository) DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, sub := range repo.db.pushSubs {
		if sub.Endpoint == endpoint {
			delete(repo.db.pushSubs, id)
			return nil
		}
	}
	return push.ErrNotFound
}

func (repo *pushRepository) QueryAllSubscriptions(ctx context.Context) ([]push.Subscription, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]push.Subscription, 0, len(repo.db.pushSubs))
	for _, sub := range repo.db.pushSubs {
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}
