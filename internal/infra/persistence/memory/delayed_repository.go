package memory

import (
	"context"
	"slices"
	"time"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/repository"

	"github.com/google/uuid"
)

type delayedRepository struct {
	store *Store
}

// NewDelayedRepository is the constructor for the in-memory DelayedRepository.
func NewDelayedRepository(store *Store) repository.DelayedRepository {
	return &delayedRepository{store: store}
}

func (repo *delayedRepository) Create(_ context.Context, item *entity.DelayedNotification) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	c := *item
	repo.store.delayed = append(repo.store.delayed, &c)

	return nil
}

func (repo *delayedRepository) FindDue(_ context.Context, now time.Time, limit int) ([]*entity.DelayedNotification, error) {
	repo.store.mu.RLock()
	defer repo.store.mu.RUnlock()

	var out []*entity.DelayedNotification
	for _, item := range repo.store.delayed {
		if item.Status == entity.DelayedPending && !item.DeliverAt.After(now) {
			c := *item
			out = append(out, &c)
		}
	}
	slices.SortStableFunc(out, func(a, b *entity.DelayedNotification) int {
		return a.DeliverAt.Compare(b.DeliverAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (repo *delayedRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to entity.DelayedStatus, reason entity.Reason, at time.Time) (bool, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	for i, item := range repo.store.delayed {
		if item.ID != id {
			continue
		}
		if item.Status != from {
			return false, nil
		}
		c := *item
		c.Status = to
		c.Reason = reason
		c.UpdatedAt = at
		repo.store.delayed[i] = &c

		return true, nil
	}

	return false, nil
}
