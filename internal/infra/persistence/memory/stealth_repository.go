package memory

import (
	"context"
	"time"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/repository"

	"github.com/google/uuid"
)

type stealthQueueRepository struct {
	store *Store
}

// NewStealthQueueRepository is the constructor for the in-memory StealthQueueRepository.
func NewStealthQueueRepository(store *Store) repository.StealthQueueRepository {
	return &stealthQueueRepository{store: store}
}

func (repo *stealthQueueRepository) Create(_ context.Context, entry *entity.StealthQueueEntry) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	c := *entry
	repo.store.stealthQ = append(repo.store.stealthQ, &c)

	return nil
}

func (repo *stealthQueueRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	kept := repo.store.stealthQ[:0:0]
	var removed int64
	for _, e := range repo.store.stealthQ {
		if !e.ExpiresAt.After(now) {
			removed++

			continue
		}
		kept = append(kept, e)
	}
	repo.store.stealthQ = kept

	return removed, nil
}

type adminAuditRepository struct {
	store *Store
}

// NewAdminAuditRepository is the constructor for the in-memory AdminAuditRepository.
func NewAdminAuditRepository(store *Store) repository.AdminAuditRepository {
	return &adminAuditRepository{store: store}
}

func (repo *adminAuditRepository) Create(_ context.Context, entry *entity.AdminAuditEntry) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	c := *entry
	repo.store.audit = append(repo.store.audit, &c)

	return nil
}
