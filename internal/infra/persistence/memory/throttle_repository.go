package memory

import (
	"context"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/repository"

	"github.com/google/uuid"
)

type throttleRepository struct {
	store *Store
}

// NewThrottleRepository is the constructor for the in-memory ThrottleRepository.
func NewThrottleRepository(store *Store) repository.ThrottleRepository {
	return &throttleRepository{store: store}
}

func (repo *throttleRepository) Find(_ context.Context, recipientID uuid.UUID, kind entity.ThrottleKind, subject string) (*entity.ThrottleRecord, error) {
	repo.store.mu.RLock()
	defer repo.store.mu.RUnlock()

	rec, ok := repo.store.throttles[throttleKey{recipientID, kind, subject}]
	if !ok {
		return nil, repository.ErrThrottleRecordNotFound
	}
	out := *rec

	return &out, nil
}

func (repo *throttleRepository) Upsert(_ context.Context, record *entity.ThrottleRecord) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	c := *record
	repo.store.throttles[throttleKey{record.RecipientID, record.Kind, record.Subject}] = &c

	return nil
}
