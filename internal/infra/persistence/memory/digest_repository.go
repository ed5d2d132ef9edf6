package memory

import (
	"context"
	"slices"
	"time"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/repository"

	"github.com/google/uuid"
)

type digestRepository struct {
	store *Store
}

// NewDigestRepository is the constructor for the in-memory DigestRepository.
func NewDigestRepository(store *Store) repository.DigestRepository {
	return &digestRepository{store: store}
}

func (repo *digestRepository) Enqueue(_ context.Context, item *entity.DigestItem) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	c := *item
	repo.store.digest = append(repo.store.digest, &c)

	return nil
}

func (repo *digestRepository) FindPending(_ context.Context, recipientID uuid.UUID, digestType entity.DigestType) ([]*entity.DigestItem, error) {
	repo.store.mu.RLock()
	defer repo.store.mu.RUnlock()

	var out []*entity.DigestItem
	for _, item := range repo.store.digest {
		if item.RecipientID == recipientID && item.DigestType == digestType && !item.Processed {
			c := *item
			out = append(out, &c)
		}
	}
	slices.SortStableFunc(out, func(a, b *entity.DigestItem) int {
		return a.QueuedAt.Compare(b.QueuedAt)
	})

	return out, nil
}

func (repo *digestRepository) MarkProcessed(_ context.Context, ids []uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	var marked []uuid.UUID
	for i, item := range repo.store.digest {
		if item.Processed || !slices.Contains(ids, item.ID) {
			continue
		}
		c := *item
		c.Processed = true
		processedAt := at
		c.ProcessedAt = &processedAt
		repo.store.digest[i] = &c
		marked = append(marked, item.ID)
	}

	return marked, nil
}

func (repo *digestRepository) FindRecipientsWithPending(_ context.Context, digestType entity.DigestType) ([]uuid.UUID, error) {
	repo.store.mu.RLock()
	defer repo.store.mu.RUnlock()

	var out []uuid.UUID
	for _, item := range repo.store.digest {
		if item.DigestType == digestType && !item.Processed && !slices.Contains(out, item.RecipientID) {
			out = append(out, item.RecipientID)
		}
	}

	return out, nil
}

func (repo *digestRepository) HasProcessedSince(_ context.Context, recipientID uuid.UUID, digestType entity.DigestType, since time.Time) (bool, error) {
	repo.store.mu.RLock()
	defer repo.store.mu.RUnlock()

	for _, item := range repo.store.digest {
		if item.RecipientID == recipientID && item.DigestType == digestType &&
			item.Processed && item.ProcessedAt != nil && !item.ProcessedAt.Before(since) {
			return true, nil
		}
	}

	return false, nil
}
