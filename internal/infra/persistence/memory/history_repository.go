package memory

import (
	"context"
	"time"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/repository"

	"github.com/google/uuid"
)

type historyRepository struct {
	store *Store
}

// NewHistoryRepository is the constructor for the in-memory HistoryRepository.
func NewHistoryRepository(store *Store) repository.HistoryRepository {
	return &historyRepository{store: store}
}

func (repo *historyRepository) Append(ctx context.Context, entry *entity.HistoryEntry) error {
	return repo.BatchAppend(ctx, []*entity.HistoryEntry{entry})
}

func (repo *historyRepository) BatchAppend(_ context.Context, entries []*entity.HistoryEntry) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	for _, e := range entries {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		c := *e
		repo.store.history = append(repo.store.history, &c)
	}

	return nil
}

func (repo *historyRepository) HasSentSince(_ context.Context, recipientID uuid.UUID, dedupKey string, since time.Time) (bool, error) {
	repo.store.mu.RLock()
	defer repo.store.mu.RUnlock()

	for _, e := range repo.store.history {
		if e.RecipientID == recipientID && e.DedupKey == dedupKey &&
			e.Status == entity.StatusSent && !e.CreatedAt.Before(since) {
			return true, nil
		}
	}

	return false, nil
}

func (repo *historyRepository) ListByRecipient(_ context.Context, recipientID uuid.UUID, limit int) ([]*entity.HistoryEntry, error) {
	repo.store.mu.RLock()
	defer repo.store.mu.RUnlock()

	var out []*entity.HistoryEntry
	for i := len(repo.store.history) - 1; i >= 0; i-- {
		e := repo.store.history[i]
		if e.RecipientID != recipientID {
			continue
		}
		c := *e
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out, nil
}
