package memory

import (
	"context"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/repository"

	"github.com/google/uuid"
)

type preferenceRepository struct {
	store *Store
}

// NewPreferenceRepository is the constructor for the in-memory PreferenceRepository.
func NewPreferenceRepository(store *Store) repository.PreferenceRepository {
	return &preferenceRepository{store: store}
}

func (repo *preferenceRepository) Find(_ context.Context, recipientID uuid.UUID) (*entity.Preferences, error) {
	repo.store.mu.RLock()
	defer repo.store.mu.RUnlock()

	p, ok := repo.store.preferences[recipientID]
	if !ok {
		return nil, repository.ErrPreferencesNotFound
	}

	return p.Clone(), nil
}

func (repo *preferenceRepository) CreateIfAbsent(_ context.Context, prefs *entity.Preferences) (*entity.Preferences, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	if existing, ok := repo.store.preferences[prefs.RecipientID]; ok {
		return existing.Clone(), nil
	}
	repo.store.preferences[prefs.RecipientID] = prefs.Clone()

	return prefs.Clone(), nil
}

func (repo *preferenceRepository) Update(_ context.Context, prefs *entity.Preferences) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	if _, ok := repo.store.preferences[prefs.RecipientID]; !ok {
		return repository.ErrPreferencesNotFound
	}
	repo.store.preferences[prefs.RecipientID] = prefs.Clone()

	return nil
}
