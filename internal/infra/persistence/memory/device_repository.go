package memory

import (
	"context"
	"slices"
	"time"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/repository"

	"github.com/google/uuid"
)

type pushEndpointRepository struct {
	store *Store
}

// NewPushEndpointRepository is the constructor for the in-memory PushEndpointRepository.
func NewPushEndpointRepository(store *Store) repository.PushEndpointRepository {
	return &pushEndpointRepository{store: store}
}

func (repo *pushEndpointRepository) Create(_ context.Context, endpoint *entity.PushEndpoint) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	for _, e := range repo.store.endpoints {
		if e.RecipientID == endpoint.RecipientID && e.DeviceID == endpoint.DeviceID {
			return repository.ErrDuplicateEndpoint
		}
	}
	if endpoint.ID == uuid.Nil {
		endpoint.ID = uuid.New()
	}
	c := *endpoint
	repo.store.endpoints[endpoint.ID] = &c

	return nil
}

func (repo *pushEndpointRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.PushEndpoint, error) {
	repo.store.mu.RLock()
	defer repo.store.mu.RUnlock()

	e, ok := repo.store.endpoints[id]
	if !ok {
		return nil, repository.ErrEndpointNotFound
	}
	c := *e

	return &c, nil
}

func (repo *pushEndpointRepository) find(recipientID uuid.UUID, activeOnly bool) []*entity.PushEndpoint {
	repo.store.mu.RLock()
	defer repo.store.mu.RUnlock()

	var out []*entity.PushEndpoint
	for _, e := range repo.store.endpoints {
		if e.RecipientID == recipientID && (!activeOnly || e.IsActive) {
			c := *e
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *entity.PushEndpoint) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return out
}

func (repo *pushEndpointRepository) FindByRecipient(_ context.Context, recipientID uuid.UUID) ([]*entity.PushEndpoint, error) {
	return repo.find(recipientID, false), nil
}

func (repo *pushEndpointRepository) FindActiveByRecipient(_ context.Context, recipientID uuid.UUID) ([]*entity.PushEndpoint, error) {
	return repo.find(recipientID, true), nil
}

func (repo *pushEndpointRepository) UpdateToken(_ context.Context, id uuid.UUID, token string) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	e, ok := repo.store.endpoints[id]
	if !ok {
		return repository.ErrEndpointNotFound
	}
	c := *e
	c.Token = token
	c.IsActive = true
	c.UpdatedAt = time.Now().UTC()
	repo.store.endpoints[id] = &c

	return nil
}

func (repo *pushEndpointRepository) Deactivate(_ context.Context, id uuid.UUID) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	e, ok := repo.store.endpoints[id]
	if !ok {
		return repository.ErrEndpointNotFound
	}
	c := *e
	c.IsActive = false
	c.UpdatedAt = time.Now().UTC()
	repo.store.endpoints[id] = &c

	return nil
}

func (repo *pushEndpointRepository) DeleteByToken(_ context.Context, recipientID uuid.UUID, token string) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	deleted := false
	for id, e := range repo.store.endpoints {
		if e.RecipientID == recipientID && e.Token == token {
			delete(repo.store.endpoints, id)
			deleted = true
		}
	}
	if !deleted {
		return repository.ErrEndpointNotFound
	}

	return nil
}
