package memory

import (
	"context"
	"slices"
	"time"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/repository"

	"github.com/google/uuid"
)

func cloneFamily(f *entity.Family) *entity.Family {
	out := *f
	out.GuardianIDs = slices.Clone(f.GuardianIDs)
	out.ChildIDs = slices.Clone(f.ChildIDs)
	out.StealthAffectedUserIDs = slices.Clone(f.StealthAffectedUserIDs)

	return &out
}

type familyRepository struct {
	store *Store
}

// NewFamilyRepository is the constructor for the in-memory FamilyRepository.
func NewFamilyRepository(store *Store) repository.FamilyRepository {
	return &familyRepository{store: store}
}

func (repo *familyRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Family, error) {
	repo.store.mu.RLock()
	defer repo.store.mu.RUnlock()

	f, ok := repo.store.families[id]
	if !ok {
		return nil, repository.ErrFamilyNotFound
	}

	return cloneFamily(f), nil
}

// FindByIDForUpdate relies on the transaction manager's lock.
func (repo *familyRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Family, error) {
	return repo.FindByID(ctx, id)
}

func (repo *familyRepository) Create(_ context.Context, family *entity.Family) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	if family.ID == uuid.Nil {
		family.ID = uuid.New()
	}
	repo.store.families[family.ID] = cloneFamily(family)

	return nil
}

func (repo *familyRepository) UpdateStealth(_ context.Context, family *entity.Family) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	current, ok := repo.store.families[family.ID]
	if !ok {
		return repository.ErrFamilyNotFound
	}
	next := cloneFamily(current)
	next.StealthActive = family.StealthActive
	next.StealthWindowStart = family.StealthWindowStart
	next.StealthWindowEnd = family.StealthWindowEnd
	next.StealthTicketID = family.StealthTicketID
	next.StealthAffectedUserIDs = slices.Clone(family.StealthAffectedUserIDs)
	next.FleeingModeActivatedAt = family.FleeingModeActivatedAt
	next.UpdatedAt = time.Now().UTC()
	repo.store.families[family.ID] = next

	return nil
}

func (repo *familyRepository) FindWithExpiredStealth(_ context.Context, now time.Time) ([]*entity.Family, error) {
	repo.store.mu.RLock()
	defer repo.store.mu.RUnlock()

	var out []*entity.Family
	for _, f := range repo.store.families {
		if f.StealthWindowEnd != nil && !f.StealthWindowEnd.After(now) {
			out = append(out, cloneFamily(f))
		}
	}

	return out, nil
}

type recipientRepository struct {
	store *Store
}

// NewRecipientRepository is the constructor for the in-memory RecipientRepository.
func NewRecipientRepository(store *Store) repository.RecipientRepository {
	return &recipientRepository{store: store}
}

func (repo *recipientRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Recipient, error) {
	repo.store.mu.RLock()
	defer repo.store.mu.RUnlock()

	r, ok := repo.store.recipients[id]
	if !ok {
		return nil, repository.ErrRecipientNotFound
	}
	out := *r

	return &out, nil
}

func (repo *recipientRepository) FindByFamily(_ context.Context, familyID uuid.UUID, role entity.Role) ([]*entity.Recipient, error) {
	repo.store.mu.RLock()
	defer repo.store.mu.RUnlock()

	var out []*entity.Recipient
	for _, r := range repo.store.recipients {
		if r.FamilyID == familyID && r.Role == role {
			c := *r
			out = append(out, &c)
		}
	}

	return out, nil
}

func (repo *recipientRepository) Upsert(_ context.Context, recipient *entity.Recipient) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	c := *recipient
	repo.store.recipients[recipient.ID] = &c

	return nil
}
