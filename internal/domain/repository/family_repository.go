// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"kinwatch/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for family persistence.
var (
	// ErrFamilyNotFound is returned when a family document does not exist.
	ErrFamilyNotFound = errors.New("family not found")
	// ErrRecipientNotFound is returned when a recipient contact record does not exist.
	ErrRecipientNotFound = errors.New("recipient not found")
)

// FamilyRepository persists family documents, including their stealth fields.
type FamilyRepository interface {
	// FindByID retrieves a family by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Family, error)

	// FindByIDForUpdate retrieves a family and locks it for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Family, error)

	// Create persists a new family.
	Create(ctx context.Context, family *entity.Family) error

	// UpdateStealth writes only the stealth fields of the family.
	UpdateStealth(ctx context.Context, family *entity.Family) error

	// FindWithExpiredStealth returns families whose stealth window ended at or before now
	// but still carry stealth state.
	FindWithExpiredStealth(ctx context.Context, now time.Time) ([]*entity.Family, error)
}

// RecipientRepository reads guardian and child contact records.
type RecipientRepository interface {
	// FindByID retrieves a recipient by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Recipient, error)

	// FindByFamily returns every recipient of a family with the given role.
	FindByFamily(ctx context.Context, familyID uuid.UUID, role entity.Role) ([]*entity.Recipient, error)

	// Upsert creates or replaces a recipient record.
	Upsert(ctx context.Context, recipient *entity.Recipient) error
}
