package repository

import (
	"context"

	"kinwatch/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for push endpoint persistence.
var (
	// ErrEndpointNotFound is returned when a push endpoint is not found.
	ErrEndpointNotFound = errors.New("push endpoint not found")
	// ErrDuplicateEndpoint is returned when trying to create an endpoint that already exists.
	ErrDuplicateEndpoint = errors.New("push endpoint already exists")
)

// PushEndpointRepository defines the interface for push endpoint database operations.
type PushEndpointRepository interface {
	// Create persists a new endpoint for a recipient.
	Create(ctx context.Context, endpoint *entity.PushEndpoint) error

	// FindByID retrieves an endpoint by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.PushEndpoint, error)

	// FindByRecipient retrieves all endpoints for a recipient (including inactive).
	FindByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*entity.PushEndpoint, error)

	// FindActiveByRecipient retrieves all active endpoints for a recipient.
	FindActiveByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*entity.PushEndpoint, error)

	// UpdateToken refreshes the token of an endpoint and reactivates it.
	UpdateToken(ctx context.Context, id uuid.UUID, token string) error

	// Deactivate marks an endpoint inactive without removing it.
	Deactivate(ctx context.Context, id uuid.UUID) error

	// DeleteByToken removes every endpoint of a recipient carrying the token.
	// It returns ErrEndpointNotFound when nothing matched.
	DeleteByToken(ctx context.Context, recipientID uuid.UUID, token string) error
}
