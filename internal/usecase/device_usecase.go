package usecase

import (
	"context"

	"kinwatch/internal/domain/entity"

	"github.com/google/uuid"
)

// EndpointInfo represents push endpoint information for registration
type EndpointInfo struct {
	Token    string `json:"token"`
	DeviceID string `json:"device_id"`
	Platform string `json:"platform"`
}

// DeviceUsecase manages the push endpoints that the push channel delivers to
type DeviceUsecase interface {
	// RegisterEndpoint registers a new endpoint or refreshes the token of an existing device
	RegisterEndpoint(ctx context.Context, recipientID uuid.UUID, info *EndpointInfo) (*entity.PushEndpoint, error)

	// UpdateToken updates the token for a specific endpoint
	UpdateToken(ctx context.Context, recipientID, endpointID uuid.UUID, token string) error

	// ListEndpoints retrieves all active endpoints for a recipient
	ListEndpoints(ctx context.Context, recipientID uuid.UUID) ([]*entity.PushEndpoint, error)

	// DeactivateEndpoint stops delivering to an endpoint
	DeactivateEndpoint(ctx context.Context, recipientID, endpointID uuid.UUID) error

	// RemoveInvalidTokens deletes endpoints the push provider reported as permanently invalid
	RemoveInvalidTokens(ctx context.Context, recipientID uuid.UUID, tokens []string) int
}
