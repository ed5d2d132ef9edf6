package impl

import (
	"context"
	"log/slog"
	"slices"
	"time"

	deliverycontext "kinwatch/internal/delivery/context"
	"kinwatch/internal/domain/entity"
	domainerrors "kinwatch/internal/domain/errors"
	"kinwatch/internal/domain/repository"
	"kinwatch/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type deviceService struct {
	endpointRepo repository.PushEndpointRepository
	logger       *slog.Logger
}

// NewDeviceService creates a new push endpoint registry
func NewDeviceService(endpointRepo repository.PushEndpointRepository, logger *slog.Logger) usecase.DeviceUsecase {
	return &deviceService{
		endpointRepo: endpointRepo,
		logger:       logger,
	}
}

// RegisterEndpoint registers a new endpoint or refreshes the token of an existing device
func (s *deviceService) RegisterEndpoint(ctx context.Context, recipientID uuid.UUID, info *usecase.EndpointInfo) (*entity.PushEndpoint, error) {
	endpoints, err := s.endpointRepo.FindByRecipient(ctx, recipientID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find endpoints by recipient")
	}

	// A device re-registering keeps its row and gets the new token
	for _, endpoint := range endpoints {
		if endpoint.DeviceID == info.DeviceID {
			if err := s.endpointRepo.UpdateToken(ctx, endpoint.ID, info.Token); err != nil {
				return nil, errors.Wrap(err, "failed to update endpoint token")
			}
			updated, err := s.endpointRepo.FindByID(ctx, endpoint.ID)
			if err != nil {
				return nil, errors.Wrap(err, "failed to find endpoint by ID")
			}

			return updated, nil
		}
	}

	now := time.Now().UTC()
	endpoint := &entity.PushEndpoint{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Token:       info.Token,
		DeviceID:    info.DeviceID,
		Platform:    info.Platform,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.endpointRepo.Create(ctx, endpoint); err != nil {
		return nil, errors.Wrap(err, "failed to create endpoint")
	}

	return endpoint, nil
}

// UpdateToken updates the token for a specific endpoint
func (s *deviceService) UpdateToken(ctx context.Context, recipientID, endpointID uuid.UUID, token string) error {
	if _, err := s.ownedEndpoint(ctx, recipientID, endpointID); err != nil {
		return err
	}

	if err := s.endpointRepo.UpdateToken(ctx, endpointID, token); err != nil {
		return errors.Wrap(err, "failed to update endpoint token")
	}

	return nil
}

// ListEndpoints retrieves all active endpoints for a recipient
func (s *deviceService) ListEndpoints(ctx context.Context, recipientID uuid.UUID) ([]*entity.PushEndpoint, error) {
	endpoints, err := s.endpointRepo.FindActiveByRecipient(ctx, recipientID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find active endpoints by recipient")
	}

	return endpoints, nil
}

// DeactivateEndpoint stops delivering to an endpoint
func (s *deviceService) DeactivateEndpoint(ctx context.Context, recipientID, endpointID uuid.UUID) error {
	if _, err := s.ownedEndpoint(ctx, recipientID, endpointID); err != nil {
		return err
	}

	if err := s.endpointRepo.Deactivate(ctx, endpointID); err != nil {
		return errors.Wrap(err, "failed to deactivate endpoint")
	}

	return nil
}

// RemoveInvalidTokens deletes each invalid token concurrently and waits for all
// of them. Failures are logged and never returned.
func (s *deviceService) RemoveInvalidTokens(ctx context.Context, recipientID uuid.UUID, tokens []string) int {
	tokens = slices.Compact(slices.Sorted(slices.Values(tokens)))
	removed := make([]bool, len(tokens))

	var g errgroup.Group
	for i, token := range tokens {
		g.Go(func() error {
			err := s.endpointRepo.DeleteByToken(ctx, recipientID, token)
			if errors.Is(err, repository.ErrEndpointNotFound) {
				return nil
			}
			if err != nil {
				deliverycontext.GetLoggerOrDefault(ctx, s.logger).Warn("Failed to remove invalid push endpoint",
					slog.String("recipientID", recipientID.String()),
					slog.Any("error", err),
				)

				return nil
			}
			removed[i] = true

			return nil
		})
	}
	_ = g.Wait()

	count := 0
	for _, ok := range removed {
		if ok {
			count++
		}
	}

	return count
}

func (s *deviceService) ownedEndpoint(ctx context.Context, recipientID, endpointID uuid.UUID) (*entity.PushEndpoint, error) {
	endpoint, err := s.endpointRepo.FindByID(ctx, endpointID)
	if errors.Is(err, repository.ErrEndpointNotFound) {
		return nil, domainerrors.ErrEndpointNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find endpoint by ID")
	}

	if endpoint.RecipientID != recipientID {
		return nil, domainerrors.ErrEndpointOwnershipViolation
	}

	return endpoint, nil
}
