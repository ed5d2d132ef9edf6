package postgres

import (
	"context"

	"kinwatch/internal/domain/entity"
	domainerrors "kinwatch/internal/domain/errors"
	"kinwatch/internal/domain/repository"
	"kinwatch/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// pushEndpointRepository implements the repository.PushEndpointRepository interface.
type pushEndpointRepository struct {
	db *gorm.DB
}

// NewPushEndpointRepository is the constructor for pushEndpointRepository.
func NewPushEndpointRepository(db *gorm.DB) repository.PushEndpointRepository {
	return &pushEndpointRepository{
		db: db,
	}
}

// Create persists a new endpoint for a recipient.
func (repo *pushEndpointRepository) Create(ctx context.Context, endpoint *entity.PushEndpoint) error {
	endpointM := fromPushEndpointDomain(endpoint)

	if err := repo.db.WithContext(ctx).Create(endpointM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateEndpoint
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrRecipientNotFound.WrapMessage("invalid recipient reference")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required endpoint information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create push endpoint")
	}

	// Update the entity with generated values
	endpoint.ID = endpointM.ID
	endpoint.CreatedAt = endpointM.CreatedAt
	endpoint.UpdatedAt = endpointM.UpdatedAt

	return nil
}

// FindByID retrieves an endpoint by its unique ID.
func (repo *pushEndpointRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PushEndpoint, error) {
	var endpointM model.PushEndpointModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&endpointM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrEndpointNotFound
		}

		return nil, errors.Wrap(err, "failed to find push endpoint by ID")
	}

	return toPushEndpointDomain(&endpointM), nil
}

// FindByRecipient retrieves all endpoints of a recipient, including inactive ones.
func (repo *pushEndpointRepository) FindByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*entity.PushEndpoint, error) {
	return repo.find(ctx, repo.db.Where("recipient_id = ?", recipientID))
}

// FindActiveByRecipient retrieves the active endpoints of a recipient.
func (repo *pushEndpointRepository) FindActiveByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*entity.PushEndpoint, error) {
	return repo.find(ctx, repo.db.Where("recipient_id = ? AND is_active = ?", recipientID, true))
}

func (repo *pushEndpointRepository) find(ctx context.Context, scope *gorm.DB) ([]*entity.PushEndpoint, error) {
	var endpointModels []*model.PushEndpointModel

	if err := scope.WithContext(ctx).
		Order("created_at DESC").
		Find(&endpointModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find push endpoints")
	}

	endpoints := make([]*entity.PushEndpoint, 0, len(endpointModels))
	for _, endpointM := range endpointModels {
		endpoints = append(endpoints, toPushEndpointDomain(endpointM))
	}

	return endpoints, nil
}

// UpdateToken refreshes the token of an endpoint and reactivates it.
func (repo *pushEndpointRepository) UpdateToken(ctx context.Context, id uuid.UUID, token string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.PushEndpointModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"token":     token,
			"is_active": true,
		})

	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return repository.ErrDuplicateEndpoint
		}

		return errors.Wrap(result.Error, "failed to update push token")
	}

	if result.RowsAffected == 0 {
		return repository.ErrEndpointNotFound
	}

	return nil
}

// Deactivate marks an endpoint inactive.
func (repo *pushEndpointRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Model(&model.PushEndpointModel{}).
		Where("id = ?", id).
		Update("is_active", false)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to deactivate push endpoint")
	}

	if result.RowsAffected == 0 {
		return repository.ErrEndpointNotFound
	}

	return nil
}

// DeleteByToken removes the recipient's endpoints carrying the token.
func (repo *pushEndpointRepository) DeleteByToken(ctx context.Context, recipientID uuid.UUID, token string) error {
	result := repo.db.WithContext(ctx).
		Where("recipient_id = ? AND token = ?", recipientID, token).
		Delete(&model.PushEndpointModel{})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete push endpoint")
	}

	if result.RowsAffected == 0 {
		return repository.ErrEndpointNotFound
	}

	return nil
}

// --- Mapper Functions ---

// toPushEndpointDomain converts a GORM PushEndpointModel to a domain PushEndpoint entity.
func toPushEndpointDomain(data *model.PushEndpointModel) *entity.PushEndpoint {
	if data == nil {
		return nil
	}

	return &entity.PushEndpoint{
		ID:          data.ID,
		RecipientID: data.RecipientID,
		Token:       data.Token,
		DeviceID:    data.DeviceID,
		Platform:    data.Platform,
		IsActive:    data.IsActive,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

// fromPushEndpointDomain converts a domain PushEndpoint entity to a GORM PushEndpointModel.
func fromPushEndpointDomain(data *entity.PushEndpoint) *model.PushEndpointModel {
	if data == nil {
		return nil
	}

	return &model.PushEndpointModel{
		ID:          data.ID,
		RecipientID: data.RecipientID,
		Token:       data.Token,
		DeviceID:    data.DeviceID,
		Platform:    data.Platform,
		IsActive:    data.IsActive,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}
