package postgres

import (
	"context"
	"encoding/json"
	"time"

	"kinwatch/internal/domain/entity"
	domainerrors "kinwatch/internal/domain/errors"
	"kinwatch/internal/domain/repository"
	"kinwatch/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// delayedRepository implements the repository.DelayedRepository interface.
type delayedRepository struct {
	db *gorm.DB
}

// NewDelayedRepository is the constructor for delayedRepository.
func NewDelayedRepository(db *gorm.DB) repository.DelayedRepository {
	return &delayedRepository{
		db: db,
	}
}

// Create persists a pending item with its event serialized as JSON.
func (repo *delayedRepository) Create(ctx context.Context, item *entity.DelayedNotification) error {
	payload, err := json.Marshal(item.Event)
	if err != nil {
		return errors.Wrap(err, "failed to encode delayed event")
	}

	itemM := &model.DelayedNotificationModel{
		ID:          item.ID,
		RecipientID: item.RecipientID,
		FamilyID:    item.FamilyID,
		Category:    string(item.Category),
		Event:       datatypes.JSON(payload),
		DeliverAt:   item.DeliverAt,
		Status:      string(item.Status),
		Reason:      string(item.Reason),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}

	if err := repo.db.WithContext(ctx).Create(itemM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create delayed notification")
	}
	item.ID = itemM.ID

	return nil
}

// FindDue returns pending items with DeliverAt at or before now, oldest first.
func (repo *delayedRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*entity.DelayedNotification, error) {
	var itemModels []*model.DelayedNotificationModel

	query := repo.db.WithContext(ctx).
		Where("status = ? AND deliver_at <= ?", string(entity.DelayedPending), now).
		Order("deliver_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&itemModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find due delayed notifications")
	}

	items := make([]*entity.DelayedNotification, 0, len(itemModels))
	for _, itemM := range itemModels {
		items = append(items, toDelayedDomain(itemM))
	}

	return items, nil
}

// UpdateStatus is a compare-and-set on status. Only one of several
// concurrent callers moving the same item out of from gets true.
func (repo *delayedRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.DelayedStatus, reason entity.Reason, at time.Time) (bool, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.DelayedNotificationModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{
			"status":     string(to),
			"reason":     string(reason),
			"updated_at": at,
		})

	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to update delayed notification")
	}

	return result.RowsAffected == 1, nil
}

// toDelayedDomain leaves Event nil when the stored payload does not decode, so
// the drain can settle that row instead of failing the whole batch.
func toDelayedDomain(data *model.DelayedNotificationModel) *entity.DelayedNotification {
	var event *entity.NotificationEvent
	if err := json.Unmarshal(data.Event, &event); err != nil {
		event = nil
	}

	return &entity.DelayedNotification{
		ID:          data.ID,
		RecipientID: data.RecipientID,
		FamilyID:    data.FamilyID,
		Category:    entity.Category(data.Category),
		Event:       event,
		DeliverAt:   data.DeliverAt,
		Status:      entity.DelayedStatus(data.Status),
		Reason:      entity.Reason(data.Reason),
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}
