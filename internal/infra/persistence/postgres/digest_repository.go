package postgres

import (
	"context"
	"time"

	"kinwatch/internal/domain/entity"
	domainerrors "kinwatch/internal/domain/errors"
	"kinwatch/internal/domain/repository"
	"kinwatch/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// digestRepository implements the repository.DigestRepository interface.
type digestRepository struct {
	db *gorm.DB
}

// NewDigestRepository is the constructor for digestRepository.
func NewDigestRepository(db *gorm.DB) repository.DigestRepository {
	return &digestRepository{
		db: db,
	}
}

// Enqueue appends an item to the digest queue.
func (repo *digestRepository) Enqueue(ctx context.Context, item *entity.DigestItem) error {
	itemM := fromDigestItemDomain(item)

	if err := repo.db.WithContext(ctx).Create(itemM).Error; err != nil {
		if isCheckConstraintViolation(err) {
			return domainerrors.ErrInvalidDigestType.WrapMessage("digest item rejected")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to enqueue digest item")
	}
	item.ID = itemM.ID

	return nil
}

// FindPending returns unprocessed items of a type for a recipient, oldest first.
func (repo *digestRepository) FindPending(ctx context.Context, recipientID uuid.UUID, digestType entity.DigestType) ([]*entity.DigestItem, error) {
	var itemModels []*model.DigestItemModel

	if err := repo.db.WithContext(ctx).
		Where("recipient_id = ? AND digest_type = ? AND processed = ?", recipientID, string(digestType), false).
		Order("queued_at ASC").
		Find(&itemModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find pending digest items")
	}

	items := make([]*entity.DigestItem, 0, len(itemModels))
	for _, itemM := range itemModels {
		items = append(items, toDigestItemDomain(itemM))
	}

	return items, nil
}

// MarkProcessed flags the still-unprocessed items and returns their ids.
// The processed = false guard lets overlapping drains split a batch instead
// of both sending it.
func (repo *digestRepository) MarkProcessed(ctx context.Context, ids []uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var marked []*model.DigestItemModel
	if err := repo.db.WithContext(ctx).
		Model(&marked).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("id IN ? AND processed = ?", ids, false).
		Updates(map[string]any{
			"processed":    true,
			"processed_at": at,
		}).Error; err != nil {
		return nil, errors.Wrap(err, "failed to mark digest items processed")
	}

	out := make([]uuid.UUID, 0, len(marked))
	for _, m := range marked {
		out = append(out, m.ID)
	}

	return out, nil
}

// FindRecipientsWithPending lists recipients holding unprocessed items of a type.
func (repo *digestRepository) FindRecipientsWithPending(ctx context.Context, digestType entity.DigestType) ([]uuid.UUID, error) {
	var recipientIDs []uuid.UUID

	if err := repo.db.WithContext(ctx).
		Model(&model.DigestItemModel{}).
		Distinct("recipient_id").
		Where("digest_type = ? AND processed = ?", string(digestType), false).
		Pluck("recipient_id", &recipientIDs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find recipients with pending digests")
	}

	return recipientIDs, nil
}

// HasProcessedSince reports whether an item of the type was processed for the recipient since the given time.
func (repo *digestRepository) HasProcessedSince(ctx context.Context, recipientID uuid.UUID, digestType entity.DigestType, since time.Time) (bool, error) {
	var count int64

	if err := repo.db.WithContext(ctx).
		Model(&model.DigestItemModel{}).
		Where("recipient_id = ? AND digest_type = ? AND processed = ? AND processed_at >= ?", recipientID, string(digestType), true, since).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check processed digests")
	}

	return count > 0, nil
}

// --- Mapper Functions ---

func toDigestItemDomain(data *model.DigestItemModel) *entity.DigestItem {
	if data == nil {
		return nil
	}

	return &entity.DigestItem{
		ID:            data.ID,
		RecipientID:   data.RecipientID,
		FamilyID:      data.FamilyID,
		SourceEventID: data.SourceEventID,
		ChildID:       data.ChildID,
		ChildName:     data.ChildName,
		Severity:      entity.Severity(data.Severity),
		Category:      entity.Category(data.Category),
		QueuedAt:      data.QueuedAt,
		DigestType:    entity.DigestType(data.DigestType),
		Processed:     data.Processed,
		ProcessedAt:   data.ProcessedAt,
	}
}

func fromDigestItemDomain(data *entity.DigestItem) *model.DigestItemModel {
	if data == nil {
		return nil
	}

	return &model.DigestItemModel{
		ID:            data.ID,
		RecipientID:   data.RecipientID,
		FamilyID:      data.FamilyID,
		SourceEventID: data.SourceEventID,
		ChildID:       data.ChildID,
		ChildName:     data.ChildName,
		Severity:      string(data.Severity),
		Category:      string(data.Category),
		QueuedAt:      data.QueuedAt,
		DigestType:    string(data.DigestType),
		Processed:     data.Processed,
		ProcessedAt:   data.ProcessedAt,
	}
}
