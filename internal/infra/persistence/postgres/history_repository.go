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
	"gorm.io/plugin/dbresolver"
)

const historyBatchSize = 100

// historyRepository implements the repository.HistoryRepository interface.
type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository is the constructor for historyRepository.
func NewHistoryRepository(db *gorm.DB) repository.HistoryRepository {
	return &historyRepository{
		db: db,
	}
}

// Append writes one entry.
func (repo *historyRepository) Append(ctx context.Context, entry *entity.HistoryEntry) error {
	return repo.BatchAppend(ctx, []*entity.HistoryEntry{entry})
}

// BatchAppend writes several entries in batches.
func (repo *historyRepository) BatchAppend(ctx context.Context, entries []*entity.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	entryModels := make([]*model.HistoryEntryModel, 0, len(entries))
	for _, entry := range entries {
		entryModels = append(entryModels, fromHistoryDomain(entry))
	}

	if err := repo.db.WithContext(ctx).CreateInBatches(entryModels, historyBatchSize).Error; err != nil {
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required history information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to append notification history")
	}

	for i, entryM := range entryModels {
		entries[i].ID = entryM.ID
		entries[i].CreatedAt = entryM.CreatedAt
	}

	return nil
}

// HasSentSince checks the primary for a sent entry carrying the dedup key.
func (repo *historyRepository) HasSentSince(ctx context.Context, recipientID uuid.UUID, dedupKey string, since time.Time) (bool, error) {
	var count int64

	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Model(&model.HistoryEntryModel{}).
		Where("recipient_id = ? AND dedup_key = ? AND status = ? AND created_at >= ?",
			recipientID, dedupKey, string(entity.StatusSent), since).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check notification history")
	}

	return count > 0, nil
}

// ListByRecipient returns the most recent entries for a recipient.
func (repo *historyRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*entity.HistoryEntry, error) {
	var entryModels []*model.HistoryEntryModel

	query := repo.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&entryModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list notification history")
	}

	entries := make([]*entity.HistoryEntry, 0, len(entryModels))
	for _, entryM := range entryModels {
		entries = append(entries, toHistoryDomain(entryM))
	}

	return entries, nil
}

// --- Mapper Functions ---

func toHistoryDomain(data *model.HistoryEntryModel) *entity.HistoryEntry {
	return &entity.HistoryEntry{
		ID:          data.ID,
		RecipientID: data.RecipientID,
		FamilyID:    data.FamilyID,
		EventID:     data.EventID,
		Category:    entity.Category(data.Category),
		Severity:    entity.Severity(data.Severity),
		Channel:     entity.Channel(data.Channel),
		Status:      entity.DeliveryStatus(data.Status),
		Reason:      entity.Reason(data.Reason),
		MessageID:   data.MessageID,
		DedupKey:    data.DedupKey,
		CreatedAt:   data.CreatedAt,
	}
}

func fromHistoryDomain(data *entity.HistoryEntry) *model.HistoryEntryModel {
	return &model.HistoryEntryModel{
		ID:          data.ID,
		RecipientID: data.RecipientID,
		FamilyID:    data.FamilyID,
		EventID:     data.EventID,
		Category:    string(data.Category),
		Severity:    string(data.Severity),
		Channel:     string(data.Channel),
		Status:      string(data.Status),
		Reason:      string(data.Reason),
		MessageID:   data.MessageID,
		DedupKey:    data.DedupKey,
		CreatedAt:   data.CreatedAt,
	}
}
