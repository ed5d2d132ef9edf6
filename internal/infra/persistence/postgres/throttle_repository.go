package postgres

import (
	"context"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/repository"
	"kinwatch/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// throttleRepository implements the repository.ThrottleRepository interface.
type throttleRepository struct {
	db *gorm.DB
}

// NewThrottleRepository is the constructor for throttleRepository.
func NewThrottleRepository(db *gorm.DB) repository.ThrottleRepository {
	return &throttleRepository{
		db: db,
	}
}

// Find reads the primary; replica lag would let a duplicate through.
func (repo *throttleRepository) Find(ctx context.Context, recipientID uuid.UUID, kind entity.ThrottleKind, subject string) (*entity.ThrottleRecord, error) {
	var recordM model.ThrottleRecordModel

	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("recipient_id = ? AND kind = ? AND subject = ?", recipientID, string(kind), subject).
		First(&recordM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrThrottleRecordNotFound
		}

		return nil, errors.Wrap(err, "failed to find throttle record")
	}

	return &entity.ThrottleRecord{
		RecipientID:   recordM.RecipientID,
		Kind:          entity.ThrottleKind(recordM.Kind),
		Subject:       recordM.Subject,
		Discriminator: recordM.Discriminator,
		ThresholdHrs:  recordM.ThresholdHrs,
		LastSentAt:    recordM.LastSentAt,
	}, nil
}

// Upsert writes the record; the last write wins.
func (repo *throttleRepository) Upsert(ctx context.Context, record *entity.ThrottleRecord) error {
	recordM := &model.ThrottleRecordModel{
		RecipientID:   record.RecipientID,
		Kind:          string(record.Kind),
		Subject:       record.Subject,
		Discriminator: record.Discriminator,
		ThresholdHrs:  record.ThresholdHrs,
		LastSentAt:    record.LastSentAt,
	}

	if err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "recipient_id"}, {Name: "kind"}, {Name: "subject"}},
			DoUpdates: clause.AssignmentColumns([]string{"discriminator", "threshold_hrs", "last_sent_at"}),
		}).
		Create(recordM).Error; err != nil {
		return errors.Wrap(err, "failed to upsert throttle record")
	}

	return nil
}
