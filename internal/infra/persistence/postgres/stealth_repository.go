package postgres

import (
	"context"
	"time"

	"kinwatch/internal/domain/entity"
	domainerrors "kinwatch/internal/domain/errors"
	"kinwatch/internal/domain/repository"
	"kinwatch/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// stealthQueueRepository implements the repository.StealthQueueRepository interface.
type stealthQueueRepository struct {
	db *gorm.DB
}

// NewStealthQueueRepository is the constructor for stealthQueueRepository.
func NewStealthQueueRepository(db *gorm.DB) repository.StealthQueueRepository {
	return &stealthQueueRepository{
		db: db,
	}
}

// Create writes a sealed entry.
func (repo *stealthQueueRepository) Create(ctx context.Context, entry *entity.StealthQueueEntry) error {
	entryM := &model.StealthQueueModel{
		ID:               entry.ID,
		FamilyID:         entry.FamilyID,
		TargetUserID:     entry.TargetUserID,
		NotificationType: string(entry.NotificationType),
		Payload:          datatypes.JSON(entry.Payload),
		CapturedAt:       entry.CapturedAt,
		ExpiresAt:        entry.ExpiresAt,
		TicketID:         entry.TicketID,
	}

	if err := repo.db.WithContext(ctx).Create(entryM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to capture stealth entry")
	}
	entry.ID = entryM.ID

	return nil
}

// DeleteExpired removes entries past their expiry.
func (repo *stealthQueueRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&model.StealthQueueModel{})

	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to purge stealth queue")
	}

	return result.RowsAffected, nil
}

// adminAuditRepository implements the repository.AdminAuditRepository interface.
type adminAuditRepository struct {
	db *gorm.DB
}

// NewAdminAuditRepository is the constructor for adminAuditRepository.
func NewAdminAuditRepository(db *gorm.DB) repository.AdminAuditRepository {
	return &adminAuditRepository{
		db: db,
	}
}

// Create appends an entry to the admin audit trail.
func (repo *adminAuditRepository) Create(ctx context.Context, entry *entity.AdminAuditEntry) error {
	entryM := &model.AdminAuditModel{
		ID:        entry.ID,
		Action:    string(entry.Action),
		FamilyID:  entry.FamilyID,
		TicketID:  entry.TicketID,
		Actor:     entry.Actor,
		Details:   datatypes.JSON(entry.Details),
		CreatedAt: entry.CreatedAt,
	}

	if err := repo.db.WithContext(ctx).Create(entryM).Error; err != nil {
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required audit information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to write admin audit entry")
	}
	entry.ID = entryM.ID

	return nil
}
