// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"slices"
	"time"

	"kinwatch/internal/domain/entity"
	domainerrors "kinwatch/internal/domain/errors"
	"kinwatch/internal/domain/repository"
	"kinwatch/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// familyRepository implements the repository.FamilyRepository interface.
type familyRepository struct {
	db *gorm.DB
}

// NewFamilyRepository is the constructor for familyRepository.
func NewFamilyRepository(db *gorm.DB) repository.FamilyRepository {
	return &familyRepository{
		db: db,
	}
}

// FindByID retrieves a family by its ID. Reads go to a replica when one is configured.
func (repo *familyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Family, error) {
	var familyM model.FamilyModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&familyM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrFamilyNotFound
		}

		return nil, errors.Wrap(err, "failed to find family by ID")
	}

	return toFamilyDomain(&familyM), nil
}

// FindByIDForUpdate reads the primary and holds a row lock until the transaction ends.
func (repo *familyRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Family, error) {
	var familyM model.FamilyModel

	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write, clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ?", id).
		First(&familyM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrFamilyNotFound
		}

		return nil, errors.Wrap(err, "failed to lock family")
	}

	return toFamilyDomain(&familyM), nil
}

// Create persists a new family.
func (repo *familyRepository) Create(ctx context.Context, family *entity.Family) error {
	familyM := fromFamilyDomain(family)

	if err := repo.db.WithContext(ctx).Create(familyM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("family already exists")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create family")
	}

	family.ID = familyM.ID
	family.CreatedAt = familyM.CreatedAt
	family.UpdatedAt = familyM.UpdatedAt

	return nil
}

// UpdateStealth writes only the stealth columns.
func (repo *familyRepository) UpdateStealth(ctx context.Context, family *entity.Family) error {
	familyM := fromFamilyDomain(family)

	result := repo.db.WithContext(ctx).
		Model(&model.FamilyModel{}).
		Where("id = ?", family.ID).
		Updates(map[string]any{
			"stealth_active":            familyM.StealthActive,
			"stealth_window_start":      familyM.StealthWindowStart,
			"stealth_window_end":        familyM.StealthWindowEnd,
			"stealth_ticket_id":         familyM.StealthTicketID,
			"stealth_affected_user_ids": familyM.StealthAffectedUserIDs,
			"fleeing_mode_activated_at": familyM.FleeingModeActivatedAt,
			"updated_at":                time.Now().UTC(),
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update stealth fields")
	}

	if result.RowsAffected == 0 {
		return repository.ErrFamilyNotFound
	}

	return nil
}

// FindWithExpiredStealth returns families whose window ended at or before now.
func (repo *familyRepository) FindWithExpiredStealth(ctx context.Context, now time.Time) ([]*entity.Family, error) {
	var familyModels []*model.FamilyModel

	if err := repo.db.WithContext(ctx).
		Where("stealth_window_end IS NOT NULL AND stealth_window_end <= ?", now).
		Find(&familyModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find expired stealth windows")
	}

	families := make([]*entity.Family, 0, len(familyModels))
	for _, familyM := range familyModels {
		families = append(families, toFamilyDomain(familyM))
	}

	return families, nil
}

// recipientRepository implements the repository.RecipientRepository interface.
type recipientRepository struct {
	db *gorm.DB
}

// NewRecipientRepository is the constructor for recipientRepository.
func NewRecipientRepository(db *gorm.DB) repository.RecipientRepository {
	return &recipientRepository{
		db: db,
	}
}

// FindByID retrieves a recipient contact record.
func (repo *recipientRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Recipient, error) {
	var recipientM model.RecipientModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&recipientM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRecipientNotFound
		}

		return nil, errors.Wrap(err, "failed to find recipient by ID")
	}

	return toRecipientDomain(&recipientM), nil
}

// FindByFamily returns every recipient of a family holding the role.
func (repo *recipientRepository) FindByFamily(ctx context.Context, familyID uuid.UUID, role entity.Role) ([]*entity.Recipient, error) {
	var recipientModels []*model.RecipientModel

	if err := repo.db.WithContext(ctx).
		Where("family_id = ? AND role = ?", familyID, string(role)).
		Order("created_at ASC").
		Find(&recipientModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find recipients by family")
	}

	recipients := make([]*entity.Recipient, 0, len(recipientModels))
	for _, recipientM := range recipientModels {
		recipients = append(recipients, toRecipientDomain(recipientM))
	}

	return recipients, nil
}

// Upsert creates or replaces the contact record.
func (repo *recipientRepository) Upsert(ctx context.Context, recipient *entity.Recipient) error {
	recipientM := fromRecipientDomain(recipient)

	if err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"family_id", "role", "display_name", "email", "email_verified",
				"phone", "phone_verified", "birth_date", "timezone", "updated_at",
			}),
		}).
		Create(recipientM).Error; err != nil {
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required recipient information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to upsert recipient")
	}

	return nil
}

// --- Mapper Functions ---

func toFamilyDomain(data *model.FamilyModel) *entity.Family {
	if data == nil {
		return nil
	}

	return &entity.Family{
		ID:                     data.ID,
		GuardianIDs:            slices.Clone(data.GuardianIDs),
		ChildIDs:               slices.Clone(data.ChildIDs),
		StealthActive:          data.StealthActive,
		StealthWindowStart:     data.StealthWindowStart,
		StealthWindowEnd:       data.StealthWindowEnd,
		StealthTicketID:        data.StealthTicketID,
		StealthAffectedUserIDs: slices.Clone(data.StealthAffectedUserIDs),
		FleeingModeActivatedAt: data.FleeingModeActivatedAt,
		CreatedAt:              data.CreatedAt,
		UpdatedAt:              data.UpdatedAt,
	}
}

func fromFamilyDomain(data *entity.Family) *model.FamilyModel {
	if data == nil {
		return nil
	}

	return &model.FamilyModel{
		ID:                     data.ID,
		GuardianIDs:            slices.Clone(data.GuardianIDs),
		ChildIDs:               slices.Clone(data.ChildIDs),
		StealthActive:          data.StealthActive,
		StealthWindowStart:     data.StealthWindowStart,
		StealthWindowEnd:       data.StealthWindowEnd,
		StealthTicketID:        data.StealthTicketID,
		StealthAffectedUserIDs: slices.Clone(data.StealthAffectedUserIDs),
		FleeingModeActivatedAt: data.FleeingModeActivatedAt,
		CreatedAt:              data.CreatedAt,
		UpdatedAt:              data.UpdatedAt,
	}
}

func toRecipientDomain(data *model.RecipientModel) *entity.Recipient {
	if data == nil {
		return nil
	}

	return &entity.Recipient{
		ID:            data.ID,
		FamilyID:      data.FamilyID,
		Role:          entity.Role(data.Role),
		DisplayName:   data.DisplayName,
		Email:         data.Email,
		EmailVerified: data.EmailVerified,
		Phone:         data.Phone,
		PhoneVerified: data.PhoneVerified,
		BirthDate:     data.BirthDate,
		Timezone:      data.Timezone,
	}
}

func fromRecipientDomain(data *entity.Recipient) *model.RecipientModel {
	if data == nil {
		return nil
	}

	return &model.RecipientModel{
		ID:            data.ID,
		FamilyID:      data.FamilyID,
		Role:          string(data.Role),
		DisplayName:   data.DisplayName,
		Email:         data.Email,
		EmailVerified: data.EmailVerified,
		Phone:         data.Phone,
		PhoneVerified: data.PhoneVerified,
		BirthDate:     data.BirthDate,
		Timezone:      data.Timezone,
	}
}
