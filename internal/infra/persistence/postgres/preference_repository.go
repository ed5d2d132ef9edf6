package postgres

import (
	"context"

	"kinwatch/internal/domain/entity"
	domainerrors "kinwatch/internal/domain/errors"
	"kinwatch/internal/domain/repository"
	"kinwatch/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// preferenceRepository implements the repository.PreferenceRepository interface.
type preferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository is the constructor for preferenceRepository.
func NewPreferenceRepository(db *gorm.DB) repository.PreferenceRepository {
	return &preferenceRepository{
		db: db,
	}
}

// Find retrieves the stored record for a recipient.
func (repo *preferenceRepository) Find(ctx context.Context, recipientID uuid.UUID) (*entity.Preferences, error) {
	return repo.find(repo.db.WithContext(ctx), recipientID)
}

// CreateIfAbsent inserts the defaults with ON CONFLICT DO NOTHING and reads the
// winning row back from the primary, so concurrent first reads agree.
func (repo *preferenceRepository) CreateIfAbsent(ctx context.Context, prefs *entity.Preferences) (*entity.Preferences, error) {
	prefM := fromPreferenceDomain(prefs)

	if err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "recipient_id"}}, DoNothing: true}).
		Create(prefM).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to create preferences")
	}

	return repo.find(repo.db.WithContext(ctx).Clauses(dbresolver.Write), prefs.RecipientID)
}

// Update replaces the stored record.
func (repo *preferenceRepository) Update(ctx context.Context, prefs *entity.Preferences) error {
	prefM := fromPreferenceDomain(prefs)

	result := repo.db.WithContext(ctx).
		Model(&model.PreferenceModel{}).
		Where("recipient_id = ?", prefs.RecipientID).
		Select("*").
		Omit("recipient_id", "created_at").
		Updates(prefM)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update preferences")
	}

	if result.RowsAffected == 0 {
		return repository.ErrPreferencesNotFound
	}

	return nil
}

func (repo *preferenceRepository) find(db *gorm.DB, recipientID uuid.UUID) (*entity.Preferences, error) {
	var prefM model.PreferenceModel

	if err := db.Where("recipient_id = ?", recipientID).First(&prefM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPreferencesNotFound
		}

		return nil, errors.Wrap(err, "failed to find preferences")
	}

	return toPreferenceDomain(&prefM), nil
}

// --- Mapper Functions ---

func toPreferenceDomain(data *model.PreferenceModel) *entity.Preferences {
	if data == nil {
		return nil
	}

	return &entity.Preferences{
		RecipientID:      data.RecipientID,
		Role:             entity.Role(data.Role),
		Categories:       data.Categories.Data(),
		CriticalEnabled:  data.CriticalEnabled,
		MediumMode:       entity.MediumMode(data.MediumMode),
		LowEnabled:       data.LowEnabled,
		QuietHours:       data.QuietHours.Data(),
		Channels:         data.Channels.Data(),
		SecurityChannels: data.SecurityChannels.Data(),
		Timezone:         data.Timezone,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}
}

func fromPreferenceDomain(data *entity.Preferences) *model.PreferenceModel {
	if data == nil {
		return nil
	}

	return &model.PreferenceModel{
		RecipientID:      data.RecipientID,
		Role:             string(data.Role),
		Categories:       datatypes.NewJSONType(data.Categories),
		CriticalEnabled:  data.CriticalEnabled,
		MediumMode:       string(data.MediumMode),
		LowEnabled:       data.LowEnabled,
		QuietHours:       datatypes.NewJSONType(data.QuietHours),
		Channels:         datatypes.NewJSONType(data.Channels),
		SecurityChannels: datatypes.NewJSONType(data.SecurityChannels),
		Timezone:         data.Timezone,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}
}
