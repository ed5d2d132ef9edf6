package impl

import (
	"context"
	"log/slog"

	deliverycontext "kinwatch/internal/delivery/context"
	"kinwatch/internal/domain/entity"
	domainerrors "kinwatch/internal/domain/errors"
	"kinwatch/internal/domain/policy"
	"kinwatch/internal/domain/repository"
	"kinwatch/internal/domain/service"
	"kinwatch/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type preferenceService struct {
	txManager     repository.TransactionManager
	prefRepo      repository.PreferenceRepository
	recipientRepo repository.RecipientRepository
	clock         service.Clock
	logger        *slog.Logger
}

// PreferenceServiceParams holds dependencies for PreferenceService, injected by Fx.
type PreferenceServiceParams struct {
	fx.In

	TxManager     repository.TransactionManager
	PrefRepo      repository.PreferenceRepository
	RecipientRepo repository.RecipientRepository
	Clock         service.Clock
	Logger        *slog.Logger
}

// NewPreferenceService creates the preference service.
func NewPreferenceService(params PreferenceServiceParams) usecase.PreferenceUsecase {
	return &preferenceService{
		txManager:     params.TxManager,
		prefRepo:      params.PrefRepo,
		recipientRepo: params.RecipientRepo,
		clock:         params.Clock,
		logger:        params.Logger,
	}
}

func (srv *preferenceService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetPreferences returns the stored record merged with role defaults. The first
// read creates the record atomically.
func (srv *preferenceService) GetPreferences(ctx context.Context, recipientID uuid.UUID) (*entity.Preferences, error) {
	prefs, err := srv.prefRepo.Find(ctx, recipientID)
	if errors.Is(err, repository.ErrPreferencesNotFound) {
		return srv.createDefaults(ctx, recipientID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load preferences")
	}

	prefs.MergeDefaults(entity.DefaultPreferences(&entity.Recipient{
		ID:       prefs.RecipientID,
		Role:     prefs.Role,
		Timezone: prefs.Timezone,
	}, prefs.CreatedAt))

	return prefs, nil
}

func (srv *preferenceService) createDefaults(ctx context.Context, recipientID uuid.UUID) (*entity.Preferences, error) {
	recipient, err := srv.recipientRepo.FindByID(ctx, recipientID)
	if errors.Is(err, repository.ErrRecipientNotFound) {
		return nil, domainerrors.ErrRecipientNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recipient")
	}

	defaults := entity.DefaultPreferences(recipient, srv.clock.Now())
	stored, err := srv.prefRepo.CreateIfAbsent(ctx, defaults)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create default preferences")
	}

	srv.log(ctx).Debug("Created default preferences", slog.String("recipientID", recipientID.String()), slog.String("role", recipient.Role.String()))

	return stored, nil
}

// UpdatePreferences applies a partial update inside a transaction.
func (srv *preferenceService) UpdatePreferences(ctx context.Context, recipientID uuid.UUID, update *entity.PreferencesUpdate) (*entity.Preferences, error) {
	if err := validatePreferencesUpdate(update); err != nil {
		return nil, err
	}

	// ensure the record exists before locking it for the write
	if _, err := srv.GetPreferences(ctx, recipientID); err != nil {
		return nil, err
	}

	var updated *entity.Preferences
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		prefRepo := repoFactory.NewPreferenceRepository()

		prefs, err := prefRepo.Find(ctx, recipientID)
		if err != nil {
			return errors.Wrap(err, "failed to load preferences")
		}
		update.Apply(prefs, srv.clock.Now())
		if err := prefRepo.Update(ctx, prefs); err != nil {
			return errors.Wrap(err, "failed to update preferences")
		}
		updated = prefs

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to update preferences", slog.String("recipientID", recipientID.String()), slog.Any("error", err))

		return nil, err
	}

	return updated, nil
}

func validatePreferencesUpdate(update *entity.PreferencesUpdate) error {
	if update == nil {
		return domainerrors.ErrInvalidPreferences
	}
	for c := range update.Categories {
		if !c.IsValid() || c == entity.CategoryDigest {
			return domainerrors.ErrInvalidPreferences.WithDetails("unknown category " + string(c))
		}
	}
	if update.MediumMode != nil && !update.MediumMode.IsValid() {
		return domainerrors.ErrInvalidPreferences.WithDetails("medium_mode must be immediate, digest or off")
	}
	if update.QuietHours != nil && !policy.ValidQuietHours(*update.QuietHours) {
		return domainerrors.ErrInvalidPreferences.WithDetails("quiet hours must use HH:MM")
	}

	return nil
}
