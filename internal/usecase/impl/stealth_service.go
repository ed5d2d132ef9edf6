package impl

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	"kinwatch/config"
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

const systemActor = "system"

type stealthService struct {
	txManager      repository.TransactionManager
	familyRepo     repository.FamilyRepository
	stealthQueue   repository.StealthQueueRepository
	clock          service.Clock
	failurePolicy  policy.FailurePolicy
	windowDuration time.Duration
	logger         *slog.Logger
}

// StealthServiceParams holds dependencies for StealthService, injected by Fx.
type StealthServiceParams struct {
	fx.In

	TxManager     repository.TransactionManager
	FamilyRepo    repository.FamilyRepository
	StealthQueue  repository.StealthQueueRepository
	Clock         service.Clock
	FailurePolicy policy.FailurePolicy
	Config        *config.Config
	Logger        *slog.Logger
}

// NewStealthService creates the stealth window manager.
func NewStealthService(params StealthServiceParams) usecase.StealthUsecase {
	return &stealthService{
		txManager:      params.TxManager,
		familyRepo:     params.FamilyRepo,
		stealthQueue:   params.StealthQueue,
		clock:          params.Clock,
		failurePolicy:  params.FailurePolicy,
		windowDuration: params.Config.Notification.WithDefaults().StealthWindowDuration,
		logger:         params.Logger,
	}
}

func (srv *stealthService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Activate opens a window or extends the active one from its current end.
func (srv *stealthService) Activate(ctx context.Context, input *usecase.ActivateStealthInput) (*entity.StealthWindow, error) {
	if input.TicketID == "" {
		return nil, domainerrors.ErrStealthTicketRequired
	}
	if len(input.AffectedUserIDs) == 0 {
		return nil, domainerrors.ErrStealthAffectedUsersRequired
	}

	now := srv.clock.Now()
	var window entity.StealthWindow
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		familyRepo := repoFactory.NewFamilyRepository()

		family, err := familyRepo.FindByIDForUpdate(ctx, input.FamilyID)
		if errors.Is(err, repository.ErrFamilyNotFound) {
			return domainerrors.ErrFamilyNotFound
		}
		if err != nil {
			return errors.Wrap(err, "failed to load family")
		}
		if !familyHasMembers(family, input.AffectedUserIDs) {
			return domainerrors.ErrStealthUserNotInFamily
		}

		current := family.StealthWindow()
		action := entity.AuditStealthActivated
		if current.IsActiveAt(now) {
			action = entity.AuditStealthExtended
			window = current
			window.WindowEnd = current.WindowEnd.Add(srv.windowDuration)
			window.AffectedUserIDs = entity.UnionUserIDs(current.AffectedUserIDs, input.AffectedUserIDs)
			window.TicketID = input.TicketID
		} else {
			window = entity.StealthWindow{
				Active:          true,
				WindowStart:     now,
				WindowEnd:       now.Add(srv.windowDuration),
				TicketID:        input.TicketID,
				AffectedUserIDs: entity.UnionUserIDs(nil, input.AffectedUserIDs),
			}
			activatedAt := now
			family.FleeingModeActivatedAt = &activatedAt
		}
		family.ApplyStealthWindow(window)

		if err := familyRepo.UpdateStealth(ctx, family); err != nil {
			return errors.Wrap(err, "failed to update stealth fields")
		}

		return writeAudit(ctx, repoFactory.NewAdminAuditRepository(), &entity.AdminAuditEntry{
			Action:    action,
			FamilyID:  family.ID,
			TicketID:  input.TicketID,
			Actor:     input.Actor,
			CreatedAt: now,
		}, map[string]any{
			"window_start":   window.WindowStart,
			"window_end":     window.WindowEnd,
			"affected_count": len(window.AffectedUserIDs),
		})
	})
	if err != nil {
		srv.log(ctx).Error("Failed to activate stealth window", slog.String("familyID", input.FamilyID.String()), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Info("Stealth window activated",
		slog.String("familyID", input.FamilyID.String()),
		slog.Time("windowEnd", window.WindowEnd),
		slog.Int("affected", len(window.AffectedUserIDs)),
	)

	return &window, nil
}

// Clear nulls every stealth field. Clearing a family without stealth state is a no-op.
func (srv *stealthService) Clear(ctx context.Context, familyID uuid.UUID, actor string) error {
	now := srv.clock.Now()
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		familyRepo := repoFactory.NewFamilyRepository()

		family, err := familyRepo.FindByIDForUpdate(ctx, familyID)
		if errors.Is(err, repository.ErrFamilyNotFound) {
			return domainerrors.ErrFamilyNotFound
		}
		if err != nil {
			return errors.Wrap(err, "failed to load family")
		}
		if !family.HasStealthState() {
			return nil
		}

		ticketID := family.StealthTicketID
		family.ClearStealth()
		if err := familyRepo.UpdateStealth(ctx, family); err != nil {
			return errors.Wrap(err, "failed to clear stealth fields")
		}

		return writeAudit(ctx, repoFactory.NewAdminAuditRepository(), &entity.AdminAuditEntry{
			Action:    entity.AuditStealthCleared,
			FamilyID:  familyID,
			TicketID:  ticketID,
			Actor:     actor,
			CreatedAt: now,
		}, nil)
	})
	if err != nil {
		return err
	}

	return nil
}

// IsActive reports whether the family's window is active at now.
func (srv *stealthService) IsActive(ctx context.Context, familyID uuid.UUID, now time.Time) (bool, error) {
	family, err := srv.familyRepo.FindByID(ctx, familyID)
	if err != nil {
		return false, errors.Wrap(err, "failed to load family")
	}

	return family.StealthWindow().IsActiveAt(now), nil
}

// ShouldSuppress never suppresses critical safety categories. Read failures
// are resolved by the failure policy.
func (srv *stealthService) ShouldSuppress(ctx context.Context, familyID uuid.UUID, category entity.Category, targetUserID uuid.UUID) bool {
	if category.IsCriticalSafety() {
		return false
	}

	family, err := srv.familyRepo.FindByID(ctx, familyID)
	if errors.Is(err, repository.ErrFamilyNotFound) {
		return false
	}
	if err != nil {
		suppress := srv.failurePolicy.SuppressOnReadError()
		srv.log(ctx).Warn("Stealth state unavailable, applying failure policy",
			slog.String("familyID", familyID.String()),
			slog.Bool("suppress", suppress),
			slog.Any("error", err),
		)

		return suppress
	}

	window := family.StealthWindow()

	return window.IsActiveAt(srv.clock.Now()) && window.Affects(targetUserID)
}

// Capture writes the suppressed event into the sealed queue.
func (srv *stealthService) Capture(ctx context.Context, event *entity.NotificationEvent) error {
	family, err := srv.familyRepo.FindByID(ctx, event.FamilyID)
	if err != nil {
		return errors.Wrap(err, "failed to load family for capture")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to encode captured event")
	}

	now := srv.clock.Now()
	entry := &entity.StealthQueueEntry{
		ID:               uuid.New(),
		FamilyID:         event.FamilyID,
		TargetUserID:     event.RecipientID,
		NotificationType: event.Category,
		Payload:          payload,
		CapturedAt:       now,
		ExpiresAt:        now.Add(srv.windowDuration),
		TicketID:         family.StealthTicketID,
	}
	if err := srv.stealthQueue.Create(ctx, entry); err != nil {
		return errors.Wrap(err, "failed to write stealth queue entry")
	}

	return nil
}

// ExpireStealthWindows clears windows that have ended and purges expired captures.
func (srv *stealthService) ExpireStealthWindows(ctx context.Context) (*usecase.StealthExpiryReport, error) {
	now := srv.clock.Now()
	report := &usecase.StealthExpiryReport{}

	families, err := srv.familyRepo.FindWithExpiredStealth(ctx, now)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find expired stealth windows")
	}

	for _, candidate := range families {
		cleared, err := srv.expireFamily(ctx, candidate.ID, now)
		if err != nil {
			srv.log(ctx).Error("Failed to expire stealth window", slog.String("familyID", candidate.ID.String()), slog.Any("error", err))

			continue
		}
		if cleared {
			report.FamiliesCleared++
		}
	}

	purged, err := srv.stealthQueue.DeleteExpired(ctx, now)
	if err != nil {
		return report, errors.Wrap(err, "failed to purge stealth queue")
	}
	report.QueueEntriesPurged = purged

	srv.log(ctx).Info("Stealth expiry sweep finished",
		slog.Int("familiesCleared", report.FamiliesCleared),
		slog.Int64("queueEntriesPurged", report.QueueEntriesPurged),
	)

	return report, nil
}

func (srv *stealthService) expireFamily(ctx context.Context, familyID uuid.UUID, now time.Time) (bool, error) {
	cleared := false
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		familyRepo := repoFactory.NewFamilyRepository()

		family, err := familyRepo.FindByIDForUpdate(ctx, familyID)
		if err != nil {
			return errors.Wrap(err, "failed to load family")
		}
		// re-check under lock; a concurrent activation may have extended it
		if family.StealthWindowEnd == nil || family.StealthWindowEnd.After(now) {
			return nil
		}

		ticketID := family.StealthTicketID
		family.ClearStealth()
		if err := familyRepo.UpdateStealth(ctx, family); err != nil {
			return errors.Wrap(err, "failed to clear stealth fields")
		}
		cleared = true

		return writeAudit(ctx, repoFactory.NewAdminAuditRepository(), &entity.AdminAuditEntry{
			Action:    entity.AuditStealthExpired,
			FamilyID:  familyID,
			TicketID:  ticketID,
			Actor:     systemActor,
			CreatedAt: now,
		}, nil)
	})

	return cleared, err
}

func familyHasMembers(family *entity.Family, userIDs []uuid.UUID) bool {
	members := entity.UnionUserIDs(family.GuardianIDs, family.ChildIDs)
	for _, id := range userIDs {
		if !slices.Contains(members, id) {
			return false
		}
	}

	return true
}

func writeAudit(ctx context.Context, repo repository.AdminAuditRepository, entry *entity.AdminAuditEntry, details map[string]any) error {
	entry.ID = uuid.New()
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return errors.Wrap(err, "failed to encode audit details")
		}
		entry.Details = raw
	}
	if err := repo.Create(ctx, entry); err != nil {
		return errors.Wrap(err, "failed to write admin audit entry")
	}

	return nil
}
