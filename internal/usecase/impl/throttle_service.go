package impl

import (
	"context"
	"log/slog"

	"kinwatch/config"
	deliverycontext "kinwatch/internal/delivery/context"
	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/policy"
	"kinwatch/internal/domain/repository"
	"kinwatch/internal/domain/service"
	"kinwatch/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type throttleService struct {
	throttleRepo repository.ThrottleRepository
	windows      policy.ThrottleWindows
	clock        service.Clock
	logger       *slog.Logger
}

// ThrottleServiceParams holds dependencies for ThrottleService, injected by Fx.
type ThrottleServiceParams struct {
	fx.In

	ThrottleRepo repository.ThrottleRepository
	Clock        service.Clock
	Config       *config.Config
	Logger       *slog.Logger
}

// NewThrottleService creates the throttle/dedup store.
func NewThrottleService(params ThrottleServiceParams) usecase.ThrottleUsecase {
	cfg := params.Config.Notification.WithDefaults()

	return &throttleService{
		throttleRepo: params.ThrottleRepo,
		windows: policy.ThrottleWindows{
			StatusTransition: cfg.StatusThrottleWindow,
			LoginFingerprint: cfg.LoginFingerprintWindow,
		},
		clock:  params.Clock,
		logger: params.Logger,
	}
}

// Allow reads the last send and applies the signal's rule. A failed read lets
// the notification through.
func (srv *throttleService) Allow(ctx context.Context, recipientID uuid.UUID, signal *entity.ThrottleSignal) (bool, entity.Reason) {
	if signal == nil {
		return true, ""
	}

	rec, err := srv.throttleRepo.Find(ctx, recipientID, signal.Kind, signal.Subject)
	if errors.Is(err, repository.ErrThrottleRecordNotFound) {
		rec = nil
	} else if err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, srv.logger).Warn("Throttle state unavailable, allowing send",
			slog.String("recipientID", recipientID.String()),
			slog.String("kind", string(signal.Kind)),
			slog.Any("error", err),
		)

		return true, ""
	}

	return srv.windows.Allow(signal, rec, srv.clock.Now())
}

// Record stores the send. Last write wins.
func (srv *throttleService) Record(ctx context.Context, recipientID uuid.UUID, signal *entity.ThrottleSignal) error {
	if signal == nil {
		return nil
	}
	if err := srv.throttleRepo.Upsert(ctx, policy.NewThrottleRecord(recipientID, signal, srv.clock.Now())); err != nil {
		return errors.Wrap(err, "failed to record throttle state")
	}

	return nil
}
