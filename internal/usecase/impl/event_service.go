package impl

import (
	"context"
	"log/slog"

	deliverycontext "kinwatch/internal/delivery/context"
	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/service"
	"kinwatch/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type eventService struct {
	publisher service.EventPublisher
	clock     service.Clock
	logger    *slog.Logger
}

// NewEventService creates the intake for upstream family events.
func NewEventService(publisher service.EventPublisher, clock service.Clock, logger *slog.Logger) usecase.EventUsecase {
	return &eventService{
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// Submit validates the event, stamps its identity and hands it to the
// publisher for asynchronous fan-out.
func (srv *eventService) Submit(ctx context.Context, fe *entity.FamilyEvent) (*entity.FamilyEvent, error) {
	if err := validateFamilyEvent(fe); err != nil {
		return nil, err
	}

	if fe.EventID == uuid.Nil {
		fe.EventID = uuid.New()
	}
	if fe.OccurredAt.IsZero() {
		fe.OccurredAt = srv.clock.Now()
	}
	if fe.RequestID == "" {
		fe.RequestID = deliverycontext.GetRequestIDFromContext(ctx)
	}

	if err := srv.publisher.PublishFamilyEvent(ctx, fe); err != nil {
		return nil, errors.Wrap(err, "failed to publish family event")
	}

	deliverycontext.GetLoggerOrDefault(ctx, srv.logger).Info("Family event accepted",
		slog.String("eventID", fe.EventID.String()),
		slog.String("familyID", fe.FamilyID.String()),
		slog.String("category", string(fe.Category)),
	)

	return fe, nil
}
