package pubsub

import (
	"context"
	"log/slog"
	"sync"

	deliverycontext "kinwatch/internal/delivery/context"
	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/service"
	"kinwatch/internal/usecase"

	"github.com/pkg/errors"
)

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// inlinePublisher fans events out in-process on a background goroutine.
// Close waits for in-flight dispatches.
type inlinePublisher struct {
	dispatch usecase.DispatchUsecase
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewInlinePublisher creates a publisher that calls the dispatcher directly.
func NewInlinePublisher(dispatch usecase.DispatchUsecase, logger *slog.Logger) service.EventPublisher {
	return &inlinePublisher{
		dispatch: dispatch,
		logger:   logger,
	}
}

func (p *inlinePublisher) PublishFamilyEvent(ctx context.Context, event *entity.FamilyEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}

	// detach from the request so the fan-out outlives it
	bg := context.WithoutCancel(ctx)
	logger := deliverycontext.GetLoggerOrDefault(ctx, p.logger)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		result, err := p.dispatch.DispatchFamilyEvent(bg, event)
		if err != nil {
			logger.Error("Inline fan-out failed", slog.String("eventID", event.EventID.String()), slog.Any("error", err))

			return
		}
		logger.Info("Inline fan-out finished",
			slog.String("eventID", event.EventID.String()),
			slog.Int("recipients", len(result.Results)),
			slog.Int("errors", result.Errors),
		)
	}()

	return nil
}

func (p *inlinePublisher) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()

	return nil
}
