package pubsub

import (
	"context"
	"log/slog"

	"kinwatch/config"
	"kinwatch/internal/domain/constants"
	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/service"
	"kinwatch/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// noopPublisher drops events; used when Pub/Sub is not configured.
type noopPublisher struct {
	logger *slog.Logger
}

func (p *noopPublisher) PublishFamilyEvent(_ context.Context, event *entity.FamilyEvent) error {
	p.logger.Debug("Event publishing disabled, skipping",
		slog.String("eventID", event.EventID.String()),
	)

	return nil
}

func (p *noopPublisher) Close() error {
	return nil
}

// PublisherParams holds dependencies for EventPublisher, injected by Fx
type PublisherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
	// Dispatch is only needed by the inline provider.
	Dispatch usecase.DispatchUsecase `optional:"true"`
}

// NewEventPublisher creates an EventPublisher based on configuration
func NewEventPublisher(params PublisherParams) (service.EventPublisher, error) {
	cfg := params.Config.PubSub
	logger := params.Logger

	if cfg == nil || cfg.Provider == "" {
		logger.Info("PubSub not configured, using no-op publisher")

		return &noopPublisher{logger: logger}, nil
	}

	var publisher service.EventPublisher
	var err error

	switch cfg.Provider {
	case constants.PubSubProviderInline:
		if params.Dispatch == nil {
			return nil, errors.New("inline provider requires the dispatcher in the same process")
		}
		logger.Info("Using inline publisher for family events")

		publisher = NewInlinePublisher(params.Dispatch, logger)

	case constants.PubSubProviderLocal:
		if cfg.LocalEndpoint == "" {
			return nil, errors.New("local endpoint is required for local provider")
		}
		logger.Info("Using local HTTP publisher for Pub/Sub",
			slog.String("endpoint", cfg.LocalEndpoint),
		)

		publisher = NewLocalHTTPPublisher(cfg.LocalEndpoint, logger)

	case constants.PubSubProviderGoogle:
		if cfg.ProjectID == "" {
			return nil, errors.New("project ID is required for google provider")
		}
		if cfg.TopicID == "" {
			return nil, errors.New("topic ID is required for google provider")
		}

		publisher, err = NewGooglePubSubPublisher(params.Ctx, cfg.ProjectID, cfg.TopicID, logger)
		if err != nil {
			return nil, err
		}

	default:
		return nil, errors.Errorf("unknown pubsub provider: %s", cfg.Provider)
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing EventPublisher")

			return publisher.Close()
		},
	})

	return publisher, nil
}

// Module provides the Pub/Sub FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewEventPublisher),
)
