// Command kinwatch serves the notification API and runs the periodic jobs.
package main

import (
	"context"
	"log/slog"
	"os"

	"kinwatch/config"
	"kinwatch/internal/delivery"
	"kinwatch/internal/delivery/api"
	"kinwatch/internal/delivery/api/middleware"
	"kinwatch/internal/delivery/api/router/handler"
	"kinwatch/internal/delivery/scheduler"
	"kinwatch/internal/infra/auth"
	"kinwatch/internal/infra/content"
	"kinwatch/internal/infra/email"
	logs "kinwatch/internal/infra/log"
	"kinwatch/internal/infra/notification"
	"kinwatch/internal/infra/persistence/memory"
	"kinwatch/internal/infra/persistence/postgres"
	"kinwatch/internal/infra/pubsub"
	"kinwatch/internal/infra/sms"
	"kinwatch/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	fx.New(
		fx.Supply(cfg),
		injectInfra(),
		injectRepo(cfg),
		injectService(),
		impl.Module,
		pubsub.Module,
		injectMiddleware(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		logs.New,
		context.Background,
	)
}

// injectRepo selects the persistence backend.
func injectRepo(cfg *config.Config) fx.Option {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		return memory.Module
	}

	return postgres.Module
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewJWTService,
			notification.NewFirebaseService,
			email.New,
			sms.New,
			content.NewBuilder,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewEndpointHandler,
			handler.NewPreferenceHandler,
			handler.NewStealthHandler,
			handler.NewEventHandler,
			handler.NewJobHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				scheduler.New,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
