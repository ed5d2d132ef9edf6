// Command notifyworker consumes family events from a Pub/Sub push
// subscription and runs the per-recipient fan-out.
package main

import (
	"context"
	"log/slog"
	"os"

	"kinwatch/config"
	"kinwatch/internal/delivery"
	"kinwatch/internal/delivery/worker"
	"kinwatch/internal/delivery/worker/handler"
	"kinwatch/internal/infra/content"
	"kinwatch/internal/infra/email"
	logs "kinwatch/internal/infra/log"
	"kinwatch/internal/infra/notification"
	"kinwatch/internal/infra/persistence/memory"
	"kinwatch/internal/infra/persistence/postgres"
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
		fx.Provide(
			logs.New,
			context.Background,
		),
		injectRepo(cfg),
		fx.Provide(
			notification.NewFirebaseService,
			email.New,
			sms.New,
			content.NewBuilder,
		),
		// Event submission lives in the API, so no publisher is wired here.
		impl.Module,
		fx.Provide(
			handler.NewPushHandler,
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
		fx.Invoke(startServer),
	).Run()
}

func injectRepo(cfg *config.Config) fx.Option {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		return memory.Module
	}

	return postgres.Module
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start worker", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
