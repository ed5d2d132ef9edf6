package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "kinwatch/internal/delivery/context"
	domainerrors "kinwatch/internal/domain/errors"
	"kinwatch/internal/domain/service"
	"kinwatch/internal/usecase"

	"go.uber.org/fx"
)

type jobsService struct {
	digest   usecase.DigestUsecase
	dispatch usecase.DispatchUsecase
	stealth  usecase.StealthUsecase
	clock    service.Clock
	logger   *slog.Logger
}

// JobsServiceParams holds dependencies for JobsService, injected by Fx.
type JobsServiceParams struct {
	fx.In

	Digest   usecase.DigestUsecase
	Dispatch usecase.DispatchUsecase
	Stealth  usecase.StealthUsecase
	Clock    service.Clock
	Logger   *slog.Logger
}

// NewJobsService creates the scheduler entry points.
func NewJobsService(params JobsServiceParams) usecase.JobsUsecase {
	return &jobsService{
		digest:   params.Digest,
		dispatch: params.Dispatch,
		stealth:  params.Stealth,
		clock:    params.Clock,
		logger:   params.Logger,
	}
}

func (srv *jobsService) RunHourlyDigest(ctx context.Context) (*usecase.JobReport, error) {
	return srv.run(ctx, usecase.JobHourlyDigest, func(ctx context.Context) (any, error) {
		return srv.digest.RunHourlyDigest(ctx)
	})
}

func (srv *jobsService) RunDailyDigest(ctx context.Context) (*usecase.JobReport, error) {
	return srv.run(ctx, usecase.JobDailyDigest, func(ctx context.Context) (any, error) {
		return srv.digest.RunDailyDigest(ctx)
	})
}

func (srv *jobsService) ProcessDelayedQueue(ctx context.Context) (*usecase.JobReport, error) {
	return srv.run(ctx, usecase.JobDelayedQueue, func(ctx context.Context) (any, error) {
		return srv.dispatch.ProcessDelayedQueue(ctx)
	})
}

func (srv *jobsService) ExpireStealthWindows(ctx context.Context) (*usecase.JobReport, error) {
	return srv.run(ctx, usecase.JobStealthExpiry, func(ctx context.Context) (any, error) {
		return srv.stealth.ExpireStealthWindows(ctx)
	})
}

// Run dispatches by job name.
func (srv *jobsService) Run(ctx context.Context, job string) (*usecase.JobReport, error) {
	switch job {
	case usecase.JobHourlyDigest:
		return srv.RunHourlyDigest(ctx)
	case usecase.JobDailyDigest:
		return srv.RunDailyDigest(ctx)
	case usecase.JobDelayedQueue:
		return srv.ProcessDelayedQueue(ctx)
	case usecase.JobStealthExpiry:
		return srv.ExpireStealthWindows(ctx)
	default:
		return nil, domainerrors.ErrUnknownJob.WithDetails(job)
	}
}

func (srv *jobsService) run(ctx context.Context, job string, fn func(context.Context) (any, error)) (*usecase.JobReport, error) {
	logger := deliverycontext.GetLoggerOrDefault(ctx, srv.logger).With(slog.String("job", job))
	ctx = deliverycontext.WithLogger(ctx, logger)

	report := &usecase.JobReport{Job: job, StartedAt: srv.clock.Now()}
	start := time.Now()
	details, err := fn(ctx)
	report.Duration = time.Since(start)
	report.Details = details
	if err != nil {
		logger.Error("Job failed", slog.Duration("duration", report.Duration), slog.Any("error", err))

		return report, err
	}

	logger.Info("Job finished", slog.Duration("duration", report.Duration))

	return report, nil
}
