// Package scheduler triggers the periodic jobs in-process on cron schedules.
// Deployments that prefer an external trigger disable it and call the admin
// job endpoint instead.
package scheduler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"kinwatch/config"
	"kinwatch/internal/delivery"
	deliverycontext "kinwatch/internal/delivery/context"
	"kinwatch/internal/domain/lifecycle"
	"kinwatch/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
)

const defaultJobTimeout = 10 * time.Minute

// Params holds dependencies for the scheduler, injected by Fx.
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *slog.Logger
	Jobs   usecase.JobsUsecase
}

type cronScheduler struct {
	cron    *cron.Cron
	jobs    usecase.JobsUsecase
	logger  *slog.Logger
	timeout time.Duration
	enabled bool
}

// New registers every configured job. An empty spec leaves that job to
// external triggers.
func New(params Params) (delivery.Delivery, error) {
	s, err := newScheduler(params.Cfg, params.Jobs, params.Logger)
	if err != nil {
		return nil, err
	}

	params.Lc.Append(fx.Hook{
		OnStop: s.stop,
	})

	return s, nil
}

func newScheduler(cfg *config.Config, jobs usecase.JobsUsecase, logger *slog.Logger) (*cronScheduler, error) {
	var sc config.SchedulerConfig
	if cfg.Notification != nil {
		sc = cfg.Notification.Scheduler
	}

	loc := time.UTC
	if tz := strings.TrimSpace(sc.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid scheduler timezone %q", tz)
		}
		loc = l
	}

	timeout := sc.JobTimeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}

	s := &cronScheduler{
		jobs:    jobs,
		logger:  logger.With(slog.String("component", "scheduler")),
		timeout: timeout,
		enabled: sc.Enabled,
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{s.logger}), cron.SkipIfStillRunning(cronLogger{s.logger})),
	)

	if !s.enabled {
		return s, nil
	}

	specs := []struct {
		job  string
		spec string
	}{
		{usecase.JobHourlyDigest, sc.HourlyDigest},
		{usecase.JobDailyDigest, sc.DailyDigest},
		{usecase.JobDelayedQueue, sc.DelayedQueue},
		{usecase.JobStealthExpiry, sc.StealthExpiry},
	}
	for _, js := range specs {
		spec := strings.TrimSpace(js.spec)
		if spec == "" {
			continue
		}
		job := js.job
		if _, err := s.cron.AddFunc(spec, func() { s.runJob(job) }); err != nil {
			return nil, errors.Wrapf(err, "invalid schedule %q for job %s", spec, job)
		}
	}

	return s, nil
}

// Serve starts the cron loop and returns immediately.
func (s *cronScheduler) Serve(ctx context.Context) error {
	if !s.enabled {
		s.logger.Info("Scheduler disabled, jobs run only on external triggers")

		return nil
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", slog.Int("jobs", len(s.cron.Entries())))

	return nil
}

func (s *cronScheduler) runJob(job string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	runID := uuid.NewString()
	logger := s.logger.With(slog.String("job", job), slog.String("requestID", runID))
	ctx = deliverycontext.WithRequestID(ctx, runID)
	ctx = deliverycontext.WithLogger(ctx, logger)
	ctx = deliverycontext.WithActor(ctx, "scheduler")

	report, err := s.jobs.Run(ctx, job)
	if err != nil {
		logger.Error("Scheduled job failed", slog.Any("error", err))

		return
	}

	logger.Info("Scheduled job finished", slog.Duration("duration", report.Duration), slog.Any("details", report.Details))
}

func (s *cronScheduler) stop(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	// Wait for running jobs; they hold their own timeout
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")

		return nil
	case <-stopCtx.Done():
		return errors.Wrap(stopCtx.Err(), "scheduler did not drain in time")
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
