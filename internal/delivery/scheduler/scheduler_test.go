package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"kinwatch/config"
	deliverycontext "kinwatch/internal/delivery/context"
	"kinwatch/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingJobs struct {
	usecase.JobsUsecase

	mu       sync.Mutex
	ran      []string
	actor    string
	deadline bool
}

func (r *recordingJobs) Run(ctx context.Context, job string) (*usecase.JobReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ran = append(r.ran, job)
	r.actor = deliverycontext.GetActor(ctx, "")
	_, r.deadline = ctx.Deadline()

	return &usecase.JobReport{Job: job}, nil
}

func testConfig(sc config.SchedulerConfig) *config.Config {
	return &config.Config{Notification: &config.NotificationConfig{Scheduler: sc}}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewScheduler_RegistersConfiguredJobs(t *testing.T) {
	s, err := newScheduler(testConfig(config.SchedulerConfig{
		Enabled:       true,
		Timezone:      "Asia/Taipei",
		HourlyDigest:  "0 * * * *",
		DailyDigest:   "0 18 * * *",
		DelayedQueue:  "@every 5m",
		StealthExpiry: "",
	}), &recordingJobs{}, discard())
	require.NoError(t, err)

	assert.Len(t, s.cron.Entries(), 3)
	assert.Equal(t, defaultJobTimeout, s.timeout)
	assert.Equal(t, "Asia/Taipei", s.cron.Location().String())
}

func TestNewScheduler_Errors(t *testing.T) {
	_, err := newScheduler(testConfig(config.SchedulerConfig{Enabled: true, HourlyDigest: "every hour"}), &recordingJobs{}, discard())
	assert.Error(t, err)

	_, err = newScheduler(testConfig(config.SchedulerConfig{Enabled: true, Timezone: "Mars/Olympus"}), &recordingJobs{}, discard())
	assert.Error(t, err)
}

func TestNewScheduler_Disabled(t *testing.T) {
	s, err := newScheduler(testConfig(config.SchedulerConfig{HourlyDigest: "0 * * * *"}), &recordingJobs{}, discard())
	require.NoError(t, err)

	assert.Empty(t, s.cron.Entries())
	require.NoError(t, s.Serve(context.Background()))
	require.NoError(t, s.stop(context.Background()))
}

func TestRunJob(t *testing.T) {
	jobs := &recordingJobs{}
	s, err := newScheduler(testConfig(config.SchedulerConfig{Enabled: true, JobTimeout: time.Minute}), jobs, discard())
	require.NoError(t, err)

	s.runJob(usecase.JobDelayedQueue)

	assert.Equal(t, []string{usecase.JobDelayedQueue}, jobs.ran)
	assert.Equal(t, "scheduler", jobs.actor)
	assert.True(t, jobs.deadline)
}
