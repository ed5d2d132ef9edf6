package usecase

import (
	"context"
	"time"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/service"

	"github.com/google/uuid"
)

// ActivateStealthInput is an admin request to open or extend a stealth window.
type ActivateStealthInput struct {
	FamilyID        uuid.UUID
	TicketID        string
	AffectedUserIDs []uuid.UUID
	Actor           string
}

// StealthExpiryReport summarises one expiry sweep.
type StealthExpiryReport struct {
	FamiliesCleared    int   `json:"families_cleared"`
	QueueEntriesPurged int64 `json:"queue_entries_purged"`
}

// StealthUsecase manages per-family stealth windows and the suppression gate.
type StealthUsecase interface {
	// Activate opens a window, or extends an active one by a full duration.
	Activate(ctx context.Context, input *ActivateStealthInput) (*entity.StealthWindow, error)

	// Clear nulls every stealth field of the family. Idempotent.
	Clear(ctx context.Context, familyID uuid.UUID, actor string) error

	// IsActive reports whether the family's window shields anyone at now.
	IsActive(ctx context.Context, familyID uuid.UUID, now time.Time) (bool, error)

	// ShouldSuppress reports whether delivery to targetUserID must be silently dropped.
	ShouldSuppress(ctx context.Context, familyID uuid.UUID, category entity.Category, targetUserID uuid.UUID) bool

	// Capture writes a sealed queue entry for a suppressed event.
	Capture(ctx context.Context, event *entity.NotificationEvent) error

	// ExpireStealthWindows clears ended windows and purges expired captures.
	ExpireStealthWindows(ctx context.Context) (*StealthExpiryReport, error)
}

// PreferenceUsecase reads and writes recipient preferences.
type PreferenceUsecase interface {
	// GetPreferences returns the stored record, creating role defaults on first read.
	GetPreferences(ctx context.Context, recipientID uuid.UUID) (*entity.Preferences, error)

	// UpdatePreferences merges a partial update; immutable fields are forced back.
	UpdatePreferences(ctx context.Context, recipientID uuid.UUID, update *entity.PreferencesUpdate) (*entity.Preferences, error)
}

// ThrottleUsecase guards rate-limited signals.
type ThrottleUsecase interface {
	// Allow evaluates the signal before delivery.
	Allow(ctx context.Context, recipientID uuid.UUID, signal *entity.ThrottleSignal) (bool, entity.Reason)

	// Record stores the send after at least one channel succeeded.
	Record(ctx context.Context, recipientID uuid.UUID, signal *entity.ThrottleSignal) error
}

// DigestRunReport summarises a scheduled digest drain.
type DigestRunReport struct {
	DigestType entity.DigestType `json:"digest_type"`
	Recipients int               `json:"recipients"`
	Sent       int               `json:"sent"`
	Failed     int               `json:"failed"`
	Errors     int               `json:"errors"`
}

// DigestUsecase queues and drains digest items.
type DigestUsecase interface {
	// Enqueue appends one item for a routed event.
	Enqueue(ctx context.Context, event *entity.NotificationEvent, digestType entity.DigestType) (*entity.DigestItem, error)

	// ProcessUserDigest drains one recipient's queue of the given type.
	ProcessUserDigest(ctx context.Context, recipientID uuid.UUID, digestType entity.DigestType) (*entity.DigestResult, error)

	// RunHourlyDigest drains every recipient's hourly queue.
	RunHourlyDigest(ctx context.Context) (*DigestRunReport, error)

	// RunDailyDigest drains daily queues and sweeps hourly items the hourly pass missed today.
	RunDailyDigest(ctx context.Context) (*DigestRunReport, error)
}

// DeliveryUsecase drives channel attempts for a decided event.
type DeliveryUsecase interface {
	Deliver(ctx context.Context, recipient *entity.Recipient, prefs *entity.Preferences, event *entity.NotificationEvent, content service.Content) *entity.DeliveryResult
}

// DelayedRunReport summarises one delayed-queue drain.
type DelayedRunReport struct {
	Due        int `json:"due"`
	Delivered  int `json:"delivered"`
	Failed     int `json:"failed"`
	Suppressed int `json:"suppressed"`
	Skipped    int `json:"skipped"`
}

// DispatchUsecase runs the per-recipient decision pipeline.
type DispatchUsecase interface {
	// Dispatch decides and delivers one per-recipient event.
	Dispatch(ctx context.Context, event *entity.NotificationEvent) (*entity.DeliveryResult, error)

	// DispatchFamilyEvent fans an event out to its recipients, isolating failures.
	DispatchFamilyEvent(ctx context.Context, event *entity.FamilyEvent) (*entity.FanOutResult, error)

	// ProcessDelayedQueue delivers quiet-hours items that are now due.
	ProcessDelayedQueue(ctx context.Context) (*DelayedRunReport, error)
}

// EventUsecase accepts family events from upstream producers.
type EventUsecase interface {
	// Submit validates and publishes an event for asynchronous fan-out.
	Submit(ctx context.Context, event *entity.FamilyEvent) (*entity.FamilyEvent, error)
}

// JobReport is the outcome of one scheduler entry point.
type JobReport struct {
	Job       string        `json:"job"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Details   any           `json:"details,omitempty"`
}

// Scheduler job names.
const (
	JobHourlyDigest  = "hourly_digest"
	JobDailyDigest   = "daily_digest"
	JobDelayedQueue  = "delayed_queue"
	JobStealthExpiry = "stealth_expiry"
)

// JobsUsecase exposes the idempotent entry points called by external schedulers.
type JobsUsecase interface {
	RunHourlyDigest(ctx context.Context) (*JobReport, error)
	RunDailyDigest(ctx context.Context) (*JobReport, error)
	ProcessDelayedQueue(ctx context.Context) (*JobReport, error)
	ExpireStealthWindows(ctx context.Context) (*JobReport, error)

	// Run dispatches by job name.
	Run(ctx context.Context, job string) (*JobReport, error)
}
