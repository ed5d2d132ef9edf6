package entity

import (
	"time"

	"github.com/google/uuid"
)

// NotificationEvent is the per-recipient input to the routing engine. It is not persisted as its own entity.
type NotificationEvent struct {
	ID               uuid.UUID         `json:"id"`
	RecipientID      uuid.UUID         `json:"recipient_id"`
	FamilyID         uuid.UUID         `json:"family_id"`
	ChildID          uuid.UUID         `json:"child_id"`
	ChildName        string            `json:"child_name"`
	Category         Category          `json:"category"`
	Severity         Severity          `json:"severity"`
	Priority         Priority          `json:"priority"`
	BypassQuietHours bool              `json:"bypass_quiet_hours"`
	Params           map[string]string `json:"params,omitempty"`
	Signal           *ThrottleSignal   `json:"signal,omitempty"`
	DailyOnceKey     string            `json:"daily_once_key,omitempty"`
	OccurredAt       time.Time         `json:"occurred_at"`
}

// BypassesQuietHours reports whether the event is delivered regardless of quiet hours.
func (e *NotificationEvent) BypassesQuietHours() bool {
	return e.BypassQuietHours || e.Category.IsQuietHoursImmune() || e.Category.IsCriticalSafety()
}

// FamilyEvent is the wire form of an event before fan-out to recipients.
type FamilyEvent struct {
	RequestID        string            `json:"request_id,omitempty"`
	EventID          uuid.UUID         `json:"event_id"`
	FamilyID         uuid.UUID         `json:"family_id"`
	RecipientIDs     []uuid.UUID       `json:"recipient_ids,omitempty"`
	ChildID          uuid.UUID         `json:"child_id"`
	ChildName        string            `json:"child_name"`
	Category         Category          `json:"category"`
	Severity         Severity          `json:"severity"`
	Priority         Priority          `json:"priority,omitempty"`
	BypassQuietHours bool              `json:"bypass_quiet_hours,omitempty"`
	Params           map[string]string `json:"params,omitempty"`
	Signal           *ThrottleSignal   `json:"signal,omitempty"`
	DailyOnceKey     string            `json:"daily_once_key,omitempty"`
	OccurredAt       time.Time         `json:"occurred_at"`
}

// ForRecipient derives the per-recipient event.
func (fe *FamilyEvent) ForRecipient(recipientID uuid.UUID) *NotificationEvent {
	return &NotificationEvent{
		ID:               fe.EventID,
		RecipientID:      recipientID,
		FamilyID:         fe.FamilyID,
		ChildID:          fe.ChildID,
		ChildName:        fe.ChildName,
		Category:         fe.Category,
		Severity:         fe.Severity,
		Priority:         fe.Priority,
		BypassQuietHours: fe.BypassQuietHours,
		Params:           fe.Params,
		Signal:           fe.Signal,
		DailyOnceKey:     fe.DailyOnceKey,
		OccurredAt:       fe.OccurredAt,
	}
}

// Route is the routing engine's decision.
type Route string

const (
	RouteImmediate    Route = "immediate"
	RouteHourlyDigest Route = "hourly_digest"
	RouteDailyDigest  Route = "daily_digest"
	RouteSkipped      Route = "skipped"
	RouteDelayed      Route = "delayed"
)

// Reason is the outcome code attached to every decision and delivery result.
type Reason string

const (
	ReasonSent                     Reason = "sent"
	ReasonNoRecipients             Reason = "no_recipients"
	ReasonNoTokens                 Reason = "no_tokens"
	ReasonPreferencesUnavailable   Reason = "preferences_unavailable"
	ReasonSendFailed               Reason = "send_failed"
	ReasonQuietHoursDelayed        Reason = "quiet_hours_delayed"
	ReasonSuppressedStealth        Reason = "suppressed_stealth"
	ReasonCriticalDisabled         Reason = "critical_disabled"
	ReasonCategoryDisabled         Reason = "category_disabled"
	ReasonMediumOff                Reason = "medium_off"
	ReasonLowDisabled              Reason = "low_disabled"
	ReasonThrottled                Reason = "throttled"
	ReasonDuplicateFingerprint     Reason = "duplicate_fingerprint"
	ReasonThresholdAlreadyNotified Reason = "threshold_already_notified"
	ReasonAlreadySentToday         Reason = "already_sent_today"
	ReasonQueuedHourlyDigest       Reason = "queued_hourly_digest"
	ReasonQueuedDailyDigest        Reason = "queued_daily_digest"
	ReasonNoPendingItems           Reason = "no_pending_items"
	ReasonCriticalEnabled          Reason = "critical_enabled"
	ReasonMediumImmediate          Reason = "medium_immediate"
	ReasonSafetyCategory           Reason = "safety_category"
	ReasonRecipientNotFound        Reason = "recipient_not_found"
	ReasonEndpointInvalid          Reason = "endpoint_invalid"
	ReasonProviderError            Reason = "provider_error"
	ReasonPayloadUnreadable        Reason = "payload_unreadable"
)

// Channel is a delivery transport.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// DeliveryStatus is the outcome recorded in history.
type DeliveryStatus string

const (
	StatusSent    DeliveryStatus = "sent"
	StatusFailed  DeliveryStatus = "failed"
	StatusDelayed DeliveryStatus = "delayed"
	StatusSkipped DeliveryStatus = "skipped"
)

// HistoryEntry is one append-only delivery log record. Channel is empty for decision-only outcomes.
type HistoryEntry struct {
	ID          uuid.UUID      `json:"id"`
	RecipientID uuid.UUID      `json:"recipient_id"`
	FamilyID    uuid.UUID      `json:"family_id"`
	EventID     uuid.UUID      `json:"event_id"`
	Category    Category       `json:"category"`
	Severity    Severity       `json:"severity"`
	Channel     Channel        `json:"channel,omitempty"`
	Status      DeliveryStatus `json:"status"`
	Reason      Reason         `json:"reason"`
	MessageID   string         `json:"message_id,omitempty"`
	DedupKey    string         `json:"dedup_key,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
