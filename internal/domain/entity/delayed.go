package entity

import (
	"time"

	"github.com/google/uuid"
)

// DelayedStatus tracks a quiet-hours deferred notification.
type DelayedStatus string

const (
	DelayedPending DelayedStatus = "pending"
	// DelayedProcessing marks an item claimed by a drain. It is never sent again.
	DelayedProcessing DelayedStatus = "processing"
	DelayedDelivered  DelayedStatus = "delivered"
	DelayedFailed     DelayedStatus = "failed"
	DelayedSuppressed DelayedStatus = "suppressed"
)

// DelayedNotification is a per-recipient deferred delivery persisted until DeliverAt.
type DelayedNotification struct {
	ID          uuid.UUID          `json:"id"`
	RecipientID uuid.UUID          `json:"recipient_id"`
	FamilyID    uuid.UUID          `json:"family_id"`
	Category    Category           `json:"category"`
	Event       *NotificationEvent `json:"event"`
	DeliverAt   time.Time          `json:"deliver_at"`
	Status      DelayedStatus      `json:"status"`
	Reason      Reason             `json:"reason,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
