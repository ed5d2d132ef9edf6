package entity

import (
	"time"

	"github.com/google/uuid"
)

// DigestType selects the drain cadence.
type DigestType string

const (
	DigestHourly DigestType = "hourly"
	DigestDaily  DigestType = "daily"
)

// IsValid reports whether d is a known digest type.
func (d DigestType) IsValid() bool {
	return d == DigestHourly || d == DigestDaily
}

// DigestItem is one queued low/medium event awaiting consolidation.
type DigestItem struct {
	ID            uuid.UUID  `json:"id"`
	RecipientID   uuid.UUID  `json:"recipient_id"`
	FamilyID      uuid.UUID  `json:"family_id"`
	SourceEventID uuid.UUID  `json:"source_event_id"`
	ChildID       uuid.UUID  `json:"child_id"`
	ChildName     string     `json:"child_name"`
	Severity      Severity   `json:"severity"`
	Category      Category   `json:"category"`
	QueuedAt      time.Time  `json:"queued_at"`
	DigestType    DigestType `json:"digest_type"`
	Processed     bool       `json:"processed"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

// DigestGroup summarises the items for one child.
type DigestGroup struct {
	ChildID     uuid.UUID `json:"child_id"`
	ChildName   string    `json:"child_name"`
	Count       int       `json:"count"`
	MaxSeverity Severity  `json:"max_severity"`
}

// DigestResult is the outcome of draining one recipient's queue.
type DigestResult struct {
	RecipientID uuid.UUID       `json:"recipient_id"`
	DigestType  DigestType      `json:"digest_type"`
	Sent        bool            `json:"sent"`
	Reason      Reason          `json:"reason"`
	ItemCount   int             `json:"item_count"`
	Groups      []DigestGroup   `json:"groups,omitempty"`
	Delivery    *DeliveryResult `json:"delivery,omitempty"`
}
