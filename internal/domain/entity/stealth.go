package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StealthQueueEntry is a sealed record of a suppressed notification, kept for audit only.
type StealthQueueEntry struct {
	ID               uuid.UUID       `json:"id"`
	FamilyID         uuid.UUID       `json:"family_id"`
	TargetUserID     uuid.UUID       `json:"target_user_id"`
	NotificationType Category        `json:"notification_type"`
	Payload          json.RawMessage `json:"payload"`
	CapturedAt       time.Time       `json:"captured_at"`
	ExpiresAt        time.Time       `json:"expires_at"`
	TicketID         string          `json:"ticket_id"`
}

// AdminAuditAction names an admin-only audit event.
type AdminAuditAction string

const (
	AuditStealthActivated AdminAuditAction = "stealth_activated"
	AuditStealthExtended  AdminAuditAction = "stealth_extended"
	AuditStealthCleared   AdminAuditAction = "stealth_cleared"
	AuditStealthExpired   AdminAuditAction = "stealth_expired"
)

// AdminAuditEntry is written to the admin-only audit trail, never to a family-visible log.
type AdminAuditEntry struct {
	ID        uuid.UUID        `json:"id"`
	Action    AdminAuditAction `json:"action"`
	FamilyID  uuid.UUID        `json:"family_id"`
	TicketID  string           `json:"ticket_id"`
	Actor     string           `json:"actor"`
	Details   json.RawMessage  `json:"details,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
