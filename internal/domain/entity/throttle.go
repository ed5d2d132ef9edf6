package entity

import (
	"time"

	"github.com/google/uuid"
)

// ThrottleKind names the rate-limited signal.
type ThrottleKind string

const (
	ThrottleStatusTransition ThrottleKind = "status_transition"
	ThrottleLoginFingerprint ThrottleKind = "login_fingerprint"
	ThrottleSyncThreshold    ThrottleKind = "sync_threshold"
)

// StatusActionNeeded is the most severe status; transitions into it bypass the throttle.
const StatusActionNeeded = "action_needed"

// ThrottleSignal is attached to events that are rate limited.
// Discriminator carries the transition label, device fingerprint or threshold hours.
type ThrottleSignal struct {
	Kind          ThrottleKind `json:"kind"`
	Subject       string       `json:"subject,omitempty"`
	Discriminator string       `json:"discriminator"`
	ThresholdHrs  int          `json:"threshold_hours,omitempty"`
}

// ThrottleRecord is the last-sent state for (recipient, kind, subject).
type ThrottleRecord struct {
	RecipientID   uuid.UUID    `json:"recipient_id"`
	Kind          ThrottleKind `json:"kind"`
	Subject       string       `json:"subject"`
	Discriminator string       `json:"discriminator"`
	ThresholdHrs  int          `json:"threshold_hours"`
	LastSentAt    time.Time    `json:"last_sent_at"`
}
