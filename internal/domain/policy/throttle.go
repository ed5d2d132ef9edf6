package policy

import (
	"strconv"
	"strings"
	"time"

	"kinwatch/internal/domain/entity"

	"github.com/google/uuid"
)

// Default throttle windows.
const (
	DefaultStatusTransitionWindow = time.Hour
	DefaultLoginFingerprintWindow = 5 * time.Minute
)

// ThrottleWindows holds the configurable windows for the time-based throttles.
type ThrottleWindows struct {
	StatusTransition time.Duration
	LoginFingerprint time.Duration
}

// DefaultThrottleWindows returns the standard windows.
func DefaultThrottleWindows() ThrottleWindows {
	return ThrottleWindows{
		StatusTransition: DefaultStatusTransitionWindow,
		LoginFingerprint: DefaultLoginFingerprintWindow,
	}
}

// Allow evaluates a signal against the last recorded send. rec may be nil.
// The returned reason is only meaningful when the signal is blocked.
func (w ThrottleWindows) Allow(signal *entity.ThrottleSignal, rec *entity.ThrottleRecord, now time.Time) (bool, entity.Reason) {
	if signal == nil {
		return true, ""
	}

	switch signal.Kind {
	case entity.ThrottleStatusTransition:
		if !StatusTransitionAllowed(signal.Discriminator, rec, now, w.StatusTransition) {
			return false, entity.ReasonThrottled
		}
	case entity.ThrottleLoginFingerprint:
		if !FingerprintAllowed(signal.Discriminator, rec, now, w.LoginFingerprint) {
			return false, entity.ReasonDuplicateFingerprint
		}
	case entity.ThrottleSyncThreshold:
		if HasAlreadyNotifiedForThreshold(rec, signal.ThresholdHrs, now) {
			return false, entity.ReasonThresholdAlreadyNotified
		}
	}

	return true, ""
}

// IsUrgentTransition reports whether a transition label ends in the most severe status.
func IsUrgentTransition(transition string) bool {
	return transition == entity.StatusActionNeeded || strings.HasSuffix(transition, "->"+entity.StatusActionNeeded)
}

// StatusTransitionAllowed passes urgent transitions unconditionally and blocks
// the rest iff the last send is younger than window.
func StatusTransitionAllowed(transition string, rec *entity.ThrottleRecord, now time.Time, window time.Duration) bool {
	if IsUrgentTransition(transition) || rec == nil {
		return true
	}

	return now.Sub(rec.LastSentAt) >= window
}

// FingerprintAllowed blocks a repeat of the same fingerprint within window.
func FingerprintAllowed(fingerprint string, rec *entity.ThrottleRecord, now time.Time, window time.Duration) bool {
	if rec == nil || rec.Discriminator != fingerprint {
		return true
	}

	return now.Sub(rec.LastSentAt) >= window
}

// HasAlreadyNotifiedForThreshold reports whether a notification at least as
// large as hours was sent less than hours ago.
func HasAlreadyNotifiedForThreshold(rec *entity.ThrottleRecord, hours int, now time.Time) bool {
	if rec == nil {
		return false
	}

	return rec.ThresholdHrs >= hours && now.Sub(rec.LastSentAt) < time.Duration(hours)*time.Hour
}

// CrossedThreshold returns the largest configured threshold not exceeding
// offline, or 0 when none has been crossed.
func CrossedThreshold(thresholds []int, offline time.Duration) int {
	crossed := 0
	for _, h := range thresholds {
		if offline >= time.Duration(h)*time.Hour && h > crossed {
			crossed = h
		}
	}

	return crossed
}

// NewThrottleRecord builds the record written after a successful send.
func NewThrottleRecord(recipientID uuid.UUID, signal *entity.ThrottleSignal, now time.Time) *entity.ThrottleRecord {
	rec := &entity.ThrottleRecord{
		RecipientID:   recipientID,
		Kind:          signal.Kind,
		Subject:       signal.Subject,
		Discriminator: signal.Discriminator,
		ThresholdHrs:  signal.ThresholdHrs,
		LastSentAt:    now,
	}
	if rec.Kind == entity.ThrottleSyncThreshold && rec.Discriminator == "" {
		rec.Discriminator = strconv.Itoa(signal.ThresholdHrs)
	}

	return rec
}
