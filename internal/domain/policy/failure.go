package policy

import (
	"time"

	"kinwatch/internal/domain/entity"
)

// PreferenceReadAction is applied when a recipient's preferences cannot be read.
type PreferenceReadAction int

const (
	// UseSafeDefaults delivers required categories with default channels and skips the rest.
	UseSafeDefaults PreferenceReadAction = iota
)

// SuppressionReadAction is applied when the stealth state cannot be read.
type SuppressionReadAction int

const (
	// FailOpen treats the recipient as not suppressed.
	FailOpen SuppressionReadAction = iota
	// FailClosed treats the recipient as suppressed.
	FailClosed
)

// FailurePolicy is the single place that decides degraded behaviour on read errors.
type FailurePolicy struct {
	OnPreferenceReadError  PreferenceReadAction
	OnSuppressionReadError SuppressionReadAction
}

// DefaultFailurePolicy favours delivering notifications over window fidelity.
func DefaultFailurePolicy() FailurePolicy {
	return FailurePolicy{
		OnPreferenceReadError:  UseSafeDefaults,
		OnSuppressionReadError: FailOpen,
	}
}

// SuppressOnReadError reports whether a failed stealth read suppresses delivery.
func (p FailurePolicy) SuppressOnReadError() bool {
	return p.OnSuppressionReadError == FailClosed
}

// IsRequiredCategory reports whether a category must still be delivered in degraded mode.
func IsRequiredCategory(c entity.Category) bool {
	return c.IsSecurity() || c.IsQuietHoursImmune()
}

// IsRequired widens IsRequiredCategory to any event flagged critical, such as
// a critical content flag.
func IsRequired(c entity.Category, s entity.Severity) bool {
	return IsRequiredCategory(c) || s == entity.SeverityCritical
}

// FallbackPreferences returns the preferences to route with when the stored
// record could not be read. ok is false when the event should be skipped.
func (p FailurePolicy) FallbackPreferences(recipient *entity.Recipient, category entity.Category, severity entity.Severity, now time.Time) (*entity.Preferences, bool) {
	if !IsRequired(category, severity) {
		return nil, false
	}
	prefs := entity.DefaultPreferences(recipient, now)
	prefs.Categories[category] = true
	prefs.CriticalEnabled = true
	prefs.MediumMode = entity.MediumImmediate

	return prefs, true
}
