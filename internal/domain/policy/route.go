// Package policy holds the pure decision rules: routing, quiet hours,
// throttling and degraded-mode handling. Nothing here performs I/O.
package policy

import (
	"time"

	"kinwatch/internal/domain/entity"
)

// Decision is the routing outcome for one recipient.
type Decision struct {
	Route     entity.Route
	Reason    entity.Reason
	DeliverAt time.Time
}

// IsDigest reports whether the decision queues the event for a digest.
func (d Decision) IsDigest() bool {
	return d.Route == entity.RouteHourlyDigest || d.Route == entity.RouteDailyDigest
}

// DigestType maps a digest route to its queue.
func (d Decision) DigestType() entity.DigestType {
	if d.Route == entity.RouteDailyDigest {
		return entity.DigestDaily
	}

	return entity.DigestHourly
}

type routeOptions struct {
	bypassQuietHours bool
}

// RouteOption adjusts a single routing call.
type RouteOption func(*routeOptions)

// WithQuietHoursBypass skips the quiet-hours downgrade for this call.
func WithQuietHoursBypass(bypass bool) RouteOption {
	return func(o *routeOptions) {
		o.bypassQuietHours = o.bypassQuietHours || bypass
	}
}

// Route decides how an event of the given category and severity reaches the
// recipient owning prefs. It is deterministic and always returns one route.
func Route(category entity.Category, severity entity.Severity, prefs *entity.Preferences, now time.Time, opts ...RouteOption) Decision {
	if prefs == nil {
		return Decision{Route: entity.RouteSkipped, Reason: entity.ReasonPreferencesUnavailable}
	}

	var o routeOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !prefs.CategoryEnabled(category) {
		return Decision{Route: entity.RouteSkipped, Reason: entity.ReasonCategoryDisabled}
	}

	var d Decision
	switch {
	case category.IsCriticalSafety():
		d = Decision{Route: entity.RouteImmediate, Reason: entity.ReasonSafetyCategory}
	case severity == entity.SeverityCritical:
		if !prefs.CriticalEnabled {
			return Decision{Route: entity.RouteSkipped, Reason: entity.ReasonCriticalDisabled}
		}
		d = Decision{Route: entity.RouteImmediate, Reason: entity.ReasonCriticalEnabled}
	case severity == entity.SeverityMedium:
		switch prefs.MediumMode {
		case entity.MediumImmediate:
			d = Decision{Route: entity.RouteImmediate, Reason: entity.ReasonMediumImmediate}
		case entity.MediumDigest:
			return Decision{Route: entity.RouteHourlyDigest, Reason: entity.ReasonQueuedHourlyDigest}
		default:
			return Decision{Route: entity.RouteSkipped, Reason: entity.ReasonMediumOff}
		}
	default:
		// low, and anything unrecognised, is treated as the least urgent class
		if !prefs.LowEnabled {
			return Decision{Route: entity.RouteSkipped, Reason: entity.ReasonLowDisabled}
		}

		return Decision{Route: entity.RouteDailyDigest, Reason: entity.ReasonQueuedDailyDigest}
	}

	if o.bypassQuietHours || category.IsQuietHoursImmune() || category.IsCriticalSafety() {
		return d
	}
	if InQuietHours(prefs, now) {
		return Decision{
			Route:     entity.RouteDelayed,
			Reason:    entity.ReasonQuietHoursDelayed,
			DeliverAt: NextQuietEnd(prefs, now),
		}
	}

	return d
}
