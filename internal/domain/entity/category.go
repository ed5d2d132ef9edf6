package entity

// Category identifies the kind of notification being decided on.
type Category string

const (
	CategoryCriticalFlag       Category = "critical_flag"
	CategoryContentFlag        Category = "content_flag"
	CategoryCrisisAlert        Category = "crisis_alert"
	CategorySelfHarmAlert      Category = "self_harm_alert"
	CategoryMandatoryReport    Category = "mandatory_report"
	CategoryEmergencyUnlock    Category = "emergency_unlock"
	CategoryLoginAlert         Category = "login_alert"
	CategoryExtensionRequest   Category = "extension_request"
	CategoryPermissionRevoked  Category = "permission_revoked"
	CategoryDeviceRemoved      Category = "device_removed"
	CategoryStatusTransition   Category = "status_transition"
	CategorySyncTimeout        Category = "sync_timeout"
	CategoryLocationTransition Category = "location_transition"
	CategoryLimitReached       Category = "limit_reached"
	CategoryDigest             Category = "digest"
)

// AllCategories lists every category a preference record carries a flag for.
var AllCategories = []Category{
	CategoryCriticalFlag,
	CategoryContentFlag,
	CategoryCrisisAlert,
	CategorySelfHarmAlert,
	CategoryMandatoryReport,
	CategoryEmergencyUnlock,
	CategoryLoginAlert,
	CategoryExtensionRequest,
	CategoryPermissionRevoked,
	CategoryDeviceRemoved,
	CategoryStatusTransition,
	CategorySyncTimeout,
	CategoryLocationTransition,
	CategoryLimitReached,
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	if c == CategoryDigest {
		return true
	}
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}

	return false
}

// IsCriticalSafety reports whether the category is never suppressed by a stealth window.
func (c Category) IsCriticalSafety() bool {
	switch c {
	case CategoryCrisisAlert, CategorySelfHarmAlert, CategoryMandatoryReport, CategoryEmergencyUnlock:
		return true
	default:
		return false
	}
}

// IsQuietHoursImmune reports whether the category skips the quiet-hours check.
func (c Category) IsQuietHoursImmune() bool {
	switch c {
	case CategoryLoginAlert, CategoryExtensionRequest, CategoryPermissionRevoked, CategoryDeviceRemoved:
		return true
	default:
		return false
	}
}

// IsSecurity reports whether channel preferences are forced (push+email on, sms off).
func (c Category) IsSecurity() bool {
	switch c {
	case CategoryLoginAlert, CategoryPermissionRevoked, CategoryDeviceRemoved:
		return true
	default:
		return c.IsCriticalSafety()
	}
}

// IsLocation reports whether a suppressed notification is captured to the sealed stealth queue.
func (c Category) IsLocation() bool {
	return c == CategoryLocationTransition
}

// AllowsSMS reports whether the category is on the SMS allow-list.
func (c Category) AllowsSMS() bool {
	return c == CategoryCriticalFlag
}

// Severity is the urgency class of an event.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank orders severities: critical > medium > low. Unknown severities rank lowest.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// IsValid reports whether s is a known severity.
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// MaxSeverity returns the higher of two severities.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}

	return a
}

// Priority marks the explicit urgency class used for SMS eligibility.
type Priority string

const (
	PriorityNormal   Priority = "normal"
	PriorityCritical Priority = "critical"
)
