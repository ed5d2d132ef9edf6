package entity

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// MediumMode is the tri-state delivery preference for medium-severity events.
type MediumMode string

const (
	MediumImmediate MediumMode = "immediate"
	MediumDigest    MediumMode = "digest"
	MediumOff       MediumMode = "off"
)

// IsValid reports whether m is a known mode.
func (m MediumMode) IsValid() bool {
	switch m {
	case MediumImmediate, MediumDigest, MediumOff:
		return true
	default:
		return false
	}
}

// QuietWindow is a daily [Start, End) window in "HH:MM" local time. End before Start wraps midnight.
type QuietWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// QuietHours holds the recipient's quiet-hours configuration.
type QuietHours struct {
	Enabled bool         `json:"enabled"`
	Start   string       `json:"start"`
	End     string       `json:"end"`
	Weekend *QuietWindow `json:"weekend,omitempty"`
}

// Channels holds per-channel enable flags.
type Channels struct {
	Push  bool `json:"push"`
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
}

// forcedSecurityChannels is what security and safety categories always use.
var forcedSecurityChannels = Channels{Push: true, Email: true, SMS: false}

// Preferences is the per-recipient notification preference record.
type Preferences struct {
	RecipientID      uuid.UUID         `json:"recipient_id"`
	Role             Role              `json:"role"`
	Categories       map[Category]bool `json:"categories"`
	CriticalEnabled  bool              `json:"critical_enabled"`
	MediumMode       MediumMode        `json:"medium_mode"`
	LowEnabled       bool              `json:"low_enabled"`
	QuietHours       QuietHours        `json:"quiet_hours"`
	Channels         Channels          `json:"channels"`
	SecurityChannels Channels          `json:"security_channels"`
	Timezone         string            `json:"timezone"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// CategoryEnabled reports whether the recipient wants the category at all.
// Critical safety categories cannot be switched off.
func (p *Preferences) CategoryEnabled(c Category) bool {
	if c.IsCriticalSafety() || c == CategoryDigest {
		return true
	}
	enabled, ok := p.Categories[c]

	return ok && enabled
}

// ChannelsFor returns the effective channels for a category. Security and
// safety categories ignore the stored values.
func (p *Preferences) ChannelsFor(c Category) Channels {
	if c.IsSecurity() {
		return forcedSecurityChannels
	}

	return p.Channels
}

// Location resolves the recipient timezone, falling back to UTC.
func (p *Preferences) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}

// EnforceImmutable re-applies the fields recipients cannot change.
func (p *Preferences) EnforceImmutable() {
	p.SecurityChannels = forcedSecurityChannels
}

// DefaultPreferences builds the role and age appropriate defaults for a recipient.
func DefaultPreferences(r *Recipient, now time.Time) *Preferences {
	p := &Preferences{
		RecipientID:      r.ID,
		Role:             r.Role,
		Categories:       make(map[Category]bool, len(AllCategories)),
		SecurityChannels: forcedSecurityChannels,
		Timezone:         r.Timezone,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if r.Role == RoleChild {
		for _, c := range []Category{CategoryLoginAlert, CategoryExtensionRequest, CategoryPermissionRevoked, CategoryDeviceRemoved} {
			p.Categories[c] = true
		}
		p.MediumMode = MediumOff
		p.QuietHours = QuietHours{Enabled: true, Start: "21:00", End: "07:00"}
		p.Channels = Channels{Push: true, Email: true}
		if age := r.AgeAt(now); age >= 0 && age < 13 {
			p.Channels.Email = false
		}

		return p
	}

	for _, c := range AllCategories {
		p.Categories[c] = true
	}
	p.CriticalEnabled = true
	p.MediumMode = MediumImmediate
	p.LowEnabled = true
	p.QuietHours = QuietHours{Enabled: false, Start: "22:00", End: "07:00"}
	p.Channels = Channels{Push: true, Email: true}

	return p
}

// MergeDefaults fills fields missing from a stored record with the given defaults.
func (p *Preferences) MergeDefaults(d *Preferences) {
	if p.Categories == nil {
		p.Categories = make(map[Category]bool, len(d.Categories))
	}
	for c, enabled := range d.Categories {
		if _, ok := p.Categories[c]; !ok {
			p.Categories[c] = enabled
		}
	}
	if !p.MediumMode.IsValid() {
		p.MediumMode = d.MediumMode
	}
	if p.QuietHours.Start == "" || p.QuietHours.End == "" {
		p.QuietHours.Start = d.QuietHours.Start
		p.QuietHours.End = d.QuietHours.End
	}
	if p.Timezone == "" {
		p.Timezone = d.Timezone
	}
	if p.Role == "" {
		p.Role = d.Role
	}
	p.EnforceImmutable()
}

// Clone returns a deep copy.
func (p *Preferences) Clone() *Preferences {
	out := *p
	out.Categories = maps.Clone(p.Categories)
	if p.QuietHours.Weekend != nil {
		w := *p.QuietHours.Weekend
		out.QuietHours.Weekend = &w
	}

	return &out
}

// PreferencesUpdate is a partial preference write. Nil fields are left unchanged.
type PreferencesUpdate struct {
	Categories       map[Category]bool `json:"categories,omitempty"`
	CriticalEnabled  *bool             `json:"critical_enabled,omitempty"`
	MediumMode       *MediumMode       `json:"medium_mode,omitempty"`
	LowEnabled       *bool             `json:"low_enabled,omitempty"`
	QuietHours       *QuietHours       `json:"quiet_hours,omitempty"`
	Channels         *Channels         `json:"channels,omitempty"`
	SecurityChannels *Channels         `json:"security_channels,omitempty"`
	Timezone         *string           `json:"timezone,omitempty"`
}

// Apply merges the update into p. Immutable fields are silently forced back.
func (u *PreferencesUpdate) Apply(p *Preferences, now time.Time) {
	for c, enabled := range u.Categories {
		if p.Categories == nil {
			p.Categories = make(map[Category]bool)
		}
		p.Categories[c] = enabled
	}
	if u.CriticalEnabled != nil {
		p.CriticalEnabled = *u.CriticalEnabled
	}
	if u.MediumMode != nil && u.MediumMode.IsValid() {
		p.MediumMode = *u.MediumMode
	}
	if u.LowEnabled != nil {
		p.LowEnabled = *u.LowEnabled
	}
	if u.QuietHours != nil {
		p.QuietHours = *u.QuietHours
	}
	if u.Channels != nil {
		p.Channels = *u.Channels
	}
	if u.Timezone != nil {
		p.Timezone = *u.Timezone
	}
	p.EnforceImmutable()
	p.UpdatedAt = now
}
