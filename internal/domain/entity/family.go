package entity

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Family groups guardians and children sharing settings and safety state.
type Family struct {
	ID                     uuid.UUID   `json:"id"`
	GuardianIDs            []uuid.UUID `json:"guardian_ids"`
	ChildIDs               []uuid.UUID `json:"child_ids"`
	StealthActive          bool        `json:"-"`
	StealthWindowStart     *time.Time  `json:"-"`
	StealthWindowEnd       *time.Time  `json:"-"`
	StealthTicketID        string      `json:"-"`
	StealthAffectedUserIDs []uuid.UUID `json:"-"`
	FleeingModeActivatedAt *time.Time  `json:"-"`
	CreatedAt              time.Time   `json:"created_at"`
	UpdatedAt              time.Time   `json:"updated_at"`
}

// StealthWindow returns the family's stealth state as a value object.
func (f *Family) StealthWindow() StealthWindow {
	w := StealthWindow{
		Active:          f.StealthActive,
		TicketID:        f.StealthTicketID,
		AffectedUserIDs: slices.Clone(f.StealthAffectedUserIDs),
	}
	if f.StealthWindowStart != nil {
		w.WindowStart = *f.StealthWindowStart
	}
	if f.StealthWindowEnd != nil {
		w.WindowEnd = *f.StealthWindowEnd
	}

	return w
}

// ApplyStealthWindow copies a window back onto the family document.
func (f *Family) ApplyStealthWindow(w StealthWindow) {
	start, end := w.WindowStart, w.WindowEnd
	f.StealthActive = w.Active
	f.StealthWindowStart = &start
	f.StealthWindowEnd = &end
	f.StealthTicketID = w.TicketID
	f.StealthAffectedUserIDs = slices.Clone(w.AffectedUserIDs)
}

// ClearStealth nulls every stealth field.
func (f *Family) ClearStealth() {
	f.StealthActive = false
	f.StealthWindowStart = nil
	f.StealthWindowEnd = nil
	f.StealthTicketID = ""
	f.StealthAffectedUserIDs = nil
	f.FleeingModeActivatedAt = nil
}

// HasStealthState reports whether any stealth field is set.
func (f *Family) HasStealthState() bool {
	return f.StealthActive || f.StealthWindowStart != nil || f.StealthWindowEnd != nil ||
		f.StealthTicketID != "" || len(f.StealthAffectedUserIDs) > 0 || f.FleeingModeActivatedAt != nil
}

// StealthWindow is the per-family suppression window.
// Invariant: Active implies WindowEnd after WindowStart.
type StealthWindow struct {
	Active          bool        `json:"active"`
	WindowStart     time.Time   `json:"window_start"`
	WindowEnd       time.Time   `json:"window_end"`
	TicketID        string      `json:"ticket_id"`
	AffectedUserIDs []uuid.UUID `json:"affected_user_ids"`
}

// IsActiveAt reports whether the window shields recipients at now.
func (w StealthWindow) IsActiveAt(now time.Time) bool {
	return w.Active && w.WindowEnd.After(now)
}

// Affects reports whether userID is in the affected set.
func (w StealthWindow) Affects(userID uuid.UUID) bool {
	return slices.Contains(w.AffectedUserIDs, userID)
}

// UnionUserIDs merges b into a preserving order and dropping duplicates.
func UnionUserIDs(a, b []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(a)+len(b))
	seen := make(map[uuid.UUID]struct{}, len(a)+len(b))
	for _, list := range [][]uuid.UUID{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	return out
}

// Recipient is the contact record for a guardian or child.
type Recipient struct {
	ID            uuid.UUID  `json:"id"`
	FamilyID      uuid.UUID  `json:"family_id"`
	Role          Role       `json:"role"`
	DisplayName   string     `json:"display_name"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	Phone         string     `json:"phone"`
	PhoneVerified bool       `json:"phone_verified"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	Timezone      string     `json:"timezone"`
}

// AgeAt returns the recipient's age in whole years, or -1 when unknown.
func (r *Recipient) AgeAt(now time.Time) int {
	if r.BirthDate == nil {
		return -1
	}
	b := *r.BirthDate
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}

	return age
}

// HasEmail reports whether an email address is on file.
func (r *Recipient) HasEmail() bool {
	return r.Email != ""
}

// CanReceiveSMS reports whether a verified phone number is on file.
func (r *Recipient) CanReceiveSMS() bool {
	return r.Phone != "" && r.PhoneVerified
}
