package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func birthday(now time.Time, years int) *time.Time {
	b := now.AddDate(-years, 0, -1)

	return &b
}

func TestDefaultPreferences_Guardian(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	p := DefaultPreferences(&Recipient{ID: uuid.New(), Role: RoleGuardian}, now)

	assert.True(t, p.CriticalEnabled)
	assert.Equal(t, MediumImmediate, p.MediumMode)
	assert.True(t, p.LowEnabled)
	assert.False(t, p.QuietHours.Enabled)
	assert.Equal(t, "22:00", p.QuietHours.Start)
	assert.Equal(t, Channels{Push: true, Email: true}, p.Channels)
	for _, c := range AllCategories {
		assert.True(t, p.CategoryEnabled(c), c)
	}
}

func TestDefaultPreferences_ChildByAge(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	teen := DefaultPreferences(&Recipient{ID: uuid.New(), Role: RoleChild, BirthDate: birthday(now, 14)}, now)
	young := DefaultPreferences(&Recipient{ID: uuid.New(), Role: RoleChild, BirthDate: birthday(now, 10)}, now)

	for _, p := range []*Preferences{teen, young} {
		assert.False(t, p.CriticalEnabled)
		assert.Equal(t, MediumOff, p.MediumMode)
		assert.False(t, p.LowEnabled)
		assert.True(t, p.QuietHours.Enabled)
		assert.Equal(t, "21:00", p.QuietHours.Start)
		assert.True(t, p.CategoryEnabled(CategoryLoginAlert))
		assert.False(t, p.CategoryEnabled(CategoryContentFlag))
		assert.True(t, p.Channels.Push)
		assert.False(t, p.Channels.SMS)
	}
	assert.True(t, teen.Channels.Email)
	assert.False(t, young.Channels.Email)
}

func TestPreferences_ChannelsForcedForSecurity(t *testing.T) {
	p := &Preferences{Channels: Channels{Push: false, Email: false, SMS: true}}

	for _, c := range []Category{CategoryLoginAlert, CategoryDeviceRemoved, CategoryCrisisAlert} {
		assert.Equal(t, Channels{Push: true, Email: true, SMS: false}, p.ChannelsFor(c), c)
	}
	assert.Equal(t, p.Channels, p.ChannelsFor(CategoryCriticalFlag))
}

func TestPreferencesUpdate_ImmutableFieldsForced(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	p := DefaultPreferences(&Recipient{ID: uuid.New(), Role: RoleGuardian}, now)
	off := false
	mode := MediumDigest

	u := &PreferencesUpdate{
		Categories:       map[Category]bool{CategoryContentFlag: false},
		CriticalEnabled:  &off,
		MediumMode:       &mode,
		SecurityChannels: &Channels{},
	}
	u.Apply(p, now.Add(time.Minute))

	assert.False(t, p.CategoryEnabled(CategoryContentFlag))
	assert.False(t, p.CriticalEnabled)
	assert.Equal(t, MediumDigest, p.MediumMode)
	assert.Equal(t, Channels{Push: true, Email: true}, p.SecurityChannels)
	assert.Equal(t, now.Add(time.Minute), p.UpdatedAt)
}

func TestPreferences_MergeDefaults(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	d := DefaultPreferences(&Recipient{ID: uuid.New(), Role: RoleGuardian, Timezone: "Europe/London"}, now)
	partial := &Preferences{Categories: map[Category]bool{CategoryContentFlag: false}}

	partial.MergeDefaults(d)

	assert.False(t, partial.Categories[CategoryContentFlag])
	assert.True(t, partial.Categories[CategoryLoginAlert])
	assert.Equal(t, MediumImmediate, partial.MediumMode)
	assert.Equal(t, "Europe/London", partial.Timezone)
	assert.Equal(t, "22:00", partial.QuietHours.Start)
	assert.Equal(t, forcedSecurityChannels, partial.SecurityChannels)
}

func TestPreferences_Clone(t *testing.T) {
	p := &Preferences{
		Categories: map[Category]bool{CategoryContentFlag: true},
		QuietHours: QuietHours{Weekend: &QuietWindow{Start: "23:00", End: "09:00"}},
	}
	c := p.Clone()
	c.Categories[CategoryContentFlag] = false
	c.QuietHours.Weekend.Start = "00:00"

	assert.True(t, p.Categories[CategoryContentFlag])
	assert.Equal(t, "23:00", p.QuietHours.Weekend.Start)
}

func TestPreferences_LocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, (&Preferences{}).Location())
	assert.Equal(t, time.UTC, (&Preferences{Timezone: "Not/AZone"}).Location())
	loc := (&Preferences{Timezone: "Asia/Tokyo"}).Location()
	require.NotNil(t, loc)
	assert.Equal(t, "Asia/Tokyo", loc.String())
}
