package policy

import (
	"testing"
	"time"

	"kinwatch/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	m, ok := ParseClock("07:30")
	assert.True(t, ok)
	assert.Equal(t, 450, m)

	for _, bad := range []string{"", "7", "24:00", "12:60", "ab:cd"} {
		_, ok := ParseClock(bad)
		assert.False(t, ok, bad)
	}
}

func TestInQuietHours(t *testing.T) {
	wrap := &entity.Preferences{QuietHours: entity.QuietHours{Enabled: true, Start: "22:00", End: "07:00"}}
	day := &entity.Preferences{QuietHours: entity.QuietHours{Enabled: true, Start: "13:00", End: "15:00"}}

	tests := []struct {
		name  string
		prefs *entity.Preferences
		at    time.Time
		want  bool
	}{
		{"before wrap start", wrap, time.Date(2026, 10, 14, 21, 59, 0, 0, time.UTC), false},
		{"at wrap start", wrap, time.Date(2026, 10, 14, 22, 0, 0, 0, time.UTC), true},
		{"after midnight", wrap, time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC), true},
		{"at end is outside", wrap, time.Date(2026, 10, 15, 7, 0, 0, 0, time.UTC), false},
		{"inside daytime window", day, time.Date(2026, 10, 14, 14, 0, 0, 0, time.UTC), true},
		{"outside daytime window", day, time.Date(2026, 10, 14, 16, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InQuietHours(tt.prefs, tt.at))
		})
	}
}

func TestInQuietHours_Disabled(t *testing.T) {
	p := &entity.Preferences{QuietHours: entity.QuietHours{Enabled: false, Start: "00:00", End: "23:59"}}
	assert.False(t, InQuietHours(p, time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)))
	assert.False(t, InQuietHours(nil, time.Now()))
}

func TestInQuietHours_Weekend(t *testing.T) {
	p := &entity.Preferences{QuietHours: entity.QuietHours{
		Enabled: true,
		Start:   "22:00",
		End:     "07:00",
		Weekend: &entity.QuietWindow{Start: "23:00", End: "09:00"},
	}}

	// Saturday 08:00 is quiet under the weekend window only.
	assert.True(t, InQuietHours(p, time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)))
	// Wednesday 08:00 is not.
	assert.False(t, InQuietHours(p, time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)))
	// Saturday 22:30 is before the weekend start.
	assert.False(t, InQuietHours(p, time.Date(2026, 10, 17, 22, 30, 0, 0, time.UTC)))

	end := NextQuietEnd(p, time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC), end)
}

func TestInQuietHours_RecipientTimezone(t *testing.T) {
	p := &entity.Preferences{
		Timezone:   "America/New_York",
		QuietHours: entity.QuietHours{Enabled: true, Start: "22:00", End: "07:00"},
	}

	// 03:00 UTC is 23:00 the previous evening in New York (EDT).
	at := time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)
	assert.True(t, InQuietHours(p, at))
	assert.Equal(t, time.Date(2026, 10, 15, 11, 0, 0, 0, time.UTC), NextQuietEnd(p, at))
}

func TestNextQuietEnd_SameMorning(t *testing.T) {
	p := &entity.Preferences{QuietHours: entity.QuietHours{Enabled: true, Start: "22:00", End: "07:00"}}

	end := NextQuietEnd(p, time.Date(2026, 10, 15, 2, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 10, 15, 7, 0, 0, 0, time.UTC), end)
}

func TestValidQuietHours(t *testing.T) {
	assert.True(t, ValidQuietHours(entity.QuietHours{Start: "22:00", End: "07:00"}))
	assert.False(t, ValidQuietHours(entity.QuietHours{Start: "22", End: "07:00"}))
	assert.False(t, ValidQuietHours(entity.QuietHours{
		Start:   "22:00",
		End:     "07:00",
		Weekend: &entity.QuietWindow{Start: "x", End: "09:00"},
	}))
}

func TestNextQuietEnd_WeekendBoundaries(t *testing.T) {
	p := &entity.Preferences{QuietHours: entity.QuietHours{
		Enabled: true,
		Start:   "22:00",
		End:     "07:00",
		Weekend: &entity.QuietWindow{Start: "23:00", End: "10:00"},
	}}

	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{"friday night runs into the weekend window", time.Date(2026, 10, 16, 23, 30, 0, 0, time.UTC), time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)},
		{"sunday night ends on the weekday window", time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC), time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)},
		{"saturday morning", time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC), time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := NextQuietEnd(p, tt.at)
			assert.Equal(t, tt.want, end)
			assert.False(t, InQuietHours(p, end))
			assert.True(t, InQuietHours(p, end.Add(-time.Minute)))
		})
	}
}

func TestNextQuietEnd_NotQuiet(t *testing.T) {
	p := &entity.Preferences{QuietHours: entity.QuietHours{Enabled: true, Start: "22:00", End: "07:00"}}
	at := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, at, NextQuietEnd(p, at))
}
