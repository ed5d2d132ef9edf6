package policy

import (
	"testing"
	"time"

	"kinwatch/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func guardianPrefs(t *testing.T) *entity.Preferences {
	t.Helper()
	r := &entity.Recipient{ID: uuid.New(), Role: entity.RoleGuardian, Timezone: "UTC"}

	return entity.DefaultPreferences(r, time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
}

func TestRoute_SeverityRules(t *testing.T) {
	noon := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		category entity.Category
		severity entity.Severity
		mutate   func(p *entity.Preferences)
		want     entity.Route
		reason   entity.Reason
	}{
		{
			name:     "critical enabled is immediate",
			category: entity.CategoryCriticalFlag,
			severity: entity.SeverityCritical,
			want:     entity.RouteImmediate,
			reason:   entity.ReasonCriticalEnabled,
		},
		{
			name:     "critical disabled is skipped",
			category: entity.CategoryCriticalFlag,
			severity: entity.SeverityCritical,
			mutate:   func(p *entity.Preferences) { p.CriticalEnabled = false },
			want:     entity.RouteSkipped,
			reason:   entity.ReasonCriticalDisabled,
		},
		{
			name:     "medium immediate",
			category: entity.CategoryContentFlag,
			severity: entity.SeverityMedium,
			want:     entity.RouteImmediate,
			reason:   entity.ReasonMediumImmediate,
		},
		{
			name:     "medium digest",
			category: entity.CategoryContentFlag,
			severity: entity.SeverityMedium,
			mutate:   func(p *entity.Preferences) { p.MediumMode = entity.MediumDigest },
			want:     entity.RouteHourlyDigest,
			reason:   entity.ReasonQueuedHourlyDigest,
		},
		{
			name:     "medium off",
			category: entity.CategoryContentFlag,
			severity: entity.SeverityMedium,
			mutate:   func(p *entity.Preferences) { p.MediumMode = entity.MediumOff },
			want:     entity.RouteSkipped,
			reason:   entity.ReasonMediumOff,
		},
		{
			name:     "low enabled goes to daily digest",
			category: entity.CategoryLimitReached,
			severity: entity.SeverityLow,
			want:     entity.RouteDailyDigest,
			reason:   entity.ReasonQueuedDailyDigest,
		},
		{
			name:     "low disabled",
			category: entity.CategoryLimitReached,
			severity: entity.SeverityLow,
			mutate:   func(p *entity.Preferences) { p.LowEnabled = false },
			want:     entity.RouteSkipped,
			reason:   entity.ReasonLowDisabled,
		},
		{
			name:     "category disabled wins over severity",
			category: entity.CategoryContentFlag,
			severity: entity.SeverityCritical,
			mutate:   func(p *entity.Preferences) { p.Categories[entity.CategoryContentFlag] = false },
			want:     entity.RouteSkipped,
			reason:   entity.ReasonCategoryDisabled,
		},
		{
			name:     "safety category ignores critical flag",
			category: entity.CategoryCrisisAlert,
			severity: entity.SeverityCritical,
			mutate: func(p *entity.Preferences) {
				p.CriticalEnabled = false
				p.Categories[entity.CategoryCrisisAlert] = false
			},
			want:   entity.RouteImmediate,
			reason: entity.ReasonSafetyCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := guardianPrefs(t)
			if tt.mutate != nil {
				tt.mutate(prefs)
			}
			d := Route(tt.category, tt.severity, prefs, noon)
			assert.Equal(t, tt.want, d.Route)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestRoute_TotalAndDeterministic(t *testing.T) {
	now := time.Date(2026, 10, 14, 23, 30, 0, 0, time.UTC)
	valid := map[entity.Route]bool{
		entity.RouteImmediate:    true,
		entity.RouteHourlyDigest: true,
		entity.RouteDailyDigest:  true,
		entity.RouteSkipped:      true,
		entity.RouteDelayed:      true,
	}

	severities := []entity.Severity{entity.SeverityCritical, entity.SeverityMedium, entity.SeverityLow, "bogus"}
	modes := []entity.MediumMode{entity.MediumImmediate, entity.MediumDigest, entity.MediumOff}

	for _, c := range entity.AllCategories {
		for _, s := range severities {
			for _, m := range modes {
				for _, flags := range []bool{true, false} {
					prefs := guardianPrefs(t)
					prefs.MediumMode = m
					prefs.CriticalEnabled = flags
					prefs.LowEnabled = flags
					prefs.Categories[c] = flags
					prefs.QuietHours.Enabled = flags

					first := Route(c, s, prefs, now)
					second := Route(c, s, prefs, now)
					assert.Equal(t, first, second)
					assert.True(t, valid[first.Route], "unexpected route %q", first.Route)
					assert.NotEmpty(t, first.Reason)
				}
			}
		}
	}
}

func TestRoute_QuietHoursDelay(t *testing.T) {
	prefs := guardianPrefs(t)
	prefs.QuietHours = entity.QuietHours{Enabled: true, Start: "22:00", End: "07:00"}
	now := time.Date(2026, 10, 14, 23, 15, 0, 0, time.UTC)

	d := Route(entity.CategoryContentFlag, entity.SeverityMedium, prefs, now)
	assert.Equal(t, entity.RouteDelayed, d.Route)
	assert.Equal(t, entity.ReasonQuietHoursDelayed, d.Reason)
	assert.Equal(t, time.Date(2026, 10, 15, 7, 0, 0, 0, time.UTC), d.DeliverAt)
}

func TestRoute_QuietHoursImmuneCategories(t *testing.T) {
	prefs := guardianPrefs(t)
	prefs.QuietHours = entity.QuietHours{Enabled: true, Start: "22:00", End: "07:00"}
	now := time.Date(2026, 10, 14, 2, 0, 0, 0, time.UTC)

	for _, c := range []entity.Category{
		entity.CategoryLoginAlert,
		entity.CategoryExtensionRequest,
		entity.CategoryPermissionRevoked,
		entity.CategoryDeviceRemoved,
		entity.CategoryCrisisAlert,
	} {
		d := Route(c, entity.SeverityCritical, prefs, now)
		assert.NotEqual(t, entity.RouteDelayed, d.Route, c)
	}

	d := Route(entity.CategoryContentFlag, entity.SeverityCritical, prefs, now, WithQuietHoursBypass(true))
	assert.Equal(t, entity.RouteImmediate, d.Route)
}

func TestRoute_DigestRoutesIgnoreQuietHours(t *testing.T) {
	prefs := guardianPrefs(t)
	prefs.QuietHours = entity.QuietHours{Enabled: true, Start: "00:00", End: "23:59"}
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	d := Route(entity.CategoryLimitReached, entity.SeverityLow, prefs, now)
	assert.Equal(t, entity.RouteDailyDigest, d.Route)
	assert.True(t, d.IsDigest())
	assert.Equal(t, entity.DigestDaily, d.DigestType())
}

func TestRoute_NilPreferences(t *testing.T) {
	d := Route(entity.CategoryContentFlag, entity.SeverityCritical, nil, time.Now())
	assert.Equal(t, entity.RouteSkipped, d.Route)
	assert.Equal(t, entity.ReasonPreferencesUnavailable, d.Reason)
}

func TestRoute_CoParentIndependence(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	a := guardianPrefs(t)
	b := guardianPrefs(t)
	b.CriticalEnabled = false

	da := Route(entity.CategoryCriticalFlag, entity.SeverityCritical, a, now)
	db := Route(entity.CategoryCriticalFlag, entity.SeverityCritical, b, now)

	assert.Equal(t, entity.RouteImmediate, da.Route)
	assert.Equal(t, entity.RouteSkipped, db.Route)
	assert.Equal(t, entity.ReasonCriticalDisabled, db.Reason)
	assert.True(t, a.CriticalEnabled)
}
