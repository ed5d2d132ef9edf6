package policy

import (
	"strconv"
	"strings"
	"time"

	"kinwatch/internal/domain/entity"
)

const minutesPerDay = 24 * 60

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, bool) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}

	return h*60 + m, true
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()

	return wd == time.Saturday || wd == time.Sunday
}

// activeWindow picks the weekday or weekend window for the local day of t.
func activeWindow(q entity.QuietHours, local time.Time) (start, end int, ok bool) {
	s, e := q.Start, q.End
	if q.Weekend != nil && isWeekend(local) {
		s, e = q.Weekend.Start, q.Weekend.End
	}
	start, okStart := ParseClock(s)
	end, okEnd := ParseClock(e)
	if !okStart || !okEnd || start == end {
		return 0, 0, false
	}

	return start, end, true
}

func inWindow(start, end, minute int) bool {
	if start < end {
		return minute >= start && minute < end
	}

	return minute >= start || minute < end
}

// InQuietHours reports whether now falls inside the recipient's quiet window
// [start, end) in their own timezone. Windows with end before start wrap midnight.
func InQuietHours(prefs *entity.Preferences, now time.Time) bool {
	if prefs == nil || !prefs.QuietHours.Enabled {
		return false
	}
	local := now.In(prefs.Location())
	start, end, ok := activeWindow(prefs.QuietHours, local)
	if !ok {
		return false
	}

	return inWindow(start, end, local.Hour()*60+local.Minute())
}

// maxQuietSteps bounds the walk in NextQuietEnd; back-to-back windows can
// chain across a few days but never more.
const maxQuietSteps = 16

// NextQuietEnd returns the first moment after now at which the recipient is
// no longer in quiet hours, or now itself when they are not. The window in
// force is picked per local day, so quiet hours can only stop at a window end
// or at a local midnight where the next day's window takes over.
func NextQuietEnd(prefs *entity.Preferences, now time.Time) time.Time {
	if !InQuietHours(prefs, now) {
		return now
	}
	loc := prefs.Location()
	at := now.In(loc)

	for range maxQuietSteps {
		_, end, _ := activeWindow(prefs.QuietHours, at)
		next := time.Date(at.Year(), at.Month(), at.Day(), end/60, end%60, 0, 0, loc)
		if !next.After(at) {
			next = time.Date(at.Year(), at.Month(), at.Day()+1, end/60, end%60, 0, 0, loc)
		}
		if midnight := time.Date(at.Year(), at.Month(), at.Day()+1, 0, 0, 0, 0, loc); midnight.Before(next) {
			next = midnight
		}
		at = next
		if !InQuietHours(prefs, at) {
			break
		}
	}

	return at.UTC()
}

// ValidQuietHours reports whether both clock values parse.
func ValidQuietHours(q entity.QuietHours) bool {
	if _, ok := ParseClock(q.Start); !ok {
		return false
	}
	if _, ok := ParseClock(q.End); !ok {
		return false
	}
	if q.Weekend != nil {
		if _, ok := ParseClock(q.Weekend.Start); !ok {
			return false
		}
		if _, ok := ParseClock(q.Weekend.End); !ok {
			return false
		}
	}

	return true
}
