package model

import "time"

const hoursPerDay = 24

// ClassifyUsage maps time since last use to a usage tier. The 7/30/90 day
// boundaries belong to the lower tier (a subscription used exactly 7 days ago
// is still "high"). A nil lastUsed means the subscription was never used.
func ClassifyUsage(now time.Time, lastUsed *time.Time) UsagePattern {
	if lastUsed == nil {
		return UsageNone
	}

	days := DaysSince(now, *lastUsed)
	switch {
	case days <= 7:
		return UsageHigh
	case days <= 30:
		return UsageMedium
	case days <= 90:
		return UsageLow
	default:
		return UsageNone
	}
}

// DaysSince returns full days elapsed from t to now, truncating partial days.
func DaysSince(now, t time.Time) int {
	return int(now.Sub(t).Hours() / hoursPerDay)
}

// DaysUntil returns days from now until t, rounding partial days up. Negative
// when t is in the past.
func DaysUntil(now, t time.Time) int {
	diff := t.Sub(now)
	days := diff / (hoursPerDay * time.Hour)
	if diff%(hoursPerDay*time.Hour) > 0 {
		days++
	}
	return int(days)
}
