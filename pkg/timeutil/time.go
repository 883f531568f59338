package timeutil

import "time"

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// ParseDate parses a date string and returns a UTC time
func ParseDate(layout, value string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// StartOfDay returns the start of the day (midnight) in UTC
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AtHour returns the same UTC calendar day with the clock set to hour:00:00
func AtHour(t time.Time, hour int) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

// AddMonthsClamped adds calendar months, clamping the day-of-month to the last
// valid day of the target month. time.Time.AddDate normalizes overflow instead
// (Jan 31 + 1 month becomes Mar 2/3), which is the wrong behaviour for renewal dates.
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.UTC().Date()
	hour, min, sec := t.Clock()

	firstOfTarget := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	if last := DaysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, min, sec, t.Nanosecond(), time.UTC)
}

// AddYearsClamped adds calendar years with the same day clamping
// (Feb 29 + 1 year = Feb 28)
func AddYearsClamped(t time.Time, years int) time.Time {
	return AddMonthsClamped(t, years*12)
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ToUTC converts a time.Time to UTC if it isn't already
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}
