package domain

import (
	"time"

	"github.com/renewo/renewo-server/pkg/timeutil"
)

// NextRenewal advances the start-of-day of date by one billing cycle.
// Calendar month/year steps clamp the day-of-month, so Jan 31 + 1 month lands on
// the last day of February rather than overflowing into March.
func NextRenewal(after time.Time, cycle BillingCycle) time.Time {
	base := timeutil.StartOfDay(after)
	switch cycle {
	case CycleWeekly:
		return base.AddDate(0, 0, 7)
	case CycleMonthly:
		return timeutil.AddMonthsClamped(base, 1)
	case CycleYearly:
		return timeutil.AddYearsClamped(base, 1)
	default:
		return timeutil.AddMonthsClamped(base, 1)
	}
}

// NormalizedNextRenewal rolls a stored renewal date forward until it is no longer
// before the start of today. A date already at or past today is only normalized
// to start-of-day, never advanced. The non-progress guard terminates the walk if
// a cycle ever fails to move the candidate forward; that cannot happen for the
// three defined cycles but is part of the contract.
func NormalizedNextRenewal(from time.Time, cycle BillingCycle, now time.Time) time.Time {
	startOfToday := timeutil.StartOfDay(now)
	candidate := timeutil.StartOfDay(from)

	for candidate.Before(startOfToday) {
		next := NextRenewal(candidate, cycle)
		if !next.After(candidate) {
			break
		}
		candidate = next
	}

	return candidate
}
