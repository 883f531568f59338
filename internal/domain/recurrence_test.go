package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestNextRenewal_Weekly tests the seven day step
func TestNextRenewal_Weekly(t *testing.T) {
	tests := []struct {
		name     string
		after    time.Time
		expected time.Time
	}{
		{"mid month", date(2024, 1, 1), date(2024, 1, 8)},
		{"crosses month boundary", date(2024, 1, 29), date(2024, 2, 5)},
		{"crosses year boundary", date(2023, 12, 28), date(2024, 1, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextRenewal(tt.after, CycleWeekly))
		})
	}
}

// TestNextRenewal_MonthlyClampsDayOfMonth tests calendar month arithmetic
func TestNextRenewal_MonthlyClampsDayOfMonth(t *testing.T) {
	tests := []struct {
		name     string
		after    time.Time
		expected time.Time
	}{
		{"ordinary date", date(2024, 1, 15), date(2024, 2, 15)},
		{"jan 31 clamps to leap feb 29", date(2024, 1, 31), date(2024, 2, 29)},
		{"jan 31 clamps to feb 28", date(2023, 1, 31), date(2023, 2, 28)},
		{"mar 31 clamps to apr 30", date(2024, 3, 31), date(2024, 4, 30)},
		{"dec rolls into next year", date(2024, 12, 15), date(2025, 1, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextRenewal(tt.after, CycleMonthly))
		})
	}
}

// TestNextRenewal_YearlyClampsLeapDay tests calendar year arithmetic
func TestNextRenewal_YearlyClampsLeapDay(t *testing.T) {
	assert.Equal(t, date(2025, 2, 28), NextRenewal(date(2024, 2, 29), CycleYearly))
	assert.Equal(t, date(2025, 6, 1), NextRenewal(date(2024, 6, 1), CycleYearly))
}

// TestNextRenewal_TruncatesToStartOfDay tests the time-of-day contract
func TestNextRenewal_TruncatesToStartOfDay(t *testing.T) {
	afternoon := time.Date(2024, 1, 1, 17, 45, 30, 0, time.UTC)
	assert.Equal(t, date(2024, 1, 8), NextRenewal(afternoon, CycleWeekly))
}

// TestNextRenewal_UnknownCycleDefaultsToMonthly tests the fallback path
func TestNextRenewal_UnknownCycleDefaultsToMonthly(t *testing.T) {
	assert.Equal(t, date(2024, 2, 15), NextRenewal(date(2024, 1, 15), BillingCycle("bogus")))
}

// TestNormalizedNextRenewal tests rolling overdue dates forward
func TestNormalizedNextRenewal(t *testing.T) {
	now := time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from     time.Time
		cycle    BillingCycle
		expected time.Time
	}{
		{"future date stays", date(2024, 2, 1), CycleMonthly, date(2024, 2, 1)},
		{"today stays", date(2024, 1, 10), CycleMonthly, date(2024, 1, 10)},
		{"weekly rolls past today", date(2024, 1, 1), CycleWeekly, date(2024, 1, 15)},
		{"weekly lands exactly on today", date(2024, 1, 3), CycleWeekly, date(2024, 1, 10)},
		{"monthly single step", date(2023, 12, 20), CycleMonthly, date(2024, 1, 20)},
		{"monthly many steps", date(2023, 3, 5), CycleMonthly, date(2024, 2, 5)},
		{"yearly step", date(2023, 1, 5), CycleYearly, date(2024, 1, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizedNextRenewal(tt.from, tt.cycle, now))
		})
	}
}

// TestNormalizedNextRenewal_Idempotent tests that normalizing twice is a no-op
func TestNormalizedNextRenewal_Idempotent(t *testing.T) {
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	for _, cycle := range []BillingCycle{CycleWeekly, CycleMonthly, CycleYearly} {
		once := NormalizedNextRenewal(date(2022, 7, 31), cycle, now)
		twice := NormalizedNextRenewal(once, cycle, now)
		assert.Equal(t, once, twice, "cycle %s", cycle)
	}
}

// TestNormalizedNextRenewal_PreservesClampThroughWalk tests that repeated monthly
// steps keep landing on month ends once clamped
func TestNormalizedNextRenewal_PreservesClampThroughWalk(t *testing.T) {
	now := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	// Jan 31 -> Feb 29 -> Mar 29 -> Apr 29
	assert.Equal(t, date(2024, 4, 29), NormalizedNextRenewal(date(2024, 1, 31), CycleMonthly, now))
}
