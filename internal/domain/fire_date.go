package domain

import (
	"time"

	"github.com/renewo/renewo-server/pkg/timeutil"
)

// NotificationHour is the wall-clock hour at which renewal reminders fire
const NotificationHour = 9

// NotificationFireDate computes the absolute time the reminder for renewalDate
// should fire: reminderDays before the renewal at 09:00. If that moment has
// already passed relative to now, the candidate renewal is walked forward one
// day at a time until the fire time is in the future. The walk is deliberately
// not cycle-aware: on the normal path the renewal date has already been rolled
// to the future by NormalizedNextRenewal.
func NotificationFireDate(renewalDate time.Time, reminderDays int, now time.Time) time.Time {
	candidate := timeutil.StartOfDay(renewalDate)
	fireAt := fireTime(candidate, reminderDays)

	for fireAt.Before(now) {
		candidate = candidate.AddDate(0, 0, 1)
		fireAt = fireTime(candidate, reminderDays)
	}

	return fireAt
}

func fireTime(renewalDate time.Time, reminderDays int) time.Time {
	return timeutil.AtHour(renewalDate.AddDate(0, 0, -reminderDays), NotificationHour)
}
