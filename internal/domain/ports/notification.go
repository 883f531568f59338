package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/renewo/renewo-server/internal/domain/models"
)

// AuthorizationStatus mirrors the platform notification permission states
type AuthorizationStatus string

const (
	AuthorizationAuthorized    AuthorizationStatus = "authorized"
	AuthorizationDenied        AuthorizationStatus = "denied"
	AuthorizationNotDetermined AuthorizationStatus = "notDetermined"
	AuthorizationUnknown       AuthorizationStatus = "unknown"
)

// NotificationScheduler manages renewal reminders. At most one pending alert
// exists per subscription: scheduling again for the same identifier supersedes
// the previous alert instead of duplicating it.
type NotificationScheduler interface {
	// ScheduleRenewalNotification (re)schedules the single pending alert for id
	ScheduleRenewalNotification(ctx context.Context, id uuid.UUID, name string, renewalDate time.Time, reminderDays int, now time.Time) error

	// CancelNotification removes the pending alert for id. It exposes no
	// failure path to callers.
	CancelNotification(ctx context.Context, id uuid.UUID)

	// GetAuthorizationStatus returns the current notification permission state
	GetAuthorizationStatus(ctx context.Context) AuthorizationStatus

	// RequestAuthorizationIfNeeded prompts for permission when undetermined and
	// reports whether notifications are authorized afterwards
	RequestAuthorizationIfNeeded(ctx context.Context) bool
}

// NotificationStore persists pending alerts for the scheduler adapter
type NotificationStore interface {
	// Upsert inserts or replaces the pending alert keyed by subscription id
	Upsert(ctx context.Context, db DBTX, notification *models.PendingNotification) error

	// Delete removes the pending alert for a subscription, if any
	Delete(ctx context.Context, db DBTX, subscriptionID uuid.UUID) error

	// GetBySubscriptionID fetches the pending alert for a subscription
	GetBySubscriptionID(ctx context.Context, db DBTX, subscriptionID uuid.UUID) (*models.PendingNotification, error)

	// ListDueBefore returns alerts with a fire time at or before the cutoff
	ListDueBefore(ctx context.Context, db DBTX, cutoff time.Time) ([]*models.PendingNotification, error)
}
