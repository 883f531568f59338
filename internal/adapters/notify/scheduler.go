package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/renewo/renewo-server/internal/domain"
	"github.com/renewo/renewo-server/internal/domain/models"
	"github.com/renewo/renewo-server/internal/domain/ports"
)

// Scheduler implements ports.NotificationScheduler over the pending-alert
// store. One alert exists per subscription at a time: scheduling upserts on
// the subscription id, cancellation deletes it. Delivery is a separate
// concern handled by whatever drains the due alerts.
type Scheduler struct {
	store    ports.NotificationStore
	settings ports.SettingsStore
	logger   ports.Logger
}

// NewScheduler creates a new notification scheduler
func NewScheduler(store ports.NotificationStore, settings ports.SettingsStore, logger ports.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		settings: settings,
		logger:   logger,
	}
}

// ScheduleRenewalNotification (re)schedules the single pending alert for id
func (s *Scheduler) ScheduleRenewalNotification(ctx context.Context, id uuid.UUID, name string, renewalDate time.Time, reminderDays int, now time.Time) error {
	fireAt := domain.NotificationFireDate(renewalDate, reminderDays, now)

	notification := &models.PendingNotification{
		SubscriptionID: id,
		Title:          name,
		Body:           fmt.Sprintf("Renews on %s", renewalDate.Format("Jan 2, 2006")),
		RenewalDate:    renewalDate,
		FireAt:         fireAt,
		UpdatedAt:      now,
	}

	if err := s.store.Upsert(ctx, nil, notification); err != nil {
		return domain.WrapError(domain.ErrorCodeNotificationFailed, "schedule renewal notification", err)
	}

	s.logger.Debug("renewal notification scheduled",
		ports.String("subscription_id", id.String()),
		ports.Time("fire_at", fireAt))

	return nil
}

// CancelNotification removes the pending alert for id. Failures are logged,
// never surfaced: the port exposes no failure path for cancellation.
func (s *Scheduler) CancelNotification(ctx context.Context, id uuid.UUID) {
	if err := s.store.Delete(ctx, nil, id); err != nil {
		s.logger.Warn("cancel notification failed",
			ports.String("subscription_id", id.String()),
			ports.Err(err))
	}
}

// GetAuthorizationStatus returns the stored notification permission state
func (s *Scheduler) GetAuthorizationStatus(ctx context.Context) ports.AuthorizationStatus {
	status, err := s.settings.NotificationAuthorization(ctx)
	if err != nil {
		s.logger.Warn("read notification authorization failed", ports.Err(err))
		return ports.AuthorizationUnknown
	}
	return status
}

// RequestAuthorizationIfNeeded grants authorization when it is still
// undetermined and reports whether notifications are authorized afterwards
func (s *Scheduler) RequestAuthorizationIfNeeded(ctx context.Context) bool {
	switch s.GetAuthorizationStatus(ctx) {
	case ports.AuthorizationAuthorized:
		return true
	case ports.AuthorizationDenied:
		return false
	case ports.AuthorizationNotDetermined:
		if err := s.settings.SetNotificationAuthorization(ctx, ports.AuthorizationAuthorized); err != nil {
			s.logger.Warn("store notification authorization failed", ports.Err(err))
			return false
		}
		if err := s.settings.SetHasSeenNotificationPrompt(ctx, true); err != nil {
			s.logger.Warn("store notification prompt flag failed", ports.Err(err))
		}
		return true
	default:
		return false
	}
}
