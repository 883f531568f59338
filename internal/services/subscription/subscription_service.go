package subscription

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/renewo/renewo-server/internal/domain"
	"github.com/renewo/renewo-server/internal/domain/models"
	"github.com/renewo/renewo-server/internal/domain/ports"
	"github.com/renewo/renewo-server/pkg/timeutil"
	"github.com/shopspring/decimal"
)

// SweepOptions controls error handling for the overdue-renewal sweep.
// BestEffort is used by the startup and cron callers: failures are logged and
// swallowed so a transient hiccup never blocks the app from coming up.
// User-triggered sweeps leave it false and see the errors.
type SweepOptions struct {
	BestEffort bool
}

// Service owns all subscription mutations: it validates drafts, applies
// entitlement gating, normalizes renewal dates, persists under a single write
// transaction, and dispatches the notification side effect after commit.
// Entitlement is always an explicit isPro argument, never read from shared state.
type Service struct {
	db        ports.DBPort
	store     ports.SubscriptionStore
	scheduler ports.NotificationScheduler
	settings  ports.SettingsStore
	logger    ports.Logger
	now       func() time.Time
}

// NewService creates a new subscription service. A nil now falls back to
// timeutil.Now; tests inject a fixed clock.
func NewService(
	db ports.DBPort,
	store ports.SubscriptionStore,
	scheduler ports.NotificationScheduler,
	settings ports.SettingsStore,
	logger ports.Logger,
	now func() time.Time,
) *Service {
	if now == nil {
		now = timeutil.Now
	}
	return &Service{
		db:        db,
		store:     store,
		scheduler: scheduler,
		settings:  settings,
		logger:    logger,
		now:       now,
	}
}

// Add creates a subscription from a draft. The row insert and the free-tier
// count check share one transaction; the notification is scheduled only after
// commit. A scheduling failure is surfaced to the caller but does NOT roll
// back the committed row - a failed reminder must not undo a successful save.
func (s *Service) Add(ctx context.Context, draft models.SubscriptionDraft, isPro bool) (uuid.UUID, error) {
	now := s.now()

	if err := validateDraft(draft); err != nil {
		return uuid.Nil, err
	}

	reminderDays, err := s.resolveReminderDays(ctx, draft.ReminderDays, isPro)
	if err != nil {
		return uuid.Nil, err
	}

	category := draft.Category
	if !domain.CanUseCategories(isPro) {
		category = nil
	}

	sub := &models.Subscription{
		ID:           uuid.New(),
		Name:         draft.Name,
		Amount:       draft.Amount,
		CurrencyCode: draft.CurrencyCode,
		BillingCycle: draft.BillingCycle,
		ReminderDays: reminderDays,
		Category:     category,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		count, err := s.store.Count(ctx, tx)
		if err != nil {
			return fmt.Errorf("count subscriptions: %w", err)
		}
		if !domain.CanAddSubscription(int(count), isPro) {
			return domain.ErrFreeLimitReached
		}

		sub.RenewalDate = domain.NormalizedNextRenewal(draft.RenewalDate, draft.BillingCycle, now)

		return s.store.Insert(ctx, tx, sub)
	})
	if err != nil {
		s.logger.Error("add subscription failed",
			ports.String("name", draft.Name),
			ports.Err(err))
		return uuid.Nil, err
	}

	s.logger.Info("subscription added",
		ports.String("subscription_id", sub.ID.String()),
		ports.String("cycle", string(sub.BillingCycle)),
		ports.Time("renewal_date", sub.RenewalDate))

	// Post-commit side effect: the row stays even if scheduling fails.
	if err := s.scheduler.ScheduleRenewalNotification(ctx, sub.ID, sub.Name, sub.RenewalDate, int(reminderDays), now); err != nil {
		s.logger.Warn("subscription saved but reminder scheduling failed",
			ports.String("subscription_id", sub.ID.String()),
			ports.Err(err))
		return sub.ID, err
	}

	return sub.ID, nil
}

// Update applies a partial patch. Unset fields stay untouched; Category set to
// nil clears it. The renewal date is renormalized with the post-patch cycle
// and the patched renewal date, or the stored one if the patch leaves it alone.
func (s *Service) Update(ctx context.Context, id uuid.UUID, changes models.SubscriptionChanges, isPro bool) error {
	if id == uuid.Nil {
		return domain.ValidationFailed("missing subscription id")
	}

	now := s.now()
	var updated *models.Subscription

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		sub, err := s.store.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if name, ok := changes.Name.Value(); ok {
			if strings.TrimSpace(name) == "" {
				return domain.ValidationFailed("name must not be empty")
			}
			sub.Name = name
		}
		if amount, ok := changes.Amount.Value(); ok {
			if !amount.IsPositive() {
				return domain.ValidationFailed("amount must be positive")
			}
			sub.Amount = amount
		}
		if code, ok := changes.CurrencyCode.Value(); ok {
			if strings.TrimSpace(code) == "" {
				return domain.ValidationFailed("currency code must not be empty")
			}
			sub.CurrencyCode = code
		}
		if cycle, ok := changes.BillingCycle.Value(); ok {
			if !cycle.Valid() {
				return domain.ValidationFailed(fmt.Sprintf("unknown billing cycle %q", cycle))
			}
			sub.BillingCycle = cycle
		}

		if domain.CanUseCategories(isPro) {
			if category, ok := changes.Category.Value(); ok {
				sub.Category = category
			}
		} else {
			sub.Category = nil
		}

		renewalBase := changes.RenewalDate.Or(sub.RenewalDate)
		sub.RenewalDate = domain.NormalizedNextRenewal(renewalBase, sub.BillingCycle, now)

		reminderInput := domain.FreeReminderDays
		if isPro {
			reminderInput = changes.ReminderDays.Or(int(sub.ReminderDays))
		}
		reminderDays, err := validatedReminderDays(reminderInput)
		if err != nil {
			return err
		}
		sub.ReminderDays = reminderDays

		sub.UpdatedAt = now

		if err := s.store.Update(ctx, tx, sub); err != nil {
			return err
		}

		updated = sub
		return nil
	})
	if err != nil {
		s.logger.Error("update subscription failed",
			ports.String("subscription_id", id.String()),
			ports.Err(err))
		return err
	}

	s.logger.Info("subscription updated",
		ports.String("subscription_id", id.String()),
		ports.Time("renewal_date", updated.RenewalDate))

	if err := s.scheduler.ScheduleRenewalNotification(ctx, updated.ID, updated.Name, updated.RenewalDate, int(updated.ReminderDays), now); err != nil {
		s.logger.Warn("subscription updated but reminder scheduling failed",
			ports.String("subscription_id", id.String()),
			ports.Err(err))
		return err
	}

	return nil
}

// Delete cancels the pending notification BEFORE deleting the row. If the
// order were reversed, a failed cleanup after a successful delete could leave
// a stale alert firing for a subscription that no longer exists; cancellation
// has no failure path, so cancel-first closes that window.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return domain.ValidationFailed("missing subscription id")
	}

	s.scheduler.CancelNotification(ctx, id)

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.store.Delete(ctx, tx, id)
	})
	if err != nil {
		s.logger.Error("delete subscription failed",
			ports.String("subscription_id", id.String()),
			ports.Err(err))
		return err
	}

	s.logger.Info("subscription deleted", ports.String("subscription_id", id.String()))
	return nil
}

// NormalizeOverdueRenewals rolls every stale renewal date forward in a single
// transaction, then reschedules the notification for each row that moved.
// Dispatches are independent: one failure does not abort the others.
func (s *Service) NormalizeOverdueRenewals(ctx context.Context, now time.Time, opts SweepOptions) error {
	startOfToday := timeutil.StartOfDay(now)
	var changed []*models.Subscription

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		overdue, err := s.store.ListRenewingBefore(ctx, tx, startOfToday)
		if err != nil {
			return err
		}

		for _, sub := range overdue {
			normalized := domain.NormalizedNextRenewal(sub.RenewalDate, sub.BillingCycle, now)
			if normalized.Equal(sub.RenewalDate) {
				continue
			}
			sub.RenewalDate = normalized
			sub.UpdatedAt = now
			if err := s.store.Update(ctx, tx, sub); err != nil {
				return err
			}
			changed = append(changed, sub)
		}

		return nil
	})
	if err != nil {
		if opts.BestEffort {
			s.logger.Warn("overdue renewal sweep failed", ports.Err(err))
			return nil
		}
		return err
	}

	if len(changed) > 0 {
		s.logger.Info("overdue renewals normalized", ports.Int("count", len(changed)))
	}

	var dispatchErrs []error
	for _, sub := range changed {
		if err := s.scheduler.ScheduleRenewalNotification(ctx, sub.ID, sub.Name, sub.RenewalDate, int(sub.ReminderDays), now); err != nil {
			s.logger.Warn("reschedule after sweep failed",
				ports.String("subscription_id", sub.ID.String()),
				ports.Err(err))
			dispatchErrs = append(dispatchErrs, err)
		}
	}
	if len(dispatchErrs) > 0 && !opts.BestEffort {
		return errors.Join(dispatchErrs...)
	}

	return nil
}

// Get retrieves a single subscription
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	if id == uuid.Nil {
		return nil, domain.ValidationFailed("missing subscription id")
	}
	return s.store.GetByID(ctx, nil, id)
}

// List returns all subscriptions ordered by renewal date
func (s *Service) List(ctx context.Context) ([]*models.Subscription, error) {
	return s.store.List(ctx, nil)
}

// Count returns the total number of stored subscriptions
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx, nil)
}

// MonthlyTotals aggregates all subscriptions to per-currency monthly sums
func (s *Service) MonthlyTotals(ctx context.Context) (map[string]decimal.Decimal, error) {
	return s.totals(ctx, domain.MonthlyTotals)
}

// YearlyTotals aggregates all subscriptions to per-currency yearly sums
func (s *Service) YearlyTotals(ctx context.Context) (map[string]decimal.Decimal, error) {
	return s.totals(ctx, domain.YearlyTotals)
}

func (s *Service) totals(ctx context.Context, aggregate func([]domain.RecurringAmount) map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	subs, err := s.store.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	amounts := make([]domain.RecurringAmount, len(subs))
	for i, sub := range subs {
		amounts[i] = sub.RecurringAmount()
	}
	return aggregate(amounts), nil
}

// ExportCSV renders all subscriptions as CSV. Export is a Pro feature.
func (s *Service) ExportCSV(ctx context.Context, isPro bool) (string, error) {
	if !domain.CanExportCSV(isPro) {
		return "", domain.ErrFeatureLocked
	}

	subs, err := s.store.List(ctx, nil)
	if err != nil {
		return "", err
	}

	rows := make([]domain.CSVRow, len(subs))
	for i, sub := range subs {
		rows[i] = domain.CSVRow{
			Name:         sub.Name,
			Amount:       sub.Amount,
			CurrencyCode: sub.CurrencyCode,
			BillingCycle: sub.BillingCycle,
			RenewalDate:  sub.RenewalDate,
			ReminderDays: int(sub.ReminderDays),
			Category:     sub.Category,
		}
	}

	return domain.MakeCSV(rows), nil
}

// resolveReminderDays picks the draft value or the settings default, runs it
// through gating, and bounds-checks the result
func (s *Service) resolveReminderDays(ctx context.Context, input *int, isPro bool) (int16, error) {
	days := 0
	if input != nil {
		days = *input
	} else {
		fallback, err := s.settings.DefaultReminderDays(ctx)
		if err != nil {
			return 0, fmt.Errorf("read default reminder days: %w", err)
		}
		days = fallback
	}
	return validatedReminderDays(domain.EnforcedReminderDays(days, isPro))
}

func validatedReminderDays(value int) (int16, error) {
	if value < 0 {
		return 0, domain.ValidationFailed("reminder days must not be negative")
	}
	if value > math.MaxInt16 {
		return 0, domain.ValidationFailed("reminder days too large")
	}
	return int16(value), nil
}

func validateDraft(draft models.SubscriptionDraft) error {
	if strings.TrimSpace(draft.Name) == "" {
		return domain.ValidationFailed("name must not be empty")
	}
	if !draft.Amount.IsPositive() {
		return domain.ValidationFailed("amount must be positive")
	}
	if strings.TrimSpace(draft.CurrencyCode) == "" {
		return domain.ValidationFailed("currency code must not be empty")
	}
	if !draft.BillingCycle.Valid() {
		return domain.ValidationFailed(fmt.Sprintf("unknown billing cycle %q", draft.BillingCycle))
	}
	return nil
}
