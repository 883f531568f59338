package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/renewo/renewo-server/internal/domain"
	"github.com/shopspring/decimal"
)

// Subscription is the persisted tracked recurring payment
type Subscription struct {
	ID           uuid.UUID
	Name         string
	Amount       decimal.Decimal
	CurrencyCode string
	BillingCycle domain.BillingCycle
	RenewalDate  time.Time
	ReminderDays int16
	Category     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecurringAmount projects the subscription into its aggregation slice
func (s *Subscription) RecurringAmount() domain.RecurringAmount {
	return domain.RecurringAmount{
		Amount:       s.Amount,
		Cycle:        s.BillingCycle,
		CurrencyCode: s.CurrencyCode,
	}
}

// SubscriptionDraft carries the fields a caller submits when creating a
// subscription. ReminderDays nil means "use the settings default".
type SubscriptionDraft struct {
	Name         string
	Amount       decimal.Decimal
	CurrencyCode string
	BillingCycle domain.BillingCycle
	RenewalDate  time.Time
	ReminderDays *int
	Category     *string
}

// SubscriptionChanges is a partial patch: unset fields are left untouched.
// Category is a Patch of a pointer so SetTo(nil) clears it, distinct from
// leaving it unchanged.
type SubscriptionChanges struct {
	Name         Patch[string]
	Amount       Patch[decimal.Decimal]
	CurrencyCode Patch[string]
	BillingCycle Patch[domain.BillingCycle]
	RenewalDate  Patch[time.Time]
	ReminderDays Patch[int]
	Category     Patch[*string]
}
