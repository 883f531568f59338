package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/renewo/renewo-server/internal/domain/models"
	"github.com/renewo/renewo-server/internal/services/subscription"
	"github.com/shopspring/decimal"
)

// SubscriptionService defines the port for subscription operations
type SubscriptionService interface {
	// Add creates a subscription from a draft
	Add(ctx context.Context, draft models.SubscriptionDraft, isPro bool) (uuid.UUID, error)

	// Update applies a partial patch to an existing subscription
	Update(ctx context.Context, id uuid.UUID, changes models.SubscriptionChanges, isPro bool) error

	// Delete removes a subscription and its pending reminder
	Delete(ctx context.Context, id uuid.UUID) error

	// NormalizeOverdueRenewals rolls stale renewal dates forward
	NormalizeOverdueRenewals(ctx context.Context, now time.Time, opts subscription.SweepOptions) error

	// Get retrieves a single subscription
	Get(ctx context.Context, id uuid.UUID) (*models.Subscription, error)

	// List returns all subscriptions ordered by renewal date
	List(ctx context.Context) ([]*models.Subscription, error)

	// Count returns the total number of stored subscriptions
	Count(ctx context.Context) (int64, error)

	// MonthlyTotals aggregates per-currency monthly sums
	MonthlyTotals(ctx context.Context) (map[string]decimal.Decimal, error)

	// YearlyTotals aggregates per-currency yearly sums
	YearlyTotals(ctx context.Context) (map[string]decimal.Decimal, error)

	// ExportCSV renders all subscriptions as CSV (Pro only)
	ExportCSV(ctx context.Context, isPro bool) (string, error)
}

// EntitlementsService defines the port for Pro entitlement operations
type EntitlementsService interface {
	// IsPro returns the last refreshed entitlement state
	IsPro() bool

	// Refresh re-verifies the entitlement against the gateway
	Refresh(ctx context.Context) (bool, error)

	// Purchase runs the Pro purchase flow
	Purchase(ctx context.Context) error

	// Restore replays prior purchases
	Restore(ctx context.Context) error
}
