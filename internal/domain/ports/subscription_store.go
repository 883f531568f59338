package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/renewo/renewo-server/internal/domain/models"
)

// SubscriptionStore defines the interface for subscription persistence.
// The store is the sole source of truth; no layer above it caches rows.
type SubscriptionStore interface {
	// Insert persists a new subscription row
	Insert(ctx context.Context, tx DBTX, subscription *models.Subscription) error

	// GetByID retrieves a subscription by its identifier
	GetByID(ctx context.Context, db DBTX, id uuid.UUID) (*models.Subscription, error)

	// Update rewrites all mutable fields of an existing row
	Update(ctx context.Context, tx DBTX, subscription *models.Subscription) error

	// Delete removes a subscription row
	Delete(ctx context.Context, tx DBTX, id uuid.UUID) error

	// List returns all subscriptions ordered by renewal date
	List(ctx context.Context, db DBTX) ([]*models.Subscription, error)

	// ListRenewingBefore returns subscriptions whose renewal date is strictly
	// before the cutoff
	ListRenewingBefore(ctx context.Context, db DBTX, cutoff time.Time) ([]*models.Subscription, error)

	// Count returns the total number of subscription rows
	Count(ctx context.Context, db DBTX) (int64, error)
}
