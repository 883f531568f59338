package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/renewo/renewo-server/internal/domain/models"
	"github.com/renewo/renewo-server/internal/domain/ports"
)

// NotificationStore implements ports.NotificationStore. subscription_id is the
// primary key, so the upsert gives scheduling its supersede semantics.
type NotificationStore struct {
	db ports.DBPort
}

// NewNotificationStore creates a new pending-notification store
func NewNotificationStore(db ports.DBPort) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return s.db.GetDB()
}

// Upsert inserts or replaces the pending alert for a subscription
func (s *NotificationStore) Upsert(ctx context.Context, db ports.DBTX, n *models.PendingNotification) error {
	_, err := s.executor(db).Exec(ctx, `
		INSERT INTO renewal_notifications (subscription_id, title, body, renewal_date, fire_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (subscription_id) DO UPDATE
		SET title = EXCLUDED.title,
		    body = EXCLUDED.body,
		    renewal_date = EXCLUDED.renewal_date,
		    fire_at = EXCLUDED.fire_at,
		    updated_at = EXCLUDED.updated_at`,
		n.SubscriptionID, n.Title, n.Body, n.RenewalDate, n.FireAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert pending notification: %w", err)
	}
	return nil
}

// Delete removes the pending alert for a subscription, if any
func (s *NotificationStore) Delete(ctx context.Context, db ports.DBTX, subscriptionID uuid.UUID) error {
	_, err := s.executor(db).Exec(ctx,
		`DELETE FROM renewal_notifications WHERE subscription_id = $1`, subscriptionID)
	if err != nil {
		return fmt.Errorf("delete pending notification: %w", err)
	}
	return nil
}

// GetBySubscriptionID fetches the pending alert for a subscription
func (s *NotificationStore) GetBySubscriptionID(ctx context.Context, db ports.DBTX, subscriptionID uuid.UUID) (*models.PendingNotification, error) {
	var n models.PendingNotification
	err := s.executor(db).QueryRow(ctx, `
		SELECT subscription_id, title, body, renewal_date, fire_at, updated_at
		FROM renewal_notifications
		WHERE subscription_id = $1`, subscriptionID).
		Scan(&n.SubscriptionID, &n.Title, &n.Body, &n.RenewalDate, &n.FireAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pending notification: %w", err)
	}
	return &n, nil
}

// ListDueBefore returns alerts with fire_at at or before cutoff
func (s *NotificationStore) ListDueBefore(ctx context.Context, db ports.DBTX, cutoff time.Time) ([]*models.PendingNotification, error) {
	rows, err := s.executor(db).Query(ctx, `
		SELECT subscription_id, title, body, renewal_date, fire_at, updated_at
		FROM renewal_notifications
		WHERE fire_at <= $1
		ORDER BY fire_at`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list due notifications: %w", err)
	}
	defer rows.Close()

	var due []*models.PendingNotification
	for rows.Next() {
		var n models.PendingNotification
		if err := rows.Scan(&n.SubscriptionID, &n.Title, &n.Body, &n.RenewalDate, &n.FireAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pending notification: %w", err)
		}
		due = append(due, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due notifications: %w", err)
	}
	return due, nil
}
