package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/renewo/renewo-server/internal/domain"
	"github.com/renewo/renewo-server/internal/domain/models"
	"github.com/renewo/renewo-server/internal/domain/ports"
)

const subscriptionColumns = `id, name, amount, currency_code, billing_cycle, renewal_date, reminder_days, category, created_at, updated_at`

// SubscriptionStore implements ports.SubscriptionStore with hand-written SQL
type SubscriptionStore struct {
	db ports.DBPort
}

// NewSubscriptionStore creates a new subscription store
func NewSubscriptionStore(db ports.DBPort) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// executor returns the transaction when one is supplied, the pool otherwise
func (s *SubscriptionStore) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return s.db.GetDB()
}

// Insert persists a new subscription row
func (s *SubscriptionStore) Insert(ctx context.Context, tx ports.DBTX, sub *models.Subscription) error {
	amount, err := decimalToNumeric(sub.Amount)
	if err != nil {
		return err
	}

	_, err = s.executor(tx).Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sub.ID,
		sub.Name,
		amount,
		sub.CurrencyCode,
		string(sub.BillingCycle),
		pgtype.Date{Time: sub.RenewalDate, Valid: true},
		sub.ReminderDays,
		nullText(sub.Category),
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// GetByID retrieves a subscription by its identifier
func (s *SubscriptionStore) GetByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.Subscription, error) {
	row := s.executor(db).QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE id = $1`, id)

	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get subscription by id: %w", err)
	}

	return sub, nil
}

// Update rewrites all mutable fields of an existing row
func (s *SubscriptionStore) Update(ctx context.Context, tx ports.DBTX, sub *models.Subscription) error {
	amount, err := decimalToNumeric(sub.Amount)
	if err != nil {
		return err
	}

	tag, err := s.executor(tx).Exec(ctx, `
		UPDATE subscriptions
		SET name = $2,
		    amount = $3,
		    currency_code = $4,
		    billing_cycle = $5,
		    renewal_date = $6,
		    reminder_days = $7,
		    category = $8,
		    updated_at = $9
		WHERE id = $1`,
		sub.ID,
		sub.Name,
		amount,
		sub.CurrencyCode,
		string(sub.BillingCycle),
		pgtype.Date{Time: sub.RenewalDate, Valid: true},
		sub.ReminderDays,
		nullText(sub.Category),
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}

	return nil
}

// Delete removes a subscription row
func (s *SubscriptionStore) Delete(ctx context.Context, tx ports.DBTX, id uuid.UUID) error {
	tag, err := s.executor(tx).Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}

	return nil
}

// List returns all subscriptions ordered by renewal date
func (s *SubscriptionStore) List(ctx context.Context, db ports.DBTX) ([]*models.Subscription, error) {
	rows, err := s.executor(db).Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		ORDER BY renewal_date, name`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

// ListRenewingBefore returns subscriptions with a renewal date strictly before cutoff
func (s *SubscriptionStore) ListRenewingBefore(ctx context.Context, db ports.DBTX, cutoff time.Time) ([]*models.Subscription, error) {
	rows, err := s.executor(db).Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE renewal_date < $1
		ORDER BY renewal_date`,
		pgtype.Date{Time: cutoff, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("list subscriptions renewing before %s: %w", cutoff.Format("2006-01-02"), err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

// Count returns the total number of subscription rows
func (s *SubscriptionStore) Count(ctx context.Context, db ports.DBTX) (int64, error) {
	var count int64
	if err := s.executor(db).QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return count, nil
}

func collectSubscriptions(rows pgx.Rows) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var (
		sub         models.Subscription
		amount      pgtype.Numeric
		cycle       string
		renewalDate pgtype.Date
		category    pgtype.Text
	)

	err := row.Scan(
		&sub.ID,
		&sub.Name,
		&amount,
		&sub.CurrencyCode,
		&cycle,
		&renewalDate,
		&sub.ReminderDays,
		&category,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sub.Amount, err = numericToDecimal(amount)
	if err != nil {
		return nil, fmt.Errorf("convert amount: %w", err)
	}

	sub.BillingCycle, err = domain.ParseBillingCycle(cycle)
	if err != nil {
		return nil, err
	}

	sub.RenewalDate = renewalDate.Time.UTC()
	sub.Category = textPtr(category)

	return &sub, nil
}
