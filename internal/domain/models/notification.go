package models

import (
	"time"

	"github.com/google/uuid"
)

// PendingNotification is the single scheduled renewal alert for a subscription.
// The subscription id is the primary key, which is what gives scheduling its
// replace-by-identifier semantics.
type PendingNotification struct {
	SubscriptionID uuid.UUID
	Title          string
	Body           string
	RenewalDate    time.Time
	FireAt         time.Time
	UpdatedAt      time.Time
}
