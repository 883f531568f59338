package ports

import "context"

// EntitlementGateway is the external purchase-verification source. The receipt
// protocol behind it is out of scope; implementations translate their outcomes
// into the domain purchase error taxonomy.
type EntitlementGateway interface {
	// CurrentEntitlement reports whether the product is currently owned
	CurrentEntitlement(ctx context.Context, productID string) (bool, error)

	// Purchase runs the buy flow for the product. Fails with one of the
	// domain purchase errors (product not found, failed verification,
	// user cancelled, pending, unknown).
	Purchase(ctx context.Context, productID string) error

	// Restore re-syncs previously completed purchases
	Restore(ctx context.Context) error
}
