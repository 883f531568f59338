package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/renewo/renewo-server/internal/domain"
	"github.com/renewo/renewo-server/internal/domain/ports"
)

// knownProducts is the catalog of purchasable product ids
var knownProducts = map[string]struct{}{
	"com.renewo.pro.lifetime": {},
}

// EntitlementGateway implements ports.EntitlementGateway against a local
// purchases table. Receipt verification against the store backend sits outside
// this process; the table records the verified outcome.
type EntitlementGateway struct {
	db ports.DBPort
}

// NewEntitlementGateway creates a new entitlement gateway
func NewEntitlementGateway(db ports.DBPort) *EntitlementGateway {
	return &EntitlementGateway{db: db}
}

// CurrentEntitlement reports whether the product is owned. An unknown product
// id maps to the product-not-found purchase error.
func (g *EntitlementGateway) CurrentEntitlement(ctx context.Context, productID string) (bool, error) {
	if _, ok := knownProducts[productID]; !ok {
		return false, domain.ErrProductNotFound
	}

	var entitled bool
	err := g.db.GetDB().QueryRow(ctx,
		`SELECT entitled FROM entitlements WHERE product_id = $1`, productID).Scan(&entitled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, domain.WrapError(domain.ErrorCodeDatabaseError, "read entitlement", err)
	}
	return entitled, nil
}

// Purchase records a completed purchase of the product
func (g *EntitlementGateway) Purchase(ctx context.Context, productID string) error {
	if _, ok := knownProducts[productID]; !ok {
		return domain.ErrProductNotFound
	}

	_, err := g.db.GetDB().Exec(ctx, `
		INSERT INTO entitlements (product_id, entitled, updated_at)
		VALUES ($1, TRUE, now())
		ON CONFLICT (product_id) DO UPDATE SET entitled = TRUE, updated_at = now()`,
		productID)
	if err != nil {
		return domain.WrapError(domain.ErrorCodePurchaseUnknown,
			fmt.Sprintf("record purchase of %s", productID), err)
	}
	return nil
}

// Restore is a read-side replay: prior purchases already live in the table, so
// there is nothing to write. It exists to satisfy the gateway contract.
func (g *EntitlementGateway) Restore(ctx context.Context) error {
	return nil
}
