package entitlements

import (
	"context"
	"sync"

	"github.com/renewo/renewo-server/internal/domain/ports"
)

// ProProductID identifies the lifetime Pro unlock
const ProProductID = "com.renewo.pro.lifetime"

// Service orchestrates purchase verification and caches the resulting Pro flag
// for transport-layer callers. Domain decisions never read the cache: isPro is
// always passed explicitly into the subscription service.
type Service struct {
	gateway ports.EntitlementGateway
	logger  ports.Logger

	mu    sync.RWMutex
	isPro bool
}

// NewService creates a new entitlements service
func NewService(gateway ports.EntitlementGateway, logger ports.Logger) *Service {
	return &Service{
		gateway: gateway,
		logger:  logger,
	}
}

// IsPro returns the last refreshed entitlement state. It never blocks on the
// gateway; callers wanting a fresh answer use Refresh.
func (s *Service) IsPro() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isPro
}

// Refresh re-verifies the Pro entitlement against the gateway and updates the
// cached flag. On gateway failure the cached value is left untouched.
func (s *Service) Refresh(ctx context.Context) (bool, error) {
	entitled, err := s.gateway.CurrentEntitlement(ctx, ProProductID)
	if err != nil {
		s.logger.Warn("entitlement refresh failed", ports.Err(err))
		return s.IsPro(), err
	}

	s.mu.Lock()
	s.isPro = entitled
	s.mu.Unlock()

	s.logger.Debug("entitlement refreshed", ports.Bool("is_pro", entitled))
	return entitled, nil
}

// Purchase runs the Pro purchase flow and refreshes the flag on success.
// Gateway errors come back as the purchase error taxonomy.
func (s *Service) Purchase(ctx context.Context) error {
	if err := s.gateway.Purchase(ctx, ProProductID); err != nil {
		s.logger.Warn("pro purchase failed", ports.Err(err))
		return err
	}

	s.mu.Lock()
	s.isPro = true
	s.mu.Unlock()

	s.logger.Info("pro purchase completed", ports.String("product_id", ProProductID))
	return nil
}

// Restore replays prior purchases and refreshes the entitlement state
func (s *Service) Restore(ctx context.Context) error {
	if err := s.gateway.Restore(ctx); err != nil {
		s.logger.Warn("purchase restore failed", ports.Err(err))
		return err
	}

	if _, err := s.Refresh(ctx); err != nil {
		return err
	}

	s.logger.Info("purchases restored")
	return nil
}
