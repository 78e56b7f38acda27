package repository

import (
	"context"

	"github.com/BariBariGood/custom-checkout-app/internal/domain"
)

// SessionRepository defines shop session data access methods. It replaces
// the in-memory session map of early prototypes; the service layer only
// sees this interface.
type SessionRepository interface {
	Upsert(ctx context.Context, sess *domain.ShopSession) error
	GetByShop(ctx context.Context, shop string) (*domain.ShopSession, error)
	List(ctx context.Context) ([]*domain.ShopSession, error)
	Delete(ctx context.Context, shop string) error
}

// OAuthStateRepository defines OAuth state nonce data access methods.
// States are single-use: Consume returns the state and removes it.
type OAuthStateRepository interface {
	Create(ctx context.Context, state *domain.OAuthState) error
	Consume(ctx context.Context, state string) (*domain.OAuthState, error)
}

// ProvisionEventRepository records created variants for audit
type ProvisionEventRepository interface {
	Create(ctx context.Context, event *domain.ProvisionEvent) error
	ListByShop(ctx context.Context, shop string, limit int) ([]*domain.ProvisionEvent, error)
}

// Repositories holds all repository implementations
type Repositories struct {
	Session        SessionRepository
	OAuthState     OAuthStateRepository
	ProvisionEvent ProvisionEventRepository
}
