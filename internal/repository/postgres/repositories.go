package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/BariBariGood/custom-checkout-app/internal/repository"
)

// NewRepositories creates a new set of repositories. encKey may be nil, in
// which case access tokens are stored unencrypted.
func NewRepositories(db *sql.DB, encKey []byte, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Session:        NewSessionRepository(db, encKey, logger),
		OAuthState:     NewOAuthStateRepository(db, logger),
		ProvisionEvent: NewProvisionEventRepository(db, logger),
	}
}
