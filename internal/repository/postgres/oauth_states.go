package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/BariBariGood/custom-checkout-app/internal/domain"
)

type oauthStateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOAuthStateRepository creates a new OAuth state repository
func NewOAuthStateRepository(db *sql.DB, logger *zap.Logger) *oauthStateRepository {
	return &oauthStateRepository{
		db:     db,
		logger: logger,
	}
}

func (r *oauthStateRepository) Create(ctx context.Context, state *domain.OAuthState) error {
	query := `
		INSERT INTO oauth_states (state, shop, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if state.CreatedAt.IsZero() {
		state.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		state.State,
		state.Shop,
		state.ExpiresAt,
		state.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create oauth state", zap.Error(err))
		return err
	}

	return nil
}

// Consume deletes the state row and returns it. Expired or unknown states
// return (nil, nil); states are strictly single-use.
func (r *oauthStateRepository) Consume(ctx context.Context, state string) (*domain.OAuthState, error) {
	query := `
		DELETE FROM oauth_states
		WHERE state = $1
		RETURNING state, shop, expires_at, created_at
	`

	var st domain.OAuthState
	err := r.db.QueryRowContext(ctx, query, state).Scan(
		&st.State,
		&st.Shop,
		&st.ExpiresAt,
		&st.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to consume oauth state", zap.Error(err))
		return nil, err
	}

	if time.Now().After(st.ExpiresAt) {
		return nil, nil
	}

	return &st, nil
}
