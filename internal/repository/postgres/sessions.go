package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/BariBariGood/custom-checkout-app/internal/domain"
	"github.com/BariBariGood/custom-checkout-app/internal/security"
	"github.com/BariBariGood/custom-checkout-app/pkg/errors"
)

type sessionRepository struct {
	db     *sql.DB
	encKey []byte // nil means tokens are stored in plaintext
	logger *zap.Logger
}

// NewSessionRepository creates a new shop session repository. When encKey is
// non-nil, access tokens are AES-GCM encrypted at rest.
func NewSessionRepository(db *sql.DB, encKey []byte, logger *zap.Logger) *sessionRepository {
	return &sessionRepository{
		db:     db,
		encKey: encKey,
		logger: logger,
	}
}

func (r *sessionRepository) Upsert(ctx context.Context, sess *domain.ShopSession) error {
	query := `
		INSERT INTO shop_sessions (shop, access_token, scope, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (shop) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    scope = EXCLUDED.scope,
		    updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now

	stored := sess.AccessToken
	if r.encKey != nil {
		enc, err := security.Encrypt(r.encKey, sess.AccessToken)
		if err != nil {
			r.logger.Error("Failed to encrypt access token", zap.Error(err))
			return err
		}
		stored = enc
	}

	_, err := r.db.ExecContext(ctx, query,
		sess.Shop,
		stored,
		sess.Scope,
		sess.CreatedAt,
		sess.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to upsert shop session", zap.Error(err), zap.String("shop", sess.Shop))
		return err
	}

	return nil
}

func (r *sessionRepository) GetByShop(ctx context.Context, shop string) (*domain.ShopSession, error) {
	query := `
		SELECT shop, access_token, scope, created_at, updated_at
		FROM shop_sessions
		WHERE shop = $1
	`

	var sess domain.ShopSession
	err := r.db.QueryRowContext(ctx, query, shop).Scan(
		&sess.Shop,
		&sess.AccessToken,
		&sess.Scope,
		&sess.CreatedAt,
		&sess.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "session", ID: shop}
	}
	if err != nil {
		r.logger.Error("Failed to get shop session", zap.Error(err), zap.String("shop", shop))
		return nil, err
	}

	if r.encKey != nil {
		token, err := security.Decrypt(r.encKey, sess.AccessToken)
		if err != nil {
			r.logger.Error("Failed to decrypt access token", zap.Error(err), zap.String("shop", shop))
			return nil, err
		}
		sess.AccessToken = token
	}

	return &sess, nil
}

func (r *sessionRepository) List(ctx context.Context) ([]*domain.ShopSession, error) {
	query := `
		SELECT shop, scope, created_at, updated_at
		FROM shop_sessions
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list shop sessions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.ShopSession
	for rows.Next() {
		var sess domain.ShopSession
		if err := rows.Scan(&sess.Shop, &sess.Scope, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}
		// List intentionally omits tokens
		sessions = append(sessions, &sess)
	}

	return sessions, rows.Err()
}

func (r *sessionRepository) Delete(ctx context.Context, shop string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shop_sessions WHERE shop = $1`, shop)
	if err != nil {
		r.logger.Error("Failed to delete shop session", zap.Error(err), zap.String("shop", shop))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "session", ID: shop}
	}

	return nil
}
