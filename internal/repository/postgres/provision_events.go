package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BariBariGood/custom-checkout-app/internal/domain"
)

type provisionEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProvisionEventRepository creates a new provision event repository
func NewProvisionEventRepository(db *sql.DB, logger *zap.Logger) *provisionEventRepository {
	return &provisionEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *provisionEventRepository) Create(ctx context.Context, event *domain.ProvisionEvent) error {
	query := `
		INSERT INTO provision_events (id, shop, product_id, variant_id, price, evicted_count, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var eventDataJSON []byte
	var err error
	if event.EventData != nil {
		eventDataJSON, err = json.Marshal(event.EventData)
		if err != nil {
			return err
		}
	}

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.Shop,
		event.ProductID,
		event.VariantID,
		event.Price,
		event.EvictedCount,
		eventDataJSON,
		event.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create provision event", zap.Error(err))
		return err
	}

	return nil
}

func (r *provisionEventRepository) ListByShop(ctx context.Context, shop string, limit int) ([]*domain.ProvisionEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, shop, product_id, variant_id, price, evicted_count, event_data, created_at
		FROM provision_events
		WHERE shop = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, shop, limit)
	if err != nil {
		r.logger.Error("Failed to list provision events", zap.Error(err), zap.String("shop", shop))
		return nil, err
	}
	defer rows.Close()

	var events []*domain.ProvisionEvent
	for rows.Next() {
		var event domain.ProvisionEvent
		var eventDataJSON []byte

		err := rows.Scan(
			&event.ID,
			&event.Shop,
			&event.ProductID,
			&event.VariantID,
			&event.Price,
			&event.EvictedCount,
			&eventDataJSON,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if len(eventDataJSON) > 0 {
			if err := json.Unmarshal(eventDataJSON, &event.EventData); err != nil {
				return nil, err
			}
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}
