package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BariBariGood/custom-checkout-app/internal/config"
	"github.com/BariBariGood/custom-checkout-app/internal/domain"
	"github.com/BariBariGood/custom-checkout-app/internal/pricing"
	"github.com/BariBariGood/custom-checkout-app/internal/repository"
	"github.com/BariBariGood/custom-checkout-app/internal/shopify"
	"github.com/BariBariGood/custom-checkout-app/pkg/errors"
)

// ProvisionRequest is a validated variant creation request.
type ProvisionRequest struct {
	Shop        string
	ProductID   string
	Width       domain.Dimension
	Height      domain.Dimension
	CustomPrice string // optional override; stored instead of the computed amount
}

// CapacityReport is the result of a standalone capacity check.
type CapacityReport struct {
	ProductTitle string
	Snapshot     domain.CapacitySnapshot
}

// Provisioner orchestrates capacity check, eviction, pricing and variant
// creation against the Shopify Admin API.
type Provisioner struct {
	api       shopify.VariantAPI
	events    repository.ProvisionEventRepository // may be nil
	limits    config.VariantsConfig
	logger    *zap.Logger
	evictions singleflight.Group
}

// NewProvisioner creates a new variant provisioner. events may be nil to
// disable audit recording.
func NewProvisioner(api shopify.VariantAPI, events repository.ProvisionEventRepository, limits config.VariantsConfig, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{
		api:    api,
		events: events,
		limits: limits,
		logger: logger,
	}
}

// CheckCapacity reads the product and reports variant slot usage against the
// platform ceiling. Unlike the creation path, failures here are surfaced to
// the caller.
func (p *Provisioner) CheckCapacity(ctx context.Context, sess domain.ShopSession, productID string) (*CapacityReport, error) {
	product, err := p.api.GetProduct(ctx, sess, productID)
	if err != nil {
		return nil, err
	}

	return &CapacityReport{
		ProductTitle: product.Title,
		Snapshot: domain.CapacitySnapshot{
			CurrentCount: len(product.Variants),
			Ceiling:      p.limits.MaxPerProduct,
			Threshold:    p.limits.CleanupThreshold,
		},
	}, nil
}

// Provision runs the full creation flow: capacity check, eviction when the
// threshold is reached, pricing, and a single creation attempt. Capacity and
// eviction failures never block the creation call; only a missing product,
// invalid input, or the creation call itself can fail the request.
func (p *Provisioner) Provision(ctx context.Context, sess domain.ShopSession, req ProvisionRequest) (*domain.ProvisionResult, error) {
	if err := p.validate(req); err != nil {
		return nil, err
	}

	var report domain.EvictionReport

	capacity, err := p.CheckCapacity(ctx, sess, req.ProductID)
	switch err.(type) {
	case nil:
		p.logger.Info("Checked variant capacity",
			zap.String("product_id", req.ProductID),
			zap.Int("count", capacity.Snapshot.CurrentCount),
			zap.Int("ceiling", capacity.Snapshot.Ceiling),
		)
		if capacity.Snapshot.IsApproachingLimit() {
			report = p.evictOldest(ctx, sess, req.ProductID, p.limits.CleanupBatchSize)
		}
	case *errors.ErrNotFound:
		return nil, err
	default:
		// Availability over strict correctness: attempt creation anyway.
		p.logger.Warn("Capacity check failed, proceeding without eviction",
			zap.String("product_id", req.ProductID),
			zap.Error(err),
		)
	}

	quote, err := pricing.Compute(req.Width, req.Height)
	if err != nil {
		return nil, err
	}

	storedPrice := quote.Amount
	if req.CustomPrice != "" {
		storedPrice = req.CustomPrice
	}

	created, err := p.api.CreateVariant(ctx, sess, req.ProductID, shopify.NewVariant{
		Option1:          variantLabel(req.Width, req.Height),
		Price:            storedPrice,
		SKU:              variantSKU(req.Width, req.Height),
		InventoryPolicy:  "continue",
		RequiresShipping: true,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("Variant created",
		zap.String("product_id", req.ProductID),
		zap.Int64("variant_id", created.ID),
		zap.String("price", storedPrice),
		zap.Int("evicted", len(report.Removed)),
	)

	p.recordEvent(ctx, req, created.ID, storedPrice, report)

	return &domain.ProvisionResult{
		VariantID:      created.ID,
		Quote:          quote,
		StoredPrice:    storedPrice,
		EvictedCount:   len(report.Removed),
		EvictionReport: report,
	}, nil
}

func (p *Provisioner) validate(req ProvisionRequest) error {
	fields := map[string]string{}
	if req.Shop == "" {
		fields["shop"] = "required"
	}
	if req.ProductID == "" {
		fields["product_id"] = "required"
	}
	if p.limits.RequireCustomPrice && req.CustomPrice == "" {
		fields["custom_price"] = "required"
	}
	for name, d := range map[string]domain.Dimension{"width": req.Width, "height": req.Height} {
		if d.WholeInches <= 0 {
			fields[name+"_in"] = "must be > 0"
		}
		if d.Sixteenths < 0 || d.Sixteenths > 15 {
			fields[name+"_frac"] = "must be in 0-15"
		}
	}
	if len(fields) > 0 {
		return &errors.ErrValidation{Message: "missing required data", Fields: fields}
	}
	return nil
}

// evictOldest removes the n oldest variants of a product, tolerating
// per-variant failures. Concurrent requests for the same product share one
// eviction pass. A failed variant list aborts the pass but never the
// request; creation may then still fail upstream with a capacity error,
// which is an accepted outcome.
func (p *Provisioner) evictOldest(ctx context.Context, sess domain.ShopSession, productID string, n int) domain.EvictionReport {
	v, _, _ := p.evictions.Do(productID, func() (interface{}, error) {
		return p.evictOldestOnce(ctx, sess, productID, n), nil
	})
	return v.(domain.EvictionReport)
}

func (p *Provisioner) evictOldestOnce(ctx context.Context, sess domain.ShopSession, productID string, n int) domain.EvictionReport {
	var report domain.EvictionReport

	variants, err := p.api.ListVariants(ctx, sess, productID)
	if err != nil {
		p.logger.Warn("Variant list fetch failed, skipping eviction",
			zap.String("product_id", productID),
			zap.Error(err),
		)
		report.Failures = append(report.Failures, domain.EvictionFailure{
			Reason: fmt.Sprintf("failed to list variants: %v", err),
		})
		return report
	}

	sortVariantsOldestFirst(variants)

	if n > len(variants) {
		n = len(variants)
	}

	for _, v := range variants[:n] {
		if err := p.api.DeleteVariant(ctx, sess, productID, v.ID); err != nil {
			p.logger.Warn("Failed to delete variant",
				zap.String("product_id", productID),
				zap.Int64("variant_id", v.ID),
				zap.Error(err),
			)
			report.Failures = append(report.Failures, domain.EvictionFailure{
				VariantID: v.ID,
				Reason:    err.Error(),
			})
			continue
		}
		report.Removed = append(report.Removed, v.ID)
	}

	p.logger.Info("Eviction pass finished",
		zap.String("product_id", productID),
		zap.Int("removed", len(report.Removed)),
		zap.Int("failed", len(report.Failures)),
	)

	return report
}

// recordEvent writes the audit row for a created variant. Best-effort: a
// storage failure is logged, not returned.
func (p *Provisioner) recordEvent(ctx context.Context, req ProvisionRequest, variantID int64, price string, report domain.EvictionReport) {
	if p.events == nil {
		return
	}

	event := &domain.ProvisionEvent{
		Shop:         req.Shop,
		ProductID:    req.ProductID,
		VariantID:    variantID,
		Price:        price,
		EvictedCount: len(report.Removed),
	}
	if len(report.Failures) > 0 {
		reasons := make([]interface{}, 0, len(report.Failures))
		for _, f := range report.Failures {
			reasons = append(reasons, map[string]interface{}{
				"variant_id": f.VariantID,
				"reason":     f.Reason,
			})
		}
		event.EventData = map[string]interface{}{"eviction_failures": reasons}
	}

	if err := p.events.Create(ctx, event); err != nil {
		p.logger.Warn("Failed to record provision event", zap.Error(err))
	}
}

// sortVariantsOldestFirst orders by creation time ascending, ties broken by
// id ascending so eviction is deterministic.
func sortVariantsOldestFirst(variants []domain.Variant) {
	sort.SliceStable(variants, func(i, j int) bool {
		if variants[i].CreatedAt.Equal(variants[j].CreatedAt) {
			return variants[i].ID < variants[j].ID
		}
		return variants[i].CreatedAt.Before(variants[j].CreatedAt)
	})
}

func variantLabel(width, height domain.Dimension) string {
	return fmt.Sprintf("%d\" %d/16 x %d\" %d/16",
		width.WholeInches, width.Sixteenths,
		height.WholeInches, height.Sixteenths,
	)
}

func variantSKU(width, height domain.Dimension) string {
	return fmt.Sprintf("CUSTOM-%d-%d-%d-%d",
		width.WholeInches, width.Sixteenths,
		height.WholeInches, height.Sixteenths,
	)
}
