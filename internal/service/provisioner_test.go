package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BariBariGood/custom-checkout-app/internal/config"
	"github.com/BariBariGood/custom-checkout-app/internal/domain"
	"github.com/BariBariGood/custom-checkout-app/internal/shopify"
	apperrors "github.com/BariBariGood/custom-checkout-app/pkg/errors"
)

// fakeVariantAPI simulates the Shopify Admin API against an in-memory
// variant set for one product.
type fakeVariantAPI struct {
	productID    string
	productTitle string
	variants     []domain.Variant
	nextID       int64

	getProductErr error
	listErr       error
	createErr     error
	deleteErrFor  map[int64]error

	createCalls int
	listCalls   int
}

func (f *fakeVariantAPI) GetProduct(ctx context.Context, sess domain.ShopSession, productID string) (*shopify.Product, error) {
	if f.getProductErr != nil {
		return nil, f.getProductErr
	}
	if productID != f.productID {
		return nil, &apperrors.ErrNotFound{Resource: "product", ID: productID}
	}
	return &shopify.Product{
		ID:       1,
		Title:    f.productTitle,
		Variants: append([]domain.Variant(nil), f.variants...),
	}, nil
}

func (f *fakeVariantAPI) ListVariants(ctx context.Context, sess domain.ShopSession, productID string) ([]domain.Variant, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Variant(nil), f.variants...), nil
}

func (f *fakeVariantAPI) CreateVariant(ctx context.Context, sess domain.ShopSession, productID string, v shopify.NewVariant) (*domain.Variant, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	created := domain.Variant{
		ID:        f.nextID,
		Title:     v.Option1,
		Price:     v.Price,
		SKU:       v.SKU,
		CreatedAt: time.Now(),
	}
	f.variants = append(f.variants, created)
	return &created, nil
}

func (f *fakeVariantAPI) DeleteVariant(ctx context.Context, sess domain.ShopSession, productID string, variantID int64) error {
	if err, ok := f.deleteErrFor[variantID]; ok {
		return err
	}
	for i, v := range f.variants {
		if v.ID == variantID {
			f.variants = append(f.variants[:i], f.variants[i+1:]...)
			return nil
		}
	}
	return &apperrors.ErrNotFound{Resource: "variant", ID: fmt.Sprint(variantID)}
}

func defaultLimits() config.VariantsConfig {
	return config.VariantsConfig{
		MaxPerProduct:    100,
		CleanupThreshold: 95,
		CleanupBatchSize: 10,
	}
}

// newFake seeds count variants with ascending creation timestamps; variant
// ids start at 1001 and track insertion order.
func newFake(count int) *fakeVariantAPI {
	f := &fakeVariantAPI{
		productID:    "777",
		productTitle: "Custom Blinds",
		nextID:       1000,
		deleteErrFor: map[int64]error{},
	}
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		f.nextID++
		f.variants = append(f.variants, domain.Variant{
			ID:        f.nextID,
			Title:     fmt.Sprintf("v%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return f
}

func validRequest() ProvisionRequest {
	return ProvisionRequest{
		Shop:      "test.myshopify.com",
		ProductID: "777",
		Width:     domain.Dimension{WholeInches: 24, Sixteenths: 8},
		Height:    domain.Dimension{WholeInches: 36, Sixteenths: 0},
	}
}

func TestProvisionUnderThresholdSkipsEviction(t *testing.T) {
	fake := newFake(94)
	p := NewProvisioner(fake, nil, defaultLimits(), zap.NewNop())

	result, err := p.Provision(context.Background(), domain.ShopSession{}, validRequest())
	require.NoError(t, err)

	assert.Equal(t, 0, result.EvictedCount)
	assert.Zero(t, fake.listCalls, "eviction must not run below the threshold")
	assert.Equal(t, "386.33", result.Quote.Amount)
	assert.Equal(t, "386.33", result.StoredPrice)
}

func TestProvisionAtThresholdEvictsOldest(t *testing.T) {
	fake := newFake(96)
	p := NewProvisioner(fake, nil, defaultLimits(), zap.NewNop())

	result, err := p.Provision(context.Background(), domain.ShopSession{}, validRequest())
	require.NoError(t, err)

	assert.Equal(t, 10, result.EvictedCount)
	// oldest ten ids are 1001..1010
	expected := []int64{1001, 1002, 1003, 1004, 1005, 1006, 1007, 1008, 1009, 1010}
	assert.Equal(t, expected, result.EvictionReport.Removed)
	// 96 seeded - 10 evicted + 1 created
	assert.Len(t, fake.variants, 87)
	assert.NotZero(t, result.VariantID)
}

func TestCheckCapacityThresholdBoundary(t *testing.T) {
	p94 := NewProvisioner(newFake(94), nil, defaultLimits(), zap.NewNop())
	report, err := p94.CheckCapacity(context.Background(), domain.ShopSession{}, "777")
	require.NoError(t, err)
	assert.False(t, report.Snapshot.IsApproachingLimit())

	p95 := NewProvisioner(newFake(95), nil, defaultLimits(), zap.NewNop())
	report, err = p95.CheckCapacity(context.Background(), domain.ShopSession{}, "777")
	require.NoError(t, err)
	assert.True(t, report.Snapshot.IsApproachingLimit())
	assert.Equal(t, "Custom Blinds", report.ProductTitle)
	assert.Equal(t, 100, report.Snapshot.Ceiling)
}

func TestEvictionTiesBrokenByID(t *testing.T) {
	fake := newFake(0)
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	// same timestamp, ids out of order
	for _, id := range []int64{30, 10, 20} {
		fake.variants = append(fake.variants, domain.Variant{ID: id, CreatedAt: ts})
	}
	p := NewProvisioner(fake, nil, defaultLimits(), zap.NewNop())

	report := p.evictOldestOnce(context.Background(), domain.ShopSession{}, "777", 2)
	assert.Equal(t, []int64{10, 20}, report.Removed)
}

func TestProvisionEvictionPartialFailureStillCreates(t *testing.T) {
	fake := newFake(96)
	fake.deleteErrFor[1005] = &apperrors.ErrUpstreamRejected{Status: 422, Detail: "locked"}
	p := NewProvisioner(fake, nil, defaultLimits(), zap.NewNop())

	result, err := p.Provision(context.Background(), domain.ShopSession{}, validRequest())
	require.NoError(t, err)

	assert.Equal(t, 9, result.EvictedCount)
	require.Len(t, result.EvictionReport.Failures, 1)
	assert.Equal(t, int64(1005), result.EvictionReport.Failures[0].VariantID)
	assert.Equal(t, 1, fake.createCalls, "creation must still be attempted")
}

func TestProvisionListFailureStillCreates(t *testing.T) {
	fake := newFake(96)
	fake.listErr = &apperrors.ErrUpstreamUnavailable{Op: "list variants", Err: fmt.Errorf("timeout")}
	p := NewProvisioner(fake, nil, defaultLimits(), zap.NewNop())

	result, err := p.Provision(context.Background(), domain.ShopSession{}, validRequest())
	require.NoError(t, err)

	assert.Empty(t, result.EvictionReport.Removed)
	require.Len(t, result.EvictionReport.Failures, 1)
	assert.Equal(t, 1, fake.createCalls)
}

func TestProvisionCapacityCheckFailureSoftFails(t *testing.T) {
	fake := newFake(96)
	fake.getProductErr = &apperrors.ErrUpstreamUnavailable{Op: "get product", Err: fmt.Errorf("connection refused")}
	p := NewProvisioner(fake, nil, defaultLimits(), zap.NewNop())

	result, err := p.Provision(context.Background(), domain.ShopSession{}, validRequest())
	require.NoError(t, err)

	assert.Zero(t, fake.listCalls, "a failed pre-check must not trigger eviction")
	assert.Equal(t, 1, fake.createCalls)
	assert.Equal(t, 0, result.EvictedCount)
}

func TestProvisionProductNotFound(t *testing.T) {
	fake := newFake(10)
	p := NewProvisioner(fake, nil, defaultLimits(), zap.NewNop())

	req := validRequest()
	req.ProductID = "missing"
	_, err := p.Provision(context.Background(), domain.ShopSession{}, req)

	var nf *apperrors.ErrNotFound
	require.ErrorAs(t, err, &nf)
	assert.Zero(t, fake.createCalls)
}

func TestProvisionCustomPriceOverride(t *testing.T) {
	fake := newFake(10)
	p := NewProvisioner(fake, nil, defaultLimits(), zap.NewNop())

	req := validRequest()
	req.CustomPrice = "199.99"
	result, err := p.Provision(context.Background(), domain.ShopSession{}, req)
	require.NoError(t, err)

	assert.Equal(t, "199.99", result.StoredPrice)
	assert.Equal(t, "386.33", result.Quote.Amount, "computed amount still returned for audit")
	assert.Equal(t, "199.99", fake.variants[len(fake.variants)-1].Price)
}

func TestProvisionCreationRejected(t *testing.T) {
	fake := newFake(10)
	fake.createErr = &apperrors.ErrUpstreamRejected{Status: 422, Detail: `{"errors":"too many variants"}`}
	p := NewProvisioner(fake, nil, defaultLimits(), zap.NewNop())

	_, err := p.Provision(context.Background(), domain.ShopSession{}, validRequest())

	var rejected *apperrors.ErrUpstreamRejected
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, 422, rejected.Status)
	assert.Contains(t, rejected.Detail, "too many variants")
	assert.Equal(t, 1, fake.createCalls, "exactly one attempt, no retries")
}

func TestProvisionValidationRejectsBeforeUpstream(t *testing.T) {
	fake := newFake(10)
	p := NewProvisioner(fake, nil, defaultLimits(), zap.NewNop())

	tests := []struct {
		name   string
		mutate func(*ProvisionRequest)
	}{
		{"missing shop", func(r *ProvisionRequest) { r.Shop = "" }},
		{"missing product", func(r *ProvisionRequest) { r.ProductID = "" }},
		{"zero width", func(r *ProvisionRequest) { r.Width.WholeInches = 0 }},
		{"bad sixteenths", func(r *ProvisionRequest) { r.Height.Sixteenths = 16 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := p.Provision(context.Background(), domain.ShopSession{}, req)
			var vErr *apperrors.ErrValidation
			require.ErrorAs(t, err, &vErr)
		})
	}
	assert.Zero(t, fake.createCalls, "invalid input must not reach upstream")
}

func TestProvisionRequireCustomPriceFlag(t *testing.T) {
	limits := defaultLimits()
	limits.RequireCustomPrice = true
	fake := newFake(10)
	p := NewProvisioner(fake, nil, limits, zap.NewNop())

	_, err := p.Provision(context.Background(), domain.ShopSession{}, validRequest())
	var vErr *apperrors.ErrValidation
	require.ErrorAs(t, err, &vErr)

	req := validRequest()
	req.CustomPrice = "42.00"
	_, err = p.Provision(context.Background(), domain.ShopSession{}, req)
	assert.NoError(t, err)
}
