package domain

import (
	"time"

	"github.com/google/uuid"
)

// Dimension is one side of a blind, measured in whole inches plus sixteenths.
type Dimension struct {
	WholeInches int
	Sixteenths  int
}

// Inches returns the dimension as fractional inches.
func (d Dimension) Inches() float64 {
	return float64(d.WholeInches) + float64(d.Sixteenths)/16
}

// PriceQuote is the computed price for a dimension pair. Derived per request,
// never persisted.
type PriceQuote struct {
	WidthInches  float64 `json:"width_inches"`
	HeightInches float64 `json:"height_inches"`
	WidthCm      float64 `json:"width_cm"`
	HeightCm     float64 `json:"height_cm"`
	Amount       string  `json:"amount"` // fixed 2-decimal string
}

// Variant is a product variant slot as reported by Shopify.
type Variant struct {
	ID        int64
	Title     string
	Price     string
	SKU       string
	CreatedAt time.Time
}

// CapacitySnapshot reports variant slot usage for one product, fresh per
// request.
type CapacitySnapshot struct {
	CurrentCount int
	Ceiling      int
	Threshold    int
}

// IsApproachingLimit reports whether usage has crossed the eviction threshold.
func (s CapacitySnapshot) IsApproachingLimit() bool {
	return s.CurrentCount >= s.Threshold
}

// EvictionFailure records one variant that could not be removed.
type EvictionFailure struct {
	VariantID int64
	Reason    string
}

// EvictionReport is the outcome of one eviction pass. Partial failure is
// expected and tolerated.
type EvictionReport struct {
	Removed  []int64
	Failures []EvictionFailure
}

// ProvisionResult is the terminal outcome of a successful variant creation.
type ProvisionResult struct {
	VariantID      int64
	Quote          PriceQuote
	StoredPrice    string
	EvictedCount   int
	EvictionReport EvictionReport
}

// ShopSession is an installed shop's offline access token.
type ShopSession struct {
	Shop        string
	AccessToken string
	Scope       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OAuthState is a single-use nonce issued at install begin and consumed at
// the callback.
type OAuthState struct {
	State     string
	Shop      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ProvisionEvent is an audit record of one created variant.
type ProvisionEvent struct {
	ID           uuid.UUID              `json:"id"`
	Shop         string                 `json:"shop"`
	ProductID    string                 `json:"product_id"`
	VariantID    int64                  `json:"variant_id"`
	Price        string                 `json:"price"`
	EvictedCount int                    `json:"evicted_count"`
	EventData    map[string]interface{} `json:"event_data,omitempty"` // JSONB
	CreatedAt    time.Time              `json:"created_at"`
}
