package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BariBariGood/custom-checkout-app/internal/domain"
	"github.com/BariBariGood/custom-checkout-app/pkg/errors"
)

// VariantAPI is the slice of the Shopify Admin REST API this service uses.
// The service layer consumes this interface so tests can substitute a fake
// platform.
type VariantAPI interface {
	GetProduct(ctx context.Context, sess domain.ShopSession, productID string) (*Product, error)
	ListVariants(ctx context.Context, sess domain.ShopSession, productID string) ([]domain.Variant, error)
	CreateVariant(ctx context.Context, sess domain.ShopSession, productID string, v NewVariant) (*domain.Variant, error)
	DeleteVariant(ctx context.Context, sess domain.ShopSession, productID string, variantID int64) error
}

// Product is a Shopify product with its current variant slots.
type Product struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Variants []domain.Variant `json:"-"`
}

// NewVariant is the creation payload for one variant slot.
type NewVariant struct {
	Option1          string `json:"option1"`
	Price            string `json:"price"`
	SKU              string `json:"sku"`
	InventoryPolicy  string `json:"inventory_policy"`
	RequiresShipping bool   `json:"requires_shipping"`
}

type Client struct {
	apiVersion string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Shopify Admin REST client. The shop domain and access
// token come from the per-request session, not the client.
func NewClient(apiVersion string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiVersion: apiVersion,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// variantJSON is the REST wire shape of a variant.
type variantJSON struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	SKU       string `json:"sku"`
	CreatedAt string `json:"created_at"`
}

func (v variantJSON) toDomain() domain.Variant {
	createdAt, _ := time.Parse(time.RFC3339, v.CreatedAt)
	return domain.Variant{
		ID:        v.ID,
		Title:     v.Title,
		Price:     v.Price,
		SKU:       v.SKU,
		CreatedAt: createdAt,
	}
}

func (c *Client) GetProduct(ctx context.Context, sess domain.ShopSession, productID string) (*Product, error) {
	path := fmt.Sprintf("products/%s.json", productID)
	status, body, err := c.do(ctx, sess, http.MethodGet, path, nil)
	if err != nil {
		return nil, &errors.ErrUpstreamUnavailable{Op: "get product", Err: err}
	}
	if status == http.StatusNotFound {
		return nil, &errors.ErrNotFound{Resource: "product", ID: productID}
	}
	if status != http.StatusOK {
		return nil, &errors.ErrUpstreamRejected{Status: status, Detail: string(body)}
	}

	var payload struct {
		Product struct {
			ID       int64         `json:"id"`
			Title    string        `json:"title"`
			Variants []variantJSON `json:"variants"`
		} `json:"product"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &errors.ErrUpstreamUnavailable{Op: "get product", Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload.Product.ID == 0 {
		return nil, &errors.ErrNotFound{Resource: "product", ID: productID}
	}

	product := &Product{
		ID:    payload.Product.ID,
		Title: payload.Product.Title,
	}
	for _, v := range payload.Product.Variants {
		product.Variants = append(product.Variants, v.toDomain())
	}
	return product, nil
}

func (c *Client) ListVariants(ctx context.Context, sess domain.ShopSession, productID string) ([]domain.Variant, error) {
	path := fmt.Sprintf("products/%s/variants.json", productID)
	status, body, err := c.do(ctx, sess, http.MethodGet, path, nil)
	if err != nil {
		return nil, &errors.ErrUpstreamUnavailable{Op: "list variants", Err: err}
	}
	if status == http.StatusNotFound {
		return nil, &errors.ErrNotFound{Resource: "product", ID: productID}
	}
	if status != http.StatusOK {
		return nil, &errors.ErrUpstreamRejected{Status: status, Detail: string(body)}
	}

	var payload struct {
		Variants []variantJSON `json:"variants"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &errors.ErrUpstreamUnavailable{Op: "list variants", Err: fmt.Errorf("decode response: %w", err)}
	}

	variants := make([]domain.Variant, 0, len(payload.Variants))
	for _, v := range payload.Variants {
		variants = append(variants, v.toDomain())
	}
	// Shopify returns position order; callers depend on creation order
	sort.SliceStable(variants, func(i, j int) bool {
		if variants[i].CreatedAt.Equal(variants[j].CreatedAt) {
			return variants[i].ID < variants[j].ID
		}
		return variants[i].CreatedAt.Before(variants[j].CreatedAt)
	})
	return variants, nil
}

func (c *Client) CreateVariant(ctx context.Context, sess domain.ShopSession, productID string, v NewVariant) (*domain.Variant, error) {
	path := fmt.Sprintf("products/%s/variants.json", productID)
	reqBody := map[string]interface{}{"variant": v}
	status, body, err := c.do(ctx, sess, http.MethodPost, path, reqBody)
	if err != nil {
		return nil, &errors.ErrUpstreamUnavailable{Op: "create variant", Err: err}
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, &errors.ErrUpstreamRejected{Status: status, Detail: string(body)}
	}

	var payload struct {
		Variant *variantJSON `json:"variant"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Variant == nil {
		return nil, &errors.ErrUpstreamRejected{Status: status, Detail: string(body)}
	}
	created := payload.Variant.toDomain()
	return &created, nil
}

func (c *Client) DeleteVariant(ctx context.Context, sess domain.ShopSession, productID string, variantID int64) error {
	path := fmt.Sprintf("products/%s/variants/%d.json", productID, variantID)
	status, body, err := c.do(ctx, sess, http.MethodDelete, path, nil)
	if err != nil {
		return &errors.ErrUpstreamUnavailable{Op: "delete variant", Err: err}
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return &errors.ErrUpstreamRejected{Status: status, Detail: string(body)}
	}
	return nil
}

// do executes one authenticated Admin API call and returns the raw status
// and body. Transport errors come back as plain errors; callers map them.
func (c *Client) do(ctx context.Context, sess domain.ShopSession, method, path string, reqBody interface{}) (int, []byte, error) {
	url := fmt.Sprintf("https://%s/admin/api/%s/%s", normalizeShopDomain(sess.Shop), c.apiVersion, path)

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", sess.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("Shopify API call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return resp.StatusCode, body, nil
}

// normalizeShopDomain strips scheme and trailing slashes from a shop domain.
func normalizeShopDomain(shop string) string {
	shop = strings.TrimSpace(shop)
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	shop = strings.TrimSuffix(shop, "/")
	return shop
}
