package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BariBariGood/custom-checkout-app/internal/config"
	"github.com/BariBariGood/custom-checkout-app/internal/domain"
	"github.com/BariBariGood/custom-checkout-app/internal/repository"
	"github.com/BariBariGood/custom-checkout-app/internal/service"
	"github.com/BariBariGood/custom-checkout-app/internal/shopify"
	"github.com/BariBariGood/custom-checkout-app/pkg/errors"
)

// DimensionsPayload carries one blind's measurements in inches and
// sixteenths of an inch.
type DimensionsPayload struct {
	WidthIn    int `json:"width_in" binding:"required,min=1"`
	WidthFrac  int `json:"width_frac" binding:"min=0,max=15"`
	HeightIn   int `json:"height_in" binding:"required,min=1"`
	HeightFrac int `json:"height_frac" binding:"min=0,max=15"`
}

// CreateCustomVariantRequest represents the variant creation payload
type CreateCustomVariantRequest struct {
	Shop        string             `json:"shop" binding:"required"`
	ProductID   string             `json:"product_id" binding:"required"`
	Dimensions  *DimensionsPayload `json:"dimensions" binding:"required"`
	CustomPrice string             `json:"custom_price"`
}

// CreateCustomVariantResponse represents the creation response
type CreateCustomVariantResponse struct {
	CustomVariantID int64              `json:"custom_variant_id"`
	CalculatedPrice string             `json:"calculated_price"`
	Dimensions      DimensionsEchoBack `json:"dimensions"`
	EvictedCount    int                `json:"evicted_count,omitempty"`
}

// DimensionsEchoBack reports the resolved dimensions in both units
type DimensionsEchoBack struct {
	WidthInches  float64 `json:"width_inches"`
	HeightInches float64 `json:"height_inches"`
	WidthCm      float64 `json:"width_cm"`
	HeightCm     float64 `json:"height_cm"`
}

// HandleCreateCustomVariant handles POST /create-custom-variant
func HandleCreateCustomVariant(cfg *config.Config, repos *repository.Repositories, prov *service.Provisioner, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCustomVariantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required data."})
			return
		}

		shop := shopify.NormalizeShop(req.Shop)
		sess, err := resolveSession(c, repos, shop)
		if err != nil {
			return // response already written
		}

		result, err := prov.Provision(c.Request.Context(), *sess, service.ProvisionRequest{
			Shop:        shop,
			ProductID:   req.ProductID,
			Width:       domain.Dimension{WholeInches: req.Dimensions.WidthIn, Sixteenths: req.Dimensions.WidthFrac},
			Height:      domain.Dimension{WholeInches: req.Dimensions.HeightIn, Sixteenths: req.Dimensions.HeightFrac},
			CustomPrice: req.CustomPrice,
		})
		if err != nil {
			writeProvisionError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, CreateCustomVariantResponse{
			CustomVariantID: result.VariantID,
			CalculatedPrice: result.Quote.Amount,
			Dimensions: DimensionsEchoBack{
				WidthInches:  result.Quote.WidthInches,
				HeightInches: result.Quote.HeightInches,
				WidthCm:      result.Quote.WidthCm,
				HeightCm:     result.Quote.HeightCm,
			},
			EvictedCount: result.EvictedCount,
		})
	}
}

// CheckProductVariantsResponse reports slot usage for one product
type CheckProductVariantsResponse struct {
	ProductTitle       string `json:"productTitle"`
	VariantsCount      int    `json:"variantsCount"`
	MaxVariants        int    `json:"maxVariants"`
	IsApproachingLimit bool   `json:"isApproachingLimit"`
	CleanupThreshold   int    `json:"cleanupThreshold"`
}

// HandleCheckProductVariants handles GET /check-product-variants
func HandleCheckProductVariants(cfg *config.Config, repos *repository.Repositories, prov *service.Provisioner, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shop := shopify.NormalizeShop(c.Query("shop"))
		productID := c.Query("product_id")
		if shop == "" || productID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters."})
			return
		}

		sess, err := resolveSession(c, repos, shop)
		if err != nil {
			return
		}

		report, err := prov.CheckCapacity(c.Request.Context(), *sess, productID)
		if err != nil {
			writeProvisionError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, CheckProductVariantsResponse{
			ProductTitle:       report.ProductTitle,
			VariantsCount:      report.Snapshot.CurrentCount,
			MaxVariants:        report.Snapshot.Ceiling,
			IsApproachingLimit: report.Snapshot.IsApproachingLimit(),
			CleanupThreshold:   report.Snapshot.Threshold,
		})
	}
}

// resolveSession loads the shop's session or writes the 401 response and
// returns an error.
func resolveSession(c *gin.Context, repos *repository.Repositories, shop string) (*domain.ShopSession, error) {
	sess, err := repos.Session.GetByShop(c.Request.Context(), shop)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized. Please authenticate first."})
		return nil, err
	}
	return sess, nil
}

// writeProvisionError maps service errors to the HTTP contract.
func writeProvisionError(c *gin.Context, logger *zap.Logger, err error) {
	switch e := err.(type) {
	case *errors.ErrValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": e.Error(), "fields": e.Fields})
	case *errors.ErrUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized. Please authenticate first."})
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case *errors.ErrUpstreamRejected:
		logger.Error("Shopify rejected request", zap.Int("status", e.Status), zap.String("detail", e.Detail))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Shopify API Error", "details": e.Detail})
	default:
		logger.Error("Variant operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
