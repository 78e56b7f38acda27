package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BariBariGood/custom-checkout-app/internal/config"
	"github.com/BariBariGood/custom-checkout-app/internal/domain"
	"github.com/BariBariGood/custom-checkout-app/internal/repository"
	"github.com/BariBariGood/custom-checkout-app/internal/shopify"
)

const oauthStateTTL = 10 * time.Minute

// HandleAuthBegin handles GET /auth - redirects the merchant to Shopify's
// authorize page with a fresh state nonce.
func HandleAuthBegin(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shop := shopify.NormalizeShop(c.Query("shop"))
		if shop == "" {
			c.String(http.StatusBadRequest, "Missing shop parameter. Use /auth?shop=your-store.myshopify.com")
			return
		}
		if !shopify.IsValidShopDomain(shop) {
			c.String(http.StatusBadRequest, "Invalid shop domain (expected your-store.myshopify.com)")
			return
		}

		state := uuid.New().String()
		err := repos.OAuthState.Create(c.Request.Context(), &domain.OAuthState{
			State:     state,
			Shop:      shop,
			ExpiresAt: time.Now().Add(oauthStateTTL),
		})
		if err != nil {
			logger.Error("Failed to store oauth state", zap.Error(err), zap.String("shop", shop))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start authentication"})
			return
		}

		c.Redirect(http.StatusFound, shopify.AuthorizeURL(cfg.Shopify, shop, state))
	}
}

// HandleAuthCallback handles GET /auth/callback - verifies the callback,
// exchanges the code for an offline token and stores the session.
func HandleAuthCallback(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := map[string]string{}
		for k, vs := range c.Request.URL.Query() {
			if len(vs) > 0 {
				params[k] = vs[0]
			}
		}

		shop := shopify.NormalizeShop(params["shop"])
		code := params["code"]
		state := params["state"]
		if !shopify.IsValidShopDomain(shop) || code == "" || state == "" {
			c.String(http.StatusBadRequest, "Missing required oauth params")
			return
		}

		if !shopify.VerifyHMAC(params, cfg.Shopify.APISecret) {
			logger.Warn("OAuth callback with invalid HMAC", zap.String("shop", shop))
			c.String(http.StatusBadRequest, "Invalid hmac")
			return
		}

		stored, err := repos.OAuthState.Consume(c.Request.Context(), state)
		if err != nil {
			logger.Error("Failed to consume oauth state", zap.Error(err))
			c.String(http.StatusInternalServerError, "Error during auth callback")
			return
		}
		if stored == nil || stored.Shop != shop {
			c.String(http.StatusBadRequest, "Invalid or expired state")
			return
		}

		token, err := shopify.ExchangeCode(c.Request.Context(), cfg.Shopify, shop, code)
		if err != nil {
			logger.Error("Token exchange failed", zap.Error(err), zap.String("shop", shop))
			c.String(http.StatusBadGateway, "Error during auth callback: token exchange failed")
			return
		}

		err = repos.Session.Upsert(c.Request.Context(), &domain.ShopSession{
			Shop:        shop,
			AccessToken: token.AccessToken,
			Scope:       token.Scope,
		})
		if err != nil {
			logger.Error("Failed to store session", zap.Error(err), zap.String("shop", shop))
			c.String(http.StatusInternalServerError, "Error during auth callback: could not store session")
			return
		}

		logger.Info("Shop installed", zap.String("shop", shop), zap.String("scope", token.Scope))

		redirect := "/shop?shop=" + shop
		if host := c.Query("host"); host != "" {
			redirect += "&host=" + host
		}
		c.Redirect(http.StatusFound, redirect)
	}
}
