package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BariBariGood/custom-checkout-app/internal/config"
	"github.com/BariBariGood/custom-checkout-app/internal/repository"
	"github.com/BariBariGood/custom-checkout-app/internal/shopify"
)

// HandleShopHome handles GET /shop - a minimal landing page that confirms
// the shop is installed, or bounces to /auth when it is not.
func HandleShopHome(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shop := shopify.NormalizeShop(c.Query("shop"))
		if shop == "" {
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(
				`<h1>Custom Checkout App</h1>
<p>Please visit <code>/shop?shop=your-store.myshopify.com</code> to use this app.</p>`))
			return
		}

		if _, err := repos.Session.GetByShop(c.Request.Context(), shop); err != nil {
			c.Redirect(http.StatusFound, "/auth?shop="+shop)
			return
		}

		page := fmt.Sprintf(
			`<h1>Custom Checkout App</h1>
<p>Your shop <strong>%s</strong> is authenticated.</p>
<p>You can now use the custom variant creation API.</p>`, shop)
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	}
}
