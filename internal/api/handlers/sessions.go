package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BariBariGood/custom-checkout-app/internal/repository"
	"github.com/BariBariGood/custom-checkout-app/internal/shopify"
	"github.com/BariBariGood/custom-checkout-app/pkg/errors"
)

// SessionResponse lists one installed shop (without its token)
type SessionResponse struct {
	Shop      string `json:"shop"`
	Scope     string `json:"scope"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// HandleListSessions handles GET /admin/sessions
func HandleListSessions(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, err := repos.Session.List(c.Request.Context())
		if err != nil {
			logger.Error("Failed to list sessions", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		out := make([]SessionResponse, 0, len(sessions))
		for _, s := range sessions {
			out = append(out, SessionResponse{
				Shop:      s.Shop,
				Scope:     s.Scope,
				CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				UpdatedAt: s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		c.JSON(http.StatusOK, gin.H{"sessions": out, "count": len(out)})
	}
}

// HandleDeleteSession handles DELETE /admin/sessions/:shop
func HandleDeleteSession(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shop := shopify.NormalizeShop(c.Param("shop"))
		if shop == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shop required"})
			return
		}

		if err := repos.Session.Delete(c.Request.Context(), shop); err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			logger.Error("Failed to delete session", zap.Error(err), zap.String("shop", shop))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": shop})
	}
}

// HandleListProvisions handles GET /admin/provisions?shop=&limit=
func HandleListProvisions(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shop := shopify.NormalizeShop(c.Query("shop"))
		if shop == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shop required"})
			return
		}

		limit := 100
		if l := c.Query("limit"); l != "" {
			if n, err := strconv.Atoi(l); err == nil && n >= 1 && n <= 500 {
				limit = n
			}
		}

		events, err := repos.ProvisionEvent.ListByShop(c.Request.Context(), shop, limit)
		if err != nil {
			logger.Error("Failed to list provision events", zap.Error(err), zap.String("shop", shop))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"provisions": events, "count": len(events)})
	}
}
