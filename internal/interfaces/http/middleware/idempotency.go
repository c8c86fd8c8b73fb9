package middleware

import (
	"net/http"
	"time"

	"github.com/batchline/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyHeaderKey carries the client-chosen key for duplicate suppression.
const IdempotencyHeaderKey = "X-Idempotency-Key"

var duplicateRequestResponse = gin.H{
	"success": false,
	"error": gin.H{
		"code":    "DUPLICATE_REQUEST",
		"message": "A request with this idempotency key was already accepted",
	},
}

// IdempotencyKey suppresses replays of mutation requests that carry an
// X-Idempotency-Key header. Keys are scoped per tenant, method, and path, so
// the same key may be reused against different endpoints. Requests without the
// header, and safe methods, pass through untouched.
//
// The key is claimed before the handler runs; a retry of a failed attempt
// needs a fresh key until the TTL lapses. A store error fails open so the
// store never takes write traffic down with it.
func IdempotencyKey(store shared.IdempotencyStore, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyHeaderKey)
		if key == "" {
			c.Next()
			return
		}

		scoped := idempotencyScope(c) + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key
		claimed, err := store.MarkProcessed(c.Request.Context(), scoped, ttl)
		if err != nil {
			log.Error("Idempotency store unavailable, allowing request",
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, duplicateRequestResponse)
			return
		}

		c.Next()
	}
}

func idempotencyScope(c *gin.Context) string {
	if tenantID := GetTenantID(c); tenantID != "" {
		return tenantID
	}
	return c.GetHeader(TenantHeaderKey)
}
