package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

var bodyTooLargeResponse = gin.H{
	"success": false,
	"error": gin.H{
		"code":    "REQUEST_TOO_LARGE",
		"message": "Request body exceeds maximum allowed size",
	},
}

// BodyLimit rejects requests whose body exceeds maxBytes. Declared lengths
// fail fast with a 413; chunked bodies are capped by MaxBytesReader while the
// handler reads.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, bodyTooLargeResponse)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
