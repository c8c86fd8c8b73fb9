package middleware

import (
	"net/http"
	"strings"

	"github.com/batchline/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Keys for tenant data in gin.Context plus the extraction header.
const (
	TenantIDKey     = "tenant_id"
	TenantCodeKey   = "tenant_code"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantInfo is the validated tenant identity.
type TenantInfo struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
}

// TenantExtractor pulls a tenant ID out of a request.
type TenantExtractor interface {
	ExtractTenantID(c *gin.Context) (string, error)
}

// TenantValidator checks that a tenant exists and is active.
type TenantValidator interface {
	ValidateTenant(tenantID string) (*TenantInfo, error)
}

// TenantMiddlewareConfig controls how tenants are resolved per request.
type TenantMiddlewareConfig struct {
	// HeaderEnabled allows resolution via the X-Tenant-ID header.
	HeaderEnabled bool
	// JWTEnabled allows resolution via JWT claims; the JWT middleware
	// must run earlier in the chain.
	JWTEnabled bool
	// SubdomainEnabled allows resolution via the request subdomain.
	SubdomainEnabled bool
	// BaseDomain anchors subdomain extraction, e.g. "batchline.example.com".
	BaseDomain string
	// SkipPaths bypass tenant resolution entirely.
	SkipPaths []string
	// Required rejects requests that resolve no tenant.
	Required bool
	// Validator optionally verifies the resolved tenant.
	Validator TenantValidator
	// Logger receives middleware diagnostics.
	Logger *zap.Logger
}

// DefaultTenantConfig requires a tenant on every route except probes.
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		HeaderEnabled:    true,
		JWTEnabled:       true,
		SubdomainEnabled: false,
		BaseDomain:       "",
		SkipPaths:        []string{"/health", "/healthz", "/ready", "/metrics", "/api/v1/health"},
		Required:         true,
		Validator:        nil,
		Logger:           nil,
	}
}

// TenantMiddleware resolves the tenant with the default configuration.
// Resolution order: JWT claims, then X-Tenant-ID header, then subdomain.
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// OptionalTenantMiddleware resolves the tenant when present but lets
// anonymous requests through.
func OptionalTenantMiddleware() gin.HandlerFunc {
	cfg := DefaultTenantConfig()
	cfg.Required = false
	return TenantMiddlewareWithConfig(cfg)
}

// TenantMiddlewareWithConfig builds the tenant resolution middleware.
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tenantPathSkipped(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		tenantID, extractionMethod := resolveTenantID(cfg, c)

		if tenantID != "" {
			if err := validateTenantIDFormat(tenantID); err != nil {
				respondUnauthorized(c, "Invalid tenant ID format")
				return
			}
		}

		if tenantID == "" && cfg.Required {
			respondUnauthorized(c, "Tenant identification required")
			return
		}

		var tenantInfo *TenantInfo
		if tenantID != "" && cfg.Validator != nil {
			var err error
			tenantInfo, err = cfg.Validator.ValidateTenant(tenantID)
			if err != nil {
				log := cfg.Logger
				if log == nil {
					log = logger.FromContext(c.Request.Context())
				}
				log.Warn("Tenant validation failed",
					zap.String("tenant_id", tenantID),
					zap.Error(err),
				)
				respondUnauthorized(c, "Invalid or inactive tenant")
				return
			}
		}

		if tenantID != "" {
			c.Set(TenantIDKey, tenantID)
			if tenantInfo != nil {
				c.Set(TenantCodeKey, tenantInfo.Code)
			}

			// Propagate into the request context so the service layer
			// and logger see the tenant too.
			ctx := c.Request.Context()
			log := logger.FromContext(ctx)
			ctx, _ = logger.WithTenantID(ctx, log, tenantID)
			c.Request = c.Request.WithContext(ctx)

			if cfg.Logger != nil {
				cfg.Logger.Debug("Tenant identified",
					zap.String("tenant_id", tenantID),
					zap.String("method", extractionMethod),
				)
			}
		}

		c.Next()
	}
}

func tenantPathSkipped(skipPaths []string, path string) bool {
	for _, skipPath := range skipPaths {
		if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
			return true
		}
	}
	return false
}

// resolveTenantID tries each enabled source in priority order and reports
// which one matched.
func resolveTenantID(cfg TenantMiddlewareConfig, c *gin.Context) (string, string) {
	if cfg.JWTEnabled {
		if jwtTenantID, exists := c.Get("jwt_tenant_id"); exists {
			if tid, ok := jwtTenantID.(string); ok && tid != "" {
				return tid, "jwt"
			}
		}
	}

	if cfg.HeaderEnabled {
		if headerTenantID := c.GetHeader(TenantHeaderKey); headerTenantID != "" {
			return headerTenantID, "header"
		}
	}

	if cfg.SubdomainEnabled && cfg.BaseDomain != "" {
		if subdomainTenantID := extractTenantFromSubdomain(c.Request.Host, cfg.BaseDomain); subdomainTenantID != "" {
			return subdomainTenantID, "subdomain"
		}
	}

	return "", ""
}

// extractTenantFromSubdomain maps "acme.batchline.example.com" with base
// domain "batchline.example.com" to "acme". "www" never counts as a tenant.
func extractTenantFromSubdomain(host, baseDomain string) string {
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}

	if !strings.HasSuffix(host, baseDomain) {
		return ""
	}

	subdomain := strings.TrimSuffix(host, "."+baseDomain)
	if subdomain == host || subdomain == "" || subdomain == "www" {
		return ""
	}

	// Multi-level subdomains resolve to their leftmost label.
	parts := strings.Split(subdomain, ".")
	return parts[0]
}

// validateTenantIDFormat requires tenant IDs to be UUIDs.
func validateTenantIDFormat(tenantID string) error {
	_, err := uuid.Parse(tenantID)
	return err
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetTenantID reads the resolved tenant ID, or "" when absent.
func GetTenantID(c *gin.Context) string {
	if tenantID, exists := c.Get(TenantIDKey); exists {
		if tid, ok := tenantID.(string); ok {
			return tid
		}
	}
	return ""
}

// GetTenantUUID parses the resolved tenant ID as a UUID.
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(tenantID)
}

// GetTenantCode reads the validated tenant code, or "" when absent.
func GetTenantCode(c *gin.Context) string {
	if tenantCode, exists := c.Get(TenantCodeKey); exists {
		if code, ok := tenantCode.(string); ok {
			return code
		}
	}
	return ""
}

// MustGetTenantID panics when no tenant is in context. Only for handlers
// behind a required tenant middleware.
func MustGetTenantID(c *gin.Context) string {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		panic("tenant_id not found in context")
	}
	return tenantID
}

// MustGetTenantUUID panics when no parseable tenant is in context.
func MustGetTenantUUID(c *gin.Context) uuid.UUID {
	tenantUUID, err := GetTenantUUID(c)
	if err != nil || tenantUUID == uuid.Nil {
		panic("valid tenant_id not found in context")
	}
	return tenantUUID
}
