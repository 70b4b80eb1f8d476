package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/tenant"
)

const HeaderAPIKey = "X-API-Key"

// TenantAuthConfig configures tenant resolution.
type TenantAuthConfig struct {
	// JWTSecret verifies Bearer tokens carrying a tenant_id claim.
	JWTSecret string

	// APIKeyHashes maps tenant id to the bcrypt hash of its API key.
	APIKeyHashes map[string]string
}

type tenantClaims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// TenantAuth resolves the tenant from a Bearer token or an API key and puts
// it in the request context. Every route behind it is tenant-scoped.
func TenantAuth(cfg TenantAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := resolveTenant(c, cfg)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx := tenant.WithTenantID(c.Request.Context(), tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("tenant_id", tenantID)

		c.Next()
	}
}

func resolveTenant(c *gin.Context, cfg TenantAuthConfig) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return "", apperror.NewUnauthorized("invalid authorization header format")
		}
		return tenantFromToken(parts[1], cfg.JWTSecret)
	}

	if apiKey := c.GetHeader(HeaderAPIKey); apiKey != "" {
		return tenantFromAPIKey(apiKey, cfg.APIKeyHashes)
	}

	return "", apperror.NewUnauthorized("missing credentials")
}

func tenantFromToken(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tenantClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", apperror.NewUnauthorized("invalid token")
	}

	claims, ok := token.Claims.(*tenantClaims)
	if !ok || claims.TenantID == "" {
		return "", apperror.NewUnauthorized("token has no tenant")
	}
	return claims.TenantID, nil
}

// tenantFromAPIKey verifies keys of the form "{tenantId}.{secret}" against
// the configured bcrypt hashes.
func tenantFromAPIKey(apiKey string, hashes map[string]string) (string, error) {
	tenantID, secret, found := strings.Cut(apiKey, ".")
	if !found || tenantID == "" || secret == "" {
		return "", apperror.NewUnauthorized("invalid api key format")
	}

	hash, ok := hashes[tenantID]
	if !ok {
		return "", apperror.NewUnauthorized("unknown api key")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return "", apperror.NewUnauthorized("invalid api key")
	}
	return tenantID, nil
}
