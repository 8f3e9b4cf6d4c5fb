package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/osvaldoandrade/tldw/pkg/auth"
	"github.com/osvaldoandrade/tldw/pkg/config"

	"github.com/gin-gonic/gin"
)

// BearerAuthMiddleware validates the Authorization header against the
// configured auth mode. Validator implementations self-register, so the
// binary decides which modes are available via blank imports.
func BearerAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	validator, err := auth.NewValidator(cfg.AuthMode, auth.Config{
		Token:     cfg.AuthToken,
		JWTSecret: cfg.AuthJWTSecret,
		JWTIssuer: cfg.AuthJWTIssuer,
		ClockSkew: 30 * time.Second,
	})
	if err != nil {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth validator not configured"})
		}
	}
	return func(c *gin.Context) {
		claims, err := validateBearer(validator, c.GetHeader("Authorization"))
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="tldw"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set("authClaims", claims)
		c.Next()
	}
}

func validateBearer(validator auth.Validator, authHeader string) (*auth.Claims, error) {
	if strings.TrimSpace(authHeader) == "" {
		return nil, fmt.Errorf("missing Authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, fmt.Errorf("invalid Authorization format")
	}
	return validator.Validate(parts[1])
}
