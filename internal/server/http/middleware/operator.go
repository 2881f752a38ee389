package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/cardshop/internal/pkg/auth"
)

// OperatorAuthenticator validates operator bearer tokens.
type OperatorAuthenticator interface {
	AuthenticateOperator(token string) error
}

// OperatorRequired guards admin endpoints. The admin API answers 404 while no token hash is configured.
func OperatorRequired(authenticator OperatorAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := authenticator.AuthenticateOperator(extractToken(c))
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, pkgAuth.ErrAdminDisabled):
			c.AbortWithStatus(http.StatusNotFound)
		case errors.Is(err, pkgAuth.ErrInvalidToken):
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatus(http.StatusUnauthorized)
		default:
			c.AbortWithStatus(http.StatusInternalServerError)
		}
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
