package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DevelopmentOperator is used when no identity header reaches the service
// outside production
const DevelopmentOperator = "dev@example.com"

// OperatorMiddleware stores the person running an import as "operator".
// The identity comes from the proxy headers. When required is set, requests
// without one are rejected instead of falling back to the development user.
func OperatorMiddleware(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip health check endpoints
		if strings.HasPrefix(c.Request.URL.Path, "/health") ||
			strings.HasPrefix(c.Request.URL.Path, "/ready") {
			c.Next()
			return
		}

		operator := c.GetHeader("X-User-Email")
		if operator == "" {
			// Istio JWT claim header
			operator = c.GetHeader("x-jwt-claim-email")
		}
		if operator == "" {
			operator = c.GetHeader("X-User-ID")
		}

		if operator == "" {
			if required {
				c.JSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "OPERATOR_REQUIRED",
						"message": "Operator identity is required. Include X-User-Email or X-User-ID header.",
					},
				})
				c.Abort()
				return
			}
			operator = DevelopmentOperator
		}

		c.Set("operator", operator)
		c.Next()
	}
}
