package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS returns a CORS middleware with proper configuration
// Note: AllowAllOrigins and AllowCredentials cannot both be true
func CORS() gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-User-ID", "X-User-Email", "X-Request-ID"}
	config.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	config.AllowCredentials = false

	return cors.New(config)
}
