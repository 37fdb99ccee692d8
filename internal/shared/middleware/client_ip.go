package middleware

import (
	"github.com/gin-gonic/gin"
)

const ContextKeyClientIP = "client_ip"

// ClientIPMiddleware resolves the caller address once per request. Forwarding
// headers count only when the peer is one of the engine's trusted proxies
// (see gin.Engine.SetTrustedProxies).
func ClientIPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyClientIP, c.ClientIP())
		c.Next()
	}
}

// GetClientIP returns the address stored by ClientIPMiddleware, resolving it
// directly when the middleware did not run.
func GetClientIP(c *gin.Context) string {
	if ip := c.GetString(ContextKeyClientIP); ip != "" {
		return ip
	}
	return c.ClientIP()
}
