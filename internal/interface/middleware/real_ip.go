package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxRealIP = "real_ip"

// RealIP sets the client IP into Gin context under real_ip.
// With trustProxyHeaders the priority is CF-Connecting-IP, X-Real-IP,
// left-most X-Forwarded-For, then c.ClientIP(). Without it only the peer
// address counts, so clients cannot pick their own rate limit bucket.
func RealIP(trustProxyHeaders bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.RemoteIP()
		if trustProxyHeaders {
			ip = realIP(c)
		}
		c.Set(CtxRealIP, ip)
		c.Next()
	}
}

func realIP(c *gin.Context) string {
	for _, h := range []string{"CF-Connecting-IP", "X-Real-IP"} {
		if ip := net.ParseIP(strings.TrimSpace(c.GetHeader(h))); ip != nil {
			return ip.String()
		}
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	return c.ClientIP()
}
