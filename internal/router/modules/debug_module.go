package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/otp-auth-service/internal/interface/middleware"
	"github.com/oksasatya/otp-auth-service/internal/metrics"
)

type DebugModule struct {
	RDB *redis.Client
}

func NewDebugModule(rdb *redis.Client) *DebugModule { return &DebugModule{RDB: rdb} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// Prometheus scrape endpoint, rate-limited per IP; private networks bypass
	rl := middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	h := promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})
	rg.GET("/debug/metrics", rl, gin.WrapH(h))
}
