package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/otp-auth-service/internal/interface/http"
	"github.com/oksasatya/otp-auth-service/internal/interface/middleware"
)

// Limits are request budgets per window; zero disables a limiter.
type Limits struct {
	Public  int
	Private int
	Window  time.Duration
}

type AccountModule struct {
	Handler *handlers.AccountHandler
	Tokens  middleware.TokenParser
	RDB     *redis.Client
	Limits  Limits
}

func NewAccountModule(h *handlers.AccountHandler, tokens middleware.TokenParser, rdb *redis.Client, limits Limits) *AccountModule {
	return &AccountModule{Handler: h, Tokens: tokens, RDB: rdb, Limits: limits}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	public := middleware.RateLimit(m.RDB, m.Limits.Public, m.Limits.Window, middleware.KeyByIPAndPath(), nil)

	a := rg.Group("/auth")
	a.POST("/signup", public, m.Handler.Signup)
	a.POST("/verify-otp", public, m.Handler.VerifyOtp)
	a.POST("/resend-otp", public, m.Handler.ResendOtp)
	a.POST("/signin", public, m.Handler.Signin)
	a.POST("/logout", m.Handler.Logout)

	auth := a.Group("")
	auth.Use(middleware.Auth(m.Tokens))
	auth.Use(middleware.RateLimit(m.RDB, m.Limits.Private, m.Limits.Window, middleware.KeyByAccount(), nil))
	{
		auth.GET("/me", m.Handler.Me)
		auth.POST("/reset-password", m.Handler.ResetPassword)
		auth.PUT("/update-profile", m.Handler.UpdateProfile)
		auth.POST("/upload", m.Handler.UploadAvatar)
		auth.GET("/accounts/search", m.Handler.SearchAccounts)
	}
}
