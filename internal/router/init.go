package router

import (
	"github.com/oksasatya/otp-auth-service/internal/application"
	"github.com/oksasatya/otp-auth-service/internal/container"
	handlers "github.com/oksasatya/otp-auth-service/internal/interface/http"
	"github.com/oksasatya/otp-auth-service/internal/router/modules"
	"github.com/oksasatya/otp-auth-service/pkg/helpers"
)

type AccountModuleDeps struct {
	Service *application.Service
	Handler *handlers.AccountHandler
}

func buildAccountDeps(c *container.Container) AccountModuleDeps {
	service := c.AccountService()
	handler := handlers.NewAccountHandler(
		service,
		c.Logger,
		helpers.NewCookie(c.Config.CookieDomain, c.Config.CookieSecure),
		c.Config.AvatarMaxBytes,
	)
	return AccountModuleDeps{Service: service, Handler: handler}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry, c *container.Container) {
	deps := buildAccountDeps(c)
	r.Add(modules.NewAccountModule(deps.Handler, c.JWT, c.Redis, modules.Limits{
		Public:  c.Config.RateLimitPublic,
		Private: c.Config.RateLimitPrivate,
		Window:  c.Config.RateLimitWindow,
	}))
	if c.Config.MetricsEnabled {
		r.Add(modules.NewDebugModule(c.Redis))
	}
}
