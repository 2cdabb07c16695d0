package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/saksaud/physiocare-api/internal/handlers"
	authmw "github.com/saksaud/physiocare-api/internal/middleware/auth"
)

type Deps struct {
	AuthHandler      *handlers.AuthHandler
	OAuthHandler     *handlers.OAuthHandler
	DashboardHandler *handlers.DashboardHandler
	Authorizer       *authmw.Authorizer
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/auth")
	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login, loginRateLimiter())
	api.POST("/logout", d.AuthHandler.LogOut)
	api.GET("/session", d.AuthHandler.Session)

	e.GET("/auth/google", d.OAuthHandler.Begin)
	e.GET("/auth/google/callback", d.OAuthHandler.Callback)

	// Everything below passes through the route authorizer first.
	pages := e.Group("", d.Authorizer.Middleware)
	pages.GET(authmw.LoginPath, d.DashboardHandler.LoginPage)
	pages.GET(authmw.SignupPath, d.DashboardHandler.SignupPage)
	pages.GET("/dashboard", d.DashboardHandler.Home)
	pages.GET("/dashboard/profile", d.DashboardHandler.Profile)
	pages.GET("/dashboard/patients", d.DashboardHandler.Patients)
	pages.GET("/dashboard/admin/users", d.DashboardHandler.AdminUsers)
}

// loginRateLimiter slows credential stuffing without touching the generic
// rejection the handler returns.
func loginRateLimiter() echo.MiddlewareFunc {
	return middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(5)))
}
