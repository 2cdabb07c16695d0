package auth

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/saksaud/physiocare-api/internal/session"
)

type Authorizer struct {
	Issuer *session.Issuer
}

// Middleware decodes the session cookie, applies the route policy and either
// redirects or lets the request through with the claims in context. Every
// allowed authenticated request also gets its cookie reissued, sliding the
// session window forward.
func (a *Authorizer) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := a.decode(c)
		path := c.Request().URL.Path

		switch Authorize(path, claims) {
		case RedirectLogin:
			q := url.Values{}
			q.Set("callbackUrl", path)
			return c.Redirect(http.StatusFound, LoginPath+"?"+q.Encode())
		case RedirectDashboard:
			return c.Redirect(http.StatusFound, DashboardPath)
		}

		if claims != nil {
			setUserContext(c, claims)
			if token, err := a.Issuer.Refresh(claims); err == nil {
				c.SetCookie(session.Cookie(token, a.Issuer.MaxAge))
			}
		}
		return next(c)
	}
}

// decode treats a missing, malformed or expired token all as "no session".
func (a *Authorizer) decode(c echo.Context) *session.Claims {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil {
		return nil
	}
	claims, err := a.Issuer.Decode(cookie.Value)
	if err != nil {
		return nil
	}
	return claims
}

func setUserContext(c echo.Context, claims *session.Claims) {
	c.Set("userID", claims.Subject)
	c.Set("role", claims.Role)
	c.Set("claims", claims)
}

// ClaimsFrom returns the session claims stored by the middleware, or nil for
// an anonymous request.
func ClaimsFrom(c echo.Context) *session.Claims {
	if v, ok := c.Get("claims").(*session.Claims); ok {
		return v
	}
	return nil
}
