package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/saksaud/physiocare-api/internal/logging"
	authmw "github.com/saksaud/physiocare-api/internal/middleware/auth"
	"github.com/saksaud/physiocare-api/internal/models"
	"github.com/saksaud/physiocare-api/internal/store"
)

// DashboardHandler serves the protected surface behind the route authorizer.
// Everything here reads identity from the session claims put in context by
// the middleware; no handler re-checks roles itself.
type DashboardHandler struct {
	Store *store.Store
}

func (h *DashboardHandler) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, authmw.ClaimsFrom(c).Identity())
}

// Profile returns the stored record when the identity is persisted, or just
// the claim surface for fallback/degraded identities that have no row.
func (h *DashboardHandler) Profile(c echo.Context) error {
	claims := authmw.ClaimsFrom(c)
	user, err := h.Store.FindByEmail(c.Request().Context(), claims.Email)
	if err != nil {
		return c.JSON(http.StatusOK, claims.Identity())
	}
	return c.JSON(http.StatusOK, user)
}

func (h *DashboardHandler) Patients(c echo.Context) error {
	users, err := h.Store.List(c.Request().Context(), models.RolePatient)
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn("patient list unavailable", "error", err)
		return c.JSON(http.StatusOK, echo.Map{"patients": []models.User{}})
	}
	return c.JSON(http.StatusOK, echo.Map{"patients": users})
}

func (h *DashboardHandler) AdminUsers(c echo.Context) error {
	users, err := h.Store.List(c.Request().Context(), "")
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("user list unavailable", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "user store unavailable")
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// LoginPage and SignupPage exist as redirect targets for the authorizer; the
// actual forms live in the mobile/web clients.
func (h *DashboardHandler) LoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"page":        "login",
		"callbackUrl": c.QueryParam("callbackUrl"),
	})
}

func (h *DashboardHandler) SignupPage(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"page": "signup"})
}
