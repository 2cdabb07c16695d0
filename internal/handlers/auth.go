package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/saksaud/physiocare-api/internal/hash"
	"github.com/saksaud/physiocare-api/internal/identity"
	"github.com/saksaud/physiocare-api/internal/logging"
	"github.com/saksaud/physiocare-api/internal/metrics"
	"github.com/saksaud/physiocare-api/internal/models"
	"github.com/saksaud/physiocare-api/internal/mykafka"
	"github.com/saksaud/physiocare-api/internal/session"
	"github.com/saksaud/physiocare-api/internal/store"
)

type AuthHandler struct {
	Store    *store.Store
	Chain    *identity.Chain
	Issuer   *session.Issuer
	Producer *mykafka.Producer
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "please provide all required fields")
	}
	email := identity.NormalizeEmail(req.Email)
	if !emailRe.MatchString(email) {
		return echo.NewHTTPError(http.StatusBadRequest, "please provide a valid email address")
	}
	if len(req.Password) < 6 {
		return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 6 characters long")
	}

	role := models.RolePatient
	if req.Role != "" {
		role = models.Role(req.Role)
	}
	// Admin accounts are never created through the public path.
	if role != models.RolePatient && role != models.RoleDoctor {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid role specified")
	}

	ctx := c.Request().Context()
	if _, err := h.Store.FindByEmail(ctx, email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "user with this email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		logging.FromContext(ctx).Error("registration lookup failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "something went wrong")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "something went wrong")
	}
	user := &models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := h.Store.Create(ctx, user); err != nil {
		logging.FromContext(ctx).Error("registration create failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "something went wrong")
	}

	h.publish(c, "user_registered", identity.FromUser(user))

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	id, err := h.Chain.Resolve(ctx, req.Email, req.Password)
	if err != nil {
		metrics.SignIns.WithLabelValues("credentials", "failure").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token, err := h.Issuer.Issue(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create session")
	}
	c.SetCookie(session.Cookie(token, h.Issuer.MaxAge))
	metrics.SignIns.WithLabelValues("credentials", "success").Inc()

	h.publish(c, "user_logged_in", id)

	return c.JSON(http.StatusOK, id)
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	// Tokens are not revocable server-side; discarding the cookie is the
	// whole sign-out.
	c.SetCookie(session.DeleteCookie())
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) Session(c echo.Context) error {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	claims, err := h.Issuer.Decode(cookie.Value)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	return c.JSON(http.StatusOK, claims.Identity())
}

func (h *AuthHandler) publish(c echo.Context, eventType string, id *identity.Identity) {
	event := map[string]interface{}{
		"type":  eventType,
		"id":    id.ID,
		"email": id.Email,
		"role":  id.Role,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Producer.PublishEvent(ctx, "user_events", id.ID, event); err != nil {
		logging.FromContext(c.Request().Context()).Warn("kafka publish failed", "error", err)
	}
}
