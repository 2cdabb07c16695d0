package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/saksaud/physiocare-api/internal/config"
	"github.com/saksaud/physiocare-api/internal/identity"
	"github.com/saksaud/physiocare-api/internal/logging"
	"github.com/saksaud/physiocare-api/internal/metrics"
	authmw "github.com/saksaud/physiocare-api/internal/middleware/auth"
	"github.com/saksaud/physiocare-api/internal/mykafka"
	"github.com/saksaud/physiocare-api/internal/session"
)

const (
	userinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	stateCookie = "oauth_state"
)

type OAuthHandler struct {
	Resolver *identity.OAuthResolver
	Issuer   *session.Issuer
	Producer *mykafka.Producer
	Config   *oauth2.Config
}

func NewOAuthHandler(cfg *config.Config, resolver *identity.OAuthResolver, issuer *session.Issuer, producer *mykafka.Producer) *OAuthHandler {
	return &OAuthHandler{
		Resolver: resolver,
		Issuer:   issuer,
		Producer: producer,
		Config: &oauth2.Config{
			ClientID:     cfg.GOOGLE_CLIENT_ID,
			ClientSecret: cfg.GOOGLE_CLIENT_SECRET,
			RedirectURL:  cfg.OAUTH_REDIRECT_URL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (h *OAuthHandler) Begin(c echo.Context) error {
	state := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, h.Config.AuthCodeURL(state, oauth2.AccessTypeOffline))
}

// Callback finishes the handshake. Any provider-side failure sends the user
// back to the login page; the system never sees the external password.
func (h *OAuthHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx)

	state, err := c.Cookie(stateCookie)
	if err != nil || state.Value == "" || c.QueryParam("state") != state.Value {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid oauth state")
	}
	c.SetCookie(&http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	code := c.QueryParam("code")
	if code == "" {
		return c.Redirect(http.StatusFound, authmw.LoginPath)
	}

	tok, err := h.Config.Exchange(ctx, code)
	if err != nil {
		l.Warn("oauth code exchange failed", "error", err)
		metrics.SignIns.WithLabelValues("google", "failure").Inc()
		return c.Redirect(http.StatusFound, authmw.LoginPath)
	}

	profile, err := h.fetchProfile(ctx, tok)
	if err != nil {
		l.Warn("oauth userinfo fetch failed", "error", err)
		metrics.SignIns.WithLabelValues("google", "failure").Inc()
		return c.Redirect(http.StatusFound, authmw.LoginPath)
	}

	id, err := h.Resolver.Resolve(ctx, *profile)
	if err != nil {
		metrics.SignIns.WithLabelValues("google", "failure").Inc()
		return c.Redirect(http.StatusFound, authmw.LoginPath)
	}

	token, err := h.Issuer.Issue(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create session")
	}
	c.SetCookie(session.Cookie(token, h.Issuer.MaxAge))
	metrics.SignIns.WithLabelValues("google", "success").Inc()

	event := map[string]interface{}{"type": "user_logged_in", "id": id.ID, "email": id.Email, "role": id.Role}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(pubCtx, "user_events", id.ID, event); err != nil {
		l.Warn("kafka publish failed", "error", err)
	}

	return c.Redirect(http.StatusFound, authmw.DashboardPath)
}

func (h *OAuthHandler) fetchProfile(ctx context.Context, tok *oauth2.Token) (*identity.Profile, error) {
	client := h.Config.Client(ctx, tok)
	resp, err := client.Get(userinfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo: unexpected status %s", resp.Status)
	}
	var p identity.Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}
