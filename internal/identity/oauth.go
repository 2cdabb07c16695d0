package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/saksaud/physiocare-api/internal/fallback"
	"github.com/saksaud/physiocare-api/internal/hash"
	"github.com/saksaud/physiocare-api/internal/logging"
	"github.com/saksaud/physiocare-api/internal/metrics"
	"github.com/saksaud/physiocare-api/internal/models"
	"github.com/saksaud/physiocare-api/internal/store"
)

// Profile is what the identity provider hands back after the handshake.
type Profile struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type OAuthResolver struct {
	Store *store.Store
}

// Resolve maps a federated profile onto a canonical identity. An existing
// user keeps their stored role; federation never rewrites it. A brand-new
// email is provisioned as a patient with an unusable local password. If the
// store is down the sign-in still succeeds with a non-persisted identity
// that lives only as long as the session token.
func (r *OAuthResolver) Resolve(ctx context.Context, p Profile) (*Identity, error) {
	email := NormalizeEmail(p.Email)
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	l := logging.FromContext(ctx).With("email", email)

	if acct, ok := fallback.Find(email); ok {
		return &Identity{ID: acct.ID, Name: acct.Name, Email: acct.Email, Role: acct.Role}, nil
	}

	user, err := r.Store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return FromUser(user), nil

	case errors.Is(err, store.ErrNotFound):
		pwHash, err := hash.HashPassword(hash.RandomPassword())
		if err != nil {
			return nil, err
		}
		user := &models.User{
			Name:         displayName(p, email),
			Email:        email,
			PasswordHash: pwHash,
			Role:         models.RolePatient,
		}
		if err := r.Store.Create(ctx, user); err != nil {
			l.Warn("cannot persist federated user", "error", err)
			metrics.StoreFailures.Inc()
			return degraded(p, email), nil
		}
		l.Info("federated user created")
		metrics.OAuthUsersCreated.Inc()
		return FromUser(user), nil

	default:
		l.Warn("user store unavailable during federated sign-in", "error", err)
		metrics.StoreFailures.Inc()
		return degraded(p, email), nil
	}
}

// degraded builds a best-effort identity when persistence is impossible. It
// is never written anywhere and will not survive past the current session.
func degraded(p Profile, email string) *Identity {
	id := p.Subject
	if id == "" {
		id = uuid.NewString()
	}
	return &Identity{ID: id, Name: displayName(p, email), Email: email, Role: models.RolePatient}
}

func displayName(p Profile, email string) string {
	if p.Name != "" {
		return p.Name
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
