package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/saksaud/physiocare-api/internal/fallback"
	"github.com/saksaud/physiocare-api/internal/hash"
	"github.com/saksaud/physiocare-api/internal/logging"
	"github.com/saksaud/physiocare-api/internal/metrics"
	"github.com/saksaud/physiocare-api/internal/models"
	"github.com/saksaud/physiocare-api/internal/store"
)

// ErrInvalidCredentials is the only error a caller ever sees from the chain.
// Unknown email, wrong password and unreachable backend all collapse into it
// so the response gives nothing away.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Identity is the canonical result of any credential source and the only
// shape the rest of the application depends on.
type Identity struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CredentialResolver answers for one credential source. ErrInvalidCredentials
// means "no match here"; anything else is an infrastructure failure the chain
// logs and skips.
type CredentialResolver interface {
	Resolve(ctx context.Context, email, password string) (*Identity, error)
}

// Chain tries its resolvers in order. The fallback set comes first so the
// demo accounts work without a database round-trip.
type Chain struct {
	resolvers []CredentialResolver
}

func NewChain(s *store.Store) *Chain {
	return &Chain{resolvers: []CredentialResolver{
		fallbackResolver{},
		&storeResolver{store: s},
	}}
}

func (c *Chain) Resolve(ctx context.Context, email, password string) (*Identity, error) {
	email = NormalizeEmail(email)
	for _, r := range c.resolvers {
		id, err := r.Resolve(ctx, email, password)
		if err == nil {
			return id, nil
		}
		if errors.Is(err, ErrInvalidCredentials) {
			continue
		}
		// Backend trouble reads as "no match" to the caller, but the real
		// cause still has to reach the logs.
		logging.FromContext(ctx).Warn("credential source failed", "error", err)
		metrics.StoreFailures.Inc()
	}
	return nil, ErrInvalidCredentials
}

type fallbackResolver struct{}

func (fallbackResolver) Resolve(ctx context.Context, email, password string) (*Identity, error) {
	acct, ok := fallback.Find(email)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !hash.CheckPassword(acct.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	metrics.FallbackHits.Inc()
	return &Identity{ID: acct.ID, Name: acct.Name, Email: acct.Email, Role: acct.Role}, nil
}

type storeResolver struct {
	store *store.Store
}

func (r *storeResolver) Resolve(ctx context.Context, email, password string) (*Identity, error) {
	user, err := r.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return FromUser(user), nil
}

func FromUser(u *models.User) *Identity {
	return &Identity{ID: u.ID.String(), Name: u.Name, Email: u.Email, Role: u.Role}
}
