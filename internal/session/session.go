package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/saksaud/physiocare-api/internal/identity"
	"github.com/saksaud/physiocare-api/internal/models"
)

const CookieName = "physiocare_session"

// MaxAge caps the session at 30 days from the most recent issuance. The
// window slides forward on every authorized request.
const MaxAge = 30 * 24 * time.Hour

type Claims struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	Secret []byte
	MaxAge time.Duration
}

func NewIssuer(secret []byte) *Issuer {
	return &Issuer{Secret: secret, MaxAge: MaxAge}
}

func (i *Issuer) Issue(id *identity.Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:  id.Name,
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.MaxAge)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.Secret)
}

func (i *Issuer) Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if !t.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}

// Refresh reissues the token for the same identity with a fresh expiry. Role
// is carried over as-is: it is only re-derived from the store when the user
// signs in again.
func (i *Issuer) Refresh(c *Claims) (string, error) {
	return i.Issue(&identity.Identity{ID: c.Subject, Name: c.Name, Email: c.Email, Role: c.Role})
}

func (c *Claims) Identity() *identity.Identity {
	return &identity.Identity{ID: c.Subject, Name: c.Name, Email: c.Email, Role: c.Role}
}

func Cookie(token string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
