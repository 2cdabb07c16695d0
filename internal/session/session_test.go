package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/saksaud/physiocare-api/internal/identity"
	"github.com/saksaud/physiocare-api/internal/models"
)

var testIdentity = &identity.Identity{
	ID:    "42",
	Name:  "Jane Doe",
	Email: "jane@example.com",
	Role:  models.RoleDoctor,
}

func TestIssueAndDecode(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"))

	token, err := issuer.Issue(testIdentity)
	require.NoError(t, err)

	claims, err := issuer.Decode(token)
	require.NoError(t, err)
	require.Equal(t, "42", claims.Subject)
	require.Equal(t, "Jane Doe", claims.Name)
	require.Equal(t, "jane@example.com", claims.Email)
	require.Equal(t, models.RoleDoctor, claims.Role)
	require.WithinDuration(t, time.Now().Add(MaxAge), claims.ExpiresAt.Time, time.Minute)
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	token, err := NewIssuer([]byte("secret-a")).Issue(testIdentity)
	require.NoError(t, err)

	_, err = NewIssuer([]byte("secret-b")).Decode(token)
	require.Error(t, err)
}

func TestDecodeRejectsExpiredToken(t *testing.T) {
	expiredIssuer := &Issuer{Secret: []byte("test-secret"), MaxAge: -time.Hour}
	token, err := expiredIssuer.Issue(testIdentity)
	require.NoError(t, err)

	_, err = NewIssuer([]byte("test-secret")).Decode(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := NewIssuer([]byte("test-secret")).Decode("not-a-token")
	require.Error(t, err)
}

func TestRefreshSlidesExpiryForward(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"))

	old := &Claims{
		Name:  testIdentity.Name,
		Email: testIdentity.Email,
		Role:  testIdentity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testIdentity.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(MaxAge - 48*time.Hour)),
		},
	}

	token, err := issuer.Refresh(old)
	require.NoError(t, err)

	fresh, err := issuer.Decode(token)
	require.NoError(t, err)
	require.True(t, fresh.ExpiresAt.After(old.ExpiresAt.Time))
	require.Equal(t, old.Subject, fresh.Subject)
	require.Equal(t, old.Role, fresh.Role, "refresh must not re-derive the role")
}
