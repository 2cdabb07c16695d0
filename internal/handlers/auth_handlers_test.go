package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/saksaud/physiocare-api/internal/identity"
	"github.com/saksaud/physiocare-api/internal/models"
	"github.com/saksaud/physiocare-api/internal/mykafka"
	"github.com/saksaud/physiocare-api/internal/session"
	"github.com/saksaud/physiocare-api/internal/store"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newAuthHandler(t *testing.T, db *gorm.DB) *AuthHandler {
	st := store.NewWithDB(db)
	return &AuthHandler{
		Store:    st,
		Chain:    identity.NewChain(st),
		Issuer:   session.NewIssuer([]byte("test-secret")),
		Producer: &mykafka.Producer{},
	}
}

func jsonRequest(method, target string, payload interface{}) *http.Request {
	bodyBytes, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(bodyBytes))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == session.CookieName && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("expected a session cookie")
	return nil
}

func TestRegister(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(t, db)
	e := echo.New()

	payload := map[string]string{
		"name":     "Jane Doe",
		"email":    "Jane@Example.com",
		"password": "password1",
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", payload), rec)

	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, "Jane Doe", user.Name)
	require.Equal(t, "jane@example.com", user.Email, "email must be stored lowercase")
	require.Equal(t, models.RolePatient, user.Role)
	require.NotEmpty(t, user.ID)
	require.NotContains(t, rec.Body.String(), "password1")

	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", payload), rec2)
	err := h.Register(c2)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusConflict, he.Code)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	h := newAuthHandler(t, initTestDB(t))
	e := echo.New()

	payload := map[string]string{
		"name":     "Sneaky",
		"email":    "sneaky@example.com",
		"password": "password1",
		"role":     "admin",
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", payload), rec)

	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestRegisterValidatesInput(t *testing.T) {
	h := newAuthHandler(t, initTestDB(t))
	e := echo.New()

	cases := []map[string]string{
		{"email": "a@b.co", "password": "password1"},
		{"name": "X", "password": "password1"},
		{"name": "X", "email": "not-an-email", "password": "password1"},
		{"name": "X", "email": "a@b.co", "password": "short"},
	}
	for _, payload := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", payload), rec)
		err := h.Register(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok, "expected HTTPError for %v", payload)
		require.Equal(t, http.StatusBadRequest, he.Code)
	}
}

func TestLoginWithStoredUser(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(t, db)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Jane Doe", "email": "jane@example.com", "password": "password1", "role": "doctor",
	}), rec)
	require.NoError(t, h.Register(c))

	recLogin := httptest.NewRecorder()
	cLogin := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "jane@example.com", "password": "password1",
	}), recLogin)

	require.NoError(t, h.Login(cLogin))
	require.Equal(t, http.StatusOK, recLogin.Code)

	var id identity.Identity
	require.NoError(t, json.Unmarshal(recLogin.Body.Bytes(), &id))
	require.Equal(t, models.RoleDoctor, id.Role)

	cookie := sessionCookie(t, recLogin)
	claims, err := h.Issuer.Decode(cookie.Value)
	require.NoError(t, err)
	require.Equal(t, models.RoleDoctor, claims.Role, "token role must match the stored role")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(t, db)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Jane Doe", "email": "jane@example.com", "password": "password1",
	}), rec)
	require.NoError(t, h.Register(c))

	for _, payload := range []map[string]string{
		{"email": "jane@example.com", "password": "wrong"},
		{"email": "nobody@example.com", "password": "password1"},
	} {
		recBad := httptest.NewRecorder()
		cBad := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", payload), recBad)
		err := h.Login(cBad)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok, "expected HTTPError")
		require.Equal(t, http.StatusUnauthorized, he.Code)
		// Unknown email and wrong password must be indistinguishable.
		require.Equal(t, "invalid credentials", he.Message)
	}
}

func TestLoginFallbackAdminSurvivesStoreOutage(t *testing.T) {
	db := initTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	h := newAuthHandler(t, db)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "admin@physiocare.com", "password": "admin123",
	}), rec)

	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)
	claims, decodeErr := h.Issuer.Decode(cookie.Value)
	require.NoError(t, decodeErr)
	require.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLogOutClearsCookie(t *testing.T) {
	h := newAuthHandler(t, initTestDB(t))
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), rec)

	require.NoError(t, h.LogOut(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var cleared bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == session.CookieName {
			require.Empty(t, cookie.Value)
			require.Negative(t, cookie.MaxAge)
			cleared = true
		}
	}
	require.True(t, cleared, "expected the session cookie to be expired")
}

func TestSessionEndpoint(t *testing.T) {
	h := newAuthHandler(t, initTestDB(t))
	e := echo.New()

	token, err := h.Issuer.Issue(&identity.Identity{ID: "3", Name: "Patient User", Email: "patient@physiocare.com", Role: models.RolePatient})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Session(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var id identity.Identity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &id))
	require.Equal(t, "3", id.ID)
	require.Equal(t, models.RolePatient, id.Role)

	recNone := httptest.NewRecorder()
	cNone := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), recNone)
	errNone := h.Session(cNone)
	he, ok := errNone.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}
