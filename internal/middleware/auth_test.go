package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curtainbe/internal/domain"
)

// === Test JWT Validator ===

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (v *stubValidator) Validate(_ context.Context, _ string) (*JWTClaims, error) {
	return v.claims, v.err
}

// === In-memory repositories ===

type memUserRepo struct {
	bySubject map[string]*domain.User
	created   []*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{bySubject: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", len(m.created)+1)
	}
	if u.ORCIDSub != nil {
		m.bySubject[*u.ORCIDSub] = u
	}
	m.created = append(m.created, u)
	return u, nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range m.created {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound("user %s not found", id)
}

func (m *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range m.created {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound("user %s not found", username)
}

func (m *memUserRepo) GetBySubject(_ context.Context, sub string) (*domain.User, error) {
	if u, ok := m.bySubject[sub]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound("user %s not found", sub)
}

type memKeyRepo struct {
	byHash map[string]*domain.User
}

func (m *memKeyRepo) Create(_ context.Context, key *domain.APIKey) (*domain.APIKey, error) {
	return key, nil
}

func (m *memKeyRepo) ListByUser(_ context.Context, _ string) ([]domain.APIKey, error) {
	return nil, nil
}

func (m *memKeyRepo) DeleteByName(_ context.Context, _, _ string) error {
	return nil
}

func (m *memKeyRepo) LookupUserByKeyHash(_ context.Context, hash string) (*domain.User, error) {
	if u, ok := m.byHash[hash]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound("api key not found")
}

// nextHandler records the context user.
func nextHandler() (http.Handler, func() (*domain.User, bool)) {
	var u *domain.User
	var found bool
	h := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		u, found = UserFromContext(r.Context())
	})
	return h, func() (*domain.User, bool) { return u, found }
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestAuth_ValidJWT(t *testing.T) {
	handler, getUser := nextHandler()

	users := newMemUserRepo()
	sub := "0000-0002-1825-0097"
	_, err := users.Create(context.Background(), &domain.User{Username: "jane", ORCIDSub: &sub})
	require.NoError(t, err)

	auth := NewAuthenticator(
		&stubValidator{claims: &JWTClaims{Subject: sub}},
		users, nil, testLogger(),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	w := httptest.NewRecorder()

	auth.Required(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	u, found := getUser()
	require.True(t, found)
	assert.Equal(t, "jane", u.Username)
}

func TestAuth_ProvisionsUserOnFirstLogin(t *testing.T) {
	handler, getUser := nextHandler()

	users := newMemUserRepo()
	email := "new@example.org"
	auth := NewAuthenticator(
		&stubValidator{claims: &JWTClaims{Subject: "0000-0001-5109-3700", Email: &email}},
		users, nil, testLogger(),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer first-login-token")
	w := httptest.NewRecorder()

	auth.Required(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	u, found := getUser()
	require.True(t, found)
	assert.Equal(t, "new@example.org", u.Username)
	require.Len(t, users.created, 1)
	require.NotNil(t, users.created[0].ORCIDSub)
	assert.Equal(t, "0000-0001-5109-3700", *users.created[0].ORCIDSub)
}

func TestAuth_RejectedToken(t *testing.T) {
	auth := NewAuthenticator(
		&stubValidator{err: fmt.Errorf("token expired")},
		newMemUserRepo(), nil, testLogger(),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	w := httptest.NewRecorder()

	auth.Required(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be called")
	})).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidAPIKey(t *testing.T) {
	handler, getUser := nextHandler()
	rawKey := "test-api-key-12345678"

	keys := &memKeyRepo{byHash: map[string]*domain.User{
		HashAPIKey(rawKey): {ID: "u1", Username: "api-user"},
	}}
	auth := NewAuthenticator(nil, newMemUserRepo(), keys, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", rawKey)
	w := httptest.NewRecorder()

	auth.Required(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	u, found := getUser()
	require.True(t, found)
	assert.Equal(t, "api-user", u.Username)
}

func TestAuth_UnknownAPIKey(t *testing.T) {
	auth := NewAuthenticator(nil, newMemUserRepo(), &memKeyRepo{byHash: map[string]*domain.User{}}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "unknown-key")
	w := httptest.NewRecorder()

	auth.Required(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be called")
	})).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_OptionalAllowsAnonymous(t *testing.T) {
	handler, getUser := nextHandler()
	auth := NewAuthenticator(nil, newMemUserRepo(), nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	auth.Optional(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	_, found := getUser()
	assert.False(t, found)
}

func TestAuth_OptionalAttachesUser(t *testing.T) {
	handler, getUser := nextHandler()
	rawKey := "optional-key"

	keys := &memKeyRepo{byHash: map[string]*domain.User{
		HashAPIKey(rawKey): {ID: "u2", Username: "someone"},
	}}
	auth := NewAuthenticator(nil, newMemUserRepo(), keys, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", rawKey)
	w := httptest.NewRecorder()

	auth.Optional(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	u, found := getUser()
	require.True(t, found)
	assert.Equal(t, "someone", u.Username)
}

func TestAuth_BearerPrecedence(t *testing.T) {
	handler, getUser := nextHandler()
	rawKey := "test-api-key-12345678"

	users := newMemUserRepo()
	sub := "0000-0003-1415-9265"
	_, err := users.Create(context.Background(), &domain.User{Username: "jwt-user", ORCIDSub: &sub})
	require.NoError(t, err)

	keys := &memKeyRepo{byHash: map[string]*domain.User{
		HashAPIKey(rawKey): {ID: "u3", Username: "api-user"},
	}}
	auth := NewAuthenticator(&stubValidator{claims: &JWTClaims{Subject: sub}}, users, keys, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("X-API-Key", rawKey)
	w := httptest.NewRecorder()

	auth.Required(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	u, found := getUser()
	require.True(t, found)
	assert.Equal(t, "jwt-user", u.Username, "Bearer token should take precedence over API key")
}
