package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tasktrack/tasktrack/internal/auth"
	"github.com/tasktrack/tasktrack/internal/shared"
	"github.com/tasktrack/tasktrack/internal/users"
	_ "github.com/tasktrack/tasktrack/testing"
)

type stubRepo struct {
	mu    sync.Mutex
	users map[string]*users.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) Create(ctx context.Context, user *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return shared.ErrEmailTaken
	}
	s.users[user.Email] = user
	return nil
}

func newAuthRouter(t *testing.T, revocation bool) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	store := auth.NewRedisSessionStore(redisClient)
	tokens := auth.NewTokenManager([]byte("secret"), nil)
	svc := auth.NewService(&stubRepo{users: map[string]*users.User{}}, store, auth.BcryptHasher{Cost: bcrypt.MinCost}, tokens, auth.ServiceConfig{Revocation: revocation})
	authn := auth.NewAuthenticator(nil, tokens, store, revocation)
	handler := auth.NewHandler(nil, svc, authn, 0)

	r := chi.NewRouter()
	handler.MountRoutes(r)
	r.With(authn.Require).Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		id, _ := shared.IdentityFromContext(r.Context())
		_, _ = w.Write([]byte(id.UserID))
	})
	return r
}

func postJSON(t *testing.T, h http.Handler, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if len(header) == 1 {
		req.Header.Set("Authorization", header[0])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Message
}

func TestRegisterLoginFlow(t *testing.T) {
	h := newAuthRouter(t, false)

	rr := postJSON(t, h, "/register", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "User registered successfully", decodeMessage(t, rr))
	assert.NotContains(t, rr.Body.String(), "password")

	rr = postJSON(t, h, "/register", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "User already exists", decodeMessage(t, rr))

	rr = postJSON(t, h, "/login", map[string]string{"email": "ada@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var session struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)
	assert.NotEmpty(t, session.ExpiresAt)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	who := httptest.NewRecorder()
	h.ServeHTTP(who, req)
	assert.Equal(t, http.StatusOK, who.Code)
	assert.NotEmpty(t, who.Body.String())

	rr = postJSON(t, h, "/login", map[string]string{"email": "ada@example.com", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "User is already logged in", decodeMessage(t, rr))
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newAuthRouter(t, false)
	postJSON(t, h, "/register", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "password123"})

	wrong := postJSON(t, h, "/login", map[string]string{"email": "ada@example.com", "password": "wrongpass"})
	unknown := postJSON(t, h, "/login", map[string]string{"email": "bob@example.com", "password": "password123"})

	assert.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, "Invalid Credentials", decodeMessage(t, wrong))
	assert.Equal(t, decodeMessage(t, wrong), decodeMessage(t, unknown))
}

func TestRegisterValidation(t *testing.T) {
	h := newAuthRouter(t, false)

	rr := postJSON(t, h, "/register", map[string]string{"name": "Ada", "email": "not-an-email", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "email must be a valid email", decodeMessage(t, rr))

	rr = postJSON(t, h, "/register", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "password must be at least 8 characters", decodeMessage(t, rr))

	multibyte := strings.Repeat("é", 40)
	rr = postJSON(t, h, "/register", map[string]string{"name": "Ada", "email": "ada@example.com", "password": multibyte})
	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
	assert.Equal(t, "password must be at most 72 bytes", decodeMessage(t, rr))

	rr = postJSON(t, h, "/register", map[string]string{"name": "Ada", "email": "ada@example.com", "password": strings.Repeat("é", 36)})
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString("{"))
	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	h := newAuthRouter(t, false)

	rr := postJSON(t, h, "/logout", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Logged out successfully", decodeMessage(t, rr))

	rr = postJSON(t, h, "/logout", nil, "Bearer junk")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLogoutWithRevocationEndsSession(t *testing.T) {
	h := newAuthRouter(t, true)
	postJSON(t, h, "/register", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "password123"})
	rr := postJSON(t, h, "/login", map[string]string{"email": "ada@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rr.Code)
	var session auth.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &session))

	rr = postJSON(t, h, "/logout", nil, "Bearer "+session.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	who := httptest.NewRecorder()
	h.ServeHTTP(who, req)
	assert.Equal(t, http.StatusUnauthorized, who.Code)

	rr = postJSON(t, h, "/login", map[string]string{"email": "ada@example.com", "password": "password123"})
	assert.Equal(t, http.StatusOK, rr.Code)
}
