// AngelaMos | 2026
// auth_test.go

package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/waitlist-backend/internal/access"
	"github.com/carterperez-dev/waitlist-backend/internal/auth"
	"github.com/carterperez-dev/waitlist-backend/internal/business"
	"github.com/carterperez-dev/waitlist-backend/internal/config"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
	"github.com/carterperez-dev/waitlist-backend/internal/middleware"
	"github.com/carterperez-dev/waitlist-backend/internal/migrate"
	"github.com/carterperez-dev/waitlist-backend/internal/user"
)

func hmacConfig() config.JWTConfig {
	return config.JWTConfig{
		Algorithm:          config.AlgorithmHS256,
		Secret:             "0123456789abcdef0123456789abcdef",
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "waitlist-test",
		Audience:           "waitlist-test-api",
	}
}

type fixture struct {
	auth  *auth.Service
	users *user.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	core.SetPasswordParams(core.Argon2Params{Memory: 1024, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16})

	db, err := migrate.OpenInMemory(ctx, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tokens, err := auth.NewTokenManager(hmacConfig())
	require.NoError(t, err)

	businesses := business.NewService(business.NewRepository(db.DB))
	users := user.NewService(user.NewRepository(db.DB), businesses, logger)

	return &fixture{
		auth:  auth.NewService(auth.NewRepository(db.DB), tokens, users, nil, logger),
		users: users,
	}
}

func registerRequest(username string) auth.RegisterRequest {
	return auth.RegisterRequest{
		Username:     username,
		Password:     "secret123",
		Email:        username + "@example.com",
		BusinessName: "Bistro " + username,
		BusinessType: "RESTAURANT",
	}
}

func TestHMACManagerRoundTrip(t *testing.T) {
	m, err := auth.NewHMACManager(hmacConfig())
	require.NoError(t, err)
	assert.Equal(t, config.AlgorithmHS256, m.Algorithm())

	signed, err := m.CreateAccessToken(auth.AccessTokenClaims{
		UserID:       "u1",
		Username:     "mario",
		Role:         string(access.RoleBusinessOwner),
		BusinessIDs:  []string{"b1", "b2"},
		TokenVersion: 3,
	})
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(context.Background(), signed.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "mario", claims.Username)
	assert.Equal(t, []string{"b1", "b2"}, claims.BusinessIDs)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, signed.ID, claims.TokenID)
}

func TestHMACManagerRejects(t *testing.T) {
	_, err := auth.NewHMACManager(config.JWTConfig{Secret: "short"})
	require.Error(t, err)

	cfg := hmacConfig()
	cfg.AccessTokenExpire = -time.Minute
	expired, err := auth.NewHMACManager(cfg)
	require.NoError(t, err)

	signed, err := expired.CreateAccessToken(auth.AccessTokenClaims{UserID: "u1"})
	require.NoError(t, err)

	_, err = expired.VerifyAccessToken(context.Background(), signed.Token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)

	other := hmacConfig()
	other.Secret = "fedcba9876543210fedcba9876543210"
	wrongKey, err := auth.NewHMACManager(other)
	require.NoError(t, err)

	good, err := auth.NewHMACManager(hmacConfig())
	require.NoError(t, err)
	signed, err = good.CreateAccessToken(auth.AccessTokenClaims{UserID: "u1"})
	require.NoError(t, err)

	_, err = wrongKey.VerifyAccessToken(context.Background(), signed.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestES256ManagerGeneratesKeys(t *testing.T) {
	dir := t.TempDir()
	cfg := config.JWTConfig{
		Algorithm:          config.AlgorithmES256,
		PrivateKeyPath:     filepath.Join(dir, "keys", "private.pem"),
		PublicKeyPath:      filepath.Join(dir, "keys", "public.pem"),
		GenerateKeys:       true,
		AccessTokenExpire:  time.Minute,
		RefreshTokenExpire: time.Hour,
		Issuer:             "waitlist-test",
		Audience:           "waitlist-test-api",
	}

	m, err := auth.NewTokenManager(cfg)
	require.NoError(t, err)
	assert.Equal(t, config.AlgorithmES256, m.Algorithm())

	signed, err := m.CreateAccessToken(auth.AccessTokenClaims{
		UserID:      "u1",
		Username:    "staff1",
		Role:        string(access.RoleBusinessStaff),
		BusinessIDs: []string{"b1"},
	})
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(context.Background(), signed.Token)
	require.NoError(t, err)
	assert.Equal(t, "staff1", claims.Username)
	assert.Equal(t, []string{"b1"}, claims.BusinessIDs)

	_, err = m.VerifyAccessToken(context.Background(), signed.Token+"x")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	es, ok := m.(*auth.JWTManager)
	require.True(t, ok)
	assert.NotEmpty(t, es.GetKeyID())

	provider, ok := m.(auth.JWKSProvider)
	require.True(t, ok)

	rec := httptest.NewRecorder()
	provider.GetJWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var jwks struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jwks))
	require.Len(t, jwks.Keys, 1)
	assert.Equal(t, "EC", jwks.Keys[0]["kty"])
}

func TestRegisterAndLogin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, registerRequest("mario"), "test", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, string(access.RoleBusinessOwner), reg.User.Role)
	require.Len(t, reg.User.BusinessIDs, 1)
	assert.Equal(t, "Bistro mario", reg.User.Businesses[0].Name)
	assert.NotEmpty(t, reg.Tokens.AccessToken)
	assert.NotEmpty(t, reg.Tokens.RefreshToken)

	_, err = f.auth.Register(ctx, registerRequest("mario"), "", "")
	assert.ErrorIs(t, err, core.ErrConflict)

	login, err := f.auth.Login(ctx, auth.LoginRequest{Username: "mario", Password: "secret123"}, "", "")
	require.NoError(t, err)

	claims, err := f.auth.VerifyAccessToken(ctx, login.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)
	assert.Equal(t, reg.User.BusinessIDs, claims.BusinessIDs)

	_, err = f.auth.Login(ctx, auth.LoginRequest{Username: "mario", Password: "wrong"}, "", "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = f.auth.Login(ctx, auth.LoginRequest{Username: "nobody", Password: "secret123"}, "", "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestRefreshRotationAndReuse(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, registerRequest("luigi"), "", "")
	require.NoError(t, err)

	rotated, err := f.auth.Refresh(ctx, reg.Tokens.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, reg.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	_, err = f.auth.Refresh(ctx, reg.Tokens.RefreshToken, "", "")
	assert.True(t, errors.Is(err, auth.ErrTokenReuse))

	_, err = f.auth.Refresh(ctx, rotated.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = f.auth.Refresh(ctx, "not-a-token", "", "")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestLogoutAllRevokesAccessTokens(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, registerRequest("peach"), "", "")
	require.NoError(t, err)

	sessions, err := f.auth.GetActiveSessions(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	require.NoError(t, f.auth.LogoutAll(ctx, reg.User.ID))

	_, err = f.auth.VerifyAccessToken(ctx, reg.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	sessions, err = f.auth.GetActiveSessions(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestDeactivatedUserIsLockedOut(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, registerRequest("toad"), "", "")
	require.NoError(t, err)

	admin := access.Identity{UserID: "admin", Role: access.RolePlatformAdmin}
	_, err = f.users.Deactivate(ctx, admin, reg.User.ID)
	require.NoError(t, err)

	_, err = f.auth.VerifyAccessToken(ctx, reg.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = f.auth.Login(ctx, auth.LoginRequest{Username: "toad", Password: "secret123"}, "", "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	assert.False(t, f.auth.Validate(ctx, reg.Tokens.AccessToken).Valid)
}

func TestChangePassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, registerRequest("daisy"), "", "")
	require.NoError(t, err)

	err = f.auth.ChangePassword(ctx, reg.User.ID, "wrong", "newsecret")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	require.NoError(t, f.auth.ChangePassword(ctx, reg.User.ID, "secret123", "newsecret"))

	_, err = f.auth.VerifyAccessToken(ctx, reg.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = f.auth.Login(ctx, auth.LoginRequest{Username: "daisy", Password: "newsecret"}, "", "")
	assert.NoError(t, err)
}

func newRouter(f *fixture) http.Handler {
	r := chi.NewRouter()
	auth.NewHandler(f.auth).RegisterRoutes(r, middleware.Authenticator(f.auth))
	return r
}

func TestHandlerFlow(t *testing.T) {
	f := setup(t)
	router := newRouter(f)

	body := `{"username":"wario","password":"secret123","email":"wario@example.com",
		"business_name":"Wario Diner","business_type":"RESTAURANT"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data auth.AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	reg := envelope.Data

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"username":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"wario","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+reg.Tokens.AccessToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"wario"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/validate",
		strings.NewReader(`{"token":"`+reg.Tokens.AccessToken+`"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":true`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/validate",
		strings.NewReader(`{"token":"garbage"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":false`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/refresh",
		strings.NewReader(`{"refresh_token":"`+reg.Tokens.RefreshToken+`"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/refresh",
		strings.NewReader(`{"refresh_token":"`+reg.Tokens.RefreshToken+`"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKEN_REUSE_DETECTED")
}

func TestRefreshTokenState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	revokedAt := now.Add(-time.Minute)

	tests := []struct {
		name  string
		token auth.RefreshToken
		want  auth.TokenState
	}{
		{"active", auth.RefreshToken{ExpiresAt: now.Add(time.Hour)}, auth.TokenActive},
		{"expired at boundary", auth.RefreshToken{ExpiresAt: now}, auth.TokenExpired},
		{"revoked", auth.RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}, auth.TokenRevoked},
		{
			"used beats revoked and expired",
			auth.RefreshToken{ExpiresAt: now.Add(-time.Hour), RevokedAt: &revokedAt, IsUsed: true},
			auth.TokenUsed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.State(now))
		})
	}
}
