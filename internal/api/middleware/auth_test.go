package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/homely/homely/internal/auth"
	"github.com/homely/homely/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *auth.TokenService {
	return auth.NewTokenService("test-secret-key", 15*time.Minute)
}

func issue(t *testing.T, tokens *auth.TokenService, id model.ID, role model.Role) string {
	t.Helper()
	token, _, err := tokens.Issue(model.User{ID: id, Email: "test@example.com", Role: role})
	require.NoError(t, err)
	return token
}

func capture(claims **auth.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := GetUserFromContext(r.Context()); ok {
			*claims = c
		}
		w.WriteHeader(http.StatusOK)
	})
}

// ============================================
// ExtractToken Tests
// ============================================

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(req))

	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", ExtractToken(req))

	req.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", ExtractToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "from-cookie", ExtractToken(req))
}

// ============================================
// AuthMiddleware Tests
// ============================================

func TestAuthMiddleware_ValidToken_Header(t *testing.T) {
	tokens := newTestTokenService()
	token := issue(t, tokens, "user-123", model.RoleCustomer)

	var claims *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	AuthMiddleware(tokens)(capture(&claims)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, model.RoleCustomer, claims.UserType)
}

func TestAuthMiddleware_ValidToken_Cookie(t *testing.T) {
	tokens := newTestTokenService()
	token := issue(t, tokens, "user-456", model.RoleSeller)

	var claims *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	rec := httptest.NewRecorder()

	AuthMiddleware(tokens)(capture(&claims)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, "user-456", claims.UserID)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tokens := newTestTokenService()
	revoked := issue(t, tokens, "user-1", model.RoleCustomer)
	c, err := tokens.Validate(revoked)
	require.NoError(t, err)
	tokens.Revoke(c)

	expiring := auth.NewTokenService("test-secret-key", time.Millisecond)
	expired := issue(t, expiring, "user-1", model.RoleCustomer)
	time.Sleep(10 * time.Millisecond)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"no token", "", "unauthorized"},
		{"garbage", "Bearer invalid-token", "invalid token"},
		{"expired", "Bearer " + expired, "token expired"},
		{"revoked", "Bearer " + revoked, "token revoked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(tokens)(handler).ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
		})
	}
}

// ============================================
// OptionalAuthMiddleware Tests
// ============================================

func TestOptionalAuthMiddleware(t *testing.T) {
	tokens := newTestTokenService()

	var claims *auth.Claims
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()
	OptionalAuthMiddleware(tokens)(capture(&claims)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, claims)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, tokens, "user-9", model.RoleDelivery))
	rec = httptest.NewRecorder()
	OptionalAuthMiddleware(tokens)(capture(&claims)).ServeHTTP(rec, req)

	require.NotNil(t, claims)
	assert.Equal(t, "user-9", claims.UserID)
}

// ============================================
// RequireRole Tests
// ============================================

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := RequireRole(model.RoleSeller, model.RoleDelivery)(ok)

	tests := []struct {
		name     string
		claims   *auth.Claims
		expected int
	}{
		{"no claims", nil, http.StatusUnauthorized},
		{"customer", &auth.Claims{UserID: "u", UserType: model.RoleCustomer}, http.StatusForbidden},
		{"seller", &auth.Claims{UserID: "u", UserType: model.RoleSeller}, http.StatusOK},
		{"delivery", &auth.Claims{UserID: "u", UserType: model.RoleDelivery}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				req = req.WithContext(context.WithValue(req.Context(), UserContextKey, tt.claims))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestGetUserID(t *testing.T) {
	assert.Empty(t, GetUserID(context.Background()))

	ctx := context.WithValue(context.Background(), UserContextKey, &auth.Claims{UserID: "user-1"})
	assert.Equal(t, model.ID("user-1"), GetUserID(ctx))
}
