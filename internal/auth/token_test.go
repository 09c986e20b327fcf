package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/homely/homely/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *TokenService {
	return NewTokenService("test-secret-key-for-testing-purposes", 15*time.Minute)
}

var testUser = model.User{ID: "user-123", Email: "test@example.com", Role: model.RoleSeller}

func TestTokenService_IssueAndValidate(t *testing.T) {
	service := newTestTokenService()

	token, expiresAt, err := service.Issue(testUser)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
	assert.True(t, expiresAt.Before(time.Now().Add(16*time.Minute)))

	claims, err := service.Validate(token)

	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, model.RoleSeller, claims.UserType)
	assert.Equal(t, "user-123", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenService_TokensAreUnique(t *testing.T) {
	service := newTestTokenService()

	t1, _, err := service.Issue(testUser)
	require.NoError(t, err)
	t2, _, err := service.Issue(testUser)
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
}

func TestTokenService_Expired(t *testing.T) {
	service := NewTokenService("test-secret", time.Millisecond)

	token, _, err := service.Issue(testUser)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	claims, err := service.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestTokenService_Invalid(t *testing.T) {
	service := newTestTokenService()

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"random string", "not-a-valid-token"},
		{"malformed JWT", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.Validate(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestTokenService_WrongSignature(t *testing.T) {
	issuer := NewTokenService("secret-key-1", 15*time.Minute)
	verifier := NewTokenService("secret-key-2", 15*time.Minute)

	token, _, err := issuer.Issue(testUser)
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsNoneAlgorithm(t *testing.T) {
	service := newTestTokenService()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-123", UserType: model.RoleCustomer})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.Validate(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsTokenWithoutUser(t *testing.T) {
	service := newTestTokenService()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	tokenString, err := token.SignedString([]byte("test-secret-key-for-testing-purposes"))
	require.NoError(t, err)

	_, err = service.Validate(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Revoke(t *testing.T) {
	service := newTestTokenService()

	token, _, err := service.Issue(testUser)
	require.NoError(t, err)
	other, _, err := service.Issue(testUser)
	require.NoError(t, err)

	claims, err := service.Validate(token)
	require.NoError(t, err)
	service.Revoke(claims)

	_, err = service.Validate(token)
	assert.ErrorIs(t, err, ErrRevokedToken)

	_, err = service.Validate(other)
	assert.NoError(t, err)
}

func TestTokenService_RevokeNilIsNoop(t *testing.T) {
	service := newTestTokenService()
	assert.NotPanics(t, func() { service.Revoke(nil) })
}
