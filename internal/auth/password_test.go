package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_ValidPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"6 characters", "passwd"},
		{"long password", "this-is-a-very-long-password-123!@#"},
		{"with unicode", "パスワード12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
			assert.True(t, CheckPassword(tt.password, hash))
		})
	}
}

func TestHashPassword_ShortPassword(t *testing.T) {
	for _, password := range []string{"", "a", "12345", "パスワード"} {
		hash, err := HashPassword(password)
		assert.ErrorIs(t, err, ErrPasswordTooShort, password)
		assert.Empty(t, hash)
	}
}

func TestHashPassword_Salted(t *testing.T) {
	hash1, err := HashPassword("samepassword")
	require.NoError(t, err)
	hash2, err := HashPassword("samepassword")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("Password123")
	require.NoError(t, err)

	assert.True(t, CheckPassword("Password123", hash))
	assert.False(t, CheckPassword("password123", hash))
	assert.False(t, CheckPassword("", hash))
	assert.False(t, CheckPassword("Password123", "invalid-hash"))
	assert.False(t, CheckPassword("Password123", ""))
}
