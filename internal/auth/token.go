package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/homely/homely/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevokedToken = errors.New("token has been revoked")
)

// Claims identify the user behind a session token.
type Claims struct {
	UserID   string     `json:"user_id"`
	Email    string     `json:"email"`
	UserType model.Role `json:"user_type"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 session tokens. Revoked token ids
// are kept in memory until the token would have expired anyway.
type TokenService struct {
	secretKey []byte
	ttl       time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewTokenService(secretKey string, ttl time.Duration) *TokenService {
	return &TokenService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		revoked:   make(map[string]time.Time),
	}
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for user.
func (s *TokenService) Issue(user model.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		UserID:   user.ID.String(),
		Email:    user.Email,
		UserType: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate checks signature, expiry and revocation.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if s.isRevoked(claims.ID) {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke invalidates the token carrying claims.
func (s *TokenService) Revoke(claims *Claims) {
	if claims == nil || claims.ID == "" {
		return
	}
	expiresAt := time.Now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[claims.ID] = expiresAt
	s.pruneLocked(time.Now())
}

func (s *TokenService) isRevoked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[id]
	return ok
}

func (s *TokenService) pruneLocked(now time.Time) {
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
}
