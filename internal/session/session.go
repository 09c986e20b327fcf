package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/homely/homely/internal/model"
)

const (
	TokenCookie    = "token"
	UserTypeCookie = "userType"

	// CookieTTL is how long both session cookies live.
	CookieTTL = 24 * time.Hour

	// HomePath is where the UI navigates after logout.
	HomePath = "/"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidRole      = errors.New("backend returned an unknown user type")
	ErrMissingToken     = errors.New("backend returned no token")
)

// Status is the lifecycle state of a session.
type Status int

const (
	StatusLoading Status = iota
	StatusUnauthenticated
	StatusAuthenticating
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// AuthAPI is the remote auth API.
type AuthAPI interface {
	Login(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error)
	Register(ctx context.Context, reg model.Registration) (*model.AuthResponse, error)
	CurrentUser(ctx context.Context, token string) (*model.CurrentUser, error)
	Logout(ctx context.Context, token string) error
}

// CookieJar reads and writes the session cookies.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(name, value string, ttl time.Duration)
	Delete(name string)
}

// Session is the authentication state of one browser client.
type Session struct {
	api AuthAPI
	jar CookieJar

	status Status
	user   *model.User
	role   model.Role
	token  string
}

func New(api AuthAPI, jar CookieJar) *Session {
	return &Session{api: api, jar: jar, status: StatusLoading}
}

func (s *Session) Status() Status {
	return s.status
}

func (s *Session) Role() model.Role {
	return s.role
}

func (s *Session) Token() string {
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.status == StatusAuthenticated
}

// User returns a copy of the current user, or nil.
func (s *Session) User() *model.User {
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Init resolves the token cookie into a user. Any failure clears the
// cookies and leaves the session unauthenticated.
func (s *Session) Init(ctx context.Context) {
	token, ok := s.jar.Get(TokenCookie)
	if !ok || token == "" {
		s.reset()
		return
	}
	if tokenExpired(token) {
		log.Printf("[Session] Token expired, clearing session")
		s.clear()
		return
	}

	cu, err := s.api.CurrentUser(ctx, token)
	if err != nil {
		log.Printf("[Session] Failed to resolve current user: %v", err)
		s.clear()
		return
	}
	role := cu.UserType
	if role == "" {
		role = cu.User.Role
	}
	if _, ok := model.ParseRole(string(role)); !ok {
		log.Printf("[Session] Unknown user type %q, clearing session", role)
		s.clear()
		return
	}

	user := cu.User
	s.user = &user
	s.role = role
	s.token = token
	s.status = StatusAuthenticated
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Tokens that are not JWTs are opaque to the gateway and never expire here.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// Login authenticates and stores the session cookies. On failure the error
// is returned and the session stays unauthenticated.
func (s *Session) Login(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error) {
	s.status = StatusAuthenticating
	resp, err := s.api.Login(ctx, creds)
	return s.establish(resp, err)
}

// Register creates an account and signs in with it.
func (s *Session) Register(ctx context.Context, reg model.Registration) (*model.AuthResponse, error) {
	s.status = StatusAuthenticating
	resp, err := s.api.Register(ctx, reg)
	return s.establish(resp, err)
}

func (s *Session) establish(resp *model.AuthResponse, err error) (*model.AuthResponse, error) {
	if err != nil {
		s.reset()
		return nil, err
	}
	if resp.Token == "" {
		s.reset()
		return nil, ErrMissingToken
	}
	role := resp.UserType
	if role == "" {
		role = resp.User.Role
	}
	if _, ok := model.ParseRole(string(role)); !ok {
		s.reset()
		return nil, ErrInvalidRole
	}

	s.jar.Set(TokenCookie, resp.Token, CookieTTL)
	s.jar.Set(UserTypeCookie, string(role), CookieTTL)

	user := resp.User
	s.user = &user
	s.role = role
	s.token = resp.Token
	s.status = StatusAuthenticated
	return resp, nil
}

// Logout tells the backend (best effort) and then always clears the cookies
// and the in-memory user. The caller navigates to HomePath.
func (s *Session) Logout(ctx context.Context) {
	token := s.token
	if token == "" {
		token, _ = s.jar.Get(TokenCookie)
	}
	if token != "" {
		if err := s.api.Logout(ctx, token); err != nil {
			log.Printf("[Session] Logout request failed: %v", err)
		}
	}
	s.clear()
}

func (s *Session) clear() {
	s.jar.Delete(TokenCookie)
	s.jar.Delete(UserTypeCookie)
	s.reset()
}

func (s *Session) reset() {
	s.user = nil
	s.role = ""
	s.token = ""
	s.status = StatusUnauthenticated
}
