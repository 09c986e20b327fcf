package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/homely/homely/internal/cartstate"
	"github.com/homely/homely/internal/client"
	"github.com/homely/homely/internal/infrastructure/store"
	"github.com/homely/homely/internal/persist"
	"github.com/homely/homely/internal/session"
)

const (
	ClientCookie    = "homely_cid"
	clientCookieTTL = 365 * 24 * time.Hour
)

// RemoteFactory returns the backend cart API for a bearer token.
type RemoteFactory func(token string) cartstate.Remote

// ClientRemotes adapts a backend client into a RemoteFactory.
func ClientRemotes(c *client.Client) RemoteFactory {
	return func(token string) cartstate.Remote {
		return c.Cart(token)
	}
}

// Server holds what the gateway handlers share across requests.
type Server struct {
	auth    session.AuthAPI
	remotes RemoteFactory
	backend store.Backend
	secure  bool
	policy  cartstate.FailurePolicy
}

type Config struct {
	Auth          session.AuthAPI
	Remotes       RemoteFactory
	Backend       store.Backend
	Secure        bool
	FailurePolicy cartstate.FailurePolicy
}

func NewServer(cfg Config) *Server {
	return &Server{
		auth:    cfg.Auth,
		remotes: cfg.Remotes,
		backend: cfg.Backend,
		secure:  cfg.Secure,
		policy:  cfg.FailurePolicy,
	}
}

// clientID returns the browser's client id, issuing one if needed.
func (s *Server) clientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(ClientCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(clientCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *Server) newSession(w http.ResponseWriter, r *http.Request) *session.Session {
	return session.New(s.auth, session.NewHTTPCookies(w, r, s.secure))
}

func (s *Server) persistFor(w http.ResponseWriter, r *http.Request) *persist.Store {
	return persist.ForClient(s.backend, s.clientID(w, r))
}

// remoteFor returns the cart API for token, or nil when unauthenticated.
func (s *Server) remoteFor(token string) cartstate.Remote {
	if token == "" || s.remotes == nil {
		return nil
	}
	return s.remotes(token)
}

// loadCart builds and initialises the cart store for this request.
func (s *Server) loadCart(ctx context.Context, w http.ResponseWriter, r *http.Request) *cartstate.Store {
	var token string
	if c, err := r.Cookie(session.TokenCookie); err == nil {
		token = c.Value
	}
	st := cartstate.New(s.persistFor(w, r), s.remoteFor(token), cartstate.WithFailurePolicy(s.policy))
	st.Init(ctx)
	return st
}
