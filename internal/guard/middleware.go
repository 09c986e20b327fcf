package guard

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/homely/homely/internal/session"
)

// ErrorPolicy decides what happens to a request when the guard itself fails.
type ErrorPolicy int

const (
	// FailOpen lets the request through unchecked.
	FailOpen ErrorPolicy = iota
	// FailClosed sends the request to the login page.
	FailClosed
)

// OnGuardError is the policy used by Middleware unless overridden. The
// storefront favours availability: a guard bug must not take pages down.
const OnGuardError = FailOpen

var ErrMalformedPath = errors.New("malformed request path")

// Evaluate reads the session cookies and decides for r.
func Evaluate(r *http.Request) (Decision, error) {
	path, err := url.PathUnescape(r.URL.EscapedPath())
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrMalformedPath, err)
	}

	var token, userType string
	if c, err := r.Cookie(session.TokenCookie); err == nil {
		token = c.Value
	}
	if c, err := r.Cookie(session.UserTypeCookie); err == nil {
		userType = c.Value
	}
	return Decide(path, token, userType), nil
}

type config struct {
	policy   ErrorPolicy
	evaluate func(*http.Request) (Decision, error)
}

type Option func(*config)

// WithPolicy overrides OnGuardError.
func WithPolicy(p ErrorPolicy) Option {
	return func(c *config) { c.policy = p }
}

// WithEvaluator replaces Evaluate, mainly for tests.
func WithEvaluator(fn func(*http.Request) (Decision, error)) Option {
	return func(c *config) { c.evaluate = fn }
}

// Middleware enforces Decide on every matched request. Errors and panics
// inside the guard are resolved by the configured ErrorPolicy.
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	cfg := config{policy: OnGuardError, evaluate: Evaluate}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Matches(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := safeEvaluate(cfg.evaluate, r)
			if err != nil {
				log.Printf("[Guard] %s %s: %v", r.Method, r.URL.Path, err)
				if cfg.policy == FailClosed {
					http.Redirect(w, r, LoginPath, http.StatusTemporaryRedirect)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if decision.Action == Redirect {
				http.Redirect(w, r, decision.Location, http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func safeEvaluate(fn func(*http.Request) (Decision, error), r *http.Request) (d Decision, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("guard panic: %v", rec)
		}
	}()
	return fn(r)
}
