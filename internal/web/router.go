package web

import (
	"log"
	"net/http"
	"time"

	"github.com/homely/homely/internal/guard"
	"github.com/homely/homely/internal/session"
)

type RouterOptions struct {
	WebDir string
	// Debug mounts /debug/session, which the guard never checks.
	Debug bool
}

func NewRouter(s *Server, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	// Pages (static build of the UI)
	if opts.WebDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(opts.WebDir)))
	}

	// Session
	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.GetSession(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/auth/login", methodOnly(http.MethodPost, s.Login))
	mux.HandleFunc("/api/auth/register", methodOnly(http.MethodPost, s.Register))
	mux.HandleFunc("/api/auth/logout", methodOnly(http.MethodPost, s.Logout))

	// Cart
	mux.HandleFunc("/api/cart", methodOnly(http.MethodGet, s.GetCart))
	mux.HandleFunc("/api/cart/clear", methodOnly(http.MethodPost, s.ClearCart))
	mux.HandleFunc("/api/cart/items", methodOnly(http.MethodPost, s.AddToCart))
	mux.HandleFunc("/api/cart/items/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch, http.MethodPut:
			s.UpdateCartItem(w, r)
		case http.MethodDelete:
			s.RemoveFromCart(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	if opts.Debug {
		mux.HandleFunc("/debug/session", methodOnly(http.MethodGet, debugSession))
	}

	return withLogging(guard.Middleware()(mux))
}

func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// debugSession reports which session cookies the request carried.
func debugSession(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"hasToken": false}
	if c, err := r.Cookie(session.TokenCookie); err == nil && c.Value != "" {
		out["hasToken"] = true
	}
	if c, err := r.Cookie(session.UserTypeCookie); err == nil {
		out["userType"] = c.Value
	}
	if c, err := r.Cookie(ClientCookie); err == nil {
		out["clientId"] = c.Value
	}
	respondJSON(w, http.StatusOK, out)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[Web] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
