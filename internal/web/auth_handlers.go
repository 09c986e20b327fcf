package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/homely/homely/internal/cartstate"
	"github.com/homely/homely/internal/client"
	"github.com/homely/homely/internal/model"
	"github.com/homely/homely/internal/session"
)

// SessionResponse describes the caller's session.
type SessionResponse struct {
	Status   string      `json:"status"`
	User     *model.User `json:"user,omitempty"`
	UserType model.Role  `json:"userType,omitempty"`
}

// AuthResult is returned by login and register. The token itself only
// travels in the HttpOnly cookie.
type AuthResult struct {
	User     model.User          `json:"user"`
	UserType model.Role          `json:"userType"`
	Redirect string              `json:"redirect"`
	Cart     *cartstate.Snapshot `json:"cart,omitempty"`
	Warning  string              `json:"warning,omitempty"`
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.newSession(w, r)
	sess.Init(r.Context())

	respondJSON(w, http.StatusOK, SessionResponse{
		Status:   sess.Status().String(),
		User:     sess.User(),
		UserType: sess.Role(),
	})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if creds.Email == "" || creds.Password == "" {
		respondJSONError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	sess := s.newSession(w, r)
	resp, err := sess.Login(r.Context(), creds)
	if err != nil {
		log.Printf("[Web] Login failed for %s: %v", creds.Email, err)
		respondAuthError(w, err, "Invalid email or password")
		return
	}
	s.respondAuthenticated(w, r, sess, resp)
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if reg.Name == "" || reg.Email == "" || reg.Password == "" {
		respondJSONError(w, "Name, email and password are required", http.StatusBadRequest)
		return
	}
	if _, ok := model.ParseRole(string(reg.Role)); !ok {
		respondJSONError(w, "Role must be customer, seller or delivery", http.StatusBadRequest)
		return
	}

	sess := s.newSession(w, r)
	resp, err := sess.Register(r.Context(), reg)
	if err != nil {
		log.Printf("[Web] Registration failed for %s: %v", reg.Email, err)
		respondAuthError(w, err, "Registration failed")
		return
	}
	s.respondAuthenticated(w, r, sess, resp)
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	sess := s.newSession(w, r)
	sess.Logout(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{"redirect": session.HomePath})
}

// respondAuthenticated moves the anonymous cart into the account and
// tells the caller where to go next.
func (s *Server) respondAuthenticated(w http.ResponseWriter, r *http.Request, sess *session.Session, resp *model.AuthResponse) {
	result := AuthResult{
		User:     resp.User,
		UserType: sess.Role(),
		Redirect: redirectTarget(r, sess.Role()),
	}

	if remote := s.remoteFor(sess.Token()); remote != nil {
		snap, err := s.reconcileCart(r.Context(), w, r, remote)
		if err != nil {
			log.Printf("[Web] Cart reconcile incomplete: %v", err)
			result.Warning = "Some cart items could not be saved to your account"
		}
		result.Cart = &snap
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) reconcileCart(ctx context.Context, w http.ResponseWriter, r *http.Request, remote cartstate.Remote) (cartstate.Snapshot, error) {
	st := cartstate.New(s.persistFor(w, r), nil, cartstate.WithFailurePolicy(s.policy))
	st.Init(ctx)
	err := st.Reconcile(ctx, remote)
	return st.Snapshot(), err
}

// redirectTarget honours a same-origin redirectTo query parameter, falling
// back to the role's dashboard.
func redirectTarget(r *http.Request, role model.Role) string {
	target := r.URL.Query().Get("redirectTo")
	// browsers treat a backslash as a slash
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") ||
		strings.Contains(target, "\\") {
		return role.Dashboard()
	}
	if u, err := url.Parse(target); err != nil || u.Scheme != "" || u.Host != "" {
		return role.Dashboard()
	}
	return target
}

func respondAuthError(w http.ResponseWriter, err error, fallback string) {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		msg := apiErr.Message
		if msg == "" {
			msg = fallback
		}
		respondJSONError(w, msg, apiErr.Status)
	case errors.Is(err, session.ErrInvalidRole), errors.Is(err, session.ErrMissingToken):
		respondJSONError(w, "Unexpected response from the server", http.StatusBadGateway)
	default:
		respondJSONError(w, "Authentication service unavailable", http.StatusBadGateway)
	}
}
