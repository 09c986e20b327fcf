package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/homely/homely/internal/api/middleware"
	"github.com/homely/homely/internal/auth"
	"github.com/homely/homely/internal/domain/user"
	"github.com/homely/homely/internal/model"
)

// AuthHandlers serves registration, login and the current user.
type AuthHandlers struct {
	users  *user.Service
	tokens *auth.TokenService
}

func NewAuthHandlers(users *user.Service, tokens *auth.TokenService) *AuthHandlers {
	return &AuthHandlers{users: users, tokens: tokens}
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req model.Registration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.users.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			respondJSONError(w, "Email already registered", http.StatusConflict)
		case errors.Is(err, user.ErrInvalidEmail), errors.Is(err, user.ErrInvalidName),
			errors.Is(err, user.ErrInvalidRole), errors.Is(err, user.ErrMissingVehicle),
			errors.Is(err, auth.ErrPasswordTooShort):
			respondJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Printf("[Backend] Registration failed: %v", err)
			respondJSONError(w, "Registration failed", http.StatusInternalServerError)
		}
		return
	}

	h.respondWithToken(w, http.StatusCreated, u)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCredentials):
			respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		case errors.Is(err, user.ErrRoleMismatch):
			respondJSONError(w, "This account is not registered as "+string(req.Role), http.StatusUnauthorized)
		default:
			log.Printf("[Backend] Login failed: %v", err)
			respondJSONError(w, "Login failed", http.StatusInternalServerError)
		}
		return
	}

	h.respondWithToken(w, http.StatusOK, u)
}

func (h *AuthHandlers) respondWithToken(w http.ResponseWriter, status int, u *model.User) {
	token, _, err := h.tokens.Issue(*u)
	if err != nil {
		log.Printf("[Backend] Failed to issue token for %s: %v", u.ID, err)
		respondJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	respondJSON(w, status, model.AuthResponse{Token: token, UserType: u.Role, User: *u})
}

// Me returns the user behind the bearer token.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.users.Get(r.Context(), model.ID(claims.UserID))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			respondJSONError(w, "User not found", http.StatusUnauthorized)
			return
		}
		log.Printf("[Backend] Failed to load user %s: %v", claims.UserID, err)
		respondJSONError(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, model.CurrentUser{User: *u, UserType: u.Role})
}

// Logout revokes the presented token when it is still valid.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		h.tokens.Revoke(claims)
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
