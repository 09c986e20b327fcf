package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/homely/homely/internal/api/middleware"
	"github.com/homely/homely/internal/auth"
	"github.com/homely/homely/internal/model"
)

func NewRouter(authHandlers *AuthHandlers, cartHandlers *CartHandlers, tokens *auth.TokenService) http.Handler {
	mux := http.NewServeMux()
	requireAuth := middleware.AuthMiddleware(tokens)
	optionalAuth := middleware.OptionalAuthMiddleware(tokens)
	customerOnly := func(h http.Handler) http.Handler {
		return requireAuth(middleware.RequireRole(model.RoleCustomer)(h))
	}

	// Auth
	mux.HandleFunc("/api/auth/register", methodOnly(http.MethodPost, authHandlers.Register))
	mux.HandleFunc("/api/auth/login", methodOnly(http.MethodPost, authHandlers.Login))
	mux.Handle("/api/auth/me", requireAuth(methodOnly(http.MethodGet, authHandlers.Me)))
	mux.Handle("/api/auth/logout", optionalAuth(methodOnly(http.MethodPost, authHandlers.Logout)))

	// Cart
	mux.Handle("/api/cart", customerOnly(methodOnly(http.MethodGet, cartHandlers.GetCart)))
	mux.Handle("/api/cart/", customerOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/cart/items/") {
			switch r.Method {
			case http.MethodPut, http.MethodPatch:
				cartHandlers.UpdateItem(w, r)
			case http.MethodDelete:
				cartHandlers.RemoveItem(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}

		switch r.Method {
		case http.MethodGet:
			cartHandlers.GetItems(w, r)
		case http.MethodPost:
			cartHandlers.AddItem(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return withLogging(mux)
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

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Println("[Backend]", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}
