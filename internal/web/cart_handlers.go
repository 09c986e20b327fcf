package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/homely/homely/internal/cartstate"
	"github.com/homely/homely/internal/model"
)

// CartResponse is the cart snapshot plus a warning when the backend did not
// accept a change that was applied locally.
type CartResponse struct {
	cartstate.Snapshot
	Warning string `json:"warning,omitempty"`
}

type addItemRequest struct {
	FoodItem model.FoodItem `json:"foodItem"`
	Quantity int            `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (s *Server) GetCart(w http.ResponseWriter, r *http.Request) {
	st := s.loadCart(r.Context(), w, r)
	respondJSON(w, http.StatusOK, CartResponse{Snapshot: st.Snapshot()})
}

func (s *Server) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	st := s.loadCart(r.Context(), w, r)
	err := st.AddToCart(r.Context(), req.FoodItem, req.Quantity)
	s.respondMutation(w, st, err)
}

func (s *Server) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID := model.ID(extractPathParam(r.URL.Path, "/api/cart/items/"))
	if itemID.IsZero() {
		respondJSONError(w, "Cart item id is required", http.StatusBadRequest)
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	st := s.loadCart(r.Context(), w, r)
	err := st.UpdateCartItem(r.Context(), itemID, *req.Quantity)
	s.respondMutation(w, st, err)
}

func (s *Server) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	itemID := model.ID(extractPathParam(r.URL.Path, "/api/cart/items/"))
	if itemID.IsZero() {
		respondJSONError(w, "Cart item id is required", http.StatusBadRequest)
		return
	}

	st := s.loadCart(r.Context(), w, r)
	err := st.RemoveFromCart(r.Context(), itemID)
	s.respondMutation(w, st, err)
}

func (s *Server) ClearCart(w http.ResponseWriter, r *http.Request) {
	st := s.loadCart(r.Context(), w, r)
	err := st.ClearCart(r.Context())
	s.respondMutation(w, st, err)
}

// respondMutation maps validation errors to 4xx. Any other error came from
// the backend after the local change was applied, so it is reported as a
// warning alongside the new state.
func (s *Server) respondMutation(w http.ResponseWriter, st *cartstate.Store, err error) {
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, CartResponse{Snapshot: st.Snapshot()})
	case errors.Is(err, cartstate.ErrInvalidQuantity), errors.Is(err, cartstate.ErrInvalidFoodItem):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, cartstate.ErrItemNotFound):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	default:
		respondJSON(w, http.StatusOK, CartResponse{
			Snapshot: st.Snapshot(),
			Warning:  "Your cart was updated on this device but could not be saved to your account",
		})
	}
}
