package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/homely/homely/internal/api/middleware"
	"github.com/homely/homely/internal/domain/cart"
	"github.com/homely/homely/internal/model"
)

type CartHandlers struct {
	carts *cart.Service
}

func NewCartHandlers(carts *cart.Service) *CartHandlers {
	return &CartHandlers{carts: carts}
}

type addItemRequest struct {
	FoodItemID model.ID `json:"foodItemId"`
	SellerID   model.ID `json:"sellerId"`
	Price      int      `json:"price"`
	Quantity   int      `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandlers) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Current(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondCartError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// cartItemsPath splits "/api/cart/{cartId}/items".
func cartItemsPath(path string) (model.ID, bool) {
	rest := strings.TrimPrefix(path, "/api/cart/")
	cartID, suffix, ok := strings.Cut(rest, "/")
	if !ok || cartID == "" || strings.Trim(suffix, "/") != "items" {
		return "", false
	}
	return model.ID(cartID), true
}

func (h *CartHandlers) GetItems(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartItemsPath(r.URL.Path)
	if !ok {
		respondJSONError(w, "Not found", http.StatusNotFound)
		return
	}

	items, err := h.carts.Items(r.Context(), middleware.GetUserID(r.Context()), cartID)
	if err != nil {
		respondCartError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *CartHandlers) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartItemsPath(r.URL.Path)
	if !ok {
		respondJSONError(w, "Not found", http.StatusNotFound)
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.carts.Add(r.Context(), middleware.GetUserID(r.Context()), cartID, cart.AddItem{
		FoodItemID: req.FoodItemID,
		SellerID:   req.SellerID,
		Price:      req.Price,
		Quantity:   req.Quantity,
	})
	if err != nil {
		respondCartError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *CartHandlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := model.ID(extractPathParam(r.URL.Path, "/api/cart/items/"))

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.carts.Update(r.Context(), middleware.GetUserID(r.Context()), itemID, req.Quantity)
	if err != nil {
		respondCartError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *CartHandlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := model.ID(extractPathParam(r.URL.Path, "/api/cart/items/"))

	if err := h.carts.Remove(r.Context(), middleware.GetUserID(r.Context()), itemID); err != nil {
		respondCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrInvalidFoodItem),
		errors.Is(err, cart.ErrInvalidPrice):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, cart.ErrCartNotFound), errors.Is(err, cart.ErrItemNotFound):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	default:
		log.Printf("[Backend] Cart operation failed: %v", err)
		respondJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}
