package client

import (
	"context"
	"net/url"

	"github.com/homely/homely/internal/model"
)

// CartAPI is the remote cart API for one authenticated user.
type CartAPI struct {
	client *Client
	token  string
}

// AddItemRequest is the body of an add-item call.
type AddItemRequest struct {
	FoodItemID model.ID `json:"foodItemId"`
	SellerID   model.ID `json:"sellerId"`
	Price      int      `json:"price"`
	Quantity   int      `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// CurrentCart returns the user's active cart, created on demand by the backend.
func (a *CartAPI) CurrentCart(ctx context.Context) (*model.Cart, error) {
	if a.token == "" {
		return nil, ErrNoToken
	}
	var out model.Cart
	resp, err := a.client.request(ctx, a.token).SetResult(&out).Get("/api/cart")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// CartItems lists the items of cartID.
func (a *CartAPI) CartItems(ctx context.Context, cartID model.ID) ([]model.CartItem, error) {
	if a.token == "" {
		return nil, ErrNoToken
	}
	var out []model.CartItem
	resp, err := a.client.request(ctx, a.token).
		SetResult(&out).
		Get("/api/cart/" + url.PathEscape(cartID.String()) + "/items")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// AddItem creates an item in cartID and returns it with its server id.
func (a *CartAPI) AddItem(ctx context.Context, cartID model.ID, item AddItemRequest) (*model.CartItem, error) {
	if a.token == "" {
		return nil, ErrNoToken
	}
	var out model.CartItem
	resp, err := a.client.request(ctx, a.token).
		SetBody(item).
		SetResult(&out).
		Post("/api/cart/" + url.PathEscape(cartID.String()) + "/items")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateItem sets the quantity of itemID.
func (a *CartAPI) UpdateItem(ctx context.Context, itemID model.ID, quantity int) error {
	if a.token == "" {
		return ErrNoToken
	}
	resp, err := a.client.request(ctx, a.token).
		SetBody(updateItemRequest{Quantity: quantity}).
		Put("/api/cart/items/" + url.PathEscape(itemID.String()))
	return check(resp, err)
}

// RemoveItem deletes itemID.
func (a *CartAPI) RemoveItem(ctx context.Context, itemID model.ID) error {
	if a.token == "" {
		return ErrNoToken
	}
	resp, err := a.client.request(ctx, a.token).
		Delete("/api/cart/items/" + url.PathEscape(itemID.String()))
	return check(resp, err)
}
