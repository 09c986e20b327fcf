package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/homely/homely/internal/auth"
	"github.com/homely/homely/internal/client"
	"github.com/homely/homely/internal/domain/cart"
	"github.com/homely/homely/internal/domain/user"
	kafkamocks "github.com/homely/homely/internal/infrastructure/kafka/mocks"
	"github.com/homely/homely/internal/infrastructure/store"
	"github.com/homely/homely/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBackend(t *testing.T) (*httptest.Server, *kafkamocks.MockPublisher) {
	t.Helper()
	backend := store.NewMemoryStore()
	publisher := kafkamocks.NewMockPublisher()
	tokens := auth.NewTokenService("test-secret-key-for-testing-purposes", time.Hour)

	router := NewRouter(
		NewAuthHandlers(user.NewService(backend), tokens),
		NewCartHandlers(cart.NewService(backend, publisher)),
		tokens,
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, publisher
}

func registerCustomer(t *testing.T, c *client.Client) *model.AuthResponse {
	t.Helper()
	resp, err := c.Register(context.Background(), model.Registration{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "secret123",
		Role:     model.RoleCustomer,
	})
	require.NoError(t, err)
	return resp
}

// ============================================
// Auth API Tests
// ============================================

func TestAuthFlow(t *testing.T) {
	srv, _ := setupBackend(t)
	c := client.New(srv.URL, 5*time.Second)
	ctx := context.Background()

	registered := registerCustomer(t, c)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, model.RoleCustomer, registered.UserType)

	loggedIn, err := c.Login(ctx, model.Credentials{Email: "ada@example.com", Password: "secret123", Role: model.RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	me, err := c.CurrentUser(ctx, loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.User.Name)
	assert.Equal(t, model.RoleCustomer, me.UserType)

	require.NoError(t, c.Logout(ctx, loggedIn.Token))
	_, err = c.CurrentUser(ctx, loggedIn.Token)
	assert.True(t, client.IsUnauthorized(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	srv, _ := setupBackend(t)
	c := client.New(srv.URL, 5*time.Second)
	registerCustomer(t, c)

	_, err := c.Login(context.Background(), model.Credentials{Email: "ada@example.com", Password: "nope-nope"})

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid email or password", apiErr.Message)
}

func TestLogin_RoleMismatch(t *testing.T) {
	srv, _ := setupBackend(t)
	c := client.New(srv.URL, 5*time.Second)
	registerCustomer(t, c)

	_, err := c.Login(context.Background(), model.Credentials{Email: "ada@example.com", Password: "secret123", Role: model.RoleSeller})

	assert.True(t, client.IsUnauthorized(err))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	srv, _ := setupBackend(t)
	c := client.New(srv.URL, 5*time.Second)
	registerCustomer(t, c)

	_, err := c.Register(context.Background(), model.Registration{
		Name: "Ada", Email: "ada@example.com", Password: "secret123", Role: model.RoleCustomer,
	})

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}

func TestRegister_BadRequest(t *testing.T) {
	srv, _ := setupBackend(t)

	resp, err := http.Post(srv.URL+"/api/auth/register", "application/json", bytes.NewBufferString(`{"email":"x@example.com"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["error"])
}

func TestMe_RequiresToken(t *testing.T) {
	srv, _ := setupBackend(t)

	resp, err := http.Get(srv.URL + "/api/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ============================================
// Cart API Tests
// ============================================

func TestCartFlow(t *testing.T) {
	srv, publisher := setupBackend(t)
	c := client.New(srv.URL, 5*time.Second)
	ctx := context.Background()
	api := c.Cart(registerCustomer(t, c).Token)

	current, err := api.CurrentCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.CartActive, current.Status)

	item, err := api.AddItem(ctx, current.ID, client.AddItemRequest{FoodItemID: "food-1", SellerID: "seller-1", Price: 100, Quantity: 2})
	require.NoError(t, err)
	assert.False(t, item.ID.IsLocal())

	merged, err := api.AddItem(ctx, current.ID, client.AddItemRequest{FoodItemID: "food-1", SellerID: "seller-1", Price: 100, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, item.ID, merged.ID)
	assert.Equal(t, 3, merged.Quantity)

	require.NoError(t, api.UpdateItem(ctx, item.ID, 5))
	items, err := api.CartItems(ctx, current.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)

	require.NoError(t, api.RemoveItem(ctx, item.ID))
	items, err = api.CartItems(ctx, current.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.NotEmpty(t, publisher.Calls())
}

func TestCart_Errors(t *testing.T) {
	srv, _ := setupBackend(t)
	c := client.New(srv.URL, 5*time.Second)
	ctx := context.Background()
	api := c.Cart(registerCustomer(t, c).Token)

	_, err := api.CartItems(ctx, "not-my-cart")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	current, err := api.CurrentCart(ctx)
	require.NoError(t, err)
	_, err = api.AddItem(ctx, current.ID, client.AddItemRequest{FoodItemID: "food-1", Quantity: 0})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	err = api.RemoveItem(ctx, "missing")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestCart_RequiresToken(t *testing.T) {
	srv, _ := setupBackend(t)

	resp, err := http.Get(srv.URL + "/api/cart")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCart_CustomersOnly(t *testing.T) {
	srv, _ := setupBackend(t)
	c := client.New(srv.URL, 5*time.Second)
	ctx := context.Background()

	seller, err := c.Register(ctx, model.Registration{
		Name: "Bea", Email: "bea@example.com", Password: "secret123", Role: model.RoleSeller,
	})
	require.NoError(t, err)

	_, err = c.Cart(seller.Token).CurrentCart(ctx)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	_, err = c.Cart(seller.Token).AddItem(ctx, "any", client.AddItemRequest{FoodItemID: "food-1", Price: 100, Quantity: 1})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}

func TestCartItemsPath(t *testing.T) {
	id, ok := cartItemsPath("/api/cart/c1/items")
	assert.True(t, ok)
	assert.Equal(t, model.ID("c1"), id)

	_, ok = cartItemsPath("/api/cart/c1")
	assert.False(t, ok)
	_, ok = cartItemsPath("/api/cart//items")
	assert.False(t, ok)
}
