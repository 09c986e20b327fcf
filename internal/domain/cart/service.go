package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/homely/homely/internal/infrastructure/store"
	"github.com/homely/homely/internal/model"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidFoodItem = errors.New("foodItemId is required")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("cart item not found")
)

// Publisher receives cart events. The kafka producer implements it.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// AddItem is the request to put a food item in a cart.
type AddItem struct {
	FoodItemID model.ID
	SellerID   model.ID
	Price      int
	Quantity   int
}

// state is what is stored per user: the single active cart and its rows.
type state struct {
	Cart  model.Cart       `json:"cart"`
	Items []model.CartItem `json:"items"`
}

// Service owns every user's active cart.
type Service struct {
	backend   store.Backend
	publisher Publisher

	mu sync.Mutex
}

// NewService creates a cart service. publisher may be nil.
func NewService(backend store.Backend, publisher Publisher) *Service {
	return &Service{backend: backend, publisher: publisher}
}

func stateKey(userID model.ID) string {
	return "cart:user:" + userID.String()
}

// load returns the user's active cart, creating one on first use.
// Callers hold s.mu.
func (s *Service) load(ctx context.Context, userID model.ID) (*state, error) {
	st, ok, err := store.GetJSON[state](ctx, s.backend, stateKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if ok && st.Cart.Status == model.CartActive {
		return &st, nil
	}

	st = state{
		Cart: model.Cart{
			ID:     model.ID(uuid.New().String()),
			UserID: userID,
			Status: model.CartActive,
		},
		Items: []model.CartItem{},
	}
	if err := s.save(ctx, &st); err != nil {
		return nil, err
	}
	s.publish(ctx, &st, EventCartCreated, nil)
	return &st, nil
}

func (s *Service) save(ctx context.Context, st *state) error {
	if err := store.PutJSON(ctx, s.backend, stateKey(st.Cart.UserID), st); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// publish is best effort; the cart change is already stored.
func (s *Service) publish(ctx context.Context, st *state, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	event := Event{
		Type:       eventType,
		CartID:     st.Cart.ID.String(),
		UserID:     st.Cart.UserID.String(),
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, event.CartID, event); err != nil {
		log.Printf("[Cart] Failed to publish %s for cart %s: %v", eventType, event.CartID, err)
	}
}

func (st *state) indexOf(itemID model.ID) int {
	for i, it := range st.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

func (st *state) indexOfFood(foodID model.ID) int {
	for i, it := range st.Items {
		if it.FoodItemID == foodID {
			return i
		}
	}
	return -1
}

// Current returns the user's active cart.
func (s *Service) Current(ctx context.Context, userID model.ID) (*model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	c := st.Cart
	return &c, nil
}

// Items lists cartID's rows. The cart must be the user's active one.
func (s *Service) Items(ctx context.Context, userID, cartID model.ID) ([]model.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st.Cart.ID != cartID {
		return nil, ErrCartNotFound
	}
	return append([]model.CartItem{}, st.Items...), nil
}

// Add puts a food item in the cart. When the food item is already present
// its quantity is increased and that row is returned.
func (s *Service) Add(ctx context.Context, userID, cartID model.ID, req AddItem) (*model.CartItem, error) {
	if req.FoodItemID.IsZero() {
		return nil, ErrInvalidFoodItem
	}
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if req.Price < 0 {
		return nil, ErrInvalidPrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st.Cart.ID != cartID {
		return nil, ErrCartNotFound
	}

	if i := st.indexOfFood(req.FoodItemID); i >= 0 {
		st.Items[i].Quantity += req.Quantity
		if err := s.save(ctx, st); err != nil {
			return nil, err
		}
		item := st.Items[i]
		s.publish(ctx, st, EventItemQuantitySet, CartItemQuantityChanged{
			ItemID:   item.ID.String(),
			Quantity: item.Quantity,
		})
		return &item, nil
	}

	item := model.CartItem{
		ID:         model.ID(uuid.New().String()),
		CartID:     st.Cart.ID,
		FoodItemID: req.FoodItemID,
		SellerID:   req.SellerID,
		Price:      req.Price,
		Quantity:   req.Quantity,
	}
	st.Items = append(st.Items, item)
	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	s.publish(ctx, st, EventItemAdded, ItemAddedToCart{
		ItemID:     item.ID.String(),
		FoodItemID: item.FoodItemID.String(),
		SellerID:   item.SellerID.String(),
		Quantity:   item.Quantity,
		Price:      item.Price,
	})
	return &item, nil
}

// Update sets an item's quantity.
func (s *Service) Update(ctx context.Context, userID, itemID model.ID, quantity int) (*model.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := st.indexOf(itemID)
	if i < 0 {
		return nil, ErrItemNotFound
	}

	st.Items[i].Quantity = quantity
	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	item := st.Items[i]
	s.publish(ctx, st, EventItemQuantitySet, CartItemQuantityChanged{ItemID: item.ID.String(), Quantity: quantity})
	return &item, nil
}

func (s *Service) Remove(ctx context.Context, userID, itemID model.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	i := st.indexOf(itemID)
	if i < 0 {
		return ErrItemNotFound
	}

	st.Items = append(st.Items[:i], st.Items[i+1:]...)
	if err := s.save(ctx, st); err != nil {
		return err
	}
	s.publish(ctx, st, EventItemRemoved, ItemRemovedFromCart{ItemID: itemID.String()})
	return nil
}

func (s *Service) Clear(ctx context.Context, userID model.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	st.Items = []model.CartItem{}
	if err := s.save(ctx, st); err != nil {
		return err
	}
	s.publish(ctx, st, EventCartCleared, nil)
	return nil
}
