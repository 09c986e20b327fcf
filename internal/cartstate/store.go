// Package cartstate holds a browser client's cart: items and derived totals,
// persisted between requests and reconciled with the backend's cart once the
// client is authenticated.
package cartstate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/homely/homely/internal/client"
	"github.com/homely/homely/internal/model"
	"github.com/homely/homely/internal/persist"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidFoodItem = errors.New("food item id is required")
	ErrItemNotFound    = errors.New("cart item not found")
)

// Remote is the backend cart API for an authenticated user.
type Remote interface {
	CurrentCart(ctx context.Context) (*model.Cart, error)
	CartItems(ctx context.Context, cartID model.ID) ([]model.CartItem, error)
	AddItem(ctx context.Context, cartID model.ID, item client.AddItemRequest) (*model.CartItem, error)
	UpdateItem(ctx context.Context, itemID model.ID, quantity int) error
	RemoveItem(ctx context.Context, itemID model.ID) error
}

// FailurePolicy decides what happens to local state when a remote mutation
// fails. The remote error is returned to the caller either way.
type FailurePolicy int

const (
	// KeepLocal applies the mutation locally regardless of the remote result.
	KeepLocal FailurePolicy = iota
	// Rollback restores the state from before the mutation.
	Rollback
)

// Snapshot is a read-only copy of the cart state.
type Snapshot struct {
	Cart       *model.Cart      `json:"cart"`
	Items      []model.CartItem `json:"items"`
	TotalItems int              `json:"totalItems"`
	TotalPrice int              `json:"totalPrice"`
}

type Option func(*Store)

// WithFailurePolicy overrides the default KeepLocal policy.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(s *Store) { s.policy = p }
}

// Store is the cart state of one browser client.
type Store struct {
	mu      sync.Mutex
	persist *persist.Store
	remote  Remote
	policy  FailurePolicy

	cart  *model.Cart
	items []model.CartItem

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// New creates a store. remote may be nil for unauthenticated clients.
func New(p *persist.Store, remote Remote, opts ...Option) *Store {
	s := &Store{
		persist: p,
		remote:  remote,
		policy:  KeepLocal,
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads the cart, preferring the backend. When the backend is
// unavailable or refuses the request, the persisted copy is used instead.
func (s *Store) Init(ctx context.Context) {
	s.mu.Lock()
	if err := s.loadRemote(ctx); err != nil {
		switch {
		case s.remote == nil:
		case client.IsUnauthorized(err):
			log.Printf("[Cart] Backend rejected token, using stored cart")
		default:
			log.Printf("[Cart] Falling back to stored cart: %v", err)
		}
		s.loadLocal()
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) loadRemote(ctx context.Context) error {
	if s.remote == nil {
		return errors.New("no remote cart")
	}
	cart, err := s.remote.CurrentCart(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch cart: %w", err)
	}
	items, err := s.remote.CartItems(ctx, cart.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch cart items: %w", err)
	}

	s.cart = cart
	s.items = append(sanitize(items), s.pendingLocal(items)...)
	s.save()
	return nil
}

// pendingLocal returns persisted local-only rows for food items the server
// cart does not hold. They are mutations kept after a failed remote call.
func (s *Store) pendingLocal(server []model.CartItem) []model.CartItem {
	stored, ok := persist.Get[[]model.CartItem](s.persist, persist.KeyCartItems)
	if !ok {
		return nil
	}
	var pending []model.CartItem
	for _, it := range sanitize(stored) {
		if it.ID.IsLocal() && indexOfFood(server, it.FoodItemID) < 0 {
			pending = append(pending, it)
		}
	}
	return pending
}

func (s *Store) loadLocal() {
	s.cart = nil
	s.items = nil
	if cart, ok := persist.Get[model.Cart](s.persist, persist.KeyCart); ok {
		s.cart = &cart
	}
	if items, ok := persist.Get[[]model.CartItem](s.persist, persist.KeyCartItems); ok {
		s.items = sanitize(items)
	}
}

// sanitize drops rows that must never exist: non-positive quantities and
// duplicate ids.
func sanitize(items []model.CartItem) []model.CartItem {
	out := make([]model.CartItem, 0, len(items))
	seen := make(map[model.ID]bool, len(items))
	for _, it := range items {
		if it.Quantity <= 0 || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out
}

// save writes the current state through to persistence.
func (s *Store) save() {
	if s.cart != nil {
		s.persist.Set(persist.KeyCart, s.cart)
	} else {
		s.persist.Remove(persist.KeyCart)
	}
	if len(s.items) > 0 {
		s.persist.Set(persist.KeyCartItems, s.items)
	} else {
		s.persist.Remove(persist.KeyCartItems)
	}
}

func (s *Store) hasServerCart() bool {
	return s.remote != nil && s.cart != nil && !s.cart.ID.IsZero() && !s.cart.ID.IsLocal()
}

func (s *Store) indexOf(itemID model.ID) int {
	for i, it := range s.items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

func (s *Store) indexOfFood(foodID model.ID) int {
	for i, it := range s.items {
		if it.FoodItemID == foodID {
			return i
		}
	}
	return -1
}

type checkpoint struct {
	cart  *model.Cart
	items []model.CartItem
}

func (s *Store) checkpoint() checkpoint {
	cp := checkpoint{items: append([]model.CartItem(nil), s.items...)}
	if s.cart != nil {
		c := *s.cart
		cp.cart = &c
	}
	return cp
}

// settle applies the failure policy after a mutation whose remote call
// returned remoteErr, then persists.
func (s *Store) settle(cp checkpoint, remoteErr error) error {
	if remoteErr != nil && s.policy == Rollback {
		s.cart = cp.cart
		s.items = cp.items
	}
	s.save()
	return remoteErr
}

// AddToCart adds quantity of food. An existing row for the same food item is
// increased instead of adding a second row.
func (s *Store) AddToCart(ctx context.Context, food model.FoodItem, quantity int) error {
	if food.ID.IsZero() {
		return ErrInvalidFoodItem
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	if i := s.indexOfFood(food.ID); i >= 0 {
		err := s.updateLocked(ctx, i, s.items[i].Quantity+quantity)
		s.mu.Unlock()
		s.notify()
		return err
	}

	cp := s.checkpoint()
	if s.cart == nil {
		s.cart = &model.Cart{ID: model.NewLocalID(), Status: model.CartActive}
	}

	var remoteErr error
	var item *model.CartItem
	if s.hasServerCart() {
		item, remoteErr = s.remote.AddItem(ctx, s.cart.ID, client.AddItemRequest{
			FoodItemID: food.ID,
			SellerID:   food.SellerID,
			Price:      food.Price,
			Quantity:   quantity,
		})
		if remoteErr != nil {
			remoteErr = fmt.Errorf("failed to add item to remote cart: %w", remoteErr)
			item = nil
		}
	}
	if item == nil || item.ID.IsZero() {
		item = &model.CartItem{
			ID:         model.NewLocalID(),
			CartID:     s.cart.ID,
			FoodItemID: food.ID,
			SellerID:   food.SellerID,
			Price:      food.Price,
			Quantity:   quantity,
		}
	}
	s.items = append(s.items, *item)

	err := s.settle(cp, remoteErr)
	s.mu.Unlock()
	s.notify()
	return err
}

// UpdateCartItem sets the quantity of itemID. A quantity of zero or less
// removes the item.
func (s *Store) UpdateCartItem(ctx context.Context, itemID model.ID, quantity int) error {
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, itemID)
	}

	s.mu.Lock()
	i := s.indexOf(itemID)
	if i < 0 {
		s.mu.Unlock()
		return ErrItemNotFound
	}

	err := s.updateLocked(ctx, i, quantity)
	s.mu.Unlock()
	s.notify()
	return err
}

// updateLocked sets the quantity of row i. The caller holds s.mu.
func (s *Store) updateLocked(ctx context.Context, i, quantity int) error {
	cp := s.checkpoint()
	itemID := s.items[i].ID
	s.items[i].Quantity = quantity

	var remoteErr error
	if s.remote != nil && !itemID.IsLocal() {
		if err := s.remote.UpdateItem(ctx, itemID, quantity); err != nil {
			remoteErr = fmt.Errorf("failed to update remote cart item: %w", err)
		}
	}
	return s.settle(cp, remoteErr)
}

// RemoveFromCart deletes itemID.
func (s *Store) RemoveFromCart(ctx context.Context, itemID model.ID) error {
	s.mu.Lock()
	i := s.indexOf(itemID)
	if i < 0 {
		s.mu.Unlock()
		return ErrItemNotFound
	}

	cp := s.checkpoint()
	s.items = append(s.items[:i:i], s.items[i+1:]...)

	var remoteErr error
	if s.remote != nil && !itemID.IsLocal() {
		if err := s.remote.RemoveItem(ctx, itemID); err != nil {
			remoteErr = fmt.Errorf("failed to remove remote cart item: %w", err)
		}
	}

	err := s.settle(cp, remoteErr)
	s.mu.Unlock()
	s.notify()
	return err
}

// ClearCart removes every item, remotely where applicable, then empties
// memory and storage.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	cp := s.checkpoint()

	var errs []error
	if s.remote != nil {
		for _, it := range s.items {
			if it.ID.IsLocal() {
				continue
			}
			if err := s.remote.RemoveItem(ctx, it.ID); err != nil {
				errs = append(errs, fmt.Errorf("failed to remove remote cart item %s: %w", it.ID, err))
			}
		}
	}

	remoteErr := errors.Join(errs...)
	if remoteErr != nil && s.policy == Rollback {
		s.cart = cp.cart
		s.items = cp.items
		s.save()
	} else {
		s.cart = nil
		s.items = nil
		s.persist.Remove(persist.KeyCart)
		s.persist.Remove(persist.KeyCartItems)
	}
	s.mu.Unlock()
	s.notify()
	return remoteErr
}

// Reconcile pushes local-only items to the backend cart behind remote and
// replaces their identifiers with server ones. Items already present on the
// server for the same food item are merged by quantity. From then on the
// store uses remote for every mutation. Items that could not be pushed stay
// local and the returned error lists them.
func (s *Store) Reconcile(ctx context.Context, remote Remote) error {
	if remote == nil {
		return errors.New("reconcile requires a remote cart")
	}

	s.mu.Lock()
	cart, err := remote.CurrentCart(ctx)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to fetch remote cart: %w", err)
	}
	serverItems, err := remote.CartItems(ctx, cart.ID)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to fetch remote cart items: %w", err)
	}
	merged := sanitize(serverItems)

	var errs []error
	for _, local := range s.items {
		if !local.ID.IsLocal() {
			continue
		}
		if j := indexOfFood(merged, local.FoodItemID); j >= 0 {
			quantity := merged[j].Quantity + local.Quantity
			if err := remote.UpdateItem(ctx, merged[j].ID, quantity); err != nil {
				errs = append(errs, fmt.Errorf("failed to merge item %s: %w", local.ID, err))
			}
			merged[j].Quantity = quantity
			continue
		}
		created, err := remote.AddItem(ctx, cart.ID, client.AddItemRequest{
			FoodItemID: local.FoodItemID,
			SellerID:   local.SellerID,
			Price:      local.Price,
			Quantity:   local.Quantity,
		})
		if err != nil || created == nil || created.ID.IsZero() {
			if err == nil {
				err = errors.New("backend returned no item id")
			}
			errs = append(errs, fmt.Errorf("failed to push item %s: %w", local.ID, err))
			merged = append(merged, local)
			continue
		}
		merged = append(merged, *created)
	}

	s.remote = remote
	s.cart = cart
	s.items = merged
	s.save()
	s.mu.Unlock()
	s.notify()
	return errors.Join(errs...)
}

func indexOfFood(items []model.CartItem, foodID model.ID) int {
	for i, it := range items {
		if it.FoodItemID == foodID {
			return i
		}
	}
	return -1
}

// Total returns the sum of price times quantity over all items.
func (s *Store) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.items)
}

// TotalItems returns the sum of all quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItems(s.items)
}

// Items returns a copy of the current items.
func (s *Store) Items() []model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.CartItem(nil), s.items...)
}

// Snapshot returns a copy of the state with derived totals.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Items:      append([]model.CartItem{}, s.items...),
		TotalItems: totalItems(s.items),
		TotalPrice: totalPrice(s.items),
	}
	if s.cart != nil {
		c := *s.cart
		snap.Cart = &c
	}
	return snap
}

func totalItems(items []model.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func totalPrice(items []model.CartItem) int {
	sum := 0
	for _, it := range items {
		sum += it.Price * it.Quantity
	}
	return sum
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function unregisters it.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	if len(s.subs) == 0 {
		s.subMu.Unlock()
		return
	}
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	snap := s.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}
