package cart

import "time"

const (
	EventCartCreated     = "CartCreated"
	EventItemAdded       = "ItemAddedToCart"
	EventItemQuantitySet = "CartItemQuantityChanged"
	EventItemRemoved     = "ItemRemovedFromCart"
	EventCartCleared     = "CartCleared"
)

// Event is the envelope published for every cart change.
type Event struct {
	Type       string    `json:"type"`
	CartID     string    `json:"cart_id"`
	UserID     string    `json:"user_id"`
	Data       any       `json:"data,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ItemAddedToCart struct {
	ItemID     string `json:"item_id"`
	FoodItemID string `json:"food_item_id"`
	SellerID   string `json:"seller_id"`
	Quantity   int    `json:"quantity"`
	Price      int    `json:"price"`
}

type CartItemQuantityChanged struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type ItemRemovedFromCart struct {
	ItemID string `json:"item_id"`
}
