package model

// Role determines which dashboard and route prefixes a session may access.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleDelivery Role = "delivery"
)

// ParseRole validates a raw role string such as a userType cookie value.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleCustomer, RoleSeller, RoleDelivery:
		return r, true
	}
	return "", false
}

// Dashboard returns the landing page for the role.
func (r Role) Dashboard() string {
	switch r {
	case RoleSeller:
		return "/seller/dashboard"
	case RoleDelivery:
		return "/delivery/dashboard"
	default:
		return "/customer/dashboard"
	}
}

// User is the profile returned by the auth API.
type User struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	VehicleType string `json:"vehicleType,omitempty"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Registration is the register request body.
type Registration struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        Role   `json:"role"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	VehicleType string `json:"vehicleType,omitempty"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token    string `json:"token"`
	UserType Role   `json:"userType"`
	User     User   `json:"user"`
}

// CurrentUser is returned by the "who am I" call.
type CurrentUser struct {
	User     User `json:"user"`
	UserType Role `json:"userType"`
}

// FoodItem is the part of a menu entry the cart needs.
type FoodItem struct {
	ID       ID     `json:"id"`
	SellerID ID     `json:"sellerId"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
}

type CartStatus string

const (
	CartActive   CartStatus = "active"
	CartCheckout CartStatus = "checkout"
)

type Cart struct {
	ID     ID         `json:"id"`
	UserID ID         `json:"userId,omitempty"`
	Status CartStatus `json:"status"`
}

// CartItem is one row of a cart. Price is the unit price captured when the
// item was added, in minor currency units.
type CartItem struct {
	ID         ID  `json:"id"`
	CartID     ID  `json:"cartId,omitempty"`
	FoodItemID ID  `json:"foodItemId"`
	SellerID   ID  `json:"sellerId"`
	Price      int `json:"price"`
	Quantity   int `json:"quantity"`
}
