package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/homely/homely/internal/auth"
	"github.com/homely/homely/internal/infrastructure/store"
	"github.com/homely/homely/internal/model"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("email is required")
	ErrInvalidName        = errors.New("name is required")
	ErrInvalidRole        = errors.New("role must be customer, seller or delivery")
	ErrMissingVehicle     = errors.New("vehicle type is required for delivery partners")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRoleMismatch       = errors.New("account is registered with a different role")
)

// Account is the stored form of a user.
type Account struct {
	model.User
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Service registers and authenticates users. Accounts are stored under
// "user:email:<email>" with an id index at "user:id:<id>".
type Service struct {
	backend store.Backend
	// serialises registrations so email uniqueness holds
	mu sync.Mutex
}

func NewService(backend store.Backend) *Service {
	return &Service{backend: backend}
}

func emailKey(email string) string {
	return "user:email:" + normalizeEmail(email)
}

func idKey(id model.ID) string {
	return "user:id:" + id.String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	email := normalizeEmail(reg.Email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	name := strings.TrimSpace(reg.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	role, ok := model.ParseRole(string(reg.Role))
	if !ok {
		return nil, ErrInvalidRole
	}
	if role == model.RoleDelivery && strings.TrimSpace(reg.VehicleType) == "" {
		return nil, ErrMissingVehicle
	}

	passwordHash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists, err := store.GetJSON[Account](ctx, s.backend, emailKey(email))
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	acct := Account{
		User: model.User{
			ID:      model.ID(uuid.New().String()),
			Name:    name,
			Email:   email,
			Role:    role,
			Address: reg.Address,
			Phone:   reg.Phone,
		},
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	if role == model.RoleDelivery {
		acct.VehicleType = reg.VehicleType
	}

	if err := store.PutJSON(ctx, s.backend, emailKey(email), acct); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	if err := store.PutJSON(ctx, s.backend, idKey(acct.ID), email); err != nil {
		return nil, fmt.Errorf("failed to index user: %w", err)
	}

	u := acct.User
	return &u, nil
}

// Authenticate checks credentials. A non-empty role must match the
// account's role.
func (s *Service) Authenticate(ctx context.Context, email, password string, role model.Role) (*model.User, error) {
	acct, ok, err := store.GetJSON[Account](ctx, s.backend, emailKey(email))
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, acct.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if role != "" && role != acct.Role {
		return nil, ErrRoleMismatch
	}
	u := acct.User
	return &u, nil
}

func (s *Service) Get(ctx context.Context, id model.ID) (*model.User, error) {
	email, ok, err := store.GetJSON[string](ctx, s.backend, idKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to load user index: %w", err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	acct, ok, err := store.GetJSON[Account](ctx, s.backend, emailKey(email))
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	u := acct.User
	return &u, nil
}
