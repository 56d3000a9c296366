package auth

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// RegisterRequest is the payload accepted by the register endpoint.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is what Issue hands back to the controller, which owns the cookie.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *users.UserDTO
}

// Identity is the resolved caller. Role always comes from the users table.
type Identity struct {
	UserID uint           `json:"id"`
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	Role   enums.UserRole `json:"role"`
}

// IsAdmin reports whether the identity may use the back office.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role.IsAdmin()
}
