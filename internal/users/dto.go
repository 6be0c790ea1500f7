package users

import (
	"strings"
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Role        enums.UserRole `json:"role"`
	Active      bool           `json:"active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type CreateUserInput struct {
	Email    string          `json:"email" validate:"required,email"`
	Name     string          `json:"name" validate:"required"`
	Password string          `json:"password" validate:"required,min=8"`
	Role     *enums.UserRole `json:"role,omitempty"`
}

// UpdateUserInput applies only the non-nil fields.
type UpdateUserInput struct {
	Name     *string         `json:"name,omitempty"`
	Password *string         `json:"password,omitempty" validate:"omitempty,min=8"`
	Role     *enums.UserRole `json:"role,omitempty"`
	Active   *bool           `json:"active,omitempty"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// NormalizeEmail lowercases and trims; lookups and inserts both go through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
