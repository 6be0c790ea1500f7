package sellers

import (
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SellerDTO struct {
	ID             uuid.UUID        `json:"id"`
	Kind           enums.SellerKind `json:"kind"`
	Name           string           `json:"name"`
	Phone          string           `json:"phone"`
	Email          *string          `json:"email,omitempty"`
	CPF            *string          `json:"cpf,omitempty"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
	Active         bool             `json:"active"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type SellerInput struct {
	Name           string           `json:"name" validate:"required,max=120"`
	Phone          string           `json:"phone" validate:"required,max=40"`
	Email          *string          `json:"email" validate:"omitempty,email"`
	CPF            *string          `json:"cpf" validate:"omitempty,max=20"`
	CommissionRate *decimal.Decimal `json:"commission_rate"`
}

type UpdateSellerInput struct {
	Name           *string          `json:"name" validate:"omitempty,max=120"`
	Phone          *string          `json:"phone" validate:"omitempty,max=40"`
	Email          *string          `json:"email" validate:"omitempty,email"`
	CPF            *string          `json:"cpf" validate:"omitempty,max=20"`
	CommissionRate *decimal.Decimal `json:"commission_rate"`
	// ClearCommissionRate drops the override so the settings default applies.
	ClearCommissionRate bool  `json:"clear_commission_rate"`
	Active              *bool `json:"active"`
}

func FromModel(m *models.Seller) *SellerDTO {
	if m == nil {
		return nil
	}
	return &SellerDTO{
		ID:             m.ID,
		Kind:           m.Kind,
		Name:           m.Name,
		Phone:          m.Phone,
		Email:          m.Email,
		CPF:            m.CPF,
		CommissionRate: m.CommissionRate,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
