package sales

import (
	"time"

	"github.com/cartelabolao/cartela-admin/internal/customers"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/cartelabolao/cartela-admin/pkg/types"
	"github.com/google/uuid"
)

type CustomerSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
}

type SaleDTO struct {
	ID             uuid.UUID           `json:"id"`
	CustomerID     uuid.UUID           `json:"customer_id"`
	Customer       *CustomerSummary    `json:"customer,omitempty"`
	EditionID      uuid.UUID           `json:"edition_id"`
	SaleType       enums.SaleType      `json:"sale_type"`
	Amount         int64               `json:"amount"`
	QuotasQuantity int                 `json:"quotas_quantity"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	SaleOrigin     enums.SaleOrigin    `json:"sale_origin"`
	SellerID       *uuid.UUID          `json:"seller_id,omitempty"`
	Seller         types.Seller        `json:"seller"`
	Notes          *string             `json:"notes,omitempty"`
	PaidAt         *time.Time          `json:"paid_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// CreateSaleInput is the admin create payload. EditionID defaults to the
// active edition and Amount to unit price times quantity.
type CreateSaleInput struct {
	CustomerID     uuid.UUID           `json:"customer_id" validate:"required"`
	EditionID      *uuid.UUID          `json:"edition_id"`
	SaleType       enums.SaleType      `json:"sale_type" validate:"required"`
	Amount         *int64              `json:"amount" validate:"omitempty,gte=0"`
	QuotasQuantity int                 `json:"quotas_quantity" validate:"omitempty,gte=1,lte=100"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	Seller         types.Seller        `json:"seller"`
	Notes          *string             `json:"notes" validate:"omitempty,max=500"`
}

type UpdateSaleInput struct {
	CustomerID     *uuid.UUID    `json:"customer_id"`
	Amount         *int64        `json:"amount" validate:"omitempty,gte=0"`
	QuotasQuantity *int          `json:"quotas_quantity" validate:"omitempty,gte=1,lte=100"`
	Seller         *types.Seller `json:"seller"`
	Notes          *string       `json:"notes" validate:"omitempty,max=500"`
}

// PublicSaleInput is the checkout payload; the customer is registered or
// matched by phone or CPF.
type PublicSaleInput struct {
	Customer       customers.CustomerInput `json:"customer" validate:"required"`
	SaleType       enums.SaleType          `json:"sale_type" validate:"required"`
	QuotasQuantity int                     `json:"quotas_quantity" validate:"omitempty,gte=1,lte=100"`
	Seller         types.Seller            `json:"seller"`
}

type ListParams struct {
	EditionID     *uuid.UUID
	SaleType      *enums.SaleType
	PaymentStatus *enums.PaymentStatus
	Origin        *enums.SaleOrigin
	SellerID      *uuid.UUID
	From          *time.Time
	To            *time.Time
	Limit         int
	Cursor        string
}

func FromModel(m *models.Sale) *SaleDTO {
	if m == nil {
		return nil
	}
	seller, _ := m.Seller()
	dto := &SaleDTO{
		ID:             m.ID,
		CustomerID:     m.CustomerID,
		EditionID:      m.EditionID,
		SaleType:       m.SaleType,
		Amount:         m.Amount,
		QuotasQuantity: m.QuotasQuantity,
		PaymentStatus:  m.PaymentStatus,
		SaleOrigin:     m.SaleOrigin,
		SellerID:       m.SellerID,
		Seller:         seller,
		Notes:          m.Notes,
		PaidAt:         m.PaidAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.Customer != nil {
		dto.Customer = &CustomerSummary{ID: m.Customer.ID, Name: m.Customer.Name, Phone: m.Customer.Phone}
	}
	return dto
}
