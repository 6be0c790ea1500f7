package individualcards

import (
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
)

type IndividualCardDTO struct {
	ID             uuid.UUID           `json:"id"`
	SaleID         uuid.UUID           `json:"sale_id"`
	EditionID      uuid.UUID           `json:"edition_id"`
	CustomerID     uuid.UUID           `json:"customer_id"`
	CustomerName   string              `json:"customer_name"`
	CustomerPhone  string              `json:"customer_phone"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	CardSent       bool                `json:"card_sent"`
	CardSentAt     *time.Time          `json:"card_sent_at,omitempty"`
	WhatsAppSent   bool                `json:"whatsapp_sent"`
	WhatsAppSentAt *time.Time          `json:"whatsapp_sent_at,omitempty"`
	FileName       *string             `json:"file_name,omitempty"`
	FileURL        *string             `json:"file_url,omitempty"`
	Notes          *string             `json:"notes,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// UpdateInput patches the admin-editable fields. Setting FileURL attaches a file.
type UpdateInput struct {
	CardSent *bool   `json:"card_sent"`
	Notes    *string `json:"notes" validate:"omitempty,max=500"`
	FileName *string `json:"file_name" validate:"omitempty,max=255"`
	FileURL  *string `json:"file_url" validate:"omitempty,url"`
}

type ListParams struct {
	EditionID *uuid.UUID
	Sent      *bool
	Limit     int
	Cursor    string
}

func FromModel(m *models.IndividualCard) *IndividualCardDTO {
	if m == nil {
		return nil
	}
	dto := &IndividualCardDTO{
		ID:             m.ID,
		SaleID:         m.SaleID,
		CardSent:       m.CardSent,
		CardSentAt:     m.CardSentAt,
		WhatsAppSent:   m.WhatsAppSent,
		WhatsAppSentAt: m.WhatsAppSentAt,
		FileName:       m.FileName,
		FileURL:        m.FileURL,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if sale := m.Sale; sale != nil {
		dto.EditionID = sale.EditionID
		dto.CustomerID = sale.CustomerID
		dto.PaymentStatus = sale.PaymentStatus
		if sale.Customer != nil {
			dto.CustomerName = sale.Customer.Name
			dto.CustomerPhone = sale.Customer.Phone
		}
	}
	return dto
}
