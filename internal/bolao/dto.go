package bolao

import (
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
)

type GroupDTO struct {
	ID            uuid.UUID        `json:"id"`
	EditionID     uuid.UUID        `json:"edition_id"`
	GroupNumber   int              `json:"group_number"`
	MaxQuotas     int              `json:"max_quotas"`
	TotalQuotas   int              `json:"total_quotas"`
	IsComplete    bool             `json:"is_complete"`
	CardsUploaded bool             `json:"cards_uploaded"`
	CardsSent     bool             `json:"cards_sent"`
	CardsSentAt   *time.Time       `json:"cards_sent_at,omitempty"`
	State         enums.GroupState `json:"state"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type QuotaDTO struct {
	ID            uuid.UUID  `json:"id"`
	SaleID        uuid.UUID  `json:"sale_id"`
	QuotaNumbers  []int      `json:"quota_numbers"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	NotifiedAt    *time.Time `json:"notified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// GroupDetailDTO is a group with its seated quotas.
type GroupDetailDTO struct {
	GroupDTO
	Quotas []QuotaDTO `json:"quotas"`
}

type CardUploadDTO struct {
	ID         uuid.UUID        `json:"id"`
	GroupID    *uuid.UUID       `json:"group_id,omitempty"`
	FileName   string           `json:"file_name"`
	FileURL    string           `json:"file_url"`
	UploadType enums.UploadType `json:"upload_type"`
	CreatedAt  time.Time        `json:"created_at"`
}

// CreateGroupInput opens a group by hand. MaxQuotas defaults to the edition's
// quotas_per_group.
type CreateGroupInput struct {
	EditionID uuid.UUID `json:"edition_id" validate:"required"`
	MaxQuotas *int      `json:"max_quotas" validate:"omitempty,gte=1,lte=1000"`
}

type RegisterUploadInput struct {
	GroupID    *uuid.UUID
	FileName   string
	FileURL    string
	UploadType enums.UploadType
}

type ListGroupsParams struct {
	EditionID *uuid.UUID
	State     *enums.GroupState
}

func GroupFromModel(m *models.BolaoGroup) *GroupDTO {
	if m == nil {
		return nil
	}
	return &GroupDTO{
		ID:            m.ID,
		EditionID:     m.EditionID,
		GroupNumber:   m.GroupNumber,
		MaxQuotas:     m.MaxQuotas,
		TotalQuotas:   m.TotalQuotas,
		IsComplete:    m.IsComplete,
		CardsUploaded: m.CardsUploaded,
		CardsSent:     m.CardsSent,
		CardsSentAt:   m.CardsSentAt,
		State:         m.State(),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func quotaFromModel(m models.BolaoQuota) QuotaDTO {
	dto := QuotaDTO{
		ID:           m.ID,
		SaleID:       m.SaleID,
		QuotaNumbers: append([]int{}, m.QuotaNumbers...),
		NotifiedAt:   m.NotifiedAt,
		CreatedAt:    m.CreatedAt,
	}
	if m.Sale != nil {
		dto.CustomerID = m.Sale.CustomerID
		if m.Sale.Customer != nil {
			dto.CustomerName = m.Sale.Customer.Name
			dto.CustomerPhone = m.Sale.Customer.Phone
		}
	}
	return dto
}

func UploadFromModel(m *models.CardUpload) *CardUploadDTO {
	if m == nil {
		return nil
	}
	return &CardUploadDTO{
		ID:         m.ID,
		GroupID:    m.GroupID,
		FileName:   m.FileName,
		FileURL:    m.FileURL,
		UploadType: m.UploadType,
		CreatedAt:  m.CreatedAt,
	}
}
