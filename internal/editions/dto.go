package editions

import (
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
)

// EditionDTO is the API shape of a draw cycle.
type EditionDTO struct {
	ID                  uuid.UUID           `json:"id"`
	Number              int                 `json:"number"`
	DrawDate            time.Time           `json:"draw_date"`
	IndividualCardPrice int64               `json:"individual_card_price"`
	BolaoQuotaPrice     int64               `json:"bolao_quota_price"`
	QuotasPerGroup      int                 `json:"quotas_per_group"`
	CardsPerGroup       int                 `json:"cards_per_group"`
	Status              enums.EditionStatus `json:"status"`
	SalesPaused         bool                `json:"sales_paused"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

type CreateEditionInput struct {
	DrawDate            time.Time `json:"draw_date" validate:"required"`
	IndividualCardPrice int64     `json:"individual_card_price" validate:"gte=0"`
	BolaoQuotaPrice     int64     `json:"bolao_quota_price" validate:"gte=0"`
	QuotasPerGroup      int       `json:"quotas_per_group" validate:"required,gt=0"`
	CardsPerGroup       int       `json:"cards_per_group" validate:"required,gt=0"`
}

// UpdateEditionInput patches the editable fields. Status moves only through
// Activate and Finalize.
type UpdateEditionInput struct {
	DrawDate            *time.Time `json:"draw_date"`
	IndividualCardPrice *int64     `json:"individual_card_price" validate:"omitempty,gte=0"`
	BolaoQuotaPrice     *int64     `json:"bolao_quota_price" validate:"omitempty,gte=0"`
	QuotasPerGroup      *int       `json:"quotas_per_group" validate:"omitempty,gt=0"`
	CardsPerGroup       *int       `json:"cards_per_group" validate:"omitempty,gt=0"`
}

func FromModel(m *models.Edition) *EditionDTO {
	if m == nil {
		return nil
	}
	return &EditionDTO{
		ID:                  m.ID,
		Number:              m.Number,
		DrawDate:            m.DrawDate,
		IndividualCardPrice: m.IndividualCardPrice,
		BolaoQuotaPrice:     m.BolaoQuotaPrice,
		QuotasPerGroup:      m.QuotasPerGroup,
		CardsPerGroup:       m.CardsPerGroup,
		Status:              m.Status,
		SalesPaused:         m.SalesPaused,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func fromModels(rows []models.Edition) []EditionDTO {
	out := make([]EditionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
