package models

import (
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Edition is a draw cycle; sales, groups and cards all hang off one.
type Edition struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Number              int                 `gorm:"column:number;not null;uniqueIndex"`
	DrawDate            time.Time           `gorm:"column:draw_date;not null"`
	IndividualCardPrice int64               `gorm:"column:individual_card_price;not null"`
	BolaoQuotaPrice     int64               `gorm:"column:bolao_quota_price;not null"`
	QuotasPerGroup      int                 `gorm:"column:quotas_per_group;not null"`
	CardsPerGroup       int                 `gorm:"column:cards_per_group;not null"`
	Status              enums.EditionStatus `gorm:"column:status;type:text;not null;default:draft"`
	SalesPaused         bool                `gorm:"column:sales_paused;not null;default:false"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *Edition) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// UnitPrice returns the price in cents of one unit of the given product.
func (e Edition) UnitPrice(saleType enums.SaleType) int64 {
	if saleType == enums.SaleTypeBolaoQuota {
		return e.BolaoQuotaPrice
	}
	return e.IndividualCardPrice
}
