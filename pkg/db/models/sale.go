package models

import (
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/cartelabolao/cartela-admin/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Sale struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID     uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	EditionID      uuid.UUID           `gorm:"column:edition_id;type:uuid;not null;index"`
	SaleType       enums.SaleType      `gorm:"column:sale_type;type:text;not null"`
	Amount         int64               `gorm:"column:amount;not null"`
	QuotasQuantity int                 `gorm:"column:quotas_quantity;not null;default:1"`
	PaymentStatus  enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:pending"`
	SaleOrigin     enums.SaleOrigin    `gorm:"column:sale_origin;type:text;not null;default:direct"`
	SellerID       *uuid.UUID          `gorm:"column:seller_id;type:uuid;index"`
	Notes          *string             `gorm:"column:notes"`
	PaidAt         *time.Time          `gorm:"column:paid_at"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Customer *Customer `gorm:"foreignKey:CustomerID"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Seller decodes the (sale_origin, seller_id) pair.
func (s Sale) Seller() (types.Seller, error) {
	return types.SellerFromColumns(s.SaleOrigin, s.SellerID)
}

// SetSeller writes the variant back into its column pair.
func (s *Sale) SetSeller(seller types.Seller) {
	s.SaleOrigin, s.SellerID = seller.Columns()
}
