package models

import (
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seller stores both promoters and resellers, discriminated by Kind.
type Seller struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Kind           enums.SellerKind `gorm:"column:kind;type:text;not null;index"`
	Name           string           `gorm:"column:name;not null"`
	Phone          string           `gorm:"column:phone;not null"`
	Email          *string          `gorm:"column:email"`
	CPF            *string          `gorm:"column:cpf"`
	CommissionRate *decimal.Decimal `gorm:"column:commission_rate;type:numeric(5,2)"`
	Active         bool             `gorm:"column:active;not null;default:true"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Seller) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
