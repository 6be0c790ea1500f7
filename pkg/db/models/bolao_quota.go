package models

import (
	"time"

	dbtypes "github.com/cartelabolao/cartela-admin/pkg/db/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BolaoQuota is a seat inside a group; at most one per sale.
type BolaoQuota struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	GroupID      uuid.UUID        `gorm:"column:group_id;type:uuid;not null;index"`
	SaleID       uuid.UUID        `gorm:"column:sale_id;type:uuid;not null;uniqueIndex"`
	QuotaNumbers dbtypes.IntArray `gorm:"column:quota_numbers;type:jsonb;not null"`
	NotifiedAt   *time.Time       `gorm:"column:notified_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`

	Sale *Sale `gorm:"foreignKey:SaleID"`
}

// TableName pins the plural; gorm's inflection leaves "quota" as is.
func (BolaoQuota) TableName() string {
	return "bolao_quotas"
}

func (q *BolaoQuota) BeforeCreate(*gorm.DB) error {
	ensureID(&q.ID)
	return nil
}
