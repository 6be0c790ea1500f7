package models

import (
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification persists operator-facing alerts raised by the API and the automation worker.
type Notification struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	Level     enums.NotificationLevel `gorm:"column:level;type:text;not null"`
	Title     string                  `gorm:"column:title;not null"`
	Message   string                  `gorm:"column:message;not null"`
	Source    string                  `gorm:"column:source;not null;default:'api'"`
	ReadAt    *time.Time              `gorm:"column:read_at"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime;index"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
