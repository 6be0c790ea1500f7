package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IndividualCard struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	SaleID         uuid.UUID  `gorm:"column:sale_id;type:uuid;not null;uniqueIndex"`
	CardSent       bool       `gorm:"column:card_sent;not null;default:false"`
	CardSentAt     *time.Time `gorm:"column:card_sent_at"`
	WhatsAppSent   bool       `gorm:"column:whatsapp_sent;not null;default:false"`
	WhatsAppSentAt *time.Time `gorm:"column:whatsapp_sent_at"`
	FileName       *string    `gorm:"column:file_name"`
	FileURL        *string    `gorm:"column:file_url"`
	Notes          *string    `gorm:"column:notes"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Sale *Sale `gorm:"foreignKey:SaleID"`
}

func (c *IndividualCard) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
