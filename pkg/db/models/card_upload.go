package models

import (
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CardUpload struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	GroupID    *uuid.UUID       `gorm:"column:group_id;type:uuid;index"`
	FileName   string           `gorm:"column:file_name;not null"`
	FileURL    string           `gorm:"column:file_url;not null"`
	UploadType enums.UploadType `gorm:"column:upload_type;type:text;not null"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime;index"`
}

func (u *CardUpload) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
