package models

import "time"

// SettingsRowID is the only row the settings table ever holds.
const SettingsRowID = 1

type SystemSettings struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement:false"`
	Payload   string    `gorm:"column:payload;type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (SystemSettings) TableName() string {
	return "system_settings"
}
