package models

import (
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BolaoGroup struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	EditionID     uuid.UUID  `gorm:"column:edition_id;type:uuid;not null;uniqueIndex:idx_bolao_groups_edition_number,priority:1"`
	GroupNumber   int        `gorm:"column:group_number;not null;uniqueIndex:idx_bolao_groups_edition_number,priority:2"`
	MaxQuotas     int        `gorm:"column:max_quotas;not null"`
	TotalQuotas   int        `gorm:"column:total_quotas;not null;default:0"`
	IsComplete    bool       `gorm:"column:is_complete;not null;default:false"`
	CardsUploaded bool       `gorm:"column:cards_uploaded;not null;default:false"`
	CardsSent     bool       `gorm:"column:cards_sent;not null;default:false"`
	CardsSentAt   *time.Time `gorm:"column:cards_sent_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (g *BolaoGroup) BeforeCreate(*gorm.DB) error {
	ensureID(&g.ID)
	return nil
}

// State derives open → complete → cards_ready → sent from the stored flags.
func (g BolaoGroup) State() enums.GroupState {
	switch {
	case g.CardsSent:
		return enums.GroupStateSent
	case g.IsComplete && g.CardsUploaded:
		return enums.GroupStateCardsReady
	case g.IsComplete:
		return enums.GroupStateComplete
	default:
		return enums.GroupStateOpen
	}
}
