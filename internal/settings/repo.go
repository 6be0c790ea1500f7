package settings

import (
	"context"
	"errors"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists the settings row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Load returns nil when the row has never been written.
	Load(ctx context.Context) (*models.SystemSettings, error)
	Save(ctx context.Context, payload string) error
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Load(ctx context.Context) (*models.SystemSettings, error) {
	var row models.SystemSettings
	err := r.db.WithContext(ctx).Where("id = ?", models.SettingsRowID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) Save(ctx context.Context, payload string) error {
	row := models.SystemSettings{ID: models.SettingsRowID, Payload: payload}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
}
