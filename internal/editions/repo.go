package editions

import (
	"context"
	"errors"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes edition persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, edition *models.Edition) error
	Save(ctx context.Context, edition *models.Edition) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Edition, error)
	// FindByIDForUpdate row-locks the edition inside the caller's transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Edition, error)
	// FindActive returns nil when no edition is active.
	FindActive(ctx context.Context) (*models.Edition, error)
	List(ctx context.Context, status *enums.EditionStatus) ([]models.Edition, error)
	MaxNumber(ctx context.Context) (int, error)
	CountSales(ctx context.Context, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
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

func (r *repositoryImpl) Create(ctx context.Context, edition *models.Edition) error {
	return r.db.WithContext(ctx).Create(edition).Error
}

func (r *repositoryImpl) Save(ctx context.Context, edition *models.Edition) error {
	return r.db.WithContext(ctx).Save(edition).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Edition, error) {
	var edition models.Edition
	if err := r.db.WithContext(ctx).First(&edition, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &edition, nil
}

func (r *repositoryImpl) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Edition, error) {
	var edition models.Edition
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&edition, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &edition, nil
}

func (r *repositoryImpl) FindActive(ctx context.Context) (*models.Edition, error) {
	var edition models.Edition
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.EditionStatusActive).
		Order("number DESC").
		Take(&edition).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edition, nil
}

func (r *repositoryImpl) List(ctx context.Context, status *enums.EditionStatus) ([]models.Edition, error) {
	query := r.db.WithContext(ctx).Model(&models.Edition{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.Edition
	if err := query.Order("number DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) MaxNumber(ctx context.Context) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&models.Edition{}).
		Select("COALESCE(MAX(number), 0)").
		Scan(&max).Error
	return max, err
}

func (r *repositoryImpl) CountSales(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Sale{}).Where("edition_id = ?", id).Count(&count).Error
	return count, err
}

// Delete removes the edition with its empty groups and their uploads.
func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	groups := db.Model(&models.BolaoGroup{}).Select("id").Where("edition_id = ?", id)
	if err := db.Where("group_id IN (?)", groups).Delete(&models.CardUpload{}).Error; err != nil {
		return err
	}
	if err := db.Where("edition_id = ?", id).Delete(&models.BolaoGroup{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.Edition{}).Error
}
