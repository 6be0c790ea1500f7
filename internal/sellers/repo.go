package sellers

import (
	"context"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, seller *models.Seller) error
	Save(ctx context.Context, seller *models.Seller) error
	FindByID(ctx context.Context, kind enums.SellerKind, id uuid.UUID) (*models.Seller, error)
	List(ctx context.Context, kind enums.SellerKind, active *bool) ([]models.Seller, error)
	Deactivate(ctx context.Context, kind enums.SellerKind, id uuid.UUID) (bool, error)
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

func (r *repositoryImpl) Create(ctx context.Context, seller *models.Seller) error {
	return r.db.WithContext(ctx).Create(seller).Error
}

func (r *repositoryImpl) Save(ctx context.Context, seller *models.Seller) error {
	return r.db.WithContext(ctx).Save(seller).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, kind enums.SellerKind, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).Where("kind = ?", kind).First(&seller, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

func (r *repositoryImpl) List(ctx context.Context, kind enums.SellerKind, active *bool) ([]models.Seller, error) {
	query := r.db.WithContext(ctx).Where("kind = ?", kind)
	if active != nil {
		query = query.Where("active = ?", *active)
	}
	var rows []models.Seller
	if err := query.Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) Deactivate(ctx context.Context, kind enums.SellerKind, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Seller{}).
		Where("id = ? AND kind = ?", id, kind).
		UpdateColumn("active", false)
	return result.RowsAffected > 0, result.Error
}
