package sales

import (
	"context"
	"errors"
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/cartelabolao/cartela-admin/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sale *models.Sale) error
	Save(ctx context.Context, sale *models.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	List(ctx context.Context, params listParams) ([]models.Sale, error)
	// HasQuota reports whether the allocation engine already seated the sale.
	HasQuota(ctx context.Context, saleID uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CreateIndividualCard(ctx context.Context, card *models.IndividualCard) error
	CustomerExists(ctx context.Context, id uuid.UUID) (bool, error)
	FindEdition(ctx context.Context, id uuid.UUID) (*models.Edition, error)
	// ActiveEdition returns nil when no edition is active.
	ActiveEdition(ctx context.Context) (*models.Edition, error)
}

type listParams struct {
	EditionID     *uuid.UUID
	SaleType      *enums.SaleType
	PaymentStatus *enums.PaymentStatus
	Origin        *enums.SaleOrigin
	SellerID      *uuid.UUID
	From          *time.Time
	To            *time.Time
	Cursor        *pagination.Cursor
	Limit         int
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

func (r *repositoryImpl) Create(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(sale).Error
}

func (r *repositoryImpl) Save(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(sale).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.WithContext(ctx).Preload("Customer").First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.Sale, error) {
	query := r.db.WithContext(ctx).Model(&models.Sale{}).Preload("Customer")
	if params.EditionID != nil {
		query = query.Where("edition_id = ?", *params.EditionID)
	}
	if params.SaleType != nil {
		query = query.Where("sale_type = ?", *params.SaleType)
	}
	if params.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *params.PaymentStatus)
	}
	if params.Origin != nil {
		query = query.Where("sale_origin = ?", *params.Origin)
	}
	if params.SellerID != nil {
		query = query.Where("seller_id = ?", *params.SellerID)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at < ?", *params.To)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}
	var rows []models.Sale
	if err := query.Order("created_at DESC, id DESC").Limit(params.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) HasQuota(ctx context.Context, saleID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BolaoQuota{}).Where("sale_id = ?", saleID).Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("sale_id = ?", id).Delete(&models.IndividualCard{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.Sale{}).Error
}

func (r *repositoryImpl) CreateIndividualCard(ctx context.Context, card *models.IndividualCard) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(card).Error
}

func (r *repositoryImpl) CustomerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) FindEdition(ctx context.Context, id uuid.UUID) (*models.Edition, error) {
	var edition models.Edition
	if err := r.db.WithContext(ctx).First(&edition, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &edition, nil
}

func (r *repositoryImpl) ActiveEdition(ctx context.Context) (*models.Edition, error) {
	var edition models.Edition
	err := r.db.WithContext(ctx).Where("status = ?", enums.EditionStatusActive).Order("number DESC").Take(&edition).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edition, nil
}
