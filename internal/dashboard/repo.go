package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Totals is a paid-sales count with its summed amount in cents.
type Totals struct {
	Count  int64 `json:"count"`
	Amount int64 `json:"amount"`
}

type window struct {
	From          time.Time
	To            time.Time
	FromExclusive bool
	ToInclusive   bool
}

type Repository interface {
	ActiveEdition(ctx context.Context) (*models.Edition, error)
	PaidTotals(ctx context.Context, editionID uuid.UUID, w window, saleType *enums.SaleType) (Totals, error)
	ActiveSellers(ctx context.Context, kind enums.SellerKind) (int64, error)
	Groups(ctx context.Context, editionID uuid.UUID) ([]models.BolaoGroup, error)
	UnallocatedPaidQuotas(ctx context.Context, editionID uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) ActiveEdition(ctx context.Context) (*models.Edition, error) {
	var edition models.Edition
	err := r.db.WithContext(ctx).Where("status = ?", enums.EditionStatusActive).Order("number DESC").First(&edition).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edition, nil
}

func (r *repositoryImpl) PaidTotals(ctx context.Context, editionID uuid.UUID, w window, saleType *enums.SaleType) (Totals, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Where("edition_id = ? AND payment_status = ?", editionID, enums.PaymentStatusPaid)
	if w.FromExclusive {
		query = query.Where("created_at > ?", w.From)
	} else {
		query = query.Where("created_at >= ?", w.From)
	}
	if w.ToInclusive {
		query = query.Where("created_at <= ?", w.To)
	} else {
		query = query.Where("created_at < ?", w.To)
	}
	if saleType != nil {
		query = query.Where("sale_type = ?", *saleType)
	}
	var totals Totals
	err := query.Scan(&totals).Error
	return totals, err
}

func (r *repositoryImpl) ActiveSellers(ctx context.Context, kind enums.SellerKind) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Seller{}).Where("kind = ? AND active = ?", kind, true).Count(&count).Error
	return count, err
}

func (r *repositoryImpl) Groups(ctx context.Context, editionID uuid.UUID) ([]models.BolaoGroup, error) {
	var groups []models.BolaoGroup
	err := r.db.WithContext(ctx).Where("edition_id = ?", editionID).Find(&groups).Error
	return groups, err
}

func (r *repositoryImpl) UnallocatedPaidQuotas(ctx context.Context, editionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("edition_id = ? AND sale_type = ? AND payment_status = ?", editionID, enums.SaleTypeBolaoQuota, enums.PaymentStatusPaid).
		Where("id NOT IN (?)", r.db.Model(&models.BolaoQuota{}).Select("sale_id")).
		Count(&count).Error
	return count, err
}
