package commissions

import (
	"context"

	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// sellerTotals is one row of the per-seller aggregate.
type sellerTotals struct {
	SellerID       uuid.UUID
	Kind           enums.SellerKind
	Name           string
	CommissionRate *decimal.Decimal
	SalesCount     int64
	Amount         int64
}

type Repository interface {
	PaidTotalsBySeller(ctx context.Context, editionID *uuid.UUID, kind *enums.SellerKind) ([]sellerTotals, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) PaidTotalsBySeller(ctx context.Context, editionID *uuid.UUID, kind *enums.SellerKind) ([]sellerTotals, error) {
	query := r.db.WithContext(ctx).
		Table("sellers").
		Select(`sellers.id AS seller_id, sellers.kind AS kind, sellers.name AS name,
			sellers.commission_rate AS commission_rate,
			COUNT(sales.id) AS sales_count, COALESCE(SUM(sales.amount), 0) AS amount`).
		Joins("JOIN sales ON sales.seller_id = sellers.id AND sales.payment_status = ?", enums.PaymentStatusPaid)
	if editionID != nil {
		query = query.Where("sales.edition_id = ?", *editionID)
	}
	if kind != nil {
		query = query.Where("sellers.kind = ?", *kind)
	}
	var rows []sellerTotals
	err := query.
		Group("sellers.id, sellers.kind, sellers.name, sellers.commission_rate").
		Order("amount DESC, sellers.name ASC").
		Scan(&rows).Error
	return rows, err
}
