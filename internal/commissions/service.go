package commissions

import (
	"context"

	"github.com/cartelabolao/cartela-admin/internal/settings"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type settingsReader interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

type ReportParams struct {
	EditionID *uuid.UUID
	Kind      *enums.SellerKind
}

// Line is one seller's commission. Amounts are cents; Rate is a percentage.
type Line struct {
	SellerID   uuid.UUID        `json:"seller_id"`
	Kind       enums.SellerKind `json:"kind"`
	Name       string           `json:"name"`
	SalesCount int64            `json:"sales_count"`
	Amount     int64            `json:"amount"`
	Rate       decimal.Decimal  `json:"rate"`
	Overridden bool             `json:"rate_overridden"`
	Commission int64            `json:"commission"`
}

type Report struct {
	EditionID       *uuid.UUID `json:"edition_id,omitempty"`
	Lines           []Line     `json:"lines"`
	TotalAmount     int64      `json:"total_amount"`
	TotalCommission int64      `json:"total_commission"`
}

type Service interface {
	Report(ctx context.Context, params ReportParams) (*Report, error)
}

type service struct {
	repo     Repository
	settings settingsReader
}

func NewService(repo Repository, settingsSvc settingsReader) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commission repository required")
	}
	if settingsSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings reader required")
	}
	return &service{repo: repo, settings: settingsSvc}, nil
}

func (s *service) Report(ctx context.Context, params ReportParams) (*Report, error) {
	if params.Kind != nil && !params.Kind.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid seller kind %q", *params.Kind)
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.PaidTotalsBySeller(ctx, params.EditionID, params.Kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate seller sales")
	}

	report := &Report{EditionID: params.EditionID, Lines: make([]Line, 0, len(rows))}
	for _, row := range rows {
		rate := cfg.RateFor(row.Kind)
		overridden := row.CommissionRate != nil
		if overridden {
			rate = *row.CommissionRate
		}
		line := Line{
			SellerID:   row.SellerID,
			Kind:       row.Kind,
			Name:       row.Name,
			SalesCount: row.SalesCount,
			Amount:     row.Amount,
			Rate:       rate,
			Overridden: overridden,
			Commission: Commission(row.Amount, rate),
		}
		report.TotalAmount += line.Amount
		report.TotalCommission += line.Commission
		report.Lines = append(report.Lines, line)
	}
	return report, nil
}

// Commission applies a percentage to an amount in cents, rounding half up.
func Commission(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Div(decimal.NewFromInt(100)).Round(0).IntPart()
}
