// Package dashboard aggregates paid sales of the active edition into the
// day-over-day and month-over-month figures shown on the admin home page.
package dashboard

import (
	"context"
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EditionSummary struct {
	ID          uuid.UUID           `json:"id"`
	Number      int                 `json:"number"`
	DrawDate    time.Time           `json:"draw_date"`
	Status      enums.EditionStatus `json:"status"`
	SalesPaused bool                `json:"sales_paused"`
}

// Change holds percentage deltas rounded to one decimal place.
type Change struct {
	Count  decimal.Decimal `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type Period struct {
	Current  Totals `json:"current"`
	Previous Totals `json:"previous"`
	Change   Change `json:"change"`
}

type TodayBreakdown struct {
	IndividualCards Totals `json:"individual_cards"`
	BolaoQuotas     Totals `json:"bolao_quotas"`
}

type SellerCount struct {
	Active int64           `json:"active"`
	Change decimal.Decimal `json:"change"`
}

type BolaoSummary struct {
	Open              int   `json:"open"`
	Complete          int   `json:"complete"`
	CardsReady        int   `json:"cards_ready"`
	Sent              int   `json:"sent"`
	PendingAllocation int64 `json:"pending_allocation"`
}

type Stats struct {
	Edition     *EditionSummary `json:"edition"`
	Daily       Period          `json:"daily"`
	Monthly     Period          `json:"monthly"`
	Today       TodayBreakdown  `json:"today"`
	Promoters   SellerCount     `json:"promoters"`
	Resellers   SellerCount     `json:"resellers"`
	Bolao       BolaoSummary    `json:"bolao"`
	GeneratedAt time.Time       `json:"generated_at"`
}

type Service interface {
	Stats(ctx context.Context, now time.Time) (*Stats, error)
}

type service struct {
	repo Repository
	loc  *time.Location
}

// NewService computes day boundaries in loc; nil means UTC.
func NewService(repo Repository, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dashboard repository required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, loc: loc}, nil
}

func (s *service) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{
		GeneratedAt: now.UTC(),
		Promoters:   SellerCount{Change: decimal.Zero},
		Resellers:   SellerCount{Change: decimal.Zero},
	}
	var err error
	if stats.Promoters.Active, err = s.repo.ActiveSellers(ctx, enums.SellerKindPromoter); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count promoters")
	}
	if stats.Resellers.Active, err = s.repo.ActiveSellers(ctx, enums.SellerKindReseller); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count resellers")
	}

	edition, err := s.repo.ActiveEdition(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active edition")
	}
	if edition == nil {
		stats.Daily.Change = Change{Count: decimal.Zero, Amount: decimal.Zero}
		stats.Monthly.Change = Change{Count: decimal.Zero, Amount: decimal.Zero}
		return stats, nil
	}
	stats.Edition = &EditionSummary{
		ID:          edition.ID,
		Number:      edition.Number,
		DrawDate:    edition.DrawDate,
		Status:      edition.Status,
		SalesPaused: edition.SalesPaused,
	}

	w := windowsFor(now, s.loc)
	if stats.Daily, err = s.period(ctx, edition.ID, w.today, w.yesterday); err != nil {
		return nil, err
	}
	if stats.Monthly, err = s.period(ctx, edition.ID, w.last30, w.previous30); err != nil {
		return nil, err
	}
	cards, bolao := enums.SaleTypeIndividualCard, enums.SaleTypeBolaoQuota
	if stats.Today.IndividualCards, err = s.repo.PaidTotals(ctx, edition.ID, w.today, &cards); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum individual card sales")
	}
	if stats.Today.BolaoQuotas, err = s.repo.PaidTotals(ctx, edition.ID, w.today, &bolao); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum bolão sales")
	}

	if stats.Bolao, err = s.bolaoSummary(ctx, edition); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *service) period(ctx context.Context, editionID uuid.UUID, current, previous window) (Period, error) {
	cur, err := s.repo.PaidTotals(ctx, editionID, current, nil)
	if err != nil {
		return Period{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum paid sales")
	}
	prev, err := s.repo.PaidTotals(ctx, editionID, previous, nil)
	if err != nil {
		return Period{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum paid sales")
	}
	return Period{
		Current:  cur,
		Previous: prev,
		Change: Change{
			Count:  PercentChange(cur.Count, prev.Count),
			Amount: PercentChange(cur.Amount, prev.Amount),
		},
	}, nil
}

func (s *service) bolaoSummary(ctx context.Context, edition *models.Edition) (BolaoSummary, error) {
	var summary BolaoSummary
	groups, err := s.repo.Groups(ctx, edition.ID)
	if err != nil {
		return summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bolão groups")
	}
	for _, g := range groups {
		switch g.State() {
		case enums.GroupStateOpen:
			summary.Open++
		case enums.GroupStateComplete:
			summary.Complete++
		case enums.GroupStateCardsReady:
			summary.CardsReady++
		case enums.GroupStateSent:
			summary.Sent++
		}
	}
	if summary.PendingAllocation, err = s.repo.UnallocatedPaidQuotas(ctx, edition.ID); err != nil {
		return summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending allocations")
	}
	return summary, nil
}

var hundred = decimal.NewFromInt(100)

// PercentChange returns ((current-previous)/previous)*100 rounded to one
// decimal place. A zero previous value yields 0.
func PercentChange(current, previous int64) decimal.Decimal {
	if previous == 0 {
		return decimal.Zero
	}
	prev := decimal.NewFromInt(previous)
	return decimal.NewFromInt(current).Sub(prev).Div(prev).Mul(hundred).Round(1)
}

type windows struct {
	today      window
	yesterday  window
	last30     window
	previous30 window
}

// windowsFor anchors day boundaries at local midnight. Bounds are converted to
// UTC because timestamps are stored in UTC.
func windowsFor(now time.Time, loc *time.Location) windows {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	yesterday := midnight.AddDate(0, 0, -1)
	month := 30 * 24 * time.Hour
	return windows{
		today:      window{From: midnight.UTC(), To: now.UTC(), ToInclusive: true},
		yesterday:  window{From: yesterday.UTC(), To: midnight.UTC()},
		last30:     window{From: now.Add(-month).UTC(), To: now.UTC(), FromExclusive: true, ToInclusive: true},
		previous30: window{From: now.Add(-2 * month).UTC(), To: now.Add(-month).UTC(), FromExclusive: true, ToInclusive: true},
	}
}
