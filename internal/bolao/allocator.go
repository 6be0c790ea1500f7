package bolao

import (
	"context"
	"errors"

	"github.com/cartelabolao/cartela-admin/pkg/db"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	dbtypes "github.com/cartelabolao/cartela-admin/pkg/db/types"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	"github.com/cartelabolao/cartela-admin/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Soft allocation failures. Callers log them and move on.
var (
	ErrSaleNotFound    = errors.New("bolao: sale not found")
	ErrSaleNotEligible = errors.New("bolao: sale not eligible for a quota")
	ErrEditionNotFound = errors.New("bolao: edition not found")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AllocationResult describes where a sale was seated.
type AllocationResult struct {
	GroupID          uuid.UUID `json:"group_id"`
	GroupNumber      int       `json:"group_number"`
	QuotaNumber      int       `json:"quota_number"`
	GroupComplete    bool      `json:"group_complete"`
	AlreadyAllocated bool      `json:"already_allocated"`
}

// Allocator seats paid bolão sales into the first open group of their edition.
type Allocator struct {
	repo    Repository
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.AutomationMetrics
}

func NewAllocator(repo Repository, tx txRunner, logg *logger.Logger, m *metrics.AutomationMetrics) (*Allocator, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bolao repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Allocator{repo: repo, tx: tx, logg: logg, metrics: m}, nil
}

// AllocateQuota is idempotent per sale. The edition row lock serializes
// allocators of the same edition and sale_id is unique on bolao_quotas, so a
// racing insert surfaces as a unique violation that maps to the no-op result.
func (a *Allocator) AllocateQuota(ctx context.Context, saleID, editionID uuid.UUID) (*AllocationResult, error) {
	logCtx := a.logg.WithSaleID(ctx, saleID.String())
	logCtx = a.logg.WithEditionID(logCtx, editionID.String())

	var result *AllocationResult
	err := a.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = a.allocate(ctx, a.repo.WithTx(tx), saleID, editionID)
		return err
	})
	if err != nil && db.IsUniqueViolation(err, "") {
		quota, lookupErr := a.repo.QuotaForSale(ctx, saleID)
		if lookupErr == nil && quota != nil {
			result, err = a.existing(ctx, a.repo, quota)
		}
	}

	switch {
	case errors.Is(err, ErrSaleNotFound), errors.Is(err, ErrSaleNotEligible), errors.Is(err, ErrEditionNotFound):
		a.metrics.IncAllocation(metrics.AllocationSkipped)
		a.logg.Warn(a.logg.WithField(logCtx, "reason", err.Error()), "bolao.allocation_skipped")
		return nil, err
	case err != nil:
		a.metrics.IncAllocation(metrics.AllocationFailed)
		a.logg.Error(logCtx, "bolao.allocation_failed", err)
		return nil, err
	case result.AlreadyAllocated:
		a.metrics.IncAllocation(metrics.AllocationNoop)
		a.logg.Debug(logCtx, "bolao.allocation_noop")
	default:
		a.metrics.IncAllocation(metrics.AllocationAllocated)
		a.logg.Info(a.logg.WithFields(logCtx, map[string]any{
			"group_number":   result.GroupNumber,
			"quota_number":   result.QuotaNumber,
			"group_complete": result.GroupComplete,
		}), "bolao.quota_allocated")
	}
	return result, nil
}

func (a *Allocator) allocate(ctx context.Context, repo Repository, saleID, editionID uuid.UUID) (*AllocationResult, error) {
	edition, err := repo.LockEdition(ctx, editionID)
	if err != nil {
		return nil, err
	}
	if edition == nil {
		return nil, ErrEditionNotFound
	}

	sale, err := repo.FindSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, ErrSaleNotFound
	}
	if sale.SaleType != enums.SaleTypeBolaoQuota || !sale.PaymentStatus.IsPaid() || sale.EditionID != edition.ID {
		return nil, ErrSaleNotEligible
	}

	quota, err := repo.QuotaForSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if quota != nil {
		return a.existing(ctx, repo, quota)
	}

	group, err := repo.FirstOpenGroup(ctx, edition.ID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		if group, err = openGroup(ctx, repo, edition, edition.QuotasPerGroup); err != nil {
			return nil, err
		}
	}

	numbers, err := repo.QuotaNumbers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	next := 1
	for _, n := range numbers {
		if n >= next {
			next = n + 1
		}
	}
	if err := repo.CreateQuota(ctx, &models.BolaoQuota{
		GroupID:      group.ID,
		SaleID:       sale.ID,
		QuotaNumbers: dbtypes.IntArray{next},
	}); err != nil {
		return nil, err
	}

	total, err := repo.CountQuotas(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	group.TotalQuotas = int(total)
	group.IsComplete = group.TotalQuotas >= group.MaxQuotas
	if err := repo.SaveGroup(ctx, group); err != nil {
		return nil, err
	}

	return &AllocationResult{
		GroupID:       group.ID,
		GroupNumber:   group.GroupNumber,
		QuotaNumber:   next,
		GroupComplete: group.IsComplete,
	}, nil
}

func (a *Allocator) existing(ctx context.Context, repo Repository, quota *models.BolaoQuota) (*AllocationResult, error) {
	group, err := repo.FindGroup(ctx, quota.GroupID)
	if err != nil {
		return nil, err
	}
	result := &AllocationResult{GroupID: quota.GroupID, AlreadyAllocated: true}
	if len(quota.QuotaNumbers) > 0 {
		result.QuotaNumber = quota.QuotaNumbers[0]
	}
	if group != nil {
		result.GroupNumber = group.GroupNumber
		result.GroupComplete = group.IsComplete
	}
	return result, nil
}

// openGroup appends the next sequential group to the edition.
func openGroup(ctx context.Context, repo Repository, edition *models.Edition, capacity int) (*models.BolaoGroup, error) {
	max, err := repo.MaxGroupNumber(ctx, edition.ID)
	if err != nil {
		return nil, err
	}
	if capacity <= 0 {
		capacity = edition.QuotasPerGroup
	}
	group := &models.BolaoGroup{
		EditionID:   edition.ID,
		GroupNumber: max + 1,
		MaxQuotas:   capacity,
	}
	if err := repo.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// Allocate adapts AllocateQuota to the post-commit hook used by sales.
func (a *Allocator) Allocate(ctx context.Context, saleID, editionID uuid.UUID) error {
	_, err := a.AllocateQuota(ctx, saleID, editionID)
	return err
}
