package sales

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cartelabolao/cartela-admin/internal/customers"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	"github.com/cartelabolao/cartela-admin/pkg/pagination"
	"github.com/cartelabolao/cartela-admin/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type customerRegistrar interface {
	FindOrCreate(ctx context.Context, tx *gorm.DB, input customers.CustomerInput) (*models.Customer, bool, error)
}

type sellerResolver interface {
	Resolve(ctx context.Context, tx *gorm.DB, seller types.Seller) error
}

// AllocateFunc seats a paid bolão sale. Failures are soft; the automation
// poller retries pending sales.
type AllocateFunc func(ctx context.Context, saleID, editionID uuid.UUID) error

type Service interface {
	List(ctx context.Context, params ListParams) (*types.Page[SaleDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*SaleDTO, error)
	Create(ctx context.Context, input CreateSaleInput) (*SaleDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateSaleInput) (*SaleDTO, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (*SaleDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	PublicCheckout(ctx context.Context, input PublicSaleInput) (*SaleDTO, error)
}

type Deps struct {
	Customers customerRegistrar
	Sellers   sellerResolver
	Allocate  AllocateFunc
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo      Repository
	tx        txRunner
	customers customerRegistrar
	sellers   sellerResolver
	allocate  AllocateFunc
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(repo Repository, tx txRunner, deps Deps) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sales repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if deps.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customer registrar required")
	}
	if deps.Sellers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "seller resolver required")
	}
	svc := &service{
		repo:      repo,
		tx:        tx,
		customers: deps.Customers,
		sellers:   deps.Sellers,
		allocate:  deps.Allocate,
		logg:      deps.Logger,
		now:       deps.Now,
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*types.Page[SaleDTO], error) {
	if err := validateFilters(params); err != nil {
		return nil, err
	}
	query := listParams{
		EditionID:     params.EditionID,
		SaleType:      params.SaleType,
		PaymentStatus: params.PaymentStatus,
		Origin:        params.Origin,
		SellerID:      params.SellerID,
		From:          params.From,
		To:            params.To,
		Limit:         pagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	page, cursor := pagination.Trim(rows, params.Limit, func(sale models.Sale) pagination.Cursor {
		return pagination.Cursor{CreatedAt: sale.CreatedAt, ID: sale.ID}
	})
	items := make([]SaleDTO, 0, len(page))
	for i := range page {
		items = append(items, *FromModel(&page[i]))
	}
	return &types.Page[SaleDTO]{Items: items, Cursor: cursor}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SaleDTO, error) {
	sale, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return FromModel(sale), nil
}

func (s *service) Create(ctx context.Context, input CreateSaleInput) (*SaleDTO, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id required")
	}
	status := input.PaymentStatus
	if status == "" {
		status = enums.PaymentStatusPending
	}
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment status %q", status)
	}

	var created *models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		edition, err := s.resolveEdition(ctx, repo, input.EditionID)
		if err != nil {
			return err
		}
		exists, err := repo.CustomerExists(ctx, input.CustomerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeValidation, "customer not found").WithDetail("customer_id", "unknown customer")
		}
		sale, err := s.newSale(ctx, tx, edition, input.CustomerID, input.SaleType, input.QuotasQuantity, input.Amount, input.Seller)
		if err != nil {
			return err
		}
		sale.PaymentStatus = status
		if status.IsPaid() {
			now := s.now().UTC()
			sale.PaidAt = &now
		}
		sale.Notes = cleanNotes(input.Notes)
		if err := s.insert(ctx, repo, sale); err != nil {
			return err
		}
		created = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterPaid(ctx, created)
	return s.Get(ctx, created.ID)
}

func (s *service) PublicCheckout(ctx context.Context, input PublicSaleInput) (*SaleDTO, error) {
	var created *models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		edition, err := repo.ActiveEdition(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active edition")
		}
		if edition == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no edition is open for sales")
		}
		if edition.SalesPaused {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "sales are paused for this edition").
				WithDetail("edition_number", edition.Number)
		}
		customer, _, err := s.customers.FindOrCreate(ctx, tx, input.Customer)
		if err != nil {
			return err
		}
		sale, err := s.newSale(ctx, tx, edition, customer.ID, input.SaleType, input.QuotasQuantity, nil, input.Seller)
		if err != nil {
			return err
		}
		sale.PaymentStatus = enums.PaymentStatusPending
		if err := s.insert(ctx, repo, sale); err != nil {
			return err
		}
		created = sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithSaleID(ctx, created.ID.String()), "sales.public_checkout")
	return s.Get(ctx, created.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateSaleInput) (*SaleDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sale, err := s.loadMutable(ctx, repo, id)
		if err != nil {
			return err
		}
		if input.CustomerID != nil {
			exists, err := repo.CustomerExists(ctx, *input.CustomerID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
			}
			if !exists {
				return pkgerrors.New(pkgerrors.CodeValidation, "customer not found").WithDetail("customer_id", "unknown customer")
			}
			sale.CustomerID = *input.CustomerID
		}
		if input.QuotasQuantity != nil {
			if *input.QuotasQuantity < 1 {
				return pkgerrors.New(pkgerrors.CodeValidation, "quotas_quantity must be at least 1")
			}
			sale.QuotasQuantity = *input.QuotasQuantity
		}
		if input.Amount != nil {
			if *input.Amount < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
			}
			sale.Amount = *input.Amount
		}
		if input.Seller != nil {
			if err := s.sellers.Resolve(ctx, tx, *input.Seller); err != nil {
				return err
			}
			sale.SetSeller(*input.Seller)
		}
		if input.Notes != nil {
			sale.Notes = cleanNotes(input.Notes)
		}
		sale.Customer = nil
		if err := repo.Save(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sale")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (*SaleDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment status %q", status)
	}
	var (
		updated    *models.Sale
		becamePaid bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sale, err := s.loadMutable(ctx, repo, id)
		if err != nil {
			return err
		}
		if sale.PaymentStatus == status {
			updated = sale
			return nil
		}
		becamePaid = status.IsPaid()
		sale.PaymentStatus = status
		if status.IsPaid() {
			now := s.now().UTC()
			sale.PaidAt = &now
		} else {
			sale.PaidAt = nil
		}
		sale.Customer = nil
		if err := repo.Save(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		updated = sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	if becamePaid {
		s.afterPaid(ctx, updated)
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.loadMutable(ctx, repo, id); err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete sale")
		}
		return nil
	})
}

// afterPaid runs the allocation engine once the sale commit is visible.
func (s *service) afterPaid(ctx context.Context, sale *models.Sale) {
	if s.allocate == nil || sale == nil {
		return
	}
	if sale.SaleType != enums.SaleTypeBolaoQuota || !sale.PaymentStatus.IsPaid() {
		return
	}
	logCtx := s.logg.WithSaleID(ctx, sale.ID.String())
	if err := s.allocate(ctx, sale.ID, sale.EditionID); err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "sales.allocation_deferred")
	}
}

func (s *service) newSale(ctx context.Context, tx *gorm.DB, edition *models.Edition, customerID uuid.UUID, saleType enums.SaleType, quantity int, amount *int64, seller types.Seller) (*models.Sale, error) {
	if !saleType.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid sale type %q", saleType)
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quotas_quantity must be at least 1")
	}
	if saleType == enums.SaleTypeIndividualCard {
		quantity = 1
	}
	if err := s.sellers.Resolve(ctx, tx, seller); err != nil {
		return nil, err
	}
	total := edition.UnitPrice(saleType) * int64(quantity)
	if amount != nil {
		if *amount < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
		}
		total = *amount
	}
	sale := &models.Sale{
		CustomerID:     customerID,
		EditionID:      edition.ID,
		SaleType:       saleType,
		Amount:         total,
		QuotasQuantity: quantity,
	}
	sale.SetSeller(seller)
	return sale, nil
}

// insert writes the sale and, for individual cards, its card row.
func (s *service) insert(ctx context.Context, repo Repository, sale *models.Sale) error {
	if err := repo.Create(ctx, sale); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
	}
	if sale.SaleType != enums.SaleTypeIndividualCard {
		return nil
	}
	if err := repo.CreateIndividualCard(ctx, &models.IndividualCard{SaleID: sale.ID}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create individual card")
	}
	return nil
}

func (s *service) resolveEdition(ctx context.Context, repo Repository, id *uuid.UUID) (*models.Edition, error) {
	var (
		edition *models.Edition
		err     error
	)
	if id == nil || *id == uuid.Nil {
		edition, err = repo.ActiveEdition(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active edition")
		}
		if edition == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "edition_id required when no edition is active")
		}
	} else {
		edition, err = repo.FindEdition(ctx, *id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "edition not found").WithDetail("edition_id", "unknown edition")
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load edition")
		}
	}
	if edition.Status == enums.EditionStatusFinalized {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "edition is finalized").WithDetail("edition_number", edition.Number)
	}
	return edition, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Sale, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}
	sale, err := repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return sale, nil
}

// loadMutable rejects sales already seated in a bolão group.
func (s *service) loadMutable(ctx context.Context, repo Repository, id uuid.UUID) (*models.Sale, error) {
	sale, err := s.load(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	allocated, err := repo.HasQuota(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check sale allocation")
	}
	if allocated {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sale already allocated to a bolão group").
			WithDetail("sale_id", id.String())
	}
	return sale, nil
}

func validateFilters(params ListParams) error {
	details := map[string]any{}
	if params.SaleType != nil && !params.SaleType.IsValid() {
		details["sale_type"] = "is invalid"
	}
	if params.PaymentStatus != nil && !params.PaymentStatus.IsValid() {
		details["payment_status"] = "is invalid"
	}
	if params.Origin != nil && !params.Origin.IsValid() {
		details["sale_origin"] = "is invalid"
	}
	if params.From != nil && params.To != nil && !params.From.Before(*params.To) {
		details["to"] = "must be after from"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid filters").WithDetails(details)
	}
	return nil
}

func cleanNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
