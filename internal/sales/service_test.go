package sales

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cartelabolao/cartela-admin/internal/customers"
	"github.com/cartelabolao/cartela-admin/internal/sellers"
	"github.com/cartelabolao/cartela-admin/pkg/db"
	"github.com/cartelabolao/cartela-admin/pkg/db/dbtest"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	dbtypes "github.com/cartelabolao/cartela-admin/pkg/db/types"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type allocation struct {
	saleID    uuid.UUID
	editionID uuid.UUID
}

type recordingAllocator struct {
	mu    sync.Mutex
	calls []allocation
	err   error
}

func (r *recordingAllocator) allocate(_ context.Context, saleID, editionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, allocation{saleID: saleID, editionID: editionID})
	return r.err
}

func newTestService(t *testing.T) (Service, *db.Client, *recordingAllocator) {
	t.Helper()
	client := dbtest.New(t)
	customerSvc, err := customers.NewService(customers.NewRepository(client.DB()))
	require.NoError(t, err)
	sellerSvc, err := sellers.NewService(sellers.NewRepository(client.DB()))
	require.NoError(t, err)
	alloc := &recordingAllocator{}
	svc, err := NewService(NewRepository(client.DB()), client, Deps{
		Customers: customerSvc,
		Sellers:   sellerSvc,
		Allocate:  alloc.allocate,
	})
	require.NoError(t, err)
	return svc, client, alloc
}

func TestCreateBolaoSaleDefaultsAmountAndAllocates(t *testing.T) {
	svc, client, alloc := newTestService(t)
	ctx := context.Background()
	edition := dbtest.SeedEdition(t, client.DB())
	customer := dbtest.SeedCustomer(t, client.DB(), "Maria", "")

	sale, err := svc.Create(ctx, CreateSaleInput{
		CustomerID:     customer.ID,
		SaleType:       enums.SaleTypeBolaoQuota,
		QuotasQuantity: 2,
		PaymentStatus:  enums.PaymentStatusPaid,
	})
	require.NoError(t, err)
	require.Equal(t, edition.ID, sale.EditionID)
	require.Equal(t, int64(5000), sale.Amount)
	require.NotNil(t, sale.PaidAt)
	require.Equal(t, enums.SaleOriginDirect, sale.SaleOrigin)
	require.NotNil(t, sale.Customer)
	require.Equal(t, "Maria", sale.Customer.Name)

	require.Len(t, alloc.calls, 1)
	require.Equal(t, allocation{saleID: sale.ID, editionID: edition.ID}, alloc.calls[0])
}

func TestCreatePendingSaleDoesNotAllocate(t *testing.T) {
	svc, client, alloc := newTestService(t)
	dbtest.SeedEdition(t, client.DB())
	customer := dbtest.SeedCustomer(t, client.DB(), "Maria", "")

	sale, err := svc.Create(context.Background(), CreateSaleInput{CustomerID: customer.ID, SaleType: enums.SaleTypeBolaoQuota})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPending, sale.PaymentStatus)
	require.Nil(t, sale.PaidAt)
	require.Empty(t, alloc.calls)
}

func TestCreateIndividualCardSaleCreatesCard(t *testing.T) {
	svc, client, alloc := newTestService(t)
	dbtest.SeedEdition(t, client.DB())
	customer := dbtest.SeedCustomer(t, client.DB(), "João", "")

	sale, err := svc.Create(context.Background(), CreateSaleInput{
		CustomerID:     customer.ID,
		SaleType:       enums.SaleTypeIndividualCard,
		QuotasQuantity: 3,
		PaymentStatus:  enums.PaymentStatusPaid,
	})
	require.NoError(t, err)
	require.Equal(t, 1, sale.QuotasQuantity)
	require.Equal(t, int64(1000), sale.Amount)
	require.Empty(t, alloc.calls)

	var card models.IndividualCard
	require.NoError(t, client.DB().Where("sale_id = ?", sale.ID).First(&card).Error)
	require.False(t, card.CardSent)
}

func TestCreateRejectsFinalizedEditionAndUnknownCustomer(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	finalized := dbtest.SeedEdition(t, client.DB(), dbtest.WithStatus(enums.EditionStatusFinalized))
	customer := dbtest.SeedCustomer(t, client.DB(), "Ana", "")

	_, err := svc.Create(ctx, CreateSaleInput{CustomerID: customer.ID, EditionID: &finalized.ID, SaleType: enums.SaleTypeBolaoQuota})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	active := dbtest.SeedEdition(t, client.DB())
	_, err = svc.Create(ctx, CreateSaleInput{CustomerID: uuid.New(), EditionID: &active.ID, SaleType: enums.SaleTypeBolaoQuota})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, CreateSaleInput{CustomerID: customer.ID, SaleType: "raspadinha"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateChecksSellerKind(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	dbtest.SeedEdition(t, client.DB())
	customer := dbtest.SeedCustomer(t, client.DB(), "Ana", "")
	reseller := dbtest.SeedSeller(t, client.DB(), enums.SellerKindReseller, "Banca")

	_, err := svc.Create(ctx, CreateSaleInput{
		CustomerID: customer.ID,
		SaleType:   enums.SaleTypeBolaoQuota,
		Seller:     types.PromoterSeller(reseller.ID),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	sale, err := svc.Create(ctx, CreateSaleInput{
		CustomerID: customer.ID,
		SaleType:   enums.SaleTypeBolaoQuota,
		Seller:     types.ResellerSeller(reseller.ID),
	})
	require.NoError(t, err)
	require.Equal(t, enums.SaleOriginReseller, sale.SaleOrigin)
	require.Equal(t, reseller.ID, *sale.SellerID)
}

func TestUpdatePaymentStatusManagesPaidAt(t *testing.T) {
	svc, client, alloc := newTestService(t)
	ctx := context.Background()
	edition := dbtest.SeedEdition(t, client.DB())
	customer := dbtest.SeedCustomer(t, client.DB(), "Ana", "")
	seeded := dbtest.SeedSale(t, client.DB(), edition, customer, enums.SaleTypeBolaoQuota, dbtest.WithPaymentStatus(enums.PaymentStatusPending))

	paid, err := svc.UpdatePaymentStatus(ctx, seeded.ID, enums.PaymentStatusPaid)
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)
	require.Len(t, alloc.calls, 1)

	// same status is a no-op and must not re-trigger allocation
	_, err = svc.UpdatePaymentStatus(ctx, seeded.ID, enums.PaymentStatusPaid)
	require.NoError(t, err)
	require.Len(t, alloc.calls, 1)

	refunded, err := svc.UpdatePaymentStatus(ctx, seeded.ID, enums.PaymentStatusRefunded)
	require.NoError(t, err)
	require.Nil(t, refunded.PaidAt)

	_, err = svc.UpdatePaymentStatus(ctx, seeded.ID, "estornado")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAllocationFailureDoesNotFailSale(t *testing.T) {
	svc, client, alloc := newTestService(t)
	alloc.err = pkgerrors.New(pkgerrors.CodeDependency, "boom")
	dbtest.SeedEdition(t, client.DB())
	customer := dbtest.SeedCustomer(t, client.DB(), "Ana", "")

	sale, err := svc.Create(context.Background(), CreateSaleInput{
		CustomerID:    customer.ID,
		SaleType:      enums.SaleTypeBolaoQuota,
		PaymentStatus: enums.PaymentStatusPaid,
	})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, sale.PaymentStatus)
}

func TestAllocatedSaleIsImmutable(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	edition := dbtest.SeedEdition(t, client.DB())
	customer := dbtest.SeedCustomer(t, client.DB(), "Ana", "")
	sale := dbtest.SeedSale(t, client.DB(), edition, customer, enums.SaleTypeBolaoQuota)

	group := &models.BolaoGroup{EditionID: edition.ID, GroupNumber: 1, MaxQuotas: 10, TotalQuotas: 1}
	require.NoError(t, client.DB().Create(group).Error)
	require.NoError(t, client.DB().Omit("Sale").Create(&models.BolaoQuota{
		GroupID:      group.ID,
		SaleID:       sale.ID,
		QuotaNumbers: dbtypes.IntArray{1},
	}).Error)

	amount := int64(1)
	_, err := svc.Update(ctx, sale.ID, UpdateSaleInput{Amount: &amount})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.UpdatePaymentStatus(ctx, sale.ID, enums.PaymentStatusRefunded)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	require.True(t, pkgerrors.IsCode(svc.Delete(ctx, sale.ID), pkgerrors.CodeStateConflict))

	got, err := svc.Get(ctx, sale.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, got.PaymentStatus)
}

func TestUpdateAndDeleteUnallocatedSale(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	edition := dbtest.SeedEdition(t, client.DB())
	customer := dbtest.SeedCustomer(t, client.DB(), "Ana", "")
	promoter := dbtest.SeedSeller(t, client.DB(), enums.SellerKindPromoter, "Carla")
	sale := dbtest.SeedSale(t, client.DB(), edition, customer, enums.SaleTypeIndividualCard, dbtest.WithPaymentStatus(enums.PaymentStatusPending))

	amount := int64(1500)
	notes := "  pago em dinheiro "
	seller := types.PromoterSeller(promoter.ID)
	updated, err := svc.Update(ctx, sale.ID, UpdateSaleInput{Amount: &amount, Notes: &notes, Seller: &seller})
	require.NoError(t, err)
	require.Equal(t, int64(1500), updated.Amount)
	require.Equal(t, "pago em dinheiro", *updated.Notes)
	require.Equal(t, enums.SaleOriginPromoter, updated.SaleOrigin)

	require.NoError(t, svc.Delete(ctx, sale.ID))
	_, err = svc.Get(ctx, sale.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.True(t, pkgerrors.IsCode(svc.Delete(ctx, sale.ID), pkgerrors.CodeNotFound))
}

func TestPublicCheckoutRegistersAndDedupsCustomer(t *testing.T) {
	svc, client, alloc := newTestService(t)
	ctx := context.Background()
	dbtest.SeedEdition(t, client.DB())

	input := PublicSaleInput{
		Customer: customers.CustomerInput{Name: "Paula", Phone: "(21) 98888-1234"},
		SaleType: enums.SaleTypeBolaoQuota,
	}
	first, err := svc.PublicCheckout(ctx, input)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPending, first.PaymentStatus)
	require.Equal(t, int64(2500), first.Amount)

	second, err := svc.PublicCheckout(ctx, input)
	require.NoError(t, err)
	require.Equal(t, first.CustomerID, second.CustomerID)
	require.Empty(t, alloc.calls)

	var count int64
	require.NoError(t, client.DB().Model(&models.Customer{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestPublicCheckoutHonoursPauseAndActiveEdition(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	input := PublicSaleInput{
		Customer: customers.CustomerInput{Name: "Paula", Phone: "21988881234"},
		SaleType: enums.SaleTypeIndividualCard,
	}

	_, err := svc.PublicCheckout(ctx, input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	edition := dbtest.SeedEdition(t, client.DB())
	require.NoError(t, client.DB().Model(edition).Update("sales_paused", true).Error)
	_, err = svc.PublicCheckout(ctx, input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	// admin sales still go through while the public checkout is paused
	customer := dbtest.SeedCustomer(t, client.DB(), "Balcão", "")
	_, err = svc.Create(ctx, CreateSaleInput{CustomerID: customer.ID, SaleType: enums.SaleTypeIndividualCard})
	require.NoError(t, err)
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	edition := dbtest.SeedEdition(t, client.DB())
	customer := dbtest.SeedCustomer(t, client.DB(), "Ana", "")
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		dbtest.SeedSale(t, client.DB(), edition, customer, enums.SaleTypeBolaoQuota, dbtest.WithCreatedAt(base.Add(time.Duration(i)*time.Minute)))
	}
	dbtest.SeedSale(t, client.DB(), edition, customer, enums.SaleTypeIndividualCard, dbtest.WithPaymentStatus(enums.PaymentStatusPending))

	bolao := enums.SaleTypeBolaoQuota
	page, err := svc.List(ctx, ListParams{SaleType: &bolao, Limit: 3})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	require.NotEmpty(t, page.Cursor)
	require.True(t, page.Items[0].CreatedAt.After(page.Items[2].CreatedAt))

	rest, err := svc.List(ctx, ListParams{SaleType: &bolao, Limit: 3, Cursor: page.Cursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 2)
	require.Empty(t, rest.Cursor)

	pending := enums.PaymentStatusPending
	pendingPage, err := svc.List(ctx, ListParams{PaymentStatus: &pending})
	require.NoError(t, err)
	require.Len(t, pendingPage.Items, 1)
	require.Equal(t, enums.SaleTypeIndividualCard, pendingPage.Items[0].SaleType)

	bad := enums.SaleType("nope")
	_, err = svc.List(ctx, ListParams{SaleType: &bad})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.List(ctx, ListParams{Cursor: "%%%"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
