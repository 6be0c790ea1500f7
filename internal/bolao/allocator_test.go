package bolao

import (
	"context"
	"testing"

	"github.com/cartelabolao/cartela-admin/pkg/db"
	"github.com/cartelabolao/cartela-admin/pkg/db/dbtest"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/cartelabolao/cartela-admin/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestAllocator(t *testing.T) (*Allocator, *db.Client, *prometheus.Registry) {
	t.Helper()
	client := dbtest.New(t)
	reg := prometheus.NewRegistry()
	alloc, err := NewAllocator(NewRepository(client.DB()), client, nil, metrics.NewAutomationMetrics(reg))
	require.NoError(t, err)
	return alloc, client, reg
}

func allocationCount(t *testing.T, reg *prometheus.Registry, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "cartela_bolao_allocations_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "result" && label.GetValue() == result {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func loadGroups(t *testing.T, client *db.Client, editionID uuid.UUID) []models.BolaoGroup {
	t.Helper()
	var groups []models.BolaoGroup
	require.NoError(t, client.DB().Where("edition_id = ?", editionID).Order("group_number").Find(&groups).Error)
	return groups
}

func TestAllocateQuotaFillsGroupsInOrder(t *testing.T) {
	alloc, client, reg := newTestAllocator(t)
	ctx := context.Background()
	edition := dbtest.SeedEdition(t, client.DB())
	customer := dbtest.SeedCustomer(t, client.DB(), "Ana", "")

	var results []*AllocationResult
	for i := 0; i < 11; i++ {
		sale := dbtest.SeedSale(t, client.DB(), edition, customer, enums.SaleTypeBolaoQuota)
		result, err := alloc.AllocateQuota(ctx, sale.ID, edition.ID)
		require.NoError(t, err)
		results = append(results, result)
	}

	for i := 0; i < 10; i++ {
		require.Equal(t, 1, results[i].GroupNumber)
		require.Equal(t, i+1, results[i].QuotaNumber)
		require.Equal(t, i == 9, results[i].GroupComplete)
	}
	require.Equal(t, 2, results[10].GroupNumber)
	require.Equal(t, 1, results[10].QuotaNumber)
	require.False(t, results[10].GroupComplete)

	groups := loadGroups(t, client, edition.ID)
	require.Len(t, groups, 2)
	require.Equal(t, 10, groups[0].TotalQuotas)
	require.True(t, groups[0].IsComplete)
	require.Equal(t, enums.GroupStateComplete, groups[0].State())
	require.Equal(t, 1, groups[1].TotalQuotas)
	require.False(t, groups[1].IsComplete)
	require.Equal(t, 10, groups[1].MaxQuotas)

	require.Equal(t, float64(11), allocationCount(t, reg, metrics.AllocationAllocated))
}

func TestAllocateQuotaIsIdempotent(t *testing.T) {
	alloc, client, reg := newTestAllocator(t)
	ctx := context.Background()
	edition := dbtest.SeedEdition(t, client.DB())
	customer := dbtest.SeedCustomer(t, client.DB(), "Ana", "")
	sale := dbtest.SeedSale(t, client.DB(), edition, customer, enums.SaleTypeBolaoQuota)

	first, err := alloc.AllocateQuota(ctx, sale.ID, edition.ID)
	require.NoError(t, err)
	require.False(t, first.AlreadyAllocated)

	second, err := alloc.AllocateQuota(ctx, sale.ID, edition.ID)
	require.NoError(t, err)
	require.True(t, second.AlreadyAllocated)
	require.Equal(t, first.GroupID, second.GroupID)
	require.Equal(t, first.QuotaNumber, second.QuotaNumber)

	var count int64
	require.NoError(t, client.DB().Model(&models.BolaoQuota{}).Where("sale_id = ?", sale.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
	require.Equal(t, 1, loadGroups(t, client, edition.ID)[0].TotalQuotas)
	require.Equal(t, float64(1), allocationCount(t, reg, metrics.AllocationNoop))
}

func TestAllocateQuotaSoftFailures(t *testing.T) {
	alloc, client, reg := newTestAllocator(t)
	ctx := context.Background()
	edition := dbtest.SeedEdition(t, client.DB())
	other := dbtest.SeedEdition(t, client.DB(), dbtest.WithStatus(enums.EditionStatusDraft))
	customer := dbtest.SeedCustomer(t, client.DB(), "Ana", "")

	pending := dbtest.SeedSale(t, client.DB(), edition, customer, enums.SaleTypeBolaoQuota, dbtest.WithPaymentStatus(enums.PaymentStatusPending))
	_, err := alloc.AllocateQuota(ctx, pending.ID, edition.ID)
	require.ErrorIs(t, err, ErrSaleNotEligible)

	card := dbtest.SeedSale(t, client.DB(), edition, customer, enums.SaleTypeIndividualCard)
	_, err = alloc.AllocateQuota(ctx, card.ID, edition.ID)
	require.ErrorIs(t, err, ErrSaleNotEligible)

	paid := dbtest.SeedSale(t, client.DB(), edition, customer, enums.SaleTypeBolaoQuota)
	_, err = alloc.AllocateQuota(ctx, paid.ID, other.ID)
	require.ErrorIs(t, err, ErrSaleNotEligible)

	_, err = alloc.AllocateQuota(ctx, uuid.New(), edition.ID)
	require.ErrorIs(t, err, ErrSaleNotFound)

	_, err = alloc.AllocateQuota(ctx, paid.ID, uuid.New())
	require.ErrorIs(t, err, ErrEditionNotFound)

	require.Empty(t, loadGroups(t, client, edition.ID))
	require.Equal(t, float64(5), allocationCount(t, reg, metrics.AllocationSkipped))
}

func TestAllocateQuotaUsesFirstOpenGroup(t *testing.T) {
	alloc, client, _ := newTestAllocator(t)
	ctx := context.Background()
	edition := dbtest.SeedEdition(t, client.DB(), dbtest.WithQuotasPerGroup(2))
	customer := dbtest.SeedCustomer(t, client.DB(), "Ana", "")

	// a manually opened second group stays behind the first open one
	full := &models.BolaoGroup{EditionID: edition.ID, GroupNumber: 1, MaxQuotas: 2, TotalQuotas: 2, IsComplete: true}
	open := &models.BolaoGroup{EditionID: edition.ID, GroupNumber: 2, MaxQuotas: 5}
	later := &models.BolaoGroup{EditionID: edition.ID, GroupNumber: 3, MaxQuotas: 5}
	for _, g := range []*models.BolaoGroup{full, open, later} {
		require.NoError(t, client.DB().Create(g).Error)
	}

	sale := dbtest.SeedSale(t, client.DB(), edition, customer, enums.SaleTypeBolaoQuota)
	result, err := alloc.AllocateQuota(ctx, sale.ID, edition.ID)
	require.NoError(t, err)
	require.Equal(t, open.ID, result.GroupID)
	require.Equal(t, 1, result.QuotaNumber)
	require.False(t, result.GroupComplete)
}

// staleQuotaRepository misses the first quota lookup, as a transaction would
// when a concurrent allocator commits the same sale right after the check.
type staleQuotaRepository struct {
	Repository
	lookups *int
}

func (r staleQuotaRepository) WithTx(tx *gorm.DB) Repository {
	return staleQuotaRepository{Repository: r.Repository.WithTx(tx), lookups: r.lookups}
}

func (r staleQuotaRepository) QuotaForSale(ctx context.Context, saleID uuid.UUID) (*models.BolaoQuota, error) {
	*r.lookups++
	if *r.lookups == 1 {
		return nil, nil
	}
	return r.Repository.QuotaForSale(ctx, saleID)
}

func TestAllocateQuotaMapsConcurrentInsertToNoop(t *testing.T) {
	rival, client, _ := newTestAllocator(t)
	ctx := context.Background()
	edition := dbtest.SeedEdition(t, client.DB())
	customer := dbtest.SeedCustomer(t, client.DB(), "Ana", "")
	sale := dbtest.SeedSale(t, client.DB(), edition, customer, enums.SaleTypeBolaoQuota)

	seated, err := rival.AllocateQuota(ctx, sale.ID, edition.ID)
	require.NoError(t, err)

	lookups := 0
	reg := prometheus.NewRegistry()
	repo := staleQuotaRepository{Repository: NewRepository(client.DB()), lookups: &lookups}
	alloc, err := NewAllocator(repo, client, nil, metrics.NewAutomationMetrics(reg))
	require.NoError(t, err)

	result, err := alloc.AllocateQuota(ctx, sale.ID, edition.ID)
	require.NoError(t, err)
	require.True(t, result.AlreadyAllocated)
	require.Equal(t, seated.GroupID, result.GroupID)
	require.Equal(t, seated.QuotaNumber, result.QuotaNumber)
	require.Equal(t, 2, lookups)

	var count int64
	require.NoError(t, client.DB().Model(&models.BolaoQuota{}).Where("sale_id = ?", sale.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
	require.Equal(t, 1, loadGroups(t, client, edition.ID)[0].TotalQuotas)
	require.Equal(t, float64(1), allocationCount(t, reg, metrics.AllocationNoop))
	require.Zero(t, allocationCount(t, reg, metrics.AllocationFailed))
}
