package editions

import (
	"context"
	"testing"
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/db"
	"github.com/cartelabolao/cartela-admin/pkg/db/dbtest"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.New(t)
	svc, err := NewService(NewRepository(client.DB()), client)
	require.NoError(t, err)
	return svc, client
}

func validInput() CreateEditionInput {
	return CreateEditionInput{
		DrawDate:            time.Date(2026, 4, 18, 20, 0, 0, 0, time.UTC),
		IndividualCardPrice: 1000,
		BolaoQuotaPrice:     2500,
		QuotasPerGroup:      10,
		CardsPerGroup:       10,
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	second, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	require.Equal(t, 1, first.Number)
	require.Equal(t, 2, second.Number)
	require.Equal(t, enums.EditionStatusDraft, first.Status)
}

func TestCreateValidates(t *testing.T) {
	svc, _ := newTestService(t)
	input := validInput()
	input.QuotasPerGroup = 0
	input.BolaoQuotaPrice = -1

	_, err := svc.Create(context.Background(), input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]any)
	require.Contains(t, details, "quotas_per_group")
	require.Contains(t, details, "bolao_quota_price")
}

func TestLifecycleTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Finalize(ctx, created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	active, err := svc.Activate(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, enums.EditionStatusActive, active.Status)

	_, err = svc.Activate(ctx, created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	final, err := svc.Finalize(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, enums.EditionStatusFinalized, final.Status)

	_, err = svc.Update(ctx, created.ID, UpdateEditionInput{CardsPerGroup: ptr(5)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestOnlyOneEditionActive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	second, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Activate(ctx, first.ID)
	require.NoError(t, err)

	_, err = svc.Activate(ctx, second.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	current, err := svc.GetActive(ctx)
	require.NoError(t, err)
	require.Equal(t, first.ID, current.ID)

	_, err = svc.Finalize(ctx, first.ID)
	require.NoError(t, err)
	_, err = svc.Activate(ctx, second.ID)
	require.NoError(t, err)
}

func TestGetActiveNone(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetActive(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateAndPause(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateEditionInput{BolaoQuotaPrice: ptr[int64](3000), QuotasPerGroup: ptr(20)})
	require.NoError(t, err)
	require.EqualValues(t, 3000, updated.BolaoQuotaPrice)
	require.Equal(t, 20, updated.QuotasPerGroup)
	require.EqualValues(t, 1000, updated.IndividualCardPrice)

	paused, err := svc.SetSalesPaused(ctx, created.ID, true)
	require.NoError(t, err)
	require.True(t, paused.SalesPaused)

	reloaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, reloaded.SalesPaused)
}

func TestListFiltersByStatus(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	dbtest.SeedEdition(t, client.DB(), dbtest.WithStatus(enums.EditionStatusFinalized))
	dbtest.SeedEdition(t, client.DB())
	dbtest.SeedEdition(t, client.DB(), dbtest.WithStatus(enums.EditionStatusDraft))

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, 3, all[0].Number)

	status := enums.EditionStatusActive
	active, err := svc.List(ctx, &status)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, 2, active[0].Number)

	bad := enums.EditionStatus("archived")
	_, err = svc.List(ctx, &bad)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeleteBlockedBySales(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	edition := dbtest.SeedEdition(t, client.DB())
	customer := dbtest.SeedCustomer(t, client.DB(), "Maria", "")
	dbtest.SeedSale(t, client.DB(), edition, customer, enums.SaleTypeIndividualCard)

	err := svc.Delete(ctx, edition.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestDeleteRemovesEmptyGroups(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	edition := dbtest.SeedEdition(t, client.DB(), dbtest.WithStatus(enums.EditionStatusDraft))
	group := &models.BolaoGroup{EditionID: edition.ID, GroupNumber: 1, MaxQuotas: 10}
	require.NoError(t, client.DB().Create(group).Error)
	require.NoError(t, client.DB().Create(&models.CardUpload{GroupID: &group.ID, FileName: "g.png", FileURL: "https://x/g.png", UploadType: enums.UploadTypeGroupCards}).Error)

	require.NoError(t, svc.Delete(ctx, edition.ID))

	_, err := svc.Get(ctx, edition.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	var groups int64
	require.NoError(t, client.DB().Model(&models.BolaoGroup{}).Count(&groups).Error)
	require.Zero(t, groups)

	err = svc.Delete(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func ptr[T any](v T) *T {
	return &v
}
