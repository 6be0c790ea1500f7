package bolao

import (
	"context"
	"testing"

	"github.com/cartelabolao/cartela-admin/pkg/db/dbtest"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, opts ...dbtest.EditionOption) (Service, automationFixture) {
	t.Helper()
	f := newAutomationFixture(t, opts...)
	svc, err := NewService(NewRepository(f.client.DB()), f.client, f.automation)
	require.NoError(t, err)
	return svc, f
}

func TestRegisterUploadMarksGroupReady(t *testing.T) {
	svc, f := newTestService(t, dbtest.WithQuotasPerGroup(2))
	ctx := context.Background()
	group := f.seedFullGroup(t, 2, false)

	other, err := svc.RegisterUpload(ctx, RegisterUploadInput{GroupID: &group.ID, FileName: "nota.pdf", FileURL: "https://cdn/nota.pdf", UploadType: enums.UploadTypeOther})
	require.NoError(t, err)
	require.Equal(t, enums.UploadTypeOther, other.UploadType)
	detail, err := svc.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Equal(t, enums.GroupStateComplete, detail.State)

	_, err = svc.RegisterUpload(ctx, RegisterUploadInput{GroupID: &group.ID, FileName: "cartelas.png", FileURL: "https://cdn/cartelas.png", UploadType: enums.UploadTypeGroupCards})
	require.NoError(t, err)

	detail, err = svc.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	require.True(t, detail.CardsUploaded)
	require.Equal(t, enums.GroupStateCardsReady, detail.State)
	require.Len(t, detail.Quotas, 2)
	require.Equal(t, "Cliente", detail.Quotas[0].CustomerName)

	uploads, err := svc.ListUploads(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, uploads, 2)

	summary, err := svc.SendReady(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Sent)
}

func TestRegisterUploadValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RegisterUpload(ctx, RegisterUploadInput{FileName: "a.png", FileURL: "https://cdn/a.png", UploadType: enums.UploadTypeGroupCards})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.RegisterUpload(ctx, RegisterUploadInput{FileName: "a.png", FileURL: "https://cdn/a.png", UploadType: "zip"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	missing := uuid.New()
	_, err = svc.RegisterUpload(ctx, RegisterUploadInput{GroupID: &missing, FileName: "a.png", FileURL: "https://cdn/a.png", UploadType: enums.UploadTypeGroupCards})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	loose, err := svc.RegisterUpload(ctx, RegisterUploadInput{FileName: " solto.png ", FileURL: "https://cdn/solto.png"})
	require.NoError(t, err)
	require.Equal(t, "solto.png", loose.FileName)
	require.Equal(t, enums.UploadTypeOther, loose.UploadType)
}

func TestResetSentAllowsResend(t *testing.T) {
	svc, f := newTestService(t, dbtest.WithQuotasPerGroup(1))
	ctx := context.Background()
	group := f.seedFullGroup(t, 1, true)

	_, err := svc.SendReady(ctx)
	require.NoError(t, err)

	reset, err := svc.ResetSent(ctx, group.ID)
	require.NoError(t, err)
	require.False(t, reset.CardsSent)
	require.Nil(t, reset.CardsSentAt)
	require.Equal(t, enums.GroupStateCardsReady, reset.State)

	summary, err := svc.SendReady(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Sent)
	require.Len(t, f.mock.Batches(), 2)
}

func TestCreateGroupAndListByState(t *testing.T) {
	svc, f := newTestService(t, dbtest.WithQuotasPerGroup(1))
	ctx := context.Background()
	f.seedFullGroup(t, 1, false)

	capacity := 25
	created, err := svc.CreateGroup(ctx, CreateGroupInput{EditionID: f.edition.ID, MaxQuotas: &capacity})
	require.NoError(t, err)
	require.Equal(t, 2, created.GroupNumber)
	require.Equal(t, 25, created.MaxQuotas)
	require.Equal(t, enums.GroupStateOpen, created.State)

	defaulted, err := svc.CreateGroup(ctx, CreateGroupInput{EditionID: f.edition.ID})
	require.NoError(t, err)
	require.Equal(t, 3, defaulted.GroupNumber)
	require.Equal(t, 1, defaulted.MaxQuotas)

	open := enums.GroupStateOpen
	groups, err := svc.ListGroups(ctx, ListGroupsParams{EditionID: &f.edition.ID, State: &open})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	complete := enums.GroupStateComplete
	groups, err = svc.ListGroups(ctx, ListGroupsParams{State: &complete})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, 1, groups[0].GroupNumber)

	bad := enums.GroupState("closed")
	_, err = svc.ListGroups(ctx, ListGroupsParams{State: &bad})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateGroup(ctx, CreateGroupInput{EditionID: uuid.New()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestProcessPendingRunsRegardlessOfToggle(t *testing.T) {
	svc, f := newTestService(t)
	customer := dbtest.SeedCustomer(t, f.client.DB(), "Ana", "")
	dbtest.SeedSale(t, f.client.DB(), f.edition, customer, enums.SaleTypeBolaoQuota)

	summary, err := svc.ProcessPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Allocated)
}
