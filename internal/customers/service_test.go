package customers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cartelabolao/cartela-admin/pkg/db"
	"github.com/cartelabolao/cartela-admin/pkg/db/dbtest"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.New(t)
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)
	return svc, client
}

func TestCustomerInputAcceptsLegacyKeys(t *testing.T) {
	var legacy CustomerInput
	require.NoError(t, json.Unmarshal([]byte(`{"nome":"João","contato":"(11) 98888-7777"}`), &legacy))
	require.Equal(t, "João", legacy.Name)
	require.Equal(t, "(11) 98888-7777", legacy.Phone)

	var telefone CustomerInput
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ana","telefone":"11977776666","cpf":"123.456.789-09"}`), &telefone))
	require.Equal(t, "11977776666", telefone.Phone)
	require.Equal(t, "123.456.789-09", *telefone.CPF)

	var canonical CustomerInput
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ana","nome":"Outra","phone":"1"}`), &canonical))
	require.Equal(t, "Ana", canonical.Name)

	var unknown CustomerInput
	require.Error(t, json.Unmarshal([]byte(`{"name":"Ana","idade":30}`), &unknown))
}

func TestUpdateInputAdapter(t *testing.T) {
	var in UpdateCustomerInput
	require.NoError(t, json.Unmarshal([]byte(`{"contato":"11999990000","ativo":false}`), &in))
	require.Nil(t, in.Name)
	require.Equal(t, "11999990000", *in.Phone)
	require.False(t, *in.Active)
}

func TestCreateNormalizes(t *testing.T) {
	svc, _ := newTestService(t)
	email := "  Joao@Example.COM "
	cpf := "123.456.789-09"

	created, err := svc.Create(context.Background(), CustomerInput{
		Name:  "  João   da Silva ",
		Phone: "(11) 98888-7777",
		Email: &email,
		CPF:   &cpf,
	})
	require.NoError(t, err)
	require.Equal(t, "João da Silva", created.Name)
	require.Equal(t, "11988887777", created.Phone)
	require.Equal(t, "joao@example.com", *created.Email)
	require.Equal(t, "12345678909", *created.CPF)
	require.True(t, created.Active)
}

func TestCreateRejectsInvalidAndDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CustomerInput{Name: "", Phone: "123"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]any)
	require.Contains(t, details, "name")
	require.Contains(t, details, "phone")

	_, err = svc.Create(ctx, CustomerInput{Name: "Ana", Phone: "11977776666"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CustomerInput{Name: "Ana B", Phone: "(11) 97777-6666"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestListSearchIsAccentInsensitive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, in := range []CustomerInput{
		{Name: "José Antônio", Phone: "11911112222"},
		{Name: "Maria", Phone: "21933334444"},
		{Name: "50%_off", Phone: "31955556666"},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, ListParams{Query: "JOSE antonio"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "José Antônio", page.Items[0].Name)

	page, err = svc.List(ctx, ListParams{Query: "3333"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "Maria", page.Items[0].Name)

	page, err = svc.List(ctx, ListParams{Query: "%_"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	page, err = svc.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
}

func TestListPaginatesAndFiltersActive(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		dbtest.SeedCustomer(t, client.DB(), "c", "")
	}
	inactive := dbtest.SeedCustomer(t, client.DB(), "gone", "")
	require.NoError(t, svc.Delete(ctx, inactive.ID))

	first, err := svc.List(ctx, ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.Cursor)

	second, err := svc.List(ctx, ListParams{Limit: 2, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	require.Empty(t, second.Cursor)
	require.NotEqual(t, first.Items[1].ID, second.Items[0].ID)

	active := true
	onlyActive, err := svc.List(ctx, ListParams{Active: &active})
	require.NoError(t, err)
	require.Len(t, onlyActive.Items, 3)

	_, err = svc.List(ctx, ListParams{Cursor: "%%%"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateAndSoftDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CustomerInput{Name: "Ana", Phone: "11977776666"})
	require.NoError(t, err)

	name := "Ana Paula"
	empty := ""
	updated, err := svc.Update(ctx, created.ID, UpdateCustomerInput{Name: &name, Email: &empty})
	require.NoError(t, err)
	require.Equal(t, "Ana Paula", updated.Name)
	require.Nil(t, updated.Email)
	require.Equal(t, "11977776666", updated.Phone)

	page, err := svc.List(ctx, ListParams{Query: "paula"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	require.True(t, pkgerrors.IsCode(svc.Delete(ctx, uuid.New()), pkgerrors.CodeNotFound))
	_, err = svc.Get(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFindOrCreateDedupsByPhoneOrCPF(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	cpf := "12345678909"

	var first, second, third uuid.UUID
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		c, created, err := svc.FindOrCreate(ctx, tx, CustomerInput{Name: "Ana", Phone: "11977776666", CPF: &cpf})
		require.NoError(t, err)
		require.True(t, created)
		first = c.ID

		c, created, err = svc.FindOrCreate(ctx, tx, CustomerInput{Name: "Ana", Phone: "(11) 97777-6666"})
		require.NoError(t, err)
		require.False(t, created)
		second = c.ID

		c, created, err = svc.FindOrCreate(ctx, tx, CustomerInput{Name: "Ana", Phone: "21900000000", CPF: &cpf})
		require.NoError(t, err)
		require.False(t, created)
		third = c.ID
		return nil
	}))
	require.Equal(t, first, second)
	require.Equal(t, first, third)
}
