package enums

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEditionStatusTransitions(t *testing.T) {
	require.True(t, EditionStatusDraft.CanTransitionTo(EditionStatusActive))
	require.True(t, EditionStatusActive.CanTransitionTo(EditionStatusFinalized))

	require.False(t, EditionStatusDraft.CanTransitionTo(EditionStatusFinalized))
	require.False(t, EditionStatusActive.CanTransitionTo(EditionStatusDraft))
	require.False(t, EditionStatusFinalized.CanTransitionTo(EditionStatusActive))
	require.False(t, EditionStatusFinalized.CanTransitionTo(EditionStatusFinalized))
}

func TestSellerKindOrigin(t *testing.T) {
	require.Equal(t, SaleOriginPromoter, SellerKindPromoter.Origin())
	require.Equal(t, SaleOriginReseller, SellerKindReseller.Origin())
	require.Equal(t, SaleOriginDirect, SellerKind("x").Origin())
}

func TestParseRejectsUnknownValues(t *testing.T) {
	_, err := ParseSaleType("raspadinha")
	require.Error(t, err)

	status, err := ParsePaymentStatus("paid")
	require.NoError(t, err)
	require.True(t, status.IsPaid())

	_, err = ParseUploadType("zip")
	require.Error(t, err)

	origin, err := ParseSaleOrigin("revendedor")
	require.NoError(t, err)
	require.Equal(t, SaleOriginReseller, origin)
}

func TestParsePaymentStatusNormalizes(t *testing.T) {
	status, err := ParsePaymentStatus(" PAID ")
	require.NoError(t, err)
	require.Equal(t, PaymentStatusPaid, status)

	status, err = ParsePaymentStatus("cancelled")
	require.NoError(t, err)
	require.Equal(t, PaymentStatusCanceled, status)

	_, err = ParsePaymentStatus("settled")
	require.Error(t, err)
}
