package settings

import (
	"testing"

	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	got := Render("Olá {nome}! Cotas {cotas} do grupo {grupo}, edição {edicao}. {outro}", TemplateVars{
		Name:    "Ana",
		Quotas:  "7",
		Group:   2,
		Edition: 41,
	})
	require.Equal(t, "Olá Ana! Cotas 7 do grupo 2, edição 41. {outro}", got)

	require.Equal(t, "grupo ", Render("grupo {grupo}", TemplateVars{}))
}

func TestRateFor(t *testing.T) {
	s := Defaults()
	require.Equal(t, "10", s.RateFor(enums.SellerKindPromoter).String())
	require.Equal(t, "15", s.RateFor(enums.SellerKindReseller).String())
}
