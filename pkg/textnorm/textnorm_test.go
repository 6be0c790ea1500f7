package textnorm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	require.Equal(t, "joao da silva", Fold("  JOÃO   da Silva "))
	require.Equal(t, "conceicao", Fold("Conceição"))
	require.Equal(t, Fold("José"), Fold("jose"))
	require.Empty(t, Fold("   "))
}

func TestDigits(t *testing.T) {
	require.Equal(t, "11987654321", Digits("(11) 98765-4321"))
	require.Equal(t, "12345678909", Digits("123.456.789-09"))
	require.Empty(t, Digits("abc"))
}

func TestSearchKeyAndPattern(t *testing.T) {
	require.Equal(t, "maria aparecida 11987654321", SearchKey("Maria Aparecida", "(11) 98765-4321"))
	require.Equal(t, "ana", SearchKey("Ana", ""))
	require.Equal(t, "%aparecida%", LikePattern("APARECIDA"))
	require.Equal(t, `%50\%%`, LikePattern("50%"))
	require.Empty(t, LikePattern("  "))
}
