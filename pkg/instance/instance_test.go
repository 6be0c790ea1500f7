package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetIDPrefersExplicitID(t *testing.T) {
	t.Setenv("CARTELA_INSTANCE_ID", "api-1")
	t.Setenv("DYNO", "web.1")
	require.Equal(t, "api-1", GetID())
}

func TestGetIDFallsBackToDyno(t *testing.T) {
	t.Setenv("CARTELA_INSTANCE_ID", "")
	t.Setenv("DYNO", "worker.2")
	require.Equal(t, "worker.2", GetID())
}

func TestGetIDNeverEmpty(t *testing.T) {
	t.Setenv("CARTELA_INSTANCE_ID", "")
	t.Setenv("DYNO", "")
	require.NotEmpty(t, GetID())
}
