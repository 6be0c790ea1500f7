package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/security"
)

func fastConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("s3nha-da-lotérica", fastConfig())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := security.VerifyPassword("s3nha-da-lotérica", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = security.VerifyPassword("outra-senha", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	a, err := security.HashPassword("same", fastConfig())
	require.NoError(t, err)
	b, err := security.HashPassword("same", fastConfig())
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := security.HashPassword("", fastConfig())
	require.Error(t, err)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	cases := []string{
		"not-a-hash",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$$a2V5",
		"$argon2id$v=19$garbage$c2FsdA$a2V5",
	}
	for _, encoded := range cases {
		_, err := security.VerifyPassword("x", encoded)
		require.ErrorIs(t, err, security.ErrInvalidHash, encoded)
	}
}

func TestVerifyPasswordVersionMismatch(t *testing.T) {
	_, err := security.VerifyPassword("x", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$a2V5")
	require.ErrorIs(t, err, security.ErrIncompatibleVersion)
}

func TestNeedsRehash(t *testing.T) {
	cfg := fastConfig()
	hash, err := security.HashPassword("x", cfg)
	require.NoError(t, err)
	require.False(t, security.NeedsRehash(hash, cfg))

	cfg.ArgonTime = 2
	require.True(t, security.NeedsRehash(hash, cfg))
	require.True(t, security.NeedsRehash("garbage", cfg))
}
