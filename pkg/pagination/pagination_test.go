package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 3, 2, 12, 30, 0, 123, time.UTC), ID: uuid.New()}
	token := EncodeCursor(in)
	require.NotContains(t, token, "=")
	require.NotContains(t, token, "/")

	out, err := ParseCursor(token)
	require.NoError(t, err)
	require.True(t, in.CreatedAt.Equal(out.CreatedAt))
	require.Equal(t, in.ID, out.ID)
}

func TestParseCursorBlankIsFirstPage(t *testing.T) {
	c, err := ParseCursor("  ")
	require.NoError(t, err)
	require.Nil(t, c)
}

func TestParseCursorRejectsForeignTokens(t *testing.T) {
	for _, token := range []string{
		"not-base64!",
		base64.RawURLEncoding.EncodeToString([]byte("no-separator")),
		base64.RawURLEncoding.EncodeToString([]byte("zz!." + uuid.NewString())),
		base64.RawURLEncoding.EncodeToString([]byte("abc.not-a-uuid")),
	} {
		_, err := ParseCursor(token)
		require.ErrorIs(t, err, ErrInvalidCursor, token)
	}
}

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, DefaultLimit, NormalizeLimit(-3))
	require.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+10))
	require.Equal(t, 11, LimitWithBuffer(10))
}

func TestTrim(t *testing.T) {
	type row struct {
		at time.Time
		id uuid.UUID
	}
	base := time.Now().UTC()
	rows := []row{{base, uuid.New()}, {base.Add(-time.Minute), uuid.New()}, {base.Add(-2 * time.Minute), uuid.New()}}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page, next := Trim(rows, 2, cursorOf)
	require.Len(t, page, 2)
	decoded, err := ParseCursor(next)
	require.NoError(t, err)
	require.Equal(t, rows[1].id, decoded.ID)

	page, next = Trim(rows, 5, cursorOf)
	require.Len(t, page, 3)
	require.Empty(t, next)
}
