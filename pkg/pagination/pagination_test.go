package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, DefaultLimit, Clamp(0))
	assert.Equal(t, DefaultLimit, Clamp(-4))
	assert.Equal(t, 7, Clamp(7))
	assert.Equal(t, MaxLimit, Clamp(MaxLimit+1))
	assert.Equal(t, 8, FetchSize(7))
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 123456789, time.UTC)
	in := Cursor{CreatedAt: at, ID: uuid.New()}

	out, err := Decode(in.Encode())
	require.NoError(t, err)
	assert.True(t, out.CreatedAt.Equal(at))
	assert.Equal(t, in.ID, out.ID)

	first, err := Decode("")
	require.NoError(t, err)
	assert.Nil(t, first)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, s := range []string{"%%%", "bm90LWpzb24", "eyJ0IjowfQ"} {
		_, err := Decode(s)
		assert.ErrorIs(t, err, ErrInvalidCursor, s)
	}
}

func TestPage(t *testing.T) {
	rows := []int{1, 2, 3, 4}
	key := func(v int) Cursor { return Cursor{ID: uuid.NewSHA1(uuid.Nil, []byte{byte(v)})} }

	page, next := Page(rows, 3, key)
	assert.Equal(t, []int{1, 2, 3}, page)
	require.NotNil(t, next)
	assert.Equal(t, key(3).ID, next.ID)

	page, next = Page(rows[:2], 3, key)
	assert.Len(t, page, 2)
	assert.Nil(t, next)
}
