// Package pagination implements keyset paging over (created_at, id)
// descending. Cursors are opaque to clients.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

var ErrInvalidCursor = errors.New("pagination: invalid cursor")

// Cursor points at the last row already returned.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Clamp maps non-positive limits to DefaultLimit and caps at MaxLimit.
func Clamp(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// FetchSize is the row count to query so that one extra row reveals
// whether another page exists.
func FetchSize(limit int) int {
	return Clamp(limit) + 1
}

// Page trims rows fetched with FetchSize and returns the cursor for the next
// page, or nil on the final page.
func Page[T any](rows []T, limit int, key func(T) Cursor) ([]T, *Cursor) {
	n := Clamp(limit)
	if len(rows) <= n {
		return rows, nil
	}
	rows = rows[:n]
	next := key(rows[n-1])
	return rows, &next
}

func (c Cursor) Encode() string {
	raw, _ := json.Marshal(struct {
		T  int64     `json:"t"`
		ID uuid.UUID `json:"id"`
	}{c.CreatedAt.UnixNano(), c.ID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses a cursor produced by Encode. An empty string is the first page.
func Decode(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var body struct {
		T  int64     `json:"t"`
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if body.T <= 0 || body.ID == uuid.Nil {
		return nil, ErrInvalidCursor
	}
	return &Cursor{CreatedAt: time.Unix(0, body.T).UTC(), ID: body.ID}, nil
}
