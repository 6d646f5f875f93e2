package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidToken is returned by Decode for tokens it did not produce.
var ErrInvalidToken = errors.New("invalid pagination token")

// Cursor is the opaque pagination state we encode/decode.
// ID + Unix (in millis) of the last row establish a stable keyset cursor
// for listings ordered by (timestamp DESC, id DESC).
type Cursor struct {
	ID   uint64 `json:"id"`
	Unix int64  `json:"unix,omitempty"`
}

// Empty reports whether c is the first-page cursor.
func (c Cursor) Empty() bool {
	return c.ID == 0 || c.Unix == 0
}

// Time returns the cursor timestamp.
func (c Cursor) Time() time.Time {
	return time.UnixMilli(c.Unix).UTC()
}

// At builds a cursor for a row.
func At(id uint64, ts time.Time) Cursor {
	return Cursor{ID: id, Unix: ts.UnixMilli()}
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// An empty token is the first page.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidToken
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil || c.Empty() {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}
