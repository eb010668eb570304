// file: internal/pagination/cursor.go
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Cursor is the decoded form of an opaque pagination token: the sort value
// (a millisecond timestamp) plus the primary-key tiebreak of the row it
// points at. The wire form is base64(JSON {"id":…, "ts":…}).
type Cursor struct {
	ID int64 `json:"id"`
	TS int64 `json:"ts"`
}

// Time returns the sort value as a time.Time (millisecond precision).
func (c Cursor) Time() time.Time {
	return time.UnixMilli(c.TS).UTC()
}

// DecodeError reports a malformed or tampered cursor. Callers recover by
// falling back to first-page semantics; it is never a user-facing failure.
type DecodeError struct {
	Cursor string
	Cause  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed pagination cursor %q: %v", e.Cursor, e.Cause)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// IsDecodeError reports whether err is a cursor DecodeError.
func IsDecodeError(err error) bool {
	_, ok := err.(*DecodeError)
	return ok
}

// Encode builds the opaque token for a row's (sort value, tiebreak id) pair.
// The sort value is truncated to millisecond precision, matching what Decode
// returns, so encode/decode round-trips exactly.
func Encode(sortValue time.Time, tiebreakID int64) string {
	payload, _ := json.Marshal(Cursor{ID: tiebreakID, TS: sortValue.UnixMilli()})
	return base64.StdEncoding.EncodeToString(payload)
}

// Decode parses an opaque token back into its cursor. Any malformed input
// yields a DecodeError.
func Decode(cursor string) (Cursor, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, &DecodeError{Cursor: cursor, Cause: err}
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, &DecodeError{Cursor: cursor, Cause: err}
	}
	return c, nil
}
