package model

import (
	"fmt"
	"time"
)

// Category selects one of the identifier counters.  The value doubles as
// the id prefix and as the key of the counters table.
type Category string

const (
	CategoryClient Category = "C"
	CategoryRoom   Category = "S"
)

// Valid reports whether c names a known counter.
func (c Category) Valid() bool {
	return c == CategoryClient || c == CategoryRoom
}

// FormatID renders a counter value as a stable key, zero padded to four
// digits: FormatID(7) on CategoryClient yields "C0007".
func (c Category) FormatID(n int64) string {
	return fmt.Sprintf("%s%04d", string(c), n)
}

// DateLayout is the storage format of calendar dates.
const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar date, expressed as midnight UTC.
// The year, month and day are taken in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
