// Package time contains time related helpers
package time

import (
	"strconv"
	"time"
)

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Value dereferences p, zero when nil
func Value(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return *p
}

// FromUnixHeader parses a unix seconds header value such as x-rate-limit-reset.
// Empty, malformed and non-positive values yield the zero time
func FromUnixHeader(v string) time.Time {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}
