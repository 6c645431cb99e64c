package xapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	ptime "postlens/internal/platform/time"
)

// parseRateHeaders reads the x-rate-limit-* family
// reset is an epoch second value and stays zero when absent
func parseRateHeaders(h http.Header) (remaining int, reset time.Time) {
	remaining = atoi(h.Get("X-Rate-Limit-Remaining"))
	reset = ptime.FromUnixHeader(strings.TrimSpace(h.Get("X-Rate-Limit-Reset")))
	return
}

func atoi(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	i, _ := strconv.Atoi(s)
	return i
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
