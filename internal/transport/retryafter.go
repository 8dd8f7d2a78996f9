package transport

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ParseRetryAfter parses a Retry-After header value as either delta-seconds
// or an HTTP-date, clamped to [0, capMs] (spec.md 4.E, Testable Property 3).
// A missing or unparseable header returns (0, false).
func ParseRetryAfter(header string, capMs int) (int, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(header); err == nil {
		return clampRetryDelay(secs*1000, capMs), true
	}

	if when, err := http.ParseTime(header); err == nil {
		delayMs := int(time.Until(when) / time.Millisecond)
		return clampRetryDelay(delayMs, capMs), true
	}

	return 0, false
}

func clampRetryDelay(ms, capMs int) int {
	if ms < 0 {
		return 0
	}
	if ms > capMs {
		return capMs
	}
	return ms
}
