package http

import (
	"strconv"
	"time"
)

// ParseIntDefault reads s as an integer, falling back to def when s is
// empty or malformed. Query parameters never fail a request over a bad
// number; they degrade to the default.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// ParseTime accepts the timestamp shapes upstream feeds and API clients
// actually send: RFC3339 with or without fractional seconds, unix seconds,
// or unix milliseconds.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ts <= 0 {
		return time.Time{}, false
	}
	// Values this large cannot be seconds for any plausible date, so read
	// them as milliseconds.
	if ts >= 1e12 {
		return time.UnixMilli(ts), true
	}
	return time.Unix(ts, 0), true
}
