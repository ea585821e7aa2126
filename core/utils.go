package core

import (
	"strings"
	"time"
)

// DateFormat is the wire format for bare dates (attendance, ledger entries).
const DateFormat = "2006-01-02"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// FormatDate renders t as a bare date in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateFormat)
}
