package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SQL fragments and formats used across multiple functions
const (
	// sqlTimeFormat is how timestamps are written so SQLite date functions can read them.
	sqlTimeFormat = "2006-01-02 15:04:05"

	// sqlDateFormat is what SQLite's date() returns.
	sqlDateFormat = "2006-01-02"
)

var timeFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z",
	sqlTimeFormat,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04:05 +0000 UTC",
}

func parseTimeString(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// sqlTime formats t for storage, or NULL for the zero time.
func sqlTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(sqlTimeFormat), Valid: true}
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// windowArg builds the modifier for datetime('now', ?) covering the last days.
// It returns false when days is unbounded.
func windowArg(days int) (string, bool) {
	if days <= 0 {
		return "", false
	}
	return fmt.Sprintf("-%d days", days), true
}
