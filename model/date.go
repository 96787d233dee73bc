package model

import (
	"strings"
	"time"
)

const serverDateLayout = "2006-01-02"

// ConvertServerStringDateToLong parses a server date into unix milliseconds.
// Full RFC3339 timestamps keep their time part; anything else is cut at "T" and
// parsed as a date. Unparsable input yields 0.
func ConvertServerStringDateToLong(date string) int64 {
	date = strings.TrimSpace(date)
	if date == "" {
		return 0
	}
	if ts, err := time.Parse(time.RFC3339Nano, date); err == nil {
		return ts.UTC().UnixMilli()
	}

	if idx := strings.Index(date, "T"); idx >= 0 {
		date = date[:idx]
	}
	ts, err := time.Parse(serverDateLayout, date)
	if err != nil {
		return 0
	}

	return ts.UTC().UnixMilli()
}

// ConvertLongToServerStringDate formats unix milliseconds the way the server does.
func ConvertLongToServerStringDate(millis int64) string {
	return time.UnixMilli(millis).UTC().Format(time.RFC3339)
}
