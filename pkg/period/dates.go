package period

import (
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	dateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05.000",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2006",
	"Jan 2006",
	"2006-01",
}

// minUnixSeconds is the smallest number read as a unix timestamp (March 1973).
// Smaller numbers are ratings, ids or typos, not dates.
const minUnixSeconds = 1e8

// ParseDate parses the date formats found in review exports. Eight-digit
// numbers are read as YYYYMMDD and other numbers as unix seconds. Empty
// strings and pandas-style null markers report ok == false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nat", "nan", "null", "none":
		return time.Time{}, false
	}

	if len(s) == 8 {
		if t, err := time.Parse("20060102", s); err == nil {
			return t, true
		}
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return UnixDate(secs)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UnixDate converts a unix timestamp to a UTC time. Values too large to be
// seconds are read as milliseconds, which is how pandas writes datetimes to
// JSON. Values below minUnixSeconds are treated as missing.
func UnixDate(secs float64) (time.Time, bool) {
	if secs < minUnixSeconds {
		return time.Time{}, false
	}
	if secs > 1e11 {
		return time.UnixMilli(int64(secs)).UTC(), true
	}
	return time.Unix(int64(secs), 0).UTC(), true
}
