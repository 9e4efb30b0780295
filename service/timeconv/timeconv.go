// Package timeconv converts block-explorer timestamps between the ISO-8601
// strings the explorer returns, Unix seconds and the display formats used by
// the report and by price providers.
package timeconv

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedTimestamp is returned when a timestamp cannot be parsed.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// DisplayLayout is the report timestamp format (spreadsheet friendly).
const DisplayLayout = "2006-01-02 15:04:05"

// ProviderDateLayout is the DD-MM-YYYY date format CoinGecko expects.
const ProviderDateLayout = "02-01-2006"

// isoLayouts are tried in order. RFC3339Nano accepts both "Z" and "+00:00"
// and makes fractional seconds optional. The last layout covers explorer
// responses that omit the offset; those are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// ParseISO parses an ISO-8601 UTC timestamp such as "2024-10-23T07:21:34.000Z".
func ParseISO(iso string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, iso)
}

// ISOToUnix converts an ISO-8601 UTC timestamp into whole Unix seconds.
func ISOToUnix(iso string) (int64, error) {
	t, err := ParseISO(iso)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// UnixToLocalDisplay renders unix in the process's local time zone.
func UnixToLocalDisplay(unix int64) string {
	return UnixToDisplay(unix, time.Local)
}

// UnixToDisplay renders unix in loc as YYYY-MM-DD HH:MM:SS.
// A nil loc means the process's local time zone.
func UnixToDisplay(unix int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(unix, 0).In(loc).Format(DisplayLayout)
}

// ISOToProviderDate reformats the date prefix of an ISO-8601 timestamp as
// DD-MM-YYYY. Only the first ten characters are read, so the time of day and
// offset are ignored; the prefix itself must be a valid calendar date.
func ISOToProviderDate(iso string) (string, error) {
	if len(iso) < len("2006-01-02") {
		return "", fmt.Errorf("%w: %q is too short for a date", ErrMalformedTimestamp, iso)
	}
	d, err := time.Parse(time.DateOnly, iso[:10])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedTimestamp, iso)
	}
	return d.Format(ProviderDateLayout), nil
}
