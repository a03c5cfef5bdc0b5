// Package aggregate partitions tracking records into daily buckets and
// reduces them into completion series.
package aggregate

import (
	"strings"
	"time"

	"github.com/julianstephens/opsboard/internal/constants"
)

// dateLen is the length of a YYYY-MM-DD day key.
const dateLen = len(constants.DateFormat)

// TrackingKey builds the composite "{date}-{blockID}" key.
func TrackingKey(date, blockID string) string {
	return date + "-" + blockID
}

// SplitKey splits a composite key into its day and block id.
// Block ids may themselves contain hyphens; the day is always the fixed-width prefix.
func SplitKey(key string) (date, blockID string, ok bool) {
	if len(key) <= dateLen+1 || key[dateLen] != '-' {
		return "", "", false
	}
	date = key[:dateLen]
	if _, err := time.Parse(constants.DateFormat, date); err != nil {
		return "", "", false
	}
	return date, key[dateLen+1:], true
}

// HasDate reports whether key belongs to date.
func HasDate(key, date string) bool {
	return strings.HasPrefix(key, date+"-")
}

// KeyDate finds the day key embedded in a composite id such as a tracking key,
// a "{date}-{operator}-{block}" late key, or "user-{date}-{block}" and
// "user/{date}-{block}" ids. The date must start the id or follow '-' or '/'.
func KeyDate(id string) (string, bool) {
	for i := 0; i+dateLen < len(id); i++ {
		if i > 0 && id[i-1] != '-' && id[i-1] != '/' {
			continue
		}
		if date, _, ok := SplitKey(id[i:]); ok {
			return date, true
		}
	}
	return "", false
}

// DatedSince reports whether id's embedded day is on or after oldest.
// Ids without a day are always kept.
func DatedSince(id, oldest string) bool {
	date, ok := KeyDate(id)
	return !ok || date >= oldest
}
