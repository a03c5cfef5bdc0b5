package aggregate

import "github.com/julianstephens/opsboard/internal/models"

// SliceByDate returns date's records keyed by block id. The source map is not
// modified, and running it again on its own output with the keys rebuilt yields
// the same slice.
func SliceByDate(all map[string]models.TrackingRecord, date string) map[string]models.TrackingRecord {
	prefix := date + "-"
	out := make(map[string]models.TrackingRecord)
	for key, rec := range all {
		if !HasDate(key, date) {
			continue
		}
		out[key[len(prefix):]] = rec
	}
	return out
}

// Rekey turns a block-id keyed slice back into composite keys for date.
func Rekey(slice map[string]models.TrackingRecord, date string) map[string]models.TrackingRecord {
	out := make(map[string]models.TrackingRecord, len(slice))
	for blockID, rec := range slice {
		out[TrackingKey(date, blockID)] = rec
	}
	return out
}

// Dates lists the distinct days present in all, unordered.
func Dates(all map[string]models.TrackingRecord) []string {
	seen := make(map[string]struct{})
	var dates []string
	for key := range all {
		date, _, ok := SplitKey(key)
		if !ok {
			continue
		}
		if _, dup := seen[date]; dup {
			continue
		}
		seen[date] = struct{}{}
		dates = append(dates, date)
	}
	return dates
}
