package storage

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
)

// ToJSON encodes a column value. Nil slices encode as "[]".
func ToJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode column: %w", err)
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}

// FromJSON decodes a column value. An empty column leaves v untouched.
func FromJSON(data string, v interface{}) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("failed to decode column: %w", err)
	}
	return nil
}

// NormalizeCompleted sorts and de-duplicates completed task ids.
func NormalizeCompleted(ids []string) []string {
	if len(ids) == 0 {
		return []string{}
	}
	out := append([]string(nil), ids...)
	sort.Strings(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

const maxActivityLimit = 1000

// ClampActivityLimit applies the default and the cap to a requested limit.
func ClampActivityLimit(limit int) int {
	if limit <= 0 {
		return constants.DefaultActivityLimit
	}
	if limit > maxActivityLimit {
		return maxActivityLimit
	}
	return limit
}

// GroupSchedules splits blocks by operator, keeping position order.
func GroupSchedules(blocks []models.ScheduleBlock) map[string][]models.ScheduleBlock {
	out := make(map[string][]models.ScheduleBlock)
	for _, b := range blocks {
		out[b.Username] = append(out[b.Username], b)
	}
	for u := range out {
		list := out[u]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Position < list[j].Position })
	}
	return out
}
