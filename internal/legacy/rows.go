package legacy

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/models"
)

// Row is one exported tracking_data row.
type Row struct {
	Username       string   `json:"username"`
	TrackingKey    string   `json:"tracking_key"`
	CompletedTasks []string `json:"completed_tasks"`
	Notes          string   `json:"notes"`
	ReportSent     bool     `json:"report_sent,omitempty"`
	UpdatedAt      string   `json:"updated_at"`
}

// ReadRows decodes a JSON array of rows.
func ReadRows(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}
	return rows, nil
}

// Conversion is the outcome of converting one row.
type Conversion struct {
	Record  models.TrackingRecord
	Dropped []string
}

// Convert turns a row into a native record against the operator's schedule,
// keyed by block id. Rows whose block no longer exists are rejected.
func Convert(row Row, blocks map[string]models.ScheduleBlock) (Conversion, error) {
	_, blockID, ok := aggregate.SplitKey(row.TrackingKey)
	if !ok {
		return Conversion{}, fmt.Errorf("row %s/%s: malformed tracking key", row.Username, row.TrackingKey)
	}
	block, ok := blocks[blockID]
	if !ok {
		return Conversion{}, fmt.Errorf("row %s/%s: block %s not in current schedule", row.Username, row.TrackingKey, blockID)
	}

	ids, dropped := ResolveTokens(block, row.CompletedTasks)
	sort.Strings(ids)
	bundle, structured := DecodeNotes(row.Notes)

	rec := models.TrackingRecord{
		Key:        row.TrackingKey,
		Username:   row.Username,
		Completed:  ids,
		Note:       ToNote(bundle, structured),
		ReportSent: row.ReportSent,
	}
	if ts, err := time.Parse(time.RFC3339, row.UpdatedAt); err == nil {
		rec.UpdatedAt = ts
	} else {
		rec.UpdatedAt = time.Now()
	}
	return Conversion{Record: rec, Dropped: dropped}, nil
}

// ToRow renders a native record in the export form. Completed ids become
// positional tokens against block; ids the block no longer has are left out.
func ToRow(rec models.TrackingRecord, block models.ScheduleBlock) (Row, error) {
	notes, err := FromNote(rec.Note)
	if err != nil {
		return Row{}, fmt.Errorf("row %s/%s: %w", rec.Username, rec.Key, err)
	}
	tokens := []string{}
	for i, t := range block.Tasks {
		if rec.IsCompleted(t.ID) {
			tokens = append(tokens, TaskToken(i))
		}
	}
	return Row{
		Username:       rec.Username,
		TrackingKey:    rec.Key,
		CompletedTasks: tokens,
		Notes:          notes,
		ReportSent:     rec.ReportSent,
		UpdatedAt:      rec.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// WriteRows encodes rows as an indented JSON array.
func WriteRows(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
