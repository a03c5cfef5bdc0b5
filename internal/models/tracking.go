package models

import (
	"sort"
	"time"

	"github.com/julianstephens/opsboard/internal/constants"
)

// Note is the tagged variant attached to a tracking record: nothing, a plain
// report, or a delay justification carrying its own report text.
type Note struct {
	Kind         constants.NoteKind    `json:"kind"`
	Report       string                `json:"report,omitempty"`
	Reason       constants.DelayReason `json:"reason,omitempty"`
	IsImpossible bool                  `json:"is_impossible,omitempty"`
	Escalated    bool                  `json:"escalated,omitempty"`
	JustifiedAt  *time.Time            `json:"justified_at,omitempty"`
}

// PlainNote builds a report-only note.
func PlainNote(report string) Note {
	if report == "" {
		return Note{}
	}
	return Note{Kind: constants.NotePlain, Report: report}
}

// IsJustification reports whether the note carries a delay justification.
func (n Note) IsJustification() bool {
	return n.Kind == constants.NoteJustification
}

// Attachment is an opaque blob appended to a record.
type Attachment struct {
	Name     string    `json:"name"`
	MimeType string    `json:"mime_type,omitempty"`
	Data     []byte    `json:"data"`
	AddedAt  time.Time `json:"added_at"`
}

// TrackingRecord is the completion state of one block on one day for one operator.
type TrackingRecord struct {
	Key         string       `json:"tracking_key"` // "{YYYY-MM-DD}-{blockID}"
	Username    string       `json:"username"`
	Completed   []string     `json:"completed_tasks"` // task ids, sorted, unique
	Note        Note         `json:"note"`
	ReportSent  bool         `json:"report_sent"`
	Attachments []Attachment `json:"attachments,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsCompleted reports whether task id is in the completed set.
func (r *TrackingRecord) IsCompleted(id string) bool {
	if r == nil {
		return false
	}
	for _, c := range r.Completed {
		if c == id {
			return true
		}
	}
	return false
}

// Toggle flips task id in the completed set and reports whether it is now completed.
func (r *TrackingRecord) Toggle(id string) bool {
	for i, c := range r.Completed {
		if c == id {
			r.Completed = append(r.Completed[:i:i], r.Completed[i+1:]...)
			return false
		}
	}
	r.Completed = append(r.Completed, id)
	sort.Strings(r.Completed)
	return true
}

// Clone returns a deep copy so callers can mutate without touching shared maps.
func (r TrackingRecord) Clone() TrackingRecord {
	out := r
	out.Completed = append([]string(nil), r.Completed...)
	out.Attachments = append([]Attachment(nil), r.Attachments...)
	if r.Note.JustifiedAt != nil {
		at := *r.Note.JustifiedAt
		out.Note.JustifiedAt = &at
	}
	return out
}
