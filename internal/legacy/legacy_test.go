package legacy

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
)

func TestNotesBundleRoundTrip(t *testing.T) {
	in := Bundle{Report: "x", DelayReason: "other", IsImpossible: false}

	text, err := EncodeNotes(in)
	if err != nil {
		t.Fatalf("EncodeNotes() error = %v", err)
	}
	out, structured := DecodeNotes(text)
	if !structured {
		t.Fatalf("DecodeNotes(%q) not recognized as a bundle", text)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("DecodeNotes(EncodeNotes(b)) = %+v, want %+v", out, in)
	}
}

func TestDecodeNotesPlainText(t *testing.T) {
	tests := []string{
		"called the carrier, waiting on callback",
		"{not json",
		`{"unrelated": true}`,
		`["report"]`,
		"",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			b, structured := DecodeNotes(text)
			if structured {
				t.Errorf("DecodeNotes(%q) structured = true", text)
			}
			if b.Report != text || b.DelayReason != "" {
				t.Errorf("DecodeNotes(%q) = %+v, want report=%q and no reason", text, b, text)
			}
		})
	}
}

func TestToNote(t *testing.T) {
	b, structured := DecodeNotes(`{"report":"system down","delayReason":"system_slowness","isImpossible":true,"escalated":true,"timestamp":"2024-03-15T11:02:00Z"}`)
	n := ToNote(b, structured)

	if n.Kind != constants.NoteJustification {
		t.Fatalf("Kind = %q, want justification", n.Kind)
	}
	if n.Reason != constants.ReasonSystemSlowness || !n.IsImpossible || !n.Escalated {
		t.Errorf("ToNote() = %+v", n)
	}
	if n.JustifiedAt == nil || n.JustifiedAt.Hour() != 11 {
		t.Errorf("JustifiedAt = %v, want 11:02 UTC", n.JustifiedAt)
	}

	back, err := FromNote(n)
	if err != nil {
		t.Fatalf("FromNote() error = %v", err)
	}
	again, _ := DecodeNotes(back)
	if again.DelayReason != "system_slowness" || again.Timestamp != "2024-03-15T11:02:00Z" {
		t.Errorf("FromNote() round trip = %+v", again)
	}

	plain := ToNote(Bundle{Report: "all good"}, false)
	if plain.Kind != constants.NotePlain || plain.Report != "all good" {
		t.Errorf("plain ToNote() = %+v", plain)
	}
	if empty := ToNote(Bundle{}, false); empty.Kind != constants.NoteNone {
		t.Errorf("empty ToNote() kind = %q, want none", empty.Kind)
	}

	unknown := ToNote(Bundle{Report: "r", DelayReason: "aliens"}, true)
	if unknown.Reason != constants.ReasonOther {
		t.Errorf("unknown reason mapped to %q, want other", unknown.Reason)
	}
}

func TestResolveTokens(t *testing.T) {
	block := models.ScheduleBlock{
		ID:    "b1",
		Tasks: []models.Task{{ID: "id-a"}, {ID: "id-b"}, {ID: "id-c"}},
	}
	ids, dropped := ResolveTokens(block, []string{"task-2", "task-0", "task-0", "task-7", "nope"})

	if !reflect.DeepEqual(ids, []string{"id-c", "id-a"}) {
		t.Errorf("ids = %v, want [id-c id-a]", ids)
	}
	if !reflect.DeepEqual(dropped, []string{"task-7", "nope"}) {
		t.Errorf("dropped = %v, want [task-7 nope]", dropped)
	}
	if TaskToken(4) != "task-4" {
		t.Errorf("TaskToken(4) = %q", TaskToken(4))
	}
}

func TestReadAndConvertRows(t *testing.T) {
	export := `[
		{"username":"ana","tracking_key":"2024-03-15-b1","completed_tasks":["task-0","task-1"],"notes":"done early","updated_at":"2024-03-15T09:40:00Z"},
		{"username":"ana","tracking_key":"2024-03-15-gone","completed_tasks":[],"notes":"","updated_at":"2024-03-15T09:40:00Z"},
		{"username":"ana","tracking_key":"bad","completed_tasks":[],"notes":"","updated_at":""}
	]`
	rows, err := ReadRows(strings.NewReader(export))
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("ReadRows() = %d rows, want 3", len(rows))
	}

	blocks := map[string]models.ScheduleBlock{
		"b1": {ID: "b1", Tasks: []models.Task{{ID: "t2"}, {ID: "t1"}}},
	}

	conv, err := Convert(rows[0], blocks)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !reflect.DeepEqual(conv.Record.Completed, []string{"t1", "t2"}) {
		t.Errorf("Completed = %v, want [t1 t2]", conv.Record.Completed)
	}
	if conv.Record.Note.Report != "done early" || conv.Record.Note.Kind != constants.NotePlain {
		t.Errorf("Note = %+v", conv.Record.Note)
	}
	if !blocks["b1"].IsComplete(&conv.Record) {
		t.Error("converted record should complete the block")
	}

	if _, err := Convert(rows[1], blocks); err == nil {
		t.Error("Convert() with unknown block should fail")
	}
	if _, err := Convert(rows[2], blocks); err == nil {
		t.Error("Convert() with malformed key should fail")
	}
}

func TestToRowRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 15, 9, 40, 0, 0, time.UTC)
	block := models.ScheduleBlock{ID: "b1", Tasks: []models.Task{{ID: "t2"}, {ID: "t1"}, {ID: "t3"}}}
	rec := models.TrackingRecord{
		Key:       "2024-03-15-b1",
		Username:  "ana",
		Completed: []string{"t1", "t3", "removed"},
		Note: models.Note{
			Kind:        constants.NoteJustification,
			Report:      "queue down",
			Reason:      constants.ReasonSystemSlowness,
			Escalated:   true,
			JustifiedAt: &at,
		},
		UpdatedAt: at,
	}

	row, err := ToRow(rec, block)
	if err != nil {
		t.Fatalf("ToRow() error = %v", err)
	}
	if !reflect.DeepEqual(row.CompletedTasks, []string{"task-1", "task-2"}) {
		t.Errorf("CompletedTasks = %v, want [task-1 task-2]", row.CompletedTasks)
	}

	var buf bytes.Buffer
	if err := WriteRows(&buf, []Row{row}); err != nil {
		t.Fatalf("WriteRows() error = %v", err)
	}
	rows, err := ReadRows(&buf)
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	conv, err := Convert(rows[0], map[string]models.ScheduleBlock{"b1": block})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !reflect.DeepEqual(conv.Record.Completed, []string{"t1", "t3"}) {
		t.Errorf("Completed = %v, want [t1 t3]", conv.Record.Completed)
	}
	note := conv.Record.Note
	if note.Reason != constants.ReasonSystemSlowness || !note.Escalated || note.Report != "queue down" {
		t.Errorf("Note = %+v", note)
	}
	if note.JustifiedAt == nil || !note.JustifiedAt.Equal(at) {
		t.Errorf("JustifiedAt = %v, want %v", note.JustifiedAt, at)
	}
	if !conv.Record.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", conv.Record.UpdatedAt, at)
	}
}
