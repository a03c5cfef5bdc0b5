// Package legacy reads data written by the browser dashboard: notes that carry
// a JSON justification bundle inside free text, and completion sets addressed
// by task position.
package legacy

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
)

// Bundle is the justification object serialized into a notes column.
type Bundle struct {
	Report       string `json:"report"`
	DelayReason  string `json:"delayReason,omitempty"`
	IsImpossible bool   `json:"isImpossible"`
	Escalated    bool   `json:"escalated"`
	Timestamp    string `json:"timestamp,omitempty"`
}

// EncodeNotes serializes b into the notes text form.
func EncodeNotes(b Bundle) (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeNotes parses a notes column. Text that is not a JSON object carrying a
// report or delayReason field is a plain note and comes back as Bundle{Report: text}.
// The second result reports whether a structured bundle was found.
func DecodeNotes(text string) (Bundle, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return Bundle{Report: text}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return Bundle{Report: text}, false
	}
	_, hasReport := fields["report"]
	_, hasReason := fields["delayReason"]
	if !hasReport && !hasReason {
		return Bundle{Report: text}, false
	}

	var b Bundle
	if err := json.Unmarshal([]byte(trimmed), &b); err != nil {
		return Bundle{Report: text}, false
	}
	return b, true
}

// ToNote converts a decoded bundle into the native note variant.
func ToNote(b Bundle, structured bool) models.Note {
	if !structured || b.DelayReason == "" {
		return models.PlainNote(b.Report)
	}
	n := models.Note{
		Kind:         constants.NoteJustification,
		Report:       b.Report,
		Reason:       constants.DelayReason(b.DelayReason),
		IsImpossible: b.IsImpossible,
		Escalated:    b.Escalated,
	}
	if !n.Reason.Valid() {
		n.Reason = constants.ReasonOther
	}
	if ts, err := time.Parse(time.RFC3339, b.Timestamp); err == nil {
		n.JustifiedAt = &ts
	}
	return n
}

// FromNote renders a native note in the notes text form.
func FromNote(n models.Note) (string, error) {
	switch n.Kind {
	case constants.NoteJustification:
		b := Bundle{
			Report:       n.Report,
			DelayReason:  string(n.Reason),
			IsImpossible: n.IsImpossible,
			Escalated:    n.Escalated,
		}
		if n.JustifiedAt != nil {
			b.Timestamp = n.JustifiedAt.UTC().Format(time.RFC3339)
		}
		return EncodeNotes(b)
	default:
		return n.Report, nil
	}
}
