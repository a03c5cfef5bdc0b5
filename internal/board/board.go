// Package board joins profiles, schedules, tracking records and presence
// into what the dashboard, the API and the notifier display.
package board

import (
	"sort"

	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/notifier"
	"github.com/julianstephens/opsboard/internal/status"
)

// BlockView is one block with its state for the day.
type BlockView struct {
	Block     models.ScheduleBlock   `json:"block"`
	Key       string                 `json:"tracking_key"`
	Record    *models.TrackingRecord `json:"record,omitempty"`
	Status    constants.BlockStatus  `json:"status"`
	Completed int                    `json:"completed"`
}

// OperatorDay is one operator's board row for one date.
type OperatorDay struct {
	Profile models.Profile `json:"profile"`
	Date    string         `json:"date"`
	Online  bool           `json:"online"`
	Blocks  []BlockView    `json:"blocks"`
	Done    int            `json:"done"`
	Total   int            `json:"total"`
	Percent int            `json:"percent"`
	Counts  status.Counts  `json:"counts"`
}

// BuildDay derives every block's status at nowHour from date's records.
func BuildDay(p models.Profile, blocks []models.ScheduleBlock, records map[string]models.TrackingRecord, date string, nowHour int, online bool) OperatorDay {
	slice := aggregate.SliceByDate(records, date)
	day := OperatorDay{Profile: p, Date: date, Online: online, Blocks: make([]BlockView, 0, len(blocks))}

	for _, b := range blocks {
		v := BlockView{Block: b, Key: aggregate.TrackingKey(date, b.ID)}
		if rec, ok := slice[b.ID]; ok {
			rec := rec
			v.Record = &rec
			v.Completed = b.CompletedCount(&rec)
		}
		v.Status = status.Derive(b, v.Record, nowHour)
		day.Counts.Add(v.Status)
		day.Blocks = append(day.Blocks, v)
	}
	day.Done, day.Total = aggregate.DayProgress(blocks, slice)
	day.Percent = aggregate.Rate(day.Done, day.Total)
	return day
}

// Late returns the day's late blocks.
func (d OperatorDay) Late() []BlockView {
	var out []BlockView
	for _, v := range d.Blocks {
		if v.Status == constants.StatusLate {
			out = append(out, v)
		}
	}
	return out
}

// Block returns the view of blockID, if the day has it.
func (d OperatorDay) Block(blockID string) (BlockView, bool) {
	for _, v := range d.Blocks {
		if v.Block.ID == blockID {
			return v, true
		}
	}
	return BlockView{}, false
}

// LatePairs lists every late block across days as notifier input.
func LatePairs(days []OperatorDay) []models.LatePair {
	var pairs []models.LatePair
	for _, d := range days {
		for _, v := range d.Late() {
			pairs = append(pairs, models.LatePair{
				Date:     d.Date,
				Username: d.Profile.Username,
				BlockID:  v.Block.ID,
				Label:    v.Block.Label,
				Name:     d.Profile.DisplayName(),
			})
		}
	}
	return pairs
}

// Pending is a filed report or justification awaiting supervisor review.
type Pending struct {
	Username string                `json:"username"`
	Name     string                `json:"name"`
	Key      string                `json:"tracking_key"`
	Label    string                `json:"label"`
	Record   models.TrackingRecord `json:"record"`
}

// ReviewID is the id review marks are stored under.
func (p Pending) ReviewID() string {
	return ReviewID(p.Username, p.Key)
}

// Notice converts a pending justification into notifier input.
func (p Pending) Notice() notifier.Justification {
	return notifier.Justification{
		Username: p.Username,
		Name:     p.Name,
		Key:      p.Key,
		Label:    p.Label,
		Reason:   string(p.Record.Note.Reason),
		Escalate: p.Record.Note.Escalated,
	}
}

// PendingJustifications lists justifications not yet reviewed, oldest first.
func PendingJustifications(s *Snapshot, reviewed func(id string) bool) []Pending {
	return s.pending(reviewed, func(r models.TrackingRecord) bool { return r.Note.IsJustification() })
}

// PendingReports lists submitted reports not yet reviewed, oldest first.
func PendingReports(s *Snapshot, reviewed func(id string) bool) []Pending {
	return s.pending(reviewed, func(r models.TrackingRecord) bool { return r.ReportSent })
}

// Notices converts pending justifications for the dispatcher.
func Notices(pending []Pending) []notifier.Justification {
	out := make([]notifier.Justification, len(pending))
	for i, p := range pending {
		out[i] = p.Notice()
	}
	return out
}

func (s *Snapshot) pending(reviewed func(string) bool, want func(models.TrackingRecord) bool) []Pending {
	if s == nil {
		return nil
	}
	var out []Pending
	for _, p := range s.Profiles {
		for key, rec := range s.Tracking[p.Username] {
			if !want(rec) {
				continue
			}
			item := Pending{Username: p.Username, Name: p.DisplayName(), Key: key, Label: s.label(p.Username, key), Record: rec}
			if reviewed != nil && reviewed(item.ReviewID()) {
				continue
			}
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Record.UpdatedAt.Equal(out[j].Record.UpdatedAt) {
			return out[i].Record.UpdatedAt.Before(out[j].Record.UpdatedAt)
		}
		return out[i].ReviewID() < out[j].ReviewID()
	})
	return out
}

// label resolves a tracking key to its block label, falling back to the key
// when the block is no longer scheduled.
func (s *Snapshot) label(username, key string) string {
	_, blockID, ok := aggregate.SplitKey(key)
	if !ok {
		return key
	}
	for _, b := range s.Schedules[username] {
		if b.ID == blockID {
			return b.Label
		}
	}
	return key
}
