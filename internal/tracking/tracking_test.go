package tracking

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/opsboard/internal/activity"
	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/constants"
	apperrors "github.com/julianstephens/opsboard/internal/errors"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/status"
	"github.com/julianstephens/opsboard/internal/storage/sqlite"
	"github.com/julianstephens/opsboard/internal/utils"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) set(hour, min int) {
	c.now = time.Date(2024, 3, 15, hour, min, 0, 0, time.UTC)
}

type fixture struct {
	svc   *Service
	store *sqlite.Store
	clock *fakeClock
}

func anaBlock() models.ScheduleBlock {
	return models.ScheduleBlock{
		ID:       "b1",
		Username: "ana",
		Hour:     9,
		Label:    "09:00",
		Priority: constants.PriorityHigh,
		Tasks:    []models.Task{{ID: "t1", Label: "check queue"}, {ID: "t2", Label: "call back"}},
	}
}

func setup(t *testing.T) fixture {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "opsboard.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.SaveProfile(models.Profile{Username: "ana", Name: "Ana"}); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceSchedule("ana", []models.ScheduleBlock{anaBlock()}); err != nil {
		t.Fatal(err)
	}

	clock := &fakeClock{}
	clock.set(9, 5)
	cal := utils.Calendar{Now: clock.Now, Loc: time.UTC}
	rec := activity.NewRecorder(store, nil, clock.Now)
	return fixture{svc: NewService(store, rec, cal), store: store, clock: clock}
}

func TestAnaEndToEnd(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	block := anaBlock()

	derive := func() constants.BlockStatus {
		t.Helper()
		rec, err := f.svc.Record("ana", f.svc.Key("b1"))
		if err != nil {
			t.Fatal(err)
		}
		return status.Derive(block, &rec, utils.HourIn(f.clock.Now(), time.UTC))
	}

	rec, done, err := f.svc.ToggleTask(ctx, "ana", "ana", "b1", "t1")
	if err != nil {
		t.Fatalf("ToggleTask(t1) error = %v", err)
	}
	if !done || len(rec.Completed) != 1 || rec.Completed[0] != "t1" {
		t.Fatalf("record after first toggle = %+v", rec)
	}
	if rec.Key != "2024-03-15-b1" {
		t.Errorf("Key = %q", rec.Key)
	}
	if got := derive(); got != constants.StatusCurrent {
		t.Errorf("status at 09:05 = %s, want current", got)
	}

	f.clock.set(11, 0)
	if got := derive(); got != constants.StatusLate {
		t.Errorf("status at 11:00 = %s, want late", got)
	}

	rec, _, err = f.svc.ToggleTask(ctx, "ana", "ana", "b1", "t2")
	if err != nil {
		t.Fatalf("ToggleTask(t2) error = %v", err)
	}
	if len(rec.Completed) != 2 {
		t.Fatalf("Completed = %v, want both tasks", rec.Completed)
	}
	if got := derive(); got != constants.StatusDone {
		t.Errorf("status after completing = %s, want done", got)
	}
	f.clock.set(23, 0)
	if got := derive(); got != constants.StatusDone {
		t.Errorf("status late in the day = %s, want done", got)
	}

	log, err := f.store.GetRecentActivity(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 2 || log[0].Action != constants.ActionTaskToggled {
		t.Errorf("activity = %+v", log)
	}
}

func TestToggleRejectsUnknownTargets(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, _, err := f.svc.ToggleTask(ctx, "ana", "ana", "nope", "t1"); !errors.Is(err, ErrUnknownBlock) {
		t.Errorf("unknown block: error = %v", err)
	}
	if _, _, err := f.svc.ToggleTask(ctx, "ana", "ana", "b1", "t9"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("unknown task: error = %v", err)
	}
	if _, _, err := f.svc.ToggleTask(ctx, "ana", "ana", "", "t1"); !apperrors.IsValidation(err) {
		t.Errorf("empty block: error = %v", err)
	}

	all, err := f.store.GetTrackingRecords("ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("rejected toggles wrote records: %v", all)
	}
}

func TestRecordDayIsFixedAtWriteTime(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.clock.now = time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)
	first, _, err := f.svc.ToggleTask(ctx, "ana", "ana", "b1", "t1")
	if err != nil {
		t.Fatal(err)
	}
	f.clock.now = time.Date(2024, 3, 16, 0, 1, 0, 0, time.UTC)
	second, _, err := f.svc.ToggleTask(ctx, "ana", "ana", "b1", "t1")
	if err != nil {
		t.Fatal(err)
	}
	if first.Key == second.Key {
		t.Fatalf("toggles across midnight share key %s", first.Key)
	}

	all, err := f.store.GetTrackingRecords("ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(aggregate.SliceByDate(all, "2024-03-15")) != 1 || len(aggregate.SliceByDate(all, "2024-03-16")) != 1 {
		t.Errorf("records = %v, want one per day", all)
	}
}

func TestReports(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	key := f.svc.Key("b1")

	rec, err := f.svc.SetReport(ctx, "ana", "ana", key, "  queue was long  ")
	if err != nil {
		t.Fatalf("SetReport() error = %v", err)
	}
	if rec.Note.Kind != constants.NotePlain || rec.Note.Report != "queue was long" || rec.ReportSent {
		t.Errorf("after SetReport: %+v", rec)
	}

	if _, err := f.svc.SubmitReport(ctx, "ana", "ana", key, " "); !apperrors.IsValidation(err) {
		t.Errorf("empty submit error = %v", err)
	}
	rec, err = f.svc.SubmitReport(ctx, "ana", "ana", key, "queue was long, escalated to L2")
	if err != nil {
		t.Fatal(err)
	}
	if !rec.ReportSent {
		t.Error("ReportSent = false after submit")
	}

	stored, err := f.store.GetTrackingRecord("ana", key)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.ReportSent || stored.Note.Report != "queue was long, escalated to L2" {
		t.Errorf("stored = %+v", stored)
	}

	if _, err := f.svc.SetReport(ctx, "ana", "ana", "b1", "x"); !apperrors.IsValidation(err) {
		t.Errorf("malformed key error = %v", err)
	}
}

func TestJustify(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	key := f.svc.Key("b1")

	tests := []struct {
		name    string
		j       Justification
		wantErr bool
	}{
		{"unknown reason", Justification{Reason: "tired"}, true},
		{"other without text", Justification{Reason: constants.ReasonOther}, true},
		{"other with text", Justification{Reason: constants.ReasonOther, Report: "x"}, false},
		{"impossible", Justification{Reason: constants.ReasonImpossibleToDo, Escalate: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Justify(ctx, "ana", "ana", key, tt.j)
			if (err != nil) != tt.wantErr {
				t.Errorf("Justify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	rec, err := f.store.GetTrackingRecord("ana", key)
	if err != nil {
		t.Fatal(err)
	}
	n := rec.Note
	if !n.IsJustification() || n.Reason != constants.ReasonImpossibleToDo || !n.IsImpossible || !n.Escalated || n.JustifiedAt == nil {
		t.Errorf("note = %+v", n)
	}

	// Editing the report keeps the justification.
	rec, err = f.svc.SetReport(ctx, "ana", "ana", key, "system down all morning")
	if err != nil {
		t.Fatal(err)
	}
	if !rec.Note.IsJustification() || rec.Note.Report != "system down all morning" {
		t.Errorf("note after report edit = %+v", rec.Note)
	}
}

func TestAttach(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	key := f.svc.Key("b1")

	if _, err := f.svc.Attach(ctx, "ana", "ana", key, "shot.png", "image/png", nil); !apperrors.IsValidation(err) {
		t.Errorf("empty attachment error = %v", err)
	}
	if _, err := f.svc.Attach(ctx, "ana", "ana", key, "shot.png", "image/png", []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	rec, err := f.svc.Attach(ctx, "ana", "ana", key, "log.txt", "text/plain", []byte("boom"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Attachments) != 2 || rec.Attachments[1].Name != "log.txt" {
		t.Errorf("attachments = %+v", rec.Attachments)
	}

	stored, err := f.store.GetTrackingRecord("ana", key)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Attachments) != 2 || string(stored.Attachments[1].Data) != "boom" {
		t.Errorf("stored attachments = %+v", stored.Attachments)
	}
}

func TestWritesRequireScheduledBlock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	key := aggregate.TrackingKey("2024-03-15", "zz")

	if _, err := f.svc.SetReport(ctx, "ana", "ana", key, "draft"); !errors.Is(err, ErrUnknownBlock) {
		t.Errorf("SetReport error = %v", err)
	}
	if _, err := f.svc.SubmitReport(ctx, "ana", "ana", key, "done"); !errors.Is(err, ErrUnknownBlock) {
		t.Errorf("SubmitReport error = %v", err)
	}
	j := Justification{Reason: constants.ReasonHighDemand}
	if _, err := f.svc.Justify(ctx, "ana", "ana", key, j); !errors.Is(err, ErrUnknownBlock) {
		t.Errorf("Justify error = %v", err)
	}
	if _, err := f.svc.Attach(ctx, "ana", "ana", key, "log.txt", "text/plain", []byte("x")); !errors.Is(err, ErrUnknownBlock) {
		t.Errorf("Attach error = %v", err)
	}
	if _, err := f.svc.SetReport(ctx, "ana", "ana", "b1", "draft"); !apperrors.IsValidation(err) {
		t.Errorf("malformed key error = %v", err)
	}

	all, err := f.store.GetTrackingRecords("ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("rejected writes stored records: %v", all)
	}
}
