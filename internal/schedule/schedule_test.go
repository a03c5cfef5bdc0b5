package schedule

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/opsboard/internal/activity"
	"github.com/julianstephens/opsboard/internal/changes"
	"github.com/julianstephens/opsboard/internal/constants"
	apperrors "github.com/julianstephens/opsboard/internal/errors"
	"github.com/julianstephens/opsboard/internal/localstate"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/storage"
	"github.com/julianstephens/opsboard/internal/storage/sqlite"
	"github.com/julianstephens/opsboard/internal/utils"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	store  *sqlite.Store
	state  *localstate.Store
	broker *changes.MemoryBroker
}

func setup(t *testing.T, opts ...Option) fixture {
	t.Helper()
	dir := t.TempDir()
	store := sqlite.NewStore(filepath.Join(dir, "opsboard.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.SaveProfile(models.Profile{Username: "ana", Name: "Ana", CreatedAt: fixedNow}); err != nil {
		t.Fatalf("failed to save profile: %v", err)
	}

	clock := func() time.Time { return fixedNow }
	broker := changes.NewMemoryBroker()
	state := localstate.New(filepath.Join(dir, constants.LocalStateFileName))
	cal := utils.Calendar{Now: clock, Loc: time.UTC}
	rec := activity.NewRecorder(store, broker, clock)

	opts = append([]Option{WithDrafts(state)}, opts...)
	return fixture{svc: NewService(store, rec, cal, opts...), store: store, state: state, broker: broker}
}

func TestNormalize(t *testing.T) {
	in := []models.ScheduleBlock{
		{Hour: 9, Tasks: []models.Task{{Label: " check queue "}, {Label: "  "}, {ID: "keep", Label: "call"}}},
		{ID: "lunch", Hour: 12, Label: "Lunch", Priority: constants.PriorityLow},
	}

	out, err := Normalize("ana", in)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(out))
	}

	first := out[0]
	if first.ID == "" || first.Username != "ana" || first.Position != 0 {
		t.Errorf("first block = %+v", first)
	}
	if first.Label != "09:00" {
		t.Errorf("Label = %q, want 09:00", first.Label)
	}
	if first.Priority != constants.PriorityMedium {
		t.Errorf("Priority = %q, want medium", first.Priority)
	}
	if len(first.Tasks) != 2 || first.Tasks[0].Label != "check queue" || first.Tasks[0].ID == "" || first.Tasks[1].ID != "keep" {
		t.Errorf("Tasks = %+v", first.Tasks)
	}
	if out[1].ID != "lunch" || out[1].Position != 1 || !out[1].IsBreak() {
		t.Errorf("second block = %+v", out[1])
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name   string
		blocks []models.ScheduleBlock
	}{
		{"hour out of range", []models.ScheduleBlock{{Hour: 24}}},
		{"bad priority", []models.ScheduleBlock{{Hour: 9, Priority: "urgent"}}},
		{"duplicate block", []models.ScheduleBlock{{ID: "b1", Hour: 9}, {ID: "b1", Hour: 10}}},
		{"duplicate task", []models.ScheduleBlock{{Hour: 9, Tasks: []models.Task{{ID: "t", Label: "a"}, {ID: "t", Label: "b"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize("ana", tt.blocks)
			if !apperrors.IsValidation(err) {
				t.Errorf("Normalize() error = %v, want validation error", err)
			}
		})
	}
}

func TestSaveKeepsIDsAcrossEdits(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	saved, err := f.svc.Save(ctx, "ana", "ana", []models.ScheduleBlock{NewBlock(9, "", "", "a", "b")}, 0)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	blockID, taskID := saved[0].ID, saved[0].Tasks[1].ID

	edited := saved[0]
	edited.Tasks = []models.Task{edited.Tasks[1], edited.Tasks[0], {Label: "c"}}
	if _, err := f.svc.Save(ctx, "ana", "ana", []models.ScheduleBlock{edited}, 0); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := f.svc.Get("ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != blockID || got[0].Tasks[0].ID != taskID || len(got[0].Tasks) != 3 {
		t.Errorf("schedule after reorder = %+v", got)
	}

	log, err := f.store.GetRecentActivity(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 2 || log[0].Action != constants.ActionScheduleUpdated {
		t.Errorf("activity = %+v", log)
	}
}

func TestSaveUnknownOperator(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Save(context.Background(), "sup", "bob", []models.ScheduleBlock{NewBlock(9, "", "")}, 0)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Save() error = %v, want ErrNotFound", err)
	}
}

func TestSavePreservesPriorDays(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.svc.Save(ctx, "ana", "ana", []models.ScheduleBlock{NewBlock(9, "", "", "old")}, 0); err != nil {
		t.Fatal(err)
	}
	// 2024-03-13 already has its own snapshot and must not be overwritten.
	kept := models.ScheduleSnapshot{Username: "ana", Date: "2024-03-13", Blocks: []models.ScheduleBlock{{ID: "x", Hour: 7, Priority: constants.PriorityLow}}, CreatedAt: fixedNow}
	if err := f.store.SaveSnapshot(kept); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Save(ctx, "ana", "ana", []models.ScheduleBlock{NewBlock(10, "", "", "new")}, 3); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	for _, date := range []string{"2024-03-14", "2024-03-12"} {
		blocks, fromSnap, err := f.svc.ForDate("ana", date)
		if err != nil {
			t.Fatal(err)
		}
		if !fromSnap || len(blocks) != 1 || blocks[0].Hour != 9 {
			t.Errorf("ForDate(%s) = %+v (snapshot %v), want the old schedule", date, blocks, fromSnap)
		}
	}
	blocks, _, err := f.svc.ForDate("ana", "2024-03-13")
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || blocks[0].ID != "x" {
		t.Errorf("existing snapshot overwritten: %+v", blocks)
	}

	blocks, fromSnap, err := f.svc.ForDate("ana", "2024-03-15")
	if err != nil {
		t.Fatal(err)
	}
	if fromSnap || blocks[0].Hour != 10 {
		t.Errorf("ForDate(today) = %+v, want current schedule", blocks)
	}
}

func TestEnsureDailySnapshot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	wrote, err := f.svc.EnsureDailySnapshot(ctx, "ana")
	if err != nil || wrote {
		t.Fatalf("empty schedule: wrote=%v err=%v", wrote, err)
	}

	if _, err := f.svc.Save(ctx, "ana", "ana", []models.ScheduleBlock{NewBlock(9, "", "", "a")}, 0); err != nil {
		t.Fatal(err)
	}
	n, err := f.svc.EnsureAllDailySnapshots(ctx)
	if err != nil || n != 1 {
		t.Fatalf("EnsureAllDailySnapshots() = %d, %v; want 1", n, err)
	}
	wrote, err = f.svc.EnsureDailySnapshot(ctx, "ana")
	if err != nil || wrote {
		t.Errorf("second snapshot: wrote=%v err=%v", wrote, err)
	}
	if _, err := f.store.GetSnapshot("ana", "2024-03-15"); err != nil {
		t.Errorf("snapshot missing: %v", err)
	}
}

func TestDrafts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, ok := f.svc.LoadDraft("ana"); ok {
		t.Fatal("unexpected draft")
	}
	draft := []models.ScheduleBlock{NewBlock(14, constants.PriorityHigh, "calls", "x")}
	if err := f.svc.SaveDraft("ana", draft); err != nil {
		t.Fatal(err)
	}
	got, ok := f.svc.LoadDraft("ana")
	if !ok || len(got) != 1 || got[0].Hour != 14 {
		t.Fatalf("LoadDraft() = %+v, %v", got, ok)
	}

	if _, err := f.svc.Save(ctx, "ana", "ana", got, 0); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.svc.LoadDraft("ana"); ok {
		t.Error("draft should be discarded after save")
	}
}

func TestBeforeSaveHookFailureDoesNotBlock(t *testing.T) {
	calls := 0
	f := setup(t, WithBeforeSave(func() error {
		calls++
		return errors.New("backup dir not writable")
	}))
	if _, err := f.svc.Save(context.Background(), "ana", "ana", []models.ScheduleBlock{NewBlock(9, "", "")}, 0); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("hook called %d times, want 1", calls)
	}
}
