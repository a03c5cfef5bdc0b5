package tracks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/opsboard/internal/auth"
	"github.com/julianstephens/opsboard/internal/cli/clitest"
	"github.com/julianstephens/opsboard/internal/constants"
	apperrors "github.com/julianstephens/opsboard/internal/errors"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/tracking"
)

const todayKey = "2024-03-15-b1"

func setup(t *testing.T) *clitest.Env {
	t.Helper()
	env := clitest.New(t)
	env.AddOperator(t, "ana", "Ana")
	blocks := []models.ScheduleBlock{
		{ID: "b1", Username: "ana", Hour: 9, Label: "Queues", Priority: constants.PriorityHigh,
			Tasks: []models.Task{{ID: "t1", Label: "Check inbox"}, {ID: "t2", Label: "Triage"}}},
		{ID: "lunch", Username: "ana", Hour: 12, Label: "Lunch", Priority: constants.PriorityLow},
	}
	require.NoError(t, env.Ctx.Store.ReplaceSchedule("ana", blocks))
	return env
}

func record(t *testing.T, env *clitest.Env, key string) models.TrackingRecord {
	t.Helper()
	rec, err := env.Ctx.Store.GetTrackingRecord("ana", key)
	require.NoError(t, err)
	return rec
}

func TestTrackToggle(t *testing.T) {
	env := setup(t)
	env.SetClock(9, 5)

	require.NoError(t, (&TrackToggleCmd{Username: "ana", Block: "09:00", Task: "1"}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "✓ Check inbox (Queues): 1/2 tasks done")
	require.NoError(t, (&TrackToggleCmd{Username: "ana", Block: "b1", Task: "t2"}).Run(env.Ctx))
	assert.Equal(t, []string{"t1", "t2"}, record(t, env, todayKey).Completed)

	env.Out.Reset()
	require.NoError(t, (&TrackToggleCmd{Username: "ana", Block: "b1", Task: "t2"}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "○ Triage (Queues): 1/2 tasks done")
	assert.Equal(t, []string{"t1"}, record(t, env, todayKey).Completed)
}

func TestTrackToggleUnknownTargets(t *testing.T) {
	env := setup(t)

	err := (&TrackToggleCmd{Username: "ana", Block: "15:00", Task: "1"}).Run(env.Ctx)
	require.ErrorIs(t, err, tracking.ErrUnknownBlock)
	err = (&TrackToggleCmd{Username: "ana", Block: "b1", Task: "3"}).Run(env.Ctx)
	require.ErrorIs(t, err, tracking.ErrUnknownTask)
	err = (&TrackToggleCmd{Username: "ana", Block: "lunch", Task: "1"}).Run(env.Ctx)
	require.ErrorIs(t, err, tracking.ErrUnknownTask)
}

func TestTrackRequiresOperatorPIN(t *testing.T) {
	env := setup(t)
	p, err := env.Ctx.Store.GetProfile("ana")
	require.NoError(t, err)
	p.PINHash, err = auth.HashPIN("1357", "1357")
	require.NoError(t, err)
	require.NoError(t, env.Ctx.Store.SaveProfile(p))

	err = (&TrackToggleCmd{Username: "ana", Block: "b1", Task: "1"}).Run(env.Ctx)
	require.ErrorIs(t, err, auth.ErrPINRequired)
	err = (&TrackToggleCmd{Username: "ana", Block: "b1", Task: "1", PIN: "0000"}).Run(env.Ctx)
	require.ErrorIs(t, err, auth.ErrInvalidPIN)
	require.NoError(t, (&TrackToggleCmd{Username: "ana", Block: "b1", Task: "1", PIN: "1357"}).Run(env.Ctx))
}

func TestTrackReportAndSubmit(t *testing.T) {
	env := setup(t)

	require.NoError(t, (&TrackReportCmd{Username: "ana", Block: "b1", Text: "inbox was slow"}).Run(env.Ctx))
	rec := record(t, env, todayKey)
	assert.Equal(t, models.PlainNote("inbox was slow"), rec.Note)
	assert.False(t, rec.ReportSent)

	require.NoError(t, (&TrackSubmitCmd{Username: "ana", Block: "b1"}).Run(env.Ctx))
	rec = record(t, env, todayKey)
	assert.True(t, rec.ReportSent)
	assert.Equal(t, "inbox was slow", rec.Note.Report)

	err := (&TrackSubmitCmd{Username: "ana", Block: "b1", Date: "2024-03-14"}).Run(env.Ctx)
	require.True(t, apperrors.IsValidation(err), "empty report: %v", err)
}

func TestTrackJustify(t *testing.T) {
	env := setup(t)

	err := (&TrackJustifyCmd{Username: "ana", Block: "b1", Reason: "other"}).Run(env.Ctx)
	require.True(t, apperrors.IsValidation(err))

	require.NoError(t, (&TrackJustifyCmd{Username: "ana", Block: "b1", Reason: "impossible_to_complete", Text: "queue down", Escalate: true}).Run(env.Ctx))
	note := record(t, env, todayKey).Note
	assert.True(t, note.IsJustification())
	assert.True(t, note.IsImpossible)
	assert.True(t, note.Escalated)
	assert.Equal(t, "queue down", note.Report)

	require.NoError(t, (&TrackJustifyCmd{Username: "ana", Block: "b1", Reason: "high_demand", Date: "2024-03-14"}).Run(env.Ctx))
	assert.Equal(t, constants.ReasonHighDemand, record(t, env, "2024-03-14-b1").Note.Reason)
}

func TestTrackAttach(t *testing.T) {
	env := setup(t)
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, []byte("queue restarted at 09:40\n"), 0600))

	require.NoError(t, (&TrackAttachCmd{Username: "ana", Block: "b1", File: path}).Run(env.Ctx))
	rec := record(t, env, todayKey)
	require.Len(t, rec.Attachments, 1)
	assert.Equal(t, "log.txt", rec.Attachments[0].Name)
	assert.Contains(t, rec.Attachments[0].MimeType, "text/plain")
	assert.Contains(t, env.Out.String(), "1 attachment(s) today")
}

const legacyExport = `[
  {"username":"ana","tracking_key":"2024-03-14-b1","completed_tasks":["task-0","task-5"],"notes":"{\"report\":\"rush\",\"delayReason\":\"high_demand\",\"isImpossible\":false,\"escalated\":true}","updated_at":"2024-03-14T11:00:00Z"},
  {"username":"ana","tracking_key":"2024-03-15-b1","completed_tasks":["task-1"],"notes":"plain","updated_at":"2024-03-15T09:30:00Z"},
  {"username":"ana","tracking_key":"2024-03-15-gone","completed_tasks":[],"notes":"","updated_at":""}
]`

func withSupervisor(t *testing.T, env *clitest.Env) {
	t.Helper()
	hash, err := auth.HashPIN("2468", "2468")
	require.NoError(t, err)
	settings, err := env.Ctx.Settings()
	require.NoError(t, err)
	settings.SupervisorPINHash = hash
	require.NoError(t, env.Ctx.Store.SaveSettings(settings))
}

func TestImportLegacyExport(t *testing.T) {
	env := setup(t)
	withSupervisor(t, env)
	require.NoError(t, env.Ctx.Store.UpsertTrackingRecord(models.TrackingRecord{
		Key: todayKey, Username: "ana", Completed: []string{"t1"}, UpdatedAt: clitest.Now,
	}))

	dry := &ImportCmd{File: "-", DryRun: true, stdin: strings.NewReader(legacyExport)}
	require.NoError(t, dry.Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Would import 1 record(s); 1 skipped, 1 rejected, 1 task token(s) dropped")
	_, err := env.Ctx.Store.GetTrackingRecord("ana", "2024-03-14-b1")
	require.Error(t, err)

	env.Out.Reset()
	cmd := &ImportCmd{File: "-", SupervisorPIN: "2468", stdin: strings.NewReader(legacyExport)}
	require.NoError(t, cmd.Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Imported 1 record(s); 1 skipped")

	rec := record(t, env, "2024-03-14-b1")
	assert.Equal(t, []string{"t1"}, rec.Completed)
	assert.Equal(t, constants.ReasonHighDemand, rec.Note.Reason)
	assert.True(t, rec.Note.Escalated)
	// The existing record for today was left alone.
	assert.Equal(t, []string{"t1"}, record(t, env, todayKey).Completed)

	cmd = &ImportCmd{File: "-", Overwrite: true, SupervisorPIN: "2468", stdin: strings.NewReader(legacyExport)}
	require.NoError(t, cmd.Run(env.Ctx))
	assert.Equal(t, []string{"t2"}, record(t, env, todayKey).Completed)
	assert.Equal(t, "plain", record(t, env, todayKey).Note.Report)
}

func TestExportRoundTrip(t *testing.T) {
	env := setup(t)
	withSupervisor(t, env)
	require.NoError(t, (&TrackToggleCmd{Username: "ana", Block: "b1", Task: "t2"}).Run(env.Ctx))
	require.NoError(t, (&TrackJustifyCmd{Username: "ana", Block: "b1", Reason: "external_factor", Text: "vendor"}).Run(env.Ctx))

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, (&ExportCmd{Output: path}).Run(env.Ctx))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"task-1"`)
	assert.Contains(t, string(data), `delayReason`)

	before := record(t, env, todayKey)
	cmd := &ImportCmd{File: path, Overwrite: true, SupervisorPIN: "2468"}
	require.NoError(t, cmd.Run(env.Ctx))
	after := record(t, env, todayKey)
	assert.Equal(t, before.Completed, after.Completed)
	assert.Equal(t, before.Note.Reason, after.Note.Reason)
	assert.Equal(t, before.Note.Report, after.Note.Report)
}
