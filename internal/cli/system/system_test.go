package system

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/opsboard/internal/cli/clitest"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
)

func seedLateBlock(t *testing.T, env *clitest.Env) {
	t.Helper()
	env.AddOperator(t, "ana", "Ana")
	blocks := []models.ScheduleBlock{
		{ID: "b1", Username: "ana", Hour: 9, Label: "Morning checks", Priority: constants.PriorityHigh,
			Tasks: []models.Task{{ID: "t1", Label: "Check queues"}}},
	}
	require.NoError(t, env.Ctx.Store.ReplaceSchedule("ana", blocks))
}

func TestInitCmd_Idempotent(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&InitCmd{}).Run(env.Ctx))
	require.NoError(t, (&InitCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Initialized opsboard storage")
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	env := clitest.New(t)
	env.AddOperator(t, "ana", "Ana")

	require.NoError(t, (&InitCmd{Force: true}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Deleted existing database")

	_, err := os.Stat(env.DBPath)
	require.NoError(t, err)
	profiles, err := env.Ctx.Store.GetAllProfiles()
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestMigrateCmd_UpToDate(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&MigrateCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "up to date")
}

func TestDoctorCmd_HealthyDB(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&DoctorCmd{}).Run(env.Ctx))
	out := env.Out.String()
	assert.Contains(t, out, "✓ Database reachable: OK")
	assert.Contains(t, out, "✓ Migrations complete: OK")
	// Missing backups and an unset supervisor PIN only warn.
	assert.Contains(t, out, "⚠ Backups present: WARNING")
	assert.Contains(t, out, "⚠ Supervisor PIN: WARNING")
}

func TestDoctorCmd_BadSettings(t *testing.T) {
	env := clitest.New(t)
	settings, err := env.Ctx.Settings()
	require.NoError(t, err)
	settings.PresenceTTLSec = 2
	require.NoError(t, env.Ctx.Store.SaveSettings(settings))

	err = (&DoctorCmd{}).Run(env.Ctx)
	require.Error(t, err)
	assert.Contains(t, env.Out.String(), "❌ Settings: FAIL")
}

func TestNotifyCmd_DryRunNeverMarks(t *testing.T) {
	env := clitest.New(t)
	seedLateBlock(t, env)

	for i := 0; i < 2; i++ {
		env.Out.Reset()
		require.NoError(t, (&NotifyCmd{DryRun: true}).Run(env.Ctx))
		out := env.Out.String()
		assert.Contains(t, out, "[late] Late block: Ana has not completed Morning checks")
		assert.Contains(t, out, "1 late, 0 justification notice(s)")
	}
}

func TestNotifyCmd_Disabled(t *testing.T) {
	env := clitest.New(t)
	seedLateBlock(t, env)
	settings, err := env.Ctx.Settings()
	require.NoError(t, err)
	settings.NotificationsEnabled = false
	require.NoError(t, env.Ctx.Store.SaveSettings(settings))

	require.NoError(t, (&NotifyCmd{DryRun: true}).Run(env.Ctx))
	assert.Equal(t, "Notifications are disabled in settings.\n", env.Out.String())
}

func TestNotifyCmd_NothingLateBeforeTheHour(t *testing.T) {
	env := clitest.New(t)
	seedLateBlock(t, env)
	env.SetClock(9, 5)

	require.NoError(t, (&NotifyCmd{DryRun: true}).Run(env.Ctx))
	assert.NotContains(t, env.Out.String(), "[late]")
}

func TestSupervisorPinCmd(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&SupervisorPinCmd{PIN: "4321", Confirm: "4321"}).Run(env.Ctx))
	require.NoError(t, env.Ctx.RequireSupervisor("4321"))

	// Rotating needs the current PIN.
	err := (&SupervisorPinCmd{PIN: "9999", Confirm: "9999"}).Run(env.Ctx)
	require.Error(t, err)
	require.NoError(t, (&SupervisorPinCmd{Current: "4321", PIN: "9999", Confirm: "9999"}).Run(env.Ctx))
	require.NoError(t, env.Ctx.RequireSupervisor("9999"))

	err = (&SupervisorPinCmd{Current: "9999", PIN: "12a4", Confirm: "12a4"}).Run(env.Ctx)
	require.Error(t, err)
}

func TestMaskPassword(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://ops:secret@db:5432/board", "postgres://ops:****@db:5432/board"},
		{"postgresql://ops@db/board", "postgresql://ops@db/board"},
		{"host=db user=ops password=secret dbname=board", "host=db user=ops password=**** dbname=board"},
		{"host=db dbname=board", "host=db dbname=board"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, maskPassword(tt.in), tt.in)
	}
}

func TestMaskURL(t *testing.T) {
	assert.Equal(t, "https://hooks.example.com/****", maskURL("https://hooks.example.com/services/T000/B000/XXXX"))
	assert.Equal(t, "https://hooks.example.com", maskURL("https://hooks.example.com"))
	assert.Equal(t, "****", maskURL("not a url"))
	assert.False(t, strings.Contains(maskURL("https://h.example.com/secret"), "secret"))
}
