package backups

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/opsboard/internal/auth"
	"github.com/julianstephens/opsboard/internal/cli/clitest"
	"github.com/julianstephens/opsboard/internal/storage/sqlite"
)

func TestBackupCreateListRestore(t *testing.T) {
	env := clitest.New(t)
	hash, err := auth.HashPIN("2468", "2468")
	require.NoError(t, err)
	settings, err := env.Ctx.Settings()
	require.NoError(t, err)
	settings.SupervisorPINHash = hash
	require.NoError(t, env.Ctx.Store.SaveSettings(settings))

	require.NoError(t, (&BackupListCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "No backups found.")

	env.AddOperator(t, "ana", "Ana")
	require.NoError(t, (&BackupCreateCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "✓ Backup created: opsboard-")

	env.Out.Reset()
	require.NoError(t, (&BackupListCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Available backups (1 total, keeping most recent 14)")

	mgr, err := manager(env.Ctx)
	require.NoError(t, err)
	backups, err := mgr.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)

	env.AddOperator(t, "bo", "Bo")

	err = (&BackupRestoreCmd{BackupFile: "missing.db", Yes: true, SupervisorPIN: "2468"}).Run(env.Ctx)
	require.Error(t, err)
	require.NoError(t, (&BackupRestoreCmd{BackupFile: filepath.Base(backups[0].Path), Yes: true, SupervisorPIN: "2468"}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Database restored successfully")

	restored := sqlite.NewStore(env.DBPath)
	require.NoError(t, restored.Load())
	defer restored.Close()
	profiles, err := restored.GetAllProfiles()
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "ana", profiles[0].Username)
}
