package profiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/opsboard/internal/auth"
	"github.com/julianstephens/opsboard/internal/cli/clitest"
	"github.com/julianstephens/opsboard/internal/storage"
)

const supervisorPIN = "2468"

func setupSupervisor(t *testing.T, env *clitest.Env) {
	t.Helper()
	hash, err := auth.HashPIN(supervisorPIN, supervisorPIN)
	require.NoError(t, err)
	settings, err := env.Ctx.Settings()
	require.NoError(t, err)
	settings.SupervisorPINHash = hash
	require.NoError(t, env.Ctx.Store.SaveSettings(settings))
}

func TestProfileAdd(t *testing.T) {
	env := clitest.New(t)

	err := (&ProfileAddCmd{Username: "ana", Name: "Ana"}).Run(env.Ctx)
	require.ErrorIs(t, err, auth.ErrSupervisorPINUnset)

	setupSupervisor(t, env)
	err = (&ProfileAddCmd{Username: "ana", Name: "Ana", SupervisorPIN: "0000"}).Run(env.Ctx)
	require.ErrorIs(t, err, auth.ErrInvalidPIN)

	require.NoError(t, (&ProfileAddCmd{Username: "ana", Name: "Ana", Role: "operator", SupervisorPIN: supervisorPIN}).Run(env.Ctx))
	p, err := env.Ctx.Store.GetProfile("ana")
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Name)
	assert.True(t, clitest.Now.Equal(p.CreatedAt))

	err = (&ProfileAddCmd{Username: "ana", Name: "Ana B", SupervisorPIN: supervisorPIN}).Run(env.Ctx)
	require.Error(t, err)
	require.NoError(t, (&ProfileAddCmd{Username: "ana", Name: "Ana B", Update: true, SupervisorPIN: supervisorPIN}).Run(env.Ctx))
	p, err = env.Ctx.Store.GetProfile("ana")
	require.NoError(t, err)
	assert.Equal(t, "Ana B", p.Name)

	err = (&ProfileAddCmd{Username: "Bad Name", Name: "x", SupervisorPIN: supervisorPIN}).Run(env.Ctx)
	require.Error(t, err)
}

func TestProfileListAndDelete(t *testing.T) {
	env := clitest.New(t)
	setupSupervisor(t, env)

	require.NoError(t, (&ProfileListCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "No operators found")

	env.AddOperator(t, "ana", "Ana")
	env.AddOperator(t, "bo", "Bo")
	env.Out.Reset()
	require.NoError(t, (&ProfileListCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Ana (ana) - operator, 0 block(s)")
	assert.Contains(t, env.Out.String(), "Bo (bo)")

	require.NoError(t, (&ProfileDeleteCmd{Username: "bo", SupervisorPIN: supervisorPIN}).Run(env.Ctx))
	_, err := env.Ctx.Store.GetProfile("bo")
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = (&ProfileDeleteCmd{Username: "bo", SupervisorPIN: supervisorPIN}).Run(env.Ctx)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProfilePin(t *testing.T) {
	env := clitest.New(t)
	setupSupervisor(t, env)
	env.AddOperator(t, "ana", "Ana")

	// No PIN yet, so none is needed to set one.
	require.NoError(t, (&ProfilePinCmd{Username: "ana", PIN: "1357", Confirm: "1357"}).Run(env.Ctx))
	actor, err := env.Ctx.AuthorizeOperator("ana", "1357")
	require.NoError(t, err)
	assert.Equal(t, "ana", actor)

	err = (&ProfilePinCmd{Username: "ana", PIN: "1111", Confirm: "1111"}).Run(env.Ctx)
	require.ErrorIs(t, err, auth.ErrInvalidPIN)

	require.NoError(t, (&ProfilePinCmd{Username: "ana", PIN: "1111", Confirm: "1111", Current: "1357"}).Run(env.Ctx))
	require.NoError(t, (&ProfilePinCmd{Username: "ana", Clear: true, SupervisorPIN: supervisorPIN}).Run(env.Ctx))

	p, err := env.Ctx.Store.GetProfile("ana")
	require.NoError(t, err)
	assert.False(t, p.HasPIN())
}
