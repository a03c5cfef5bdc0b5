// Package clitest builds command contexts over a throwaway sqlite store.
package clitest

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/localstate"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/storage/sqlite"
)

// Now is the fixed instant commands see: 2024-03-15 10:30 UTC.
var Now = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

// Env is a command context plus its captured output.
type Env struct {
	Ctx    *cli.Context
	Out    *bytes.Buffer
	DBPath string

	now time.Time
}

// New returns an initialized store with UTC settings and no profiles.
func New(t *testing.T) *Env {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "opsboard.db")

	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	if err := store.SaveSettings(settings); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}

	out := &bytes.Buffer{}
	env := &Env{Out: out, DBPath: dbPath, now: Now}
	env.Ctx = &cli.Context{
		Store: store,
		State: localstate.New(filepath.Join(dir, "state.json")),
		Now:   func() time.Time { return env.now },
		Out:   out,
	}
	t.Cleanup(func() {
		env.Ctx.Close()
		_ = store.Close()
	})
	return env
}

// AddOperator saves a profile without a PIN.
func (e *Env) AddOperator(t *testing.T, username, name string) {
	t.Helper()
	p := models.Profile{Username: username, Name: name, Role: "operator", CreatedAt: Now}
	if err := e.Ctx.Store.SaveProfile(p); err != nil {
		t.Fatalf("failed to save profile: %v", err)
	}
}

// SetClock moves the context's clock to hh:mm on the fixture day.
func (e *Env) SetClock(hour, minute int) {
	e.now = time.Date(Now.Year(), Now.Month(), Now.Day(), hour, minute, 0, 0, time.UTC)
}

// SetTime moves the context's clock to t.
func (e *Env) SetTime(t time.Time) {
	e.now = t
}
