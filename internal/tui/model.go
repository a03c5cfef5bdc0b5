// Package tui is the terminal dashboard: the team board, one operator's
// blocks, the weekly series and the activity log.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/board"
	"github.com/julianstephens/opsboard/internal/changes"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/logger"
	"github.com/julianstephens/opsboard/internal/models"
)

type Tab int

const (
	TabBoard Tab = iota
	TabBlocks
	TabWeekly
	TabActivity
)

var tabTitles = []string{"Board", "Blocks", "Weekly", "Activity"}

type formKind int

const (
	noForm formKind = iota
	reportForm
	justifyForm
	pinForm
)

// ReportFormModel backs the report form.
type ReportFormModel struct {
	Text   string
	Submit bool
}

// JustifyFormModel backs the delay justification form.
type JustifyFormModel struct {
	Reason   constants.DelayReason
	Text     string
	Escalate bool
}

// PINFormModel backs the PIN gate.
type PINFormModel struct {
	PIN string
}

// action is a write on behalf of an operator, run once they are authorized.
type action struct {
	username string
	run      func(actor string) (string, error)
}

type Model struct {
	deps  Deps
	keys  KeyMap
	help  help.Model
	table table.Model
	bar   progress.Model

	tab      Tab
	form     *huh.Form
	formKind formKind
	report   *ReportFormModel
	justify  *JustifyFormModel
	pin      *PINFormModel
	target   board.BlockView
	pending  *action
	pins     map[string]string

	events   <-chan changes.Event
	snap     *board.Snapshot
	days     []board.OperatorDay
	today    string
	hour     int
	online   int
	weekly   []aggregate.DayStat
	team     []aggregate.DayStat
	activity []models.ActivityLogEntry

	selected string
	cursor   int
	status   string
	err      error
	width    int
	height   int
	quitting bool
}

type tickMsg time.Time

// refreshedMsg carries a fresh read of everything the views show.
type refreshedMsg struct {
	snap     *board.Snapshot
	days     []board.OperatorDay
	today    string
	hour     int
	online   int
	weekly   []aggregate.DayStat
	team     []aggregate.DayStat
	activity []models.ActivityLogEntry
	err      error
}

type changeMsg changes.Event

type feedClosedMsg struct{}

type actionDoneMsg struct {
	status string
	err    error
}

func NewModel(deps Deps) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "", Width: 2},
			{Title: "Operator", Width: 22},
			{Title: "Progress", Width: 9},
			{Title: "Tasks", Width: 8},
			{Title: "Late", Width: 5},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	m := Model{
		deps:     deps,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		table:    t,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		pins:     map[string]string{},
		selected: deps.As,
	}

	if deps.Broker != nil {
		ch, err := deps.Broker.Subscribe(deps.Context(), changes.AllTopics()...)
		if err != nil {
			logger.Warn("Change feed unavailable, polling only", "error", err)
		} else {
			m.events = ch
		}
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.tick(), waitForChange(m.events))
}

func (m Model) interval() time.Duration {
	if m.deps.Presence != nil && m.deps.Presence.Interval() > 0 {
		return m.deps.Presence.Interval()
	}
	return time.Duration(constants.DefaultHeartbeatIntervalSec) * time.Second
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(ch <-chan changes.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return changeMsg(ev)
	}
}

// refresh recomputes presence and re-reads the board off the update loop.
func (m Model) refresh() tea.Cmd {
	deps, selected := m.deps, m.selected
	return func() tea.Msg {
		ctx := deps.Context()
		var online func(string) bool
		count := 0
		if deps.Presence != nil {
			if _, err := deps.Presence.Recompute(ctx); err != nil {
				logger.Warn("Presence unavailable", "error", err)
			}
			online, count = deps.Presence.IsOnline, len(deps.Presence.ActiveSet())
		}

		snap, err := deps.Loader.Load()
		if snap == nil {
			return refreshedMsg{err: err}
		}
		today, hour := deps.Calendar.Today(), deps.Calendar.Hour()
		msg := refreshedMsg{
			snap:   snap,
			days:   snap.Days(today, hour, online),
			today:  today,
			hour:   hour,
			online: count,
			err:    err,
		}

		if selected == "" && len(snap.Profiles) > 0 {
			selected = snap.Profiles[0].Username
		}
		if selected != "" {
			if series, err := snap.Weekly(selected, today, constants.DefaultSeriesDays); err == nil {
				msg.weekly = series
			}
		}
		if team, err := snap.TeamWeekly(today, constants.DefaultSeriesDays); err == nil {
			msg.team = team
		}
		if deps.Activity != nil {
			entries, err := deps.Activity.GetRecentActivity(deps.LogLimit)
			if err != nil {
				logger.Warn("Failed to load activity", "error", err)
			}
			msg.activity = entries
		}
		return msg
	}
}

// apply installs a refresh, keeping the previous data when the read failed.
func (m *Model) apply(msg refreshedMsg) {
	m.err = msg.err
	if msg.snap == nil {
		return
	}
	m.snap, m.days = msg.snap, msg.days
	m.today, m.hour, m.online = msg.today, msg.hour, msg.online
	m.weekly, m.team, m.activity = msg.weekly, msg.team, msg.activity

	if _, ok := m.snap.Profile(m.selected); !ok {
		m.selected = ""
		if len(m.days) > 0 {
			m.selected = m.days[0].Profile.Username
		}
	}

	rows := make([]table.Row, 0, len(m.days))
	for _, d := range m.days {
		dot := "○"
		if d.Online {
			dot = "●"
		}
		rows = append(rows, table.Row{
			dot,
			d.Profile.DisplayName(),
			fmt.Sprintf("%d%%", d.Percent),
			fmt.Sprintf("%d/%d", d.Done, d.Total),
			fmt.Sprintf("%d", d.Counts.Late),
		})
	}
	m.table.SetRows(rows)
	for i, d := range m.days {
		if d.Profile.Username == m.selected {
			m.table.SetCursor(i)
		}
	}
	if rows := m.rows(); m.cursor >= len(rows) {
		m.cursor = max(len(rows)-1, 0)
	}
}

// Day returns the selected operator's board row.
func (m Model) Day() (board.OperatorDay, bool) {
	for _, d := range m.days {
		if d.Profile.Username == m.selected {
			return d, true
		}
	}
	return board.OperatorDay{}, false
}

// row is one line of the blocks view: a block header (task -1) or a task.
type row struct {
	block int
	task  int
}

func (m Model) rows() []row {
	day, ok := m.Day()
	if !ok {
		return nil
	}
	var out []row
	for i, v := range day.Blocks {
		out = append(out, row{block: i, task: -1})
		for j := range v.Block.Tasks {
			out = append(out, row{block: i, task: j})
		}
	}
	return out
}

// focused returns the block and task index under the cursor.
func (m Model) focused() (board.BlockView, int, bool) {
	day, ok := m.Day()
	if !ok {
		return board.BlockView{}, -1, false
	}
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return board.BlockView{}, -1, false
	}
	r := rows[m.cursor]
	return day.Blocks[r.block], r.task, true
}
