package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/opsboard/internal/auth"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/tracking"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.refresh(), m.tick())
	case changeMsg:
		return m, tea.Batch(m.refresh(), waitForChange(m.events))
	case feedClosedMsg:
		m.events = nil
		return m, nil
	case refreshedMsg:
		m.apply(msg)
		return m, nil
	case actionDoneMsg:
		m.status, m.err = msg.status, msg.err
		return m, m.refresh()
	}

	if m.formKind != noForm {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Tab):
		m.tab = (m.tab + 1) % Tab(len(tabTitles))
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.tab = (m.tab + Tab(len(tabTitles)) - 1) % Tab(len(tabTitles))
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	}

	switch m.tab {
	case TabBoard:
		if key.Matches(msg, m.keys.Enter) {
			m.tab = TabBlocks
			m.cursor = 0
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		if i := m.table.Cursor(); i >= 0 && i < len(m.days) && m.days[i].Profile.Username != m.selected {
			m.selected = m.days[i].Profile.Username
			m.cursor = 0
			return m, tea.Batch(cmd, m.refresh())
		}
		return m, cmd
	case TabBlocks:
		return m.handleBlocksKey(msg)
	}
	return m, nil
}

func (m Model) handleBlocksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		return m.toggle()
	case key.Matches(msg, m.keys.Report):
		return m.openReport()
	case key.Matches(msg, m.keys.Justify):
		return m.openJustify()
	}
	return m, nil
}

func (m Model) toggle() (Model, tea.Cmd) {
	v, task, ok := m.focused()
	if !ok {
		return m, nil
	}
	if task < 0 {
		m.status = "Select a task to toggle"
		return m, nil
	}
	username, blockID, t := m.selected, v.Block.ID, v.Block.Tasks[task]
	svc, ctx := m.deps.Tracking, m.deps.Context()
	return m.authorize(&action{
		username: username,
		run: func(actor string) (string, error) {
			rec, done, err := svc.ToggleTask(ctx, actor, username, blockID, t.ID)
			if err != nil {
				return "", err
			}
			mark := "○"
			if done {
				mark = "✓"
			}
			return fmt.Sprintf("%s %s (%s): %d/%d tasks done", mark, t.Label, v.Block.Label, v.Block.CompletedCount(&rec), len(v.Block.Tasks)), nil
		},
	})
}

// authorize runs a with the operator's remembered PIN, opening the PIN gate
// when one is needed.
func (m Model) authorize(a *action) (Model, tea.Cmd) {
	actor, err := m.deps.Authorize(a.username, m.pins[a.username])
	if err != nil {
		if errors.Is(err, auth.ErrPINRequired) {
			m.pending = a
			return m.openPIN()
		}
		m.status, m.err = "", err
		return m, nil
	}
	return m, runAction(a, actor)
}

func runAction(a *action, actor string) tea.Cmd {
	return func() tea.Msg {
		status, err := a.run(actor)
		return actionDoneMsg{status: status, err: err}
	}
}

func (m Model) openReport() (Model, tea.Cmd) {
	v, _, ok := m.focused()
	if !ok {
		return m, nil
	}
	m.target = v
	m.report = &ReportFormModel{}
	if v.Record != nil {
		m.report.Text = v.Record.Note.Report
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(fmt.Sprintf("Report for %s", v.Block.Label)).
				CharLimit(tracking.MaxReportLength).
				Value(&m.report.Text),
			huh.NewConfirm().
				Title("Submit to the supervisor now?").
				Value(&m.report.Submit),
		),
	)
	m.formKind = reportForm
	return m, m.form.Init()
}

func (m Model) openJustify() (Model, tea.Cmd) {
	v, _, ok := m.focused()
	if !ok {
		return m, nil
	}
	if v.Status != constants.StatusLate {
		m.status = fmt.Sprintf("%s is not late", v.Block.Label)
		return m, nil
	}
	m.target = v
	m.justify = &JustifyFormModel{Reason: constants.ReasonHighDemand}
	options := make([]huh.Option[constants.DelayReason], 0, len(constants.DelayReasons))
	for _, r := range constants.DelayReasons {
		options = append(options, huh.NewOption(strings.ReplaceAll(string(r), "_", " "), r))
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[constants.DelayReason]().
				Title(fmt.Sprintf("Why is %s late?", v.Block.Label)).
				Options(options...).
				Value(&m.justify.Reason),
			huh.NewText().
				Title("Explanation").
				CharLimit(tracking.MaxReportLength).
				Value(&m.justify.Text),
			huh.NewConfirm().
				Title("Escalate to the supervisor?").
				Value(&m.justify.Escalate),
		),
	)
	m.formKind = justifyForm
	return m, m.form.Init()
}

func (m Model) openPIN() (Model, tea.Cmd) {
	m.pin = &PINFormModel{}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("PIN for %s", m.pending.username)).
				Description("Operator PIN, or the supervisor PIN.").
				EchoMode(huh.EchoModePassword).
				Value(&m.pin.PIN),
		),
	)
	m.formKind = pinForm
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		return m.closeForm(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		next, done := m.submitForm()
		return next, tea.Batch(cmd, done)
	case huh.StateAborted:
		return m.closeForm(), cmd
	}
	return m, cmd
}

func (m Model) closeForm() Model {
	m.form, m.formKind, m.pending = nil, noForm, nil
	return m
}

// submitForm acts on a completed form.
func (m Model) submitForm() (Model, tea.Cmd) {
	kind, pending := m.formKind, m.pending
	m = m.closeForm()
	switch kind {
	case reportForm:
		return m.submitReport()
	case justifyForm:
		return m.submitJustification()
	case pinForm:
		return m.submitPIN(pending, m.pin.PIN)
	}
	return m, nil
}

func (m Model) submitReport() (Model, tea.Cmd) {
	username, trackKey, label := m.selected, m.target.Key, m.target.Block.Label
	text, submit := m.report.Text, m.report.Submit
	svc, ctx := m.deps.Tracking, m.deps.Context()
	return m.authorize(&action{
		username: username,
		run: func(actor string) (string, error) {
			if submit {
				if _, err := svc.SubmitReport(ctx, actor, username, trackKey, text); err != nil {
					return "", err
				}
				return fmt.Sprintf("✓ Report submitted for %s", label), nil
			}
			if _, err := svc.SetReport(ctx, actor, username, trackKey, text); err != nil {
				return "", err
			}
			return fmt.Sprintf("✓ Report saved for %s", label), nil
		},
	})
}

func (m Model) submitJustification() (Model, tea.Cmd) {
	username, trackKey, label := m.selected, m.target.Key, m.target.Block.Label
	j := tracking.Justification{Reason: m.justify.Reason, Report: m.justify.Text, Escalate: m.justify.Escalate}
	svc, ctx := m.deps.Tracking, m.deps.Context()
	return m.authorize(&action{
		username: username,
		run: func(actor string) (string, error) {
			if _, err := svc.Justify(ctx, actor, username, trackKey, j); err != nil {
				return "", err
			}
			return fmt.Sprintf("✓ Delay justified for %s (%s)", label, j.Reason), nil
		},
	})
}

func (m Model) submitPIN(a *action, pin string) (Model, tea.Cmd) {
	if a == nil {
		return m, nil
	}
	actor, err := m.deps.Authorize(a.username, pin)
	if err != nil {
		m.status, m.err = "", err
		return m, nil
	}
	m.pins[a.username] = pin
	return m, runAction(a, actor)
}
