package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/utils"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	if m.formKind != noForm && m.form != nil {
		content = docStyle.Render(m.form.View())
	} else {
		switch m.tab {
		case TabBoard:
			content = m.viewBoard()
		case TabBlocks:
			content = m.viewBlocks()
		case TabWeekly:
			content = m.viewWeekly()
		case TabActivity:
			content = m.viewActivity()
		}
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		m.viewHeader(),
		content,
		m.viewStatus(),
		m.help.View(m.keys),
	)
}

func (m Model) viewTabs() string {
	tabs := make([]string, 0, len(tabTitles))
	for i, title := range tabTitles {
		if m.tab == Tab(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewHeader() string {
	if m.snap == nil {
		return mutedStyle.Render("Loading board...")
	}
	line := fmt.Sprintf("%s %s · %d of %d online", m.today, utils.HourLabel(m.hour), m.online, len(m.days))
	if m.deps.As != "" {
		line += fmt.Sprintf(" · signed in as %s", m.deps.As)
	}
	return mutedStyle.Render(line)
}

func (m Model) viewStatus() string {
	switch {
	case m.err != nil:
		return dangerStyle.Render("✗ " + m.err.Error())
	case m.status != "":
		return okStyle.Render(m.status)
	}
	return ""
}

func (m Model) viewBoard() string {
	if len(m.days) == 0 {
		return docStyle.Render("No operators found. Add one with 'opsboard profile add'.")
	}
	return docStyle.Render(m.table.View())
}

func (m Model) viewBlocks() string {
	day, ok := m.Day()
	if !ok {
		return docStyle.Render("No operator selected.")
	}
	if len(day.Blocks) == 0 {
		return docStyle.Render(fmt.Sprintf("%s has no schedule.", day.Profile.DisplayName()))
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s · %d%% (%d/%d tasks)", day.Profile.DisplayName(), day.Percent, day.Done, day.Total)))
	b.WriteString("\n\n")

	for i, r := range m.rows() {
		pointer := "  "
		if i == m.cursor {
			pointer = cursorStyle.Render("> ")
		}
		v := day.Blocks[r.block]
		if r.task < 0 {
			st := statusStyle(v.Status).Render(string(v.Status))
			line := fmt.Sprintf("%s %s %d/%d %s", utils.HourLabel(v.Block.Hour), v.Block.Label, v.Completed, len(v.Block.Tasks), st)
			if v.Record != nil && v.Record.Note.IsJustification() {
				line += warningStyle.Render(fmt.Sprintf(" justified: %s", v.Record.Note.Reason))
			} else if v.Record != nil && v.Record.ReportSent {
				line += mutedStyle.Render(" report sent")
			}
			b.WriteString(pointer + line + "\n")
			continue
		}
		t := v.Block.Tasks[r.task]
		box := "[ ]"
		if v.Record != nil && v.Record.IsCompleted(t.ID) {
			box = okStyle.Render("[x]")
		}
		b.WriteString(fmt.Sprintf("%s    %s %s\n", pointer, box, t.Label))
	}
	return docStyle.Render(b.String())
}

func (m Model) viewWeekly() string {
	if len(m.weekly) == 0 && len(m.team) == 0 {
		return docStyle.Render("No data yet.")
	}
	var b strings.Builder
	if len(m.weekly) > 0 {
		if day, ok := m.Day(); ok {
			b.WriteString(headerStyle.Render(fmt.Sprintf("%s · last %d days, average %d%%", day.Profile.DisplayName(), len(m.weekly), aggregate.Average(m.weekly))))
			b.WriteString("\n\n")
		}
		m.writeSeries(&b, m.weekly)
	}
	if len(m.team) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("Team · average %d%%", aggregate.Average(m.team))))
		b.WriteString("\n\n")
		m.writeSeries(&b, m.team)
	}
	return docStyle.Render(b.String())
}

func (m Model) writeSeries(b *strings.Builder, series []aggregate.DayStat) {
	for _, d := range series {
		b.WriteString(fmt.Sprintf("%s %s %3d%% %s\n", d.Date, m.bar.ViewAs(float64(d.Rate)/100), d.Rate,
			mutedStyle.Render(fmt.Sprintf("(%d/%d)", d.Completed, d.Scheduled))))
	}
}

func (m Model) viewActivity() string {
	if len(m.activity) == 0 {
		return docStyle.Render("No activity recorded.")
	}
	loc := m.deps.Calendar.Loc
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	for _, e := range m.activity {
		b.WriteString(fmt.Sprintf("%s %-12s %-18s %s\n",
			mutedStyle.Render(e.Timestamp.In(loc).Format("01-02 15:04:05")),
			e.Actor, e.Action, e.Detail))
	}
	return docStyle.Render(b.String())
}
