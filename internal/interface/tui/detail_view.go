package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Somers1/logsheet/internal/core/timesheet"
)

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.back(), nil

	case "y":
		if m.day != nil {
			return m, copyText(dayNotes(*m.day), "day notes")
		}
		return m, nil

	case "g":
		m.viewport.GotoTop()
		return m, nil

	case "G":
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// renderDay lays out a day's time entries followed by its work blocks
func renderDay(d dayDetail, loc *time.Location, width int) string {
	wrap := lipgloss.NewStyle().Width(max(width-4, 20))

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(d.Project.Name),
		fmt.Sprintf("%s (%s)  %s", d.Day.Date, d.Day.Date.In(loc).Weekday(), timesheet.FormatDuration(d.Day.Total)))

	b.WriteString("\n" + blockStyle.Render("Time entries") + "\n")
	for _, e := range d.Day.Entries {
		line := timesheet.FormatDuration(e.Duration)
		if !e.Billable {
			line += " (non-billable)"
		}
		b.WriteString("  " + line + "\n")
		for _, note := range timesheet.SplitNotes(e.Notes) {
			b.WriteString(wrap.Render(noteStyle.Render("    - "+note)) + "\n")
		}
	}

	if d.Summary != nil {
		status := ""
		if d.Summary.Exported {
			status = timestampStyle.Render(" exported")
		}
		fmt.Fprintf(&b, "\n%s  %s across %d blocks%s\n", blockStyle.Render("Tracked"),
			timesheet.FormatDuration(d.Summary.Duration), d.Summary.BlockCount, status)
		for _, note := range timesheet.SplitNotes(d.Summary.Summary) {
			b.WriteString(wrap.Render("  - "+note) + "\n")
		}
	}

	for _, blk := range d.Blocks {
		header := fmt.Sprintf("%s-%s  %s  %d events",
			blk.Start.In(loc).Format("15:04"), blk.End.In(loc).Format("15:04"),
			timesheet.FormatDuration(blk.Duration()), blk.EventCount)
		if blk.Exported {
			header += "  in calendar"
		}
		b.WriteString("\n" + timestampStyle.Render(header) + "\n")
		if blk.Summary != "" {
			b.WriteString(wrap.Render("  "+blk.Summary) + "\n")
		} else {
			b.WriteString(pendingItemStyle.Render("(not summarized)") + "\n")
		}
	}
	return b.String()
}

// dayNotes is the plain text copied with y
func dayNotes(d dayDetail) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("%s %s %s", d.Project.Name, d.Day.Date, timesheet.FormatDuration(d.Day.Total)))
	for _, e := range d.Day.Entries {
		for _, note := range timesheet.SplitNotes(e.Notes) {
			lines = append(lines, "- "+note)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewDetail() string {
	footer := helpStyle.Render("j/k scroll • g/G top/bottom • y copy notes • esc back")
	if m.status != "" {
		footer = statusStyle.Render(m.status)
	}
	return m.viewport.View() + "\n" + footer
}
