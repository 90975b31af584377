package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "?":
		return m.back(), nil
	}
	return m, nil
}

func (m Model) viewHelp() string {
	help := `
logsheet - Help
═══════════════

PROJECT LIST
────────────
  ↑/↓, j/k     Navigate projects
  Enter        Open the project's timesheet
  /            Search events
  r            Reload
  q            Quit

TIMESHEET
─────────
  Enter        Show the day's entries and work blocks
  [ / ]        Previous / next month
  a            Toggle all time
  y            Copy the timesheet to the clipboard
  esc          Back to projects

DAY DETAIL
──────────
  j/k          Scroll line by line
  g/G          Jump to top/bottom
  y            Copy the day's notes
  esc          Back to the timesheet

SEARCH
──────
  Type         Query, with project: after: before: filters
  Enter        Run search
  esc          Back

Press ? or esc to return
`
	return helpStyle.Render(help)
}
