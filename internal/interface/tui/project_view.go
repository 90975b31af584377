package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Somers1/logsheet/internal/core/models"
	"github.com/Somers1/logsheet/internal/core/timesheet"
)

type projectListItem struct {
	project models.Project
}

func (i projectListItem) FilterValue() string {
	return i.project.Name + " " + i.project.Description
}

func (i projectListItem) Title() string {
	return i.project.Name
}

func (i projectListItem) Description() string {
	var parts []string
	if i.project.Description != "" {
		parts = append(parts, i.project.Description)
	}
	if i.project.MonthlyBudget != nil {
		parts = append(parts, timesheet.FormatDuration(*i.project.MonthlyBudget)+"/month")
	}
	if i.project.TotalBudget != nil {
		parts = append(parts, timesheet.FormatDuration(*i.project.TotalBudget)+" total")
	}
	if len(parts) == 0 {
		return "no budget"
	}
	return strings.Join(parts, " | ")
}

type itemDelegate struct {
	list.DefaultDelegate
}

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(list.DefaultItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	title, desc := it.Title(), it.Description()
	switch {
	case index == m.Index():
		title = selectedItemStyle.Render(title)
		desc = selectedItemStyle.Faint(true).Render(desc)
	case isPending(item):
		title = pendingItemStyle.Render(title)
		desc = pendingItemStyle.Render(desc)
	default:
		title = itemStyle.Render(title)
		desc = itemStyle.Render(desc)
	}
	fmt.Fprintf(w, "%s\n%s", title, desc)
}

func newList(items []list.Item, width, height int) list.Model {
	l := list.New(items, itemDelegate{DefaultDelegate: list.NewDefaultDelegate()}, width, height)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(false)
	return l
}

func createProjectList(projects []models.Project, width, height int) list.Model {
	items := make([]list.Item, len(projects))
	for i, p := range projects {
		items[i] = projectListItem{project: p}
	}
	return newList(items, width, height-2)
}

func (m Model) updateProjects(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if selected, ok := m.projectList.SelectedItem().(projectListItem); ok {
			p := selected.project
			m.project = &p
			return m, loadSheet(m.db, p, m.period, m.loc)
		}
		return m, nil

	case "/":
		m.mode = searchView
		return m, m.searchInput.Focus()

	case "r":
		return m, loadProjects(m.db)
	}

	var cmd tea.Cmd
	m.projectList, cmd = m.projectList.Update(msg)
	return m, cmd
}

func (m Model) viewProjects() string {
	header := titleStyle.Render("logsheet") + "  " + timestampStyle.Render(m.period.Label())
	help := helpStyle.Render("↑/k up • ↓/j down • enter timesheet • / search • q quit • ? more")
	if len(m.projects) == 0 {
		return header + "\n\nNo projects yet. Create one with 'logsheet project add'.\n\n" + help
	}
	return header + "\n" + m.projectList.View() + "\n" + help
}
