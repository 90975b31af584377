package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Somers1/logsheet/internal/core/models"
	"github.com/Somers1/logsheet/internal/core/timesheet"
)

type dayListItem struct {
	day timesheet.Day
}

func (i dayListItem) FilterValue() string {
	return i.day.Date.String()
}

func (i dayListItem) Title() string {
	return fmt.Sprintf("%s %-9s  %s", i.day.Date, i.day.Date.In(nil).Weekday(), timesheet.FormatDuration(i.day.Total))
}

func (i dayListItem) Description() string {
	for _, e := range i.day.Entries {
		if notes := timesheet.SplitNotes(e.Notes); len(notes) > 0 {
			return notes[0]
		}
	}
	return "no notes"
}

// isPending marks days with nothing billable
func isPending(item list.Item) bool {
	d, ok := item.(dayListItem)
	if !ok {
		return false
	}
	for _, e := range d.day.Entries {
		if e.Billable {
			return false
		}
	}
	return true
}

func createDayList(sheet *timesheet.Sheet, width, height int) list.Model {
	items := make([]list.Item, len(sheet.Days))
	for i, d := range sheet.Days {
		items[i] = dayListItem{day: d}
	}
	return newList(items, width, height-4)
}

func (m Model) updateDays(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.back(), nil

	case "enter":
		if selected, ok := m.dayList.SelectedItem().(dayListItem); ok {
			return m, loadDay(m.db, *m.project, selected.day, m.loc)
		}
		return m, nil

	case "[", "h":
		m.period = shiftPeriod(m.period, -1, m.loc)
		return m, loadSheet(m.db, *m.project, m.period, m.loc)

	case "]", "l":
		m.period = shiftPeriod(m.period, 1, m.loc)
		return m, loadSheet(m.db, *m.project, m.period, m.loc)

	case "a":
		if m.period.All {
			m.period = shiftPeriod(m.period, 0, m.loc)
		} else {
			m.period = timesheet.Period{All: true}
		}
		return m, loadSheet(m.db, *m.project, m.period, m.loc)

	case "y":
		if m.sheet != nil {
			return m, copySheet(m.sheet)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.dayList, cmd = m.dayList.Update(msg)
	return m, cmd
}

// shiftPeriod moves a month period by n months. From "all" it returns to the
// current month.
func shiftPeriod(p timesheet.Period, n int, loc *time.Location) timesheet.Period {
	if p.All {
		return timesheet.Period{Month: models.DateIn(time.Now(), loc).FirstOfMonth()}
	}
	return timesheet.Period{Month: p.Month.AddMonths(n)}
}

func (m Model) viewDays() string {
	if m.sheet == nil {
		return "Loading..."
	}
	s := m.sheet

	var b strings.Builder
	b.WriteString(titleStyle.Render(s.Project.Name) + "  " + s.Period.Label() + "  ")
	b.WriteString(timestampStyle.Render("total " + timesheet.FormatDuration(s.Total)))
	b.WriteString("\n")
	b.WriteString(budgetLine(s))
	b.WriteString("\n\n")

	if len(s.Days) == 0 {
		b.WriteString("No time entries for this period\n")
	} else {
		b.WriteString(m.dayList.View())
		b.WriteString("\n")
	}

	help := "enter day • [/] month • a all • y copy • esc back • ? more"
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
	} else {
		b.WriteString(helpStyle.Render(help))
	}
	return b.String()
}

func budgetLine(s *timesheet.Sheet) string {
	bs := s.Budget
	if bs == nil {
		return timestampStyle.Render("no budget")
	}

	var parts []string
	if bs.BudgetApplies {
		remaining := "remaining " + timesheet.FormatDuration(bs.Remaining)
		if bs.OverBudget() {
			remaining = overBudgetStyle.Render(remaining)
		}
		parts = append(parts,
			"monthly "+timesheet.FormatDuration(bs.MonthlyBudget),
			"carried "+timesheet.FormatDuration(bs.CarriedOver),
			remaining)
	}
	if bs.HasTotalBudget {
		parts = append(parts, "total left "+timesheet.FormatDuration(bs.TotalRemaining))
	}
	if len(parts) == 0 {
		return timestampStyle.Render("budget not started")
	}
	return strings.Join(parts, " • ")
}
