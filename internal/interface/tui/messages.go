package tui

import (
	"bytes"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/models"
	"github.com/Somers1/logsheet/internal/core/search"
	"github.com/Somers1/logsheet/internal/core/timesheet"
)

type errMsg struct {
	err error
}

type projectsLoadedMsg struct {
	projects []models.Project
}

type sheetLoadedMsg struct {
	sheet *timesheet.Sheet
}

type dayLoadedMsg struct {
	detail dayDetail
}

type searchResultsMsg struct {
	query   string
	results []search.Result
}

type copiedMsg struct {
	what string
}

// dayDetail is one timesheet day with the blocks recorded for it
type dayDetail struct {
	Project models.Project
	Day     timesheet.Day
	Summary *models.DaySummary // nil when no blocks were grouped that day
	Blocks  []models.EventBlock
}

func loadProjects(database *db.DB) tea.Cmd {
	return func() tea.Msg {
		projects, err := database.ListProjects()
		if err != nil {
			return errMsg{err}
		}
		return projectsLoadedMsg{projects: projects}
	}
}

func loadSheet(database *db.DB, project models.Project, period timesheet.Period, loc *time.Location) tea.Cmd {
	return func() tea.Msg {
		sheet, err := timesheet.Load(database, &project, period, loc)
		if err != nil {
			return errMsg{err}
		}
		return sheetLoadedMsg{sheet: sheet}
	}
}

func loadDay(database *db.DB, project models.Project, day timesheet.Day, loc *time.Location) tea.Cmd {
	return func() tea.Msg {
		detail := dayDetail{Project: project, Day: day}

		blocks, err := database.ListBlocks(project.ID, models.TimeRange{
			From: day.Date.In(loc),
			To:   day.Date.AddDays(1).In(loc),
		})
		if err != nil {
			return errMsg{err}
		}
		detail.Blocks = blocks

		summaries, err := database.ListDaySummaries(project.ID, day.Date, day.Date.AddDays(1))
		if err != nil {
			return errMsg{err}
		}
		if len(summaries) > 0 {
			detail.Summary = &summaries[0]
		}
		return dayLoadedMsg{detail: detail}
	}
}

func performSearch(database *db.DB, query string, loc *time.Location) tea.Cmd {
	return func() tea.Msg {
		// Minimum 2 characters to search (avoid useless single-char results)
		if len(query) < 2 {
			return searchResultsMsg{query: query}
		}
		filters := search.ParseQuery(query, time.Now().In(loc))
		if filters.Query == "" {
			return searchResultsMsg{query: query}
		}
		results, err := search.Search(database, filters, 100)
		if err != nil {
			return errMsg{err}
		}
		return searchResultsMsg{query: query, results: results}
	}
}

func copySheet(sheet *timesheet.Sheet) tea.Cmd {
	return func() tea.Msg {
		var buf bytes.Buffer
		if err := timesheet.Render(&buf, sheet, timesheet.FormatText, ""); err != nil {
			return errMsg{err}
		}
		if err := clipboard.WriteAll(buf.String()); err != nil {
			return errMsg{err}
		}
		return copiedMsg{what: "timesheet"}
	}
}

func copyText(text, what string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return errMsg{err}
		}
		return copiedMsg{what: what}
	}
}
