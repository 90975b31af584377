package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/models"
	"github.com/Somers1/logsheet/internal/core/search"
	"github.com/Somers1/logsheet/internal/core/timesheet"
)

type viewMode int

const (
	projectView viewMode = iota
	dayView
	detailView
	searchView
	helpView
)

type Model struct {
	db       *db.DB
	loc      *time.Location
	mode     viewMode
	prevMode viewMode
	width    int
	height   int
	err      error
	status   string

	projects    []models.Project
	projectList list.Model

	project *models.Project
	period  timesheet.Period
	sheet   *timesheet.Sheet
	dayList list.Model

	day      *dayDetail
	viewport viewport.Model

	searchInput   textinput.Model
	searchQuery   string
	searchResults []search.Result
	searchView    viewport.Model
}

// New opens on the project list with the current month selected
func New(database *db.DB, loc *time.Location) Model {
	if loc == nil {
		loc = time.UTC
	}
	ti := textinput.New()
	ti.Placeholder = "search events (project:, after:, before:)"
	ti.CharLimit = 200

	return Model{
		db:          database,
		loc:         loc,
		mode:        projectView,
		period:      timesheet.Period{Month: models.DateIn(time.Now(), loc).FirstOfMonth()},
		searchInput: ti,
	}
}

func (m Model) Init() tea.Cmd {
	return loadProjects(m.db)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.projectList.SetSize(msg.Width, msg.Height-2)
		m.dayList.SetSize(msg.Width, msg.Height-4)
		m.viewport.Width, m.viewport.Height = msg.Width, msg.Height-3
		m.searchView.Width, m.searchView.Height = msg.Width, msg.Height-4
		return m, nil

	case tea.KeyMsg:
		if m.mode == searchView && m.searchInput.Focused() {
			return m.updateSearch(msg)
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.mode == projectView {
				return m, tea.Quit
			}
			return m.back(), nil
		case "?":
			if m.mode != helpView {
				m.prevMode = m.mode
				m.mode = helpView
			}
			return m, nil
		}

		m.status = ""
		switch m.mode {
		case projectView:
			return m.updateProjects(msg)
		case dayView:
			return m.updateDays(msg)
		case detailView:
			return m.updateDetail(msg)
		case searchView:
			return m.updateSearch(msg)
		case helpView:
			return m.updateHelp(msg)
		}

	case projectsLoadedMsg:
		m.projects = msg.projects
		m.projectList = createProjectList(msg.projects, m.width, m.height)
		return m, nil

	case sheetLoadedMsg:
		m.sheet = msg.sheet
		m.dayList = createDayList(msg.sheet, m.width, m.height)
		m.mode = dayView
		return m, nil

	case dayLoadedMsg:
		m.day = &msg.detail
		m.viewport = viewport.New(m.width, m.height-3)
		m.viewport.SetContent(renderDay(msg.detail, m.loc, m.width))
		m.mode = detailView
		return m, nil

	case searchResultsMsg:
		if msg.query != m.searchInput.Value() {
			return m, nil // stale
		}
		m.searchQuery = msg.query
		m.searchResults = msg.results
		m.searchView = viewport.New(m.width, m.height-4)
		m.searchView.SetContent(renderSearchResults(msg.results, m.loc, m.width))
		return m, nil

	case copiedMsg:
		m.status = "Copied " + msg.what + " to clipboard"
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

// back leaves the current view for the one that opened it
func (m Model) back() Model {
	switch m.mode {
	case detailView:
		m.mode = dayView
	case helpView:
		m.mode = m.prevMode
	default:
		m.mode = projectView
	}
	m.err = nil
	return m
}

func (m Model) View() string {
	if m.err != nil {
		return "Error: " + m.err.Error() + "\n\nPress q to go back"
	}

	switch m.mode {
	case projectView:
		return m.viewProjects()
	case dayView:
		return m.viewDays()
	case detailView:
		return m.viewDetail()
	case searchView:
		return m.viewSearch()
	case helpView:
		return m.viewHelp()
	}
	return ""
}
