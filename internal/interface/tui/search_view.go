package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Somers1/logsheet/internal/core/search"
)

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.searchInput.Focused() && len(m.searchResults) > 0 {
			m.searchInput.Blur()
			return m, nil
		}
		m.searchInput.Blur()
		m.mode = projectView
		return m, nil

	case "enter":
		m.searchInput.Blur()
		return m, performSearch(m.db, m.searchInput.Value(), m.loc)

	case "/":
		if !m.searchInput.Focused() {
			return m, m.searchInput.Focus()
		}
	}

	var cmd tea.Cmd
	if m.searchInput.Focused() {
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}
	m.searchView, cmd = m.searchView.Update(msg)
	return m, cmd
}

func renderSearchResults(results []search.Result, loc *time.Location, width int) string {
	if len(results) == 0 {
		return "No matches"
	}
	var b strings.Builder
	for _, r := range results {
		meta := fmt.Sprintf("%s  %s  %s", r.Timestamp.In(loc).Format("2006-01-02 15:04"), r.ProjectName, r.SourceType)
		b.WriteString(searchMetaStyle.Render(meta) + "\n")
		snippet := strings.Join(strings.Fields(r.Snippet), " ")
		if width > 8 && len(snippet) > width-4 {
			snippet = snippet[:width-7] + "..."
		}
		b.WriteString("  " + snippet + "\n\n")
	}
	return b.String()
}

func (m Model) viewSearch() string {
	header := searchHeaderStyle.Render("Search") + " " + m.searchInput.View()
	if m.searchQuery != "" {
		header += "\n" + searchMetaStyle.Render(fmt.Sprintf("%d results for %q", len(m.searchResults), m.searchQuery))
	} else {
		header += "\n"
	}
	help := helpStyle.Render("enter search • esc back • / edit query")
	return header + "\n" + m.searchView.View() + "\n" + help
}
