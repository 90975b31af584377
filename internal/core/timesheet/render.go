package timesheet

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cbroglie/mustache"
	"gopkg.in/yaml.v3"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

// DefaultTemplate renders a sheet as plain text. Field names are those of View.
const DefaultTemplate = `{{Project}} timesheet: {{Period}}
{{#StartDate}}{{StartDate}} to {{EndDate}}
{{/StartDate}}
{{#Days}}
{{Date}} ({{Weekday}})  {{Total}}
{{#Entries}}
  {{Duration}}{{^Billable}} (non-billable){{/Billable}}
{{#Notes}}
    - {{{.}}}
{{/Notes}}
{{/Entries}}
{{/Days}}

Total: {{Total}}
{{#Budget}}
{{#Monthly}}
Monthly budget: {{MonthlyBudget}}
Carried over: {{CarriedOver}}
Billable this month: {{Billable}}
Remaining this month: {{Remaining}}
{{/Monthly}}
{{#HasTotal}}
Total used: {{TotalUsed}} of {{TotalBudget}}
Total remaining: {{TotalRemaining}}
{{/HasTotal}}
{{/Budget}}
`

// View is the presentation form of a Sheet with durations already formatted.
type View struct {
	Project   string      `json:"project" yaml:"project"`
	Period    string      `json:"period" yaml:"period"`
	StartDate string      `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate   string      `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	Days      []DayView   `json:"days" yaml:"days"`
	Total     string      `json:"total" yaml:"total"`
	Hours     float64     `json:"hours" yaml:"hours"`
	Budget    *BudgetView `json:"budget,omitempty" yaml:"budget,omitempty"`
}

type DayView struct {
	Date    string      `json:"date" yaml:"date"`
	Weekday string      `json:"weekday" yaml:"weekday"`
	Total   string      `json:"total" yaml:"total"`
	Hours   float64     `json:"hours" yaml:"hours"`
	Entries []EntryView `json:"entries" yaml:"entries"`
}

type EntryView struct {
	Duration string   `json:"duration" yaml:"duration"`
	Hours    float64  `json:"hours" yaml:"hours"`
	Billable bool     `json:"billable" yaml:"billable"`
	Notes    []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

type BudgetView struct {
	Monthly        bool   `json:"monthly" yaml:"monthly"`
	MonthlyBudget  string `json:"monthly_budget,omitempty" yaml:"monthly_budget,omitempty"`
	CarriedOver    string `json:"carried_over,omitempty" yaml:"carried_over,omitempty"`
	Billable       string `json:"billable,omitempty" yaml:"billable,omitempty"`
	Remaining      string `json:"remaining,omitempty" yaml:"remaining,omitempty"`
	OverBudget     bool   `json:"over_budget" yaml:"over_budget"`
	HasTotal       bool   `json:"has_total" yaml:"has_total"`
	TotalBudget    string `json:"total_budget,omitempty" yaml:"total_budget,omitempty"`
	TotalUsed      string `json:"total_used,omitempty" yaml:"total_used,omitempty"`
	TotalRemaining string `json:"total_remaining,omitempty" yaml:"total_remaining,omitempty"`
}

// View formats the sheet for output.
func (s *Sheet) View() View {
	v := View{
		Project:   s.Project.Name,
		Period:    s.Period.Label(),
		StartDate: s.StartDate.String(),
		EndDate:   s.EndDate.String(),
		Days:      make([]DayView, 0, len(s.Days)),
		Total:     FormatDuration(s.Total),
		Hours:     models.DecimalHours(s.Total),
	}
	for _, d := range s.Days {
		dv := DayView{
			Date:    d.Date.String(),
			Weekday: d.Date.In(nil).Weekday().String(),
			Total:   FormatDuration(d.Total),
			Hours:   models.DecimalHours(d.Total),
		}
		for _, e := range d.Entries {
			dv.Entries = append(dv.Entries, EntryView{
				Duration: FormatDuration(e.Duration),
				Hours:    models.DecimalHours(e.Duration),
				Billable: e.Billable,
				Notes:    SplitNotes(e.Notes),
			})
		}
		v.Days = append(v.Days, dv)
	}

	if b := s.Budget; b != nil {
		bv := &BudgetView{Monthly: b.BudgetApplies, OverBudget: b.OverBudget(), HasTotal: b.HasTotalBudget}
		if b.BudgetApplies {
			bv.MonthlyBudget = FormatDuration(b.MonthlyBudget)
			bv.CarriedOver = FormatDuration(b.CarriedOver)
			bv.Billable = FormatDuration(b.Billable)
			bv.Remaining = FormatDuration(b.Remaining)
		}
		if b.HasTotalBudget {
			bv.TotalBudget = FormatDuration(b.TotalBudget)
			bv.TotalUsed = FormatDuration(b.TotalBudget - b.TotalRemaining)
			bv.TotalRemaining = FormatDuration(b.TotalRemaining)
		}
		if bv.Monthly || bv.HasTotal {
			v.Budget = bv
		}
	}
	return v
}

// Formats accepted by Render.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Render writes the sheet in the given format. tmpl is the mustache template
// used for text output; empty means DefaultTemplate.
func Render(w io.Writer, s *Sheet, format, tmpl string) error {
	v := s.View()
	switch strings.ToLower(format) {
	case "", FormatText:
		if tmpl == "" {
			tmpl = DefaultTemplate
		}
		out, err := mustache.Render(tmpl, v)
		if err != nil {
			return fmt.Errorf("render timesheet: %w", err)
		}
		_, err = io.WriteString(w, out)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return apperrors.Invalid("unknown format %q: want text, json or yaml", format)
	}
}
