package cli

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/models"
	"github.com/Somers1/logsheet/internal/core/timesheet"
)

var (
	sheetMonth    string
	sheetFormat   string
	sheetTemplate string
	sheetCopy     bool
)

var timesheetCmd = &cobra.Command{
	Use:     "timesheet <project>",
	Aliases: []string{"sheet", "ts"},
	Short:   "Show a project's time entries for a month",
	Long: `Show time entries grouped by day, newest first, with day totals and
the project's monthly and total budget position.

Examples:
  logsheet timesheet Invoicing
  logsheet timesheet Invoicing --month 2024-03
  logsheet timesheet Invoicing --month all --format json
  logsheet timesheet Invoicing --template invoice.mustache --copy`,
	Args: cobra.ExactArgs(1),
	RunE: runTimesheet,
}

var budgetCmd = &cobra.Command{
	Use:   "budget [project]",
	Short: "Show budget use and carry-over for the month",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBudget,
}

func init() {
	rootCmd.AddCommand(timesheetCmd, budgetCmd)
	timesheetCmd.Flags().StringVar(&sheetMonth, "month", "current", "current, all or YYYY-MM")
	timesheetCmd.Flags().StringVar(&sheetFormat, "format", timesheet.FormatText, "text, json or yaml")
	timesheetCmd.Flags().StringVar(&sheetTemplate, "template", "", "Mustache template file for text output")
	timesheetCmd.Flags().BoolVar(&sheetCopy, "copy", false, "Also copy the output to the clipboard")
	budgetCmd.Flags().StringVar(&sheetMonth, "month", "current", "current or YYYY-MM")
}

func runTimesheet(cmd *cobra.Command, args []string) error {
	_, loc, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	project, err := findProject(database, args[0])
	if err != nil {
		return err
	}
	period, err := timesheet.ParsePeriod(sheetMonth, time.Now(), loc)
	if err != nil {
		return err
	}
	sheet, err := timesheet.Load(database, project, period, loc)
	if err != nil {
		return err
	}

	var tmpl string
	if sheetTemplate != "" {
		data, err := os.ReadFile(sheetTemplate)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		tmpl = string(data)
	}

	var buf bytes.Buffer
	if err := timesheet.Render(&buf, sheet, sheetFormat, tmpl); err != nil {
		return err
	}
	if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
		return err
	}

	if sheetCopy {
		if err := clipboard.WriteAll(buf.String()); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Copied to clipboard")
	}
	return nil
}

func runBudget(cmd *cobra.Command, args []string) error {
	_, loc, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	period, err := timesheet.ParsePeriod(sheetMonth, time.Now(), loc)
	if err != nil {
		return err
	}
	if period.All {
		period = timesheet.Period{Month: models.DateIn(time.Now(), loc).FirstOfMonth()}
	}

	var projects []models.Project
	if len(args) > 0 {
		p, err := findProject(database, args[0])
		if err != nil {
			return err
		}
		projects = append(projects, *p)
	} else if projects, err = database.ListProjects(); err != nil {
		return err
	}

	shown := 0
	for i := range projects {
		p := &projects[i]
		if !p.HasMonthlyBudget() && p.TotalBudget == nil {
			continue
		}
		if err := printBudget(database, p, period, loc); err != nil {
			return err
		}
		shown++
	}
	if shown == 0 {
		fmt.Println("No projects with a budget")
	}
	return nil
}

func printBudget(database *db.DB, p *models.Project, period timesheet.Period, loc *time.Location) error {
	sheet, err := timesheet.Load(database, p, period, loc)
	if err != nil {
		return err
	}
	b := sheet.Budget

	fmt.Printf("%s: %s\n", p.Name, period.Label())
	if b.BudgetApplies {
		fmt.Printf("  Monthly budget:   %s\n", timesheet.FormatDuration(b.MonthlyBudget))
		fmt.Printf("  Carried over:     %s\n", timesheet.FormatDuration(b.CarriedOver))
		fmt.Printf("  Billable:         %s\n", timesheet.FormatDuration(b.Billable))
		fmt.Printf("  Remaining:        %s\n", timesheet.FormatDuration(b.Remaining))
		if b.OverBudget() {
			fmt.Println("  Over budget")
		}
	} else if p.HasMonthlyBudget() {
		fmt.Printf("  Monthly budget starts %s\n", p.StartDate)
	}
	if b.HasTotalBudget {
		fmt.Printf("  Total used:       %s of %s\n",
			timesheet.FormatDuration(b.TotalBudget-b.TotalRemaining), timesheet.FormatDuration(b.TotalBudget))
		fmt.Printf("  Total remaining:  %s\n", timesheet.FormatDuration(b.TotalRemaining))
	}
	fmt.Println()
	return nil
}
