package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

var (
	entryNotes       string
	entryNonBillable bool
)

var entryCmd = &cobra.Command{
	Use:     "entry",
	Aliases: []string{"entries"},
	Short:   "Record time entries by hand",
}

var entryAddCmd = &cobra.Command{
	Use:   "add <project> <date> <hours>",
	Short: "Add a time entry",
	Long: `Add a time entry. The date accepts YYYY-MM-DD or phrases like "yesterday".

Examples:
  logsheet entry add Invoicing today 1.5 --notes "Call with finance"
  logsheet entry add Website 2024-03-04 0.5 --non-billable`,
	Args: cobra.ExactArgs(3),
	RunE: runEntryAdd,
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete <entry-id>",
	Short: "Delete a time entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryDelete,
}

func init() {
	rootCmd.AddCommand(entryCmd)
	entryCmd.AddCommand(entryAddCmd, entryDeleteCmd)
	entryAddCmd.Flags().StringVar(&entryNotes, "notes", "", "Notes; \"- a - b\" renders as bullets")
	entryAddCmd.Flags().BoolVar(&entryNonBillable, "non-billable", false, "Exclude from the monthly budget")
}

func runEntryAdd(cmd *cobra.Command, args []string) error {
	_, loc, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	p, err := findProject(database, args[0])
	if err != nil {
		return err
	}
	date, err := parseDay(args[1], loc)
	if err != nil {
		return err
	}
	var hours float64
	if _, err := fmt.Sscanf(args[2], "%g", &hours); err != nil || hours <= 0 {
		return apperrors.Invalid("hours %q: want a positive number", args[2])
	}

	e := &models.TimeEntry{
		ProjectID: p.ID,
		Date:      date,
		Duration:  models.DurationFromHours(hours),
		Notes:     entryNotes,
		Billable:  !entryNonBillable,
	}
	if err := database.UpsertTimeEntry(e); err != nil {
		return err
	}
	fmt.Printf("Added entry #%d: %s %.2fh on %s\n", e.ID, p.Name, e.Hours(), e.Date)
	return nil
}

func runEntryDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	if err := database.DeleteTimeEntry(id); err != nil {
		return err
	}
	fmt.Printf("Deleted entry #%d\n", id)
	return nil
}
