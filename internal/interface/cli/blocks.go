package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Somers1/logsheet/internal/core/models"
	"github.com/Somers1/logsheet/internal/core/timesheet"
)

var (
	blocksDate string
	blocksDays int
)

var blocksCmd = &cobra.Command{
	Use:   "blocks <project>",
	Short: "List work blocks with their summaries",
	Long: `List a project's work blocks, grouped by day.

Examples:
  logsheet blocks Invoicing
  logsheet blocks Invoicing --date yesterday
  logsheet blocks Invoicing --days 14`,
	Args: cobra.ExactArgs(1),
	RunE: runBlocks,
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.Flags().StringVar(&blocksDate, "date", "", "Only this day")
	blocksCmd.Flags().IntVar(&blocksDays, "days", 7, "Days to show, ending today")
}

func runBlocks(cmd *cobra.Command, args []string) error {
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

	from := models.DateIn(time.Now(), loc).AddDays(1 - blocksDays)
	to := models.DateIn(time.Now(), loc).AddDays(1)
	if blocksDate != "" {
		if from, err = parseDay(blocksDate, loc); err != nil {
			return err
		}
		to = from.AddDays(1)
	}

	blocks, err := database.ListBlocks(p.ID, models.TimeRange{From: from.In(loc), To: to.In(loc)})
	if err != nil {
		return err
	}
	days, err := database.ListDaySummaries(p.ID, from, to)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		fmt.Printf("No blocks for %s between %s and %s\n", p.Name, from, to.AddDays(-1))
		return nil
	}

	daySummary := make(map[models.Date]models.DaySummary, len(days))
	for _, d := range days {
		daySummary[d.Date] = d
	}

	var current models.Date
	for _, b := range blocks {
		date := models.DateIn(b.Start, loc)
		if date != current {
			current = date
			d := daySummary[date]
			fmt.Printf("\n%s (%s)  %s\n", date, date.In(loc).Weekday(), timesheet.FormatDuration(d.Duration))
			if d.Summary != "" {
				for _, note := range timesheet.SplitNotes(d.Summary) {
					fmt.Printf("  - %s\n", note)
				}
			}
		}

		state := ""
		if b.Exported {
			state = " [exported]"
		}
		fmt.Printf("  #%d %s%s\n", b.ID, blockLine(b.Start, b.End, loc), state)
		if b.Summary != "" {
			fmt.Printf("      %s\n", truncate(b.Summary, 100))
		} else {
			fmt.Println("      (not summarized)")
		}
	}
	return nil
}
