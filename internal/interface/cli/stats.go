package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long: `Display statistics about the logsheet database.

Shows project, source and event counts, summarization and export backlog,
event date range and storage info.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	stats, err := database.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Println("Database Statistics")
	fmt.Println("===================")
	fmt.Println()
	fmt.Printf("Projects:             %s\n", humanize.Comma(int64(stats.TotalProjects)))
	fmt.Printf("Sources:              %s\n", humanize.Comma(int64(stats.TotalSources)))
	fmt.Printf("Events:               %s\n", humanize.Comma(int64(stats.TotalEvents)))
	fmt.Printf("Blocks:               %s (%s unsummarized)\n",
		humanize.Comma(int64(stats.TotalBlocks)), humanize.Comma(int64(stats.UnsummarizedBlocks)))
	fmt.Printf("Days not exported:    %s\n", humanize.Comma(int64(stats.UnexportedDays)))
	fmt.Printf("Time entries:         %s\n", humanize.Comma(int64(stats.TotalTimeEntries)))
	fmt.Println()

	if stats.TotalEvents > 0 {
		fmt.Printf("Oldest Event:         %s\n", stats.OldestEvent.Local().Format("Jan 2, 2006 3:04 PM"))
		fmt.Printf("Newest Event:         %s (%s)\n", stats.NewestEvent.Local().Format("Jan 2, 2006 3:04 PM"), humanize.Time(stats.NewestEvent))
		if stats.BusiestProject != "" {
			fmt.Printf("Busiest Project:      %s (%s events)\n", stats.BusiestProject, humanize.Comma(int64(stats.BusiestProjectEvents)))
		}
		fmt.Println()
	}
	if !stats.LastSync.IsZero() {
		fmt.Printf("Last Sync:            %s\n", humanize.Time(stats.LastSync))
	}

	fileInfo, err := os.Stat(dbPath)
	if err != nil {
		return fmt.Errorf("failed to stat database file: %w", err)
	}
	fmt.Printf("Database Location:    %s\n", dbPath)
	fmt.Printf("Database Size:        %s\n", humanize.Bytes(uint64(fileInfo.Size())))
	return nil
}
