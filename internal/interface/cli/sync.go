package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Somers1/logsheet/internal/core/importer"
)

var syncGroup bool

var syncCmd = &cobra.Command{
	Use:   "sync [project]",
	Short: "Pull new events from every enabled source",
	Long: `Fetch events from a project's enabled sources, or from every project.

Sync is incremental: sources are asked for events since their last sync and
events already stored are skipped. A failing source is reported and the
rest continue.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&syncGroup, "group", true, "Regroup projects after syncing")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, loc, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	projectID, err := projectArg(database, args)
	if err != nil {
		return err
	}

	sources, err := database.ListSources(projectID)
	if err != nil {
		return err
	}
	total := 0
	for _, s := range sources {
		if s.Enabled {
			total++
		}
	}
	if total == 0 {
		fmt.Println("No enabled sources")
		return nil
	}

	fmt.Printf("Syncing %d source(s)\n", total)
	fmt.Printf("Database: %s\n\n", dbPath)

	imp := importer.New(database, importer.Options{})
	progress := importer.NewProgressReporter(os.Stdout, total)
	results, syncErr := imp.SyncProject(cmd.Context(), projectID, progress)

	inserted := 0
	for _, r := range results {
		inserted += r.Inserted
	}
	fmt.Printf("%d new events\n", inserted)
	if syncErr != nil {
		fmt.Fprintf(os.Stderr, "Some sources failed: %v\n", syncErr)
	}

	if syncGroup && inserted > 0 {
		if err := regroup(cmd, database, cfg, loc, projectID); err != nil {
			return err
		}
	}
	return syncErr
}

func formatElapsed(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
