package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Somers1/logsheet/internal/core/config"
	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/grouping"
	"github.com/Somers1/logsheet/internal/core/pipeline"
	"github.com/Somers1/logsheet/internal/core/timesheet"
)

var groupCmd = &cobra.Command{
	Use:   "group [project]",
	Short: "Rebuild work blocks and day totals from stored events",
	Long: `Group a project's events into work blocks using the configured gap
tolerance and minimum session length, then rebuild the per-day totals.

Blocks whose bounds are unchanged keep their summaries and export state.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGroup,
}

func init() {
	rootCmd.AddCommand(groupCmd)
}

func runGroup(cmd *cobra.Command, args []string) error {
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
	return regroup(cmd, database, cfg, loc, projectID)
}

func newRunner(database *db.DB, cfg *config.Config, loc *time.Location) (*pipeline.Runner, error) {
	params := grouping.Params{
		GapTolerance:       cfg.Grouping.GapTolerance.Duration,
		MinSessionDuration: cfg.Grouping.MinSessionDuration.Duration,
	}
	return pipeline.NewRunner(database, params, loc, cfg.Daemon.Concurrency)
}

// regroup runs one project, or all of them when projectID is 0
func regroup(cmd *cobra.Command, database *db.DB, cfg *config.Config, loc *time.Location, projectID int64) error {
	runner, err := newRunner(database, cfg, loc)
	if err != nil {
		return err
	}

	var results []pipeline.Result
	if projectID != 0 {
		res, err := runner.Regroup(cmd.Context(), projectID)
		if err != nil {
			return err
		}
		results = append(results, *res)
	} else if results, err = runner.RunAll(cmd.Context()); err != nil {
		return err
	}

	for _, r := range results {
		project, err := database.GetProject(r.ProjectID)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d events → %d blocks over %d days (%d kept, %d new, %d removed) in %s\n",
			project.Name, r.Events, r.Blocks, r.Days,
			r.Changes.BlocksKept, r.Changes.BlocksInserted, r.Changes.BlocksDeleted, formatElapsed(r.Duration))
		for _, date := range r.Changes.StaleExports {
			fmt.Printf("  %s changed after export; run 'logsheet export day %s %s --force'\n", date, project.Name, date)
		}
	}
	return nil
}

// blockLine renders a block as "15:04-16:30 (1 hr 26 min)"
func blockLine(start, end time.Time, loc *time.Location) string {
	return fmt.Sprintf("%s-%s (%s)", start.In(loc).Format("15:04"), end.In(loc).Format("15:04"),
		timesheet.FormatDuration(end.Sub(start)))
}
