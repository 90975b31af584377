package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Somers1/logsheet/internal/core/config"
	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/llm"
	"github.com/Somers1/logsheet/internal/core/summarization"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [project]",
	Short: "Write summaries for unsummarized blocks and days",
	Long: `Summarize work blocks with the configured LLM provider, then summarize
each day whose blocks all have summaries. Days become the notes of the
Harvest time entry.

Transient provider errors (throttling, timeouts) leave the record for the
next run; authentication or configuration errors stop the run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}

func newWorker(ctx context.Context, database *db.DB, cfg *config.Config, loc *time.Location) (*summarization.Worker, error) {
	provider, err := llm.NewProvider(ctx, cfg.Summarizer)
	if err != nil {
		return nil, fmt.Errorf("summarizer: %w", err)
	}
	return summarization.NewWorker(database, llm.NewSummarizer(provider, cfg.Summarizer), loc, cfg.Daemon.Interval.Duration), nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
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

	worker, err := newWorker(cmd.Context(), database, cfg, loc)
	if err != nil {
		return err
	}
	res, err := worker.ProcessPending(cmd.Context(), projectID)
	if err != nil {
		return err
	}

	fmt.Printf("\nSummarized %d blocks and %d days\n", res.Blocks, res.Days)
	if res.Retryable > 0 {
		fmt.Printf("%d failed with a transient error; run again later\n", res.Retryable)
	}
	if res.Waiting > 0 {
		fmt.Printf("%d days are waiting for their blocks\n", res.Waiting)
	}
	return nil
}
