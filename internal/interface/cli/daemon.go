package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Somers1/logsheet/internal/core/daemon"
	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/importer"
	"github.com/Somers1/logsheet/internal/core/models"
)

var daemonNoSummarize bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run sync, grouping and summarization on a schedule",
	Long: `Run in the foreground, every [daemon] interval:
  1. Sync all enabled sources
  2. Regroup every project
  3. Summarize new blocks and days

New files in enabled CSV source directories trigger a cycle straight
away. Stop with Ctrl-C. Use 'logsheet daemon pause' to skip cycles without
stopping the process.`,
	RunE: runDaemon,
}

var daemonPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Skip daemon cycles until resumed",
	RunE:  daemonPause,
}

var daemonResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume daemon cycles",
	RunE:  daemonResume,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.AddCommand(daemonPauseCmd, daemonResumeCmd)
	daemonCmd.Flags().BoolVar(&daemonNoSummarize, "no-summarize", false, "Only sync and group")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, loc, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := newRunner(database, cfg, loc)
	if err != nil {
		return err
	}
	var summarizer daemon.Summarizer
	if !daemonNoSummarize {
		worker, err := newWorker(ctx, database, cfg, loc)
		if err != nil {
			return err
		}
		summarizer = worker
	}

	d, err := daemon.New(importer.New(database, importer.Options{}), runner, summarizer, cfg.Daemon.Interval.Duration)
	if err != nil {
		return err
	}
	dirs, err := csvSourceDirs(database)
	if err != nil {
		return err
	}
	if err := d.Watch(dirs...); err != nil {
		return err
	}
	if err := d.Start(ctx); err != nil {
		return err
	}

	s := d.GetStats()
	fmt.Printf("%d cycles, %d events imported, %d blocks and %d days summarized, %d errors\n",
		s.Cycles, s.EventsImported, s.BlocksSummarized, s.DaysSummarized, s.Errors)
	return nil
}

// csvSourceDirs lists the existing directories of enabled CSV sources
func csvSourceDirs(database *db.DB) ([]string, error) {
	sources, err := database.ListSources(0)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, s := range sources {
		if !s.Enabled || s.Type != models.SourceCSV {
			continue
		}
		dir := s.Auth["path"]
		if dir == "" {
			dir = s.BaseURL
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

func daemonPause(cmd *cobra.Command, args []string) error {
	pauseFile, err := daemon.DefaultPauseFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(pauseFile), 0755); err != nil {
		return fmt.Errorf("failed to create daemon directory: %w", err)
	}
	if err := os.WriteFile(pauseFile, nil, 0644); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	fmt.Println("Daemon paused")
	return nil
}

func daemonResume(cmd *cobra.Command, args []string) error {
	pauseFile, err := daemon.DefaultPauseFile()
	if err != nil {
		return err
	}
	if err := os.Remove(pauseFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to resume: %w", err)
	}
	fmt.Println("Daemon resumed")
	return nil
}
