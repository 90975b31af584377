package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/config"
	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/models"
	"github.com/Somers1/logsheet/internal/core/search"
)

var (
	dbPath      string
	configPath  string
	versionInfo string
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "logsheet",
	Short: "Timesheets from the trail your work leaves behind",
	Long: `logsheet - turn commits, mail and exports into timesheets

Pulls events from configured sources, groups them into work sessions,
summarizes each session and day with an LLM, tracks monthly budgets with
carry-over, and exports to Outlook calendar and Harvest.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to TUI if no subcommand specified
		return tuiCmd.RunE(cmd, args)
	},
}

func init() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}
	defaultDB := filepath.Join(home, ".config", "logsheet", "logsheet.db")

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "Database path")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/logsheet/config.toml)")
}

// openDB opens the database, creating its directory on first use
func openDB() (*db.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}
	database, err := db.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// loadConfig reads the config and resolves its timezone
func loadConfig() (*config.Config, *time.Location, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	return cfg, loc, nil
}

// findProject resolves a project by numeric id or exact name
func findProject(database *db.DB, ref string) (*models.Project, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return database.GetProject(id)
	}
	return database.GetProjectByName(ref)
}

// projectArg returns the project id named by args[0], or 0 for every project
func projectArg(database *db.DB, args []string) (int64, error) {
	if len(args) == 0 {
		return 0, nil
	}
	p, err := findProject(database, args[0])
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Invalid("invalid id %q", s)
	}
	return id, nil
}

// parseDay reads a date flag: "today", "yesterday", "last friday" or
// YYYY-MM-DD, resolved in loc.
func parseDay(s string, loc *time.Location) (models.Date, error) {
	t, ok := search.ParseDate(nil, s, time.Now().In(loc))
	if !ok {
		return models.Date{}, apperrors.Invalid("unrecognised date %q", s)
	}
	return models.DateIn(t, loc), nil
}
