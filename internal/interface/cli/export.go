package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/config"
	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/export"
	"github.com/Somers1/logsheet/internal/core/models"
)

var (
	exportForce bool
	harvestFrom string
	harvestTo   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Send summarized work to the calendar and Harvest",
	Long: `Send blocks to the Outlook calendar and days to Harvest.

Records are only sent once; --force sends them again. A record needs a
summary before it can be exported.`,
}

var exportBlockCmd = &cobra.Command{
	Use:   "block <block-id>",
	Short: "Create a calendar event for a block",
	Args:  cobra.ExactArgs(1),
	RunE:  runExportBlock,
}

var exportDayCmd = &cobra.Command{
	Use:   "day <project> <date>",
	Short: "Log a day to Harvest and record the time entry",
	Args:  cobra.ExactArgs(2),
	RunE:  runExportDay,
}

var exportPendingCmd = &cobra.Command{
	Use:   "pending [project]",
	Short: "Export every summarized block and day not yet sent",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExportPending,
}

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest time tracking",
}

var harvestSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import time entries from Harvest",
	Long: `Import Harvest time entries into local time entries, matched to projects
by their Harvest id (project update --harvest-id).

Examples:
  logsheet harvest sync
  logsheet harvest sync --from "60 days ago" --to yesterday`,
	RunE: runHarvestSync,
}

func init() {
	rootCmd.AddCommand(exportCmd, harvestCmd)
	exportCmd.AddCommand(exportBlockCmd, exportDayCmd, exportPendingCmd)
	exportCmd.PersistentFlags().BoolVar(&exportForce, "force", false, "Export again even if already sent")

	harvestCmd.AddCommand(harvestSyncCmd)
	harvestSyncCmd.Flags().StringVar(&harvestFrom, "from", "30 days ago", "First day to import")
	harvestSyncCmd.Flags().StringVar(&harvestTo, "to", "today", "Last day to import")
}

// newExporter wires the gateways the config has credentials for
func newExporter(ctx context.Context, database *db.DB, cfg *config.Config, loc *time.Location) (*export.Exporter, error) {
	var (
		calendar export.CalendarGateway
		tracker  export.TimeTrackingGateway
	)
	if cfg.CalendarEnabled() {
		c, err := export.NewCalendar(ctx, cfg.Calendar, loc)
		if err != nil {
			return nil, err
		}
		calendar = c
	}
	if cfg.HarvestEnabled() {
		h, err := export.NewHarvest(cfg.Harvest, &http.Client{Timeout: 30 * time.Second})
		if err != nil {
			return nil, err
		}
		tracker = h
	}
	return export.NewExporter(database, calendar, tracker), nil
}

func runExportBlock(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	cfg, loc, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	exp, err := newExporter(cmd.Context(), database, cfg, loc)
	if err != nil {
		return err
	}
	sent, err := exp.ExportBlock(cmd.Context(), id, exportForce)
	if err != nil {
		return err
	}
	if sent {
		fmt.Printf("Block #%d added to calendar\n", id)
	} else {
		fmt.Printf("Block #%d was already exported (use --force to send again)\n", id)
	}
	return nil
}

func runExportDay(cmd *cobra.Command, args []string) error {
	cfg, loc, err := loadConfig()
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

	exp, err := newExporter(cmd.Context(), database, cfg, loc)
	if err != nil {
		return err
	}
	sent, err := exp.ExportDay(cmd.Context(), p.ID, date, exportForce)
	if err != nil {
		return err
	}
	if sent {
		fmt.Printf("%s %s logged to Harvest\n", p.Name, date)
	} else {
		fmt.Printf("%s %s was already exported (use --force to send again)\n", p.Name, date)
	}
	return nil
}

func runExportPending(cmd *cobra.Command, args []string) error {
	cfg, loc, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.CalendarEnabled() && !cfg.HarvestEnabled() {
		return apperrors.Misconfigured("neither [calendar] nor [harvest] is configured")
	}
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

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

	exp, err := newExporter(cmd.Context(), database, cfg, loc)
	if err != nil {
		return err
	}
	for _, p := range projects {
		res, err := exp.ExportPending(cmd.Context(), p.ID)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
		fmt.Printf("%s: %d blocks, %d days exported", p.Name, res.Blocks, res.Days)
		if res.Skipped > 0 {
			fmt.Printf(", %d waiting for a summary", res.Skipped)
		}
		fmt.Println()
	}
	return nil
}

func runHarvestSync(cmd *cobra.Command, args []string) error {
	cfg, loc, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.HarvestEnabled() {
		return apperrors.Misconfigured("[harvest] access_token and account_id are required")
	}
	from, err := parseDay(harvestFrom, loc)
	if err != nil {
		return err
	}
	to, err := parseDay(harvestTo, loc)
	if err != nil {
		return err
	}
	if to.Before(from) {
		return apperrors.Invalid("--to %s is before --from %s", to, from)
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	h, err := export.NewHarvest(cfg.Harvest, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return err
	}
	res, err := export.SyncHarvest(cmd.Context(), database, h, from, to)
	if err != nil {
		return err
	}
	fmt.Printf("Fetched %d Harvest entries (%s to %s): %d stored, %d for unlinked projects\n",
		res.Fetched, from, to, res.Upserted, res.Skipped)
	return nil
}
