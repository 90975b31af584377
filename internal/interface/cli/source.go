package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Somers1/logsheet/internal/core/models"
)

var (
	sourceBaseURL string
	sourceAPIKey  string
	sourceAuth    map[string]string
	sourceHistory int
)

var sourceCmd = &cobra.Command{
	Use:     "source",
	Aliases: []string{"sources"},
	Short:   "Manage a project's event sources",
}

var sourceAddCmd = &cobra.Command{
	Use:   "add <project> <type>",
	Short: "Attach a source to a project",
	Long: `Attach an event source to a project. Types: github, csv, outlook.

Examples:
  logsheet source add Invoicing github --base-url https://api.github.com/repos/acme/invoicing --api-key ghp_xxx
  logsheet source add Invoicing csv --auth path=/data/exports
  logsheet source add Invoicing outlook --auth email=me@acme.com --auth tenant_id=... --auth client_id=... --auth client_secret=...`,
	Args: cobra.ExactArgs(2),
	RunE: runSourceAdd,
}

var sourceListCmd = &cobra.Command{
	Use:   "list [project]",
	Short: "List sources with their last sync",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSourceList,
}

var sourceEnableCmd = &cobra.Command{
	Use:   "enable <source-id>",
	Short: "Include a source in syncs and grouping",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setSourceEnabled(args[0], true) },
}

var sourceDisableCmd = &cobra.Command{
	Use:   "disable <source-id>",
	Short: "Exclude a source from syncs and grouping; its events are kept",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setSourceEnabled(args[0], false) },
}

var sourceRemoveCmd = &cobra.Command{
	Use:   "remove <source-id>",
	Short: "Delete a source and its events",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceRemove,
}

func init() {
	rootCmd.AddCommand(sourceCmd)
	sourceCmd.AddCommand(sourceAddCmd, sourceListCmd, sourceEnableCmd, sourceDisableCmd, sourceRemoveCmd)
	sourceAddCmd.Flags().StringVar(&sourceBaseURL, "base-url", "", "API endpoint or data location")
	sourceAddCmd.Flags().StringVar(&sourceAPIKey, "api-key", "", "API token")
	sourceAddCmd.Flags().StringToStringVar(&sourceAuth, "auth", nil, "Adapter setting as key=value (repeatable)")
	sourceListCmd.Flags().IntVar(&sourceHistory, "history", 3, "Recent syncs to show per source")
}

func runSourceAdd(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	p, err := findProject(database, args[0])
	if err != nil {
		return err
	}
	typ, err := models.ParseSourceType(args[1])
	if err != nil {
		return err
	}

	s := &models.Source{
		ProjectID: p.ID,
		Type:      typ,
		BaseURL:   sourceBaseURL,
		APIKey:    sourceAPIKey,
		Auth:      sourceAuth,
		Enabled:   true,
	}
	if err := database.CreateSource(s); err != nil {
		return err
	}
	fmt.Printf("Added %s source #%d to %s\n", s.Type, s.ID, p.Name)
	return nil
}

func runSourceList(cmd *cobra.Command, args []string) error {
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
	if len(sources) == 0 {
		fmt.Println("No sources. Add one with 'logsheet source add <project> <type>'.")
		return nil
	}

	for _, s := range sources {
		state := "enabled"
		if !s.Enabled {
			state = "disabled"
		}
		lastSync := "never"
		if !s.LastSync.IsZero() {
			lastSync = humanize.Time(s.LastSync)
		}
		fmt.Printf("[%d] %s (project %d, %s)\n", s.ID, s.Type, s.ProjectID, state)
		if s.BaseURL != "" {
			fmt.Printf("    URL:       %s\n", s.BaseURL)
		}
		fmt.Printf("    Last sync: %s\n", lastSync)

		history, err := database.RecentSyncs(s.ID, sourceHistory)
		if err != nil {
			return err
		}
		for _, h := range history {
			line := fmt.Sprintf("      %s  %s  %s new of %s",
				humanize.Time(h.StartedAt), h.Status, humanize.Comma(int64(h.Inserted)), humanize.Comma(int64(h.Fetched)))
			if h.Error != "" {
				line += "  " + truncate(h.Error, 60)
			}
			fmt.Println(line)
		}
		fmt.Println()
	}
	return nil
}

func setSourceEnabled(ref string, enabled bool) error {
	id, err := parseID(ref)
	if err != nil {
		return err
	}
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	if err := database.SetSourceEnabled(id, enabled); err != nil {
		return err
	}
	if enabled {
		fmt.Printf("Enabled source #%d\n", id)
	} else {
		fmt.Printf("Disabled source #%d; run 'logsheet group' to rebuild blocks without it\n", id)
	}
	return nil
}

func runSourceRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	if err := database.DeleteSource(id); err != nil {
		return err
	}
	fmt.Printf("Removed source #%d\n", id)
	return nil
}
