package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Somers1/logsheet/internal/core/search"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over imported events",
	Long: `Search event text with FTS5 and porter stemming.

Filters may appear anywhere in the query:
  project:<name>     project name contains <name>
  after:<date>       on or after a date ("yesterday", "2024-03-01")
  before:<date>      before a date

Examples:
  logsheet search invoice rounding
  logsheet search "deploy project:web after:last-week"
  logsheet search "ENA-7030"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 50, "Maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	_, loc, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	filters := search.ParseQuery(strings.Join(args, " "), time.Now().In(loc))
	results, err := search.Search(database, filters, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Printf("No results found for: %s\n", filters.Query)
		return nil
	}

	fmt.Printf("Found %d match(es) for: %s\n\n", len(results), filters.Query)
	for _, r := range results {
		fmt.Printf("%s  %s  %s #%d\n", r.Timestamp.In(loc).Format("2006-01-02 15:04"), r.ProjectName, r.SourceType, r.EventID)
		fmt.Printf("  %s\n\n", truncate(r.Snippet, 200))
	}
	return nil
}
