package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/models"
	"github.com/Somers1/logsheet/internal/core/timesheet"
)

var (
	projectDescription string
	projectClient      string
	projectStart       string
	projectMonthly     float64
	projectTotal       float64
	projectHarvestID   string
	clientHarvestID    string
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects"},
	Short:   "Manage projects and their budgets",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project",
	Long: `Create a project. Budgets are given in hours; a monthly budget needs a
start date, from which unused or overspent hours carry over month to month.

Examples:
  logsheet project add Invoicing --description "Billing platform rebuild"
  logsheet project add Website --start 2024-01-01 --monthly-hours 40 --total-hours 300`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectAdd,
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update <project>",
	Short: "Change a project's details; only flags given are applied",
	Long: `Change a project's details. Pass 0 to a budget flag to remove that budget.

Examples:
  logsheet project update Website --monthly-hours 32
  logsheet project update 3 --harvest-id 1234567`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectUpdate,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE:  runProjectList,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project>",
	Short: "Delete a project with its sources, events and time entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

var clientCmd = &cobra.Command{
	Use:     "client",
	Aliases: []string{"clients"},
	Short:   "Manage clients",
}

var clientAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create or update a client",
	Args:  cobra.ExactArgs(1),
	RunE:  runClientAdd,
}

var clientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clients",
	RunE:  runClientList,
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectAddCmd, projectUpdateCmd, projectListCmd, projectDeleteCmd)
	for _, c := range []*cobra.Command{projectAddCmd, projectUpdateCmd} {
		c.Flags().StringVar(&projectDescription, "description", "", "Description used in summary prompts")
		c.Flags().StringVar(&projectClient, "client", "", "Client name")
		c.Flags().StringVar(&projectStart, "start", "", "Budget start date (YYYY-MM-DD)")
		c.Flags().Float64Var(&projectMonthly, "monthly-hours", 0, "Monthly budget in hours")
		c.Flags().Float64Var(&projectTotal, "total-hours", 0, "Total budget in hours")
		c.Flags().StringVar(&projectHarvestID, "harvest-id", "", "Harvest project id")
	}

	rootCmd.AddCommand(clientCmd)
	clientCmd.AddCommand(clientAddCmd, clientListCmd)
	clientAddCmd.Flags().StringVar(&clientHarvestID, "harvest-id", "", "Harvest client id")
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	p := &models.Project{Name: args[0]}
	if err := applyProjectFlags(cmd, database, p); err != nil {
		return err
	}
	if err := database.CreateProject(p); err != nil {
		return err
	}
	fmt.Printf("Created project #%d %s\n", p.ID, p.Name)
	return nil
}

func runProjectUpdate(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	p, err := findProject(database, args[0])
	if err != nil {
		return err
	}
	if err := applyProjectFlags(cmd, database, p); err != nil {
		return err
	}
	if err := database.UpdateProject(p); err != nil {
		return err
	}
	fmt.Printf("Updated project #%d %s\n", p.ID, p.Name)
	return nil
}

// applyProjectFlags copies the flags the user set onto p
func applyProjectFlags(cmd *cobra.Command, database *db.DB, p *models.Project) error {
	flags := cmd.Flags()
	if flags.Changed("description") {
		p.Description = projectDescription
	}
	if flags.Changed("harvest-id") {
		p.ExternalID = projectHarvestID
	}
	if flags.Changed("client") {
		p.ClientID = 0
		if projectClient != "" {
			c := &models.Client{Name: projectClient}
			if err := database.CreateClient(c); err != nil {
				return err
			}
			p.ClientID = c.ID
		}
	}
	if flags.Changed("start") {
		p.StartDate = nil
		if projectStart != "" {
			d, err := models.ParseDate(projectStart)
			if err != nil {
				return apperrors.Invalid("start date %q: want YYYY-MM-DD", projectStart)
			}
			p.StartDate = &d
		}
	}
	if flags.Changed("monthly-hours") {
		p.MonthlyBudget = budgetHours(projectMonthly)
	}
	if flags.Changed("total-hours") {
		p.TotalBudget = budgetHours(projectTotal)
	}

	if p.MonthlyBudget != nil && *p.MonthlyBudget < 0 || p.TotalBudget != nil && *p.TotalBudget < 0 {
		return apperrors.Invalid("budgets must not be negative")
	}
	if p.MonthlyBudget != nil && p.StartDate == nil {
		fmt.Println("Note: the monthly budget is ignored until a --start date is set")
	}
	return nil
}

func budgetHours(h float64) *time.Duration {
	if h == 0 {
		return nil
	}
	d := models.DurationFromHours(h)
	return &d
}

func runProjectList(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	projects, err := database.ListProjects()
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects yet. Create one with 'logsheet project add <name>'.")
		return nil
	}

	clients, err := database.ListClients()
	if err != nil {
		return err
	}
	clientNames := make(map[int64]string, len(clients))
	for _, c := range clients {
		clientNames[c.ID] = c.Name
	}

	for _, p := range projects {
		fmt.Printf("[%d] %s\n", p.ID, p.Name)
		if p.Description != "" {
			fmt.Printf("    Description: %s\n", truncate(p.Description, 80))
		}
		if name := clientNames[p.ClientID]; name != "" {
			fmt.Printf("    Client:      %s\n", name)
		}
		if p.StartDate != nil {
			fmt.Printf("    Start:       %s\n", p.StartDate)
		}
		if p.MonthlyBudget != nil {
			fmt.Printf("    Monthly:     %s\n", timesheet.FormatDuration(*p.MonthlyBudget))
		}
		if p.TotalBudget != nil {
			fmt.Printf("    Total:       %s\n", timesheet.FormatDuration(*p.TotalBudget))
		}
		if p.ExternalID != "" {
			fmt.Printf("    Harvest:     %s\n", p.ExternalID)
		}
		fmt.Println()
	}
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	p, err := findProject(database, args[0])
	if err != nil {
		return err
	}
	if err := database.DeleteProject(p.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted project #%d %s\n", p.ID, p.Name)
	return nil
}

func runClientAdd(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	c := &models.Client{Name: args[0], ExternalID: clientHarvestID}
	if err := database.CreateClient(c); err != nil {
		return err
	}
	fmt.Printf("Client #%d %s\n", c.ID, c.Name)
	return nil
}

func runClientList(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	clients, err := database.ListClients()
	if err != nil {
		return err
	}
	if len(clients) == 0 {
		fmt.Println("No clients")
		return nil
	}
	for _, c := range clients {
		if c.ExternalID != "" {
			fmt.Printf("[%d] %s (Harvest %s)\n", c.ID, c.Name, c.ExternalID)
		} else {
			fmt.Printf("[%d] %s\n", c.ID, c.Name)
		}
	}
	return nil
}

// truncate shortens s to maxLen on a word boundary where possible
func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}

	truncated := s[:maxLen]
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > maxLen-20 {
		truncated = truncated[:lastSpace]
	}
	return truncated + "..."
}
