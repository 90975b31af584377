package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/models"
	"github.com/Somers1/logsheet/internal/core/search"
	"github.com/Somers1/logsheet/internal/core/timesheet"
)

// GetTimesheetArgs defines arguments for the get_timesheet tool
type GetTimesheetArgs struct {
	Project string `json:"project"`
	Month   string `json:"month,omitempty"`
}

// ListBlocksArgs defines arguments for the list_blocks tool
type ListBlocksArgs struct {
	Project string `json:"project"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
}

// SearchEventsArgs defines arguments for the search_events tool
type SearchEventsArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// ProjectSummary represents a project in the list view
type ProjectSummary struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	StartDate     string  `json:"start_date,omitempty"`
	MonthlyBudget float64 `json:"monthly_budget_hours,omitempty"`
	TotalBudget   float64 `json:"total_budget_hours,omitempty"`
}

// BlockDetail represents a work block
type BlockDetail struct {
	ID       int64   `json:"id"`
	Date     string  `json:"date"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Hours    float64 `json:"hours"`
	Events   int     `json:"events"`
	Summary  string  `json:"summary,omitempty"`
	Exported bool    `json:"exported"`
}

// EventMatch represents a search hit
type EventMatch struct {
	Project   string `json:"project"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Snippet   string `json:"snippet"`
}

// StartServer starts the MCP server on stdio
func StartServer(dbPath string, loc *time.Location) error {
	database, err := db.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := database.Close(); closeErr != nil {
			log.Printf("Error closing database: %v", closeErr)
		}
	}()

	return server.ServeStdio(NewServer(database, loc))
}

// NewServer registers the logsheet tools
func NewServer(database *db.DB, loc *time.Location) *server.MCPServer {
	s := server.NewMCPServer("Logsheet", "1.0.0")

	s.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List projects with their budgets"),
	), makeListProjectsHandler(database))

	s.AddTool(mcp.NewTool("get_timesheet",
		mcp.WithDescription("Time entries of a project for a month, grouped by day newest first, with day totals and budget position"),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project id or exact name")),
		mcp.WithString("month",
			mcp.Description("'current' (default), 'all' or YYYY-MM")),
	), makeGetTimesheetHandler(database, loc))

	s.AddTool(mcp.NewTool("get_budget",
		mcp.WithDescription("Monthly budget, carry-over, remaining hours and total budget use for a project this month"),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project id or exact name")),
		mcp.WithString("month",
			mcp.Description("'current' (default) or YYYY-MM")),
	), makeGetBudgetHandler(database, loc))

	s.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("Work blocks of a project between two dates with their summaries"),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project id or exact name")),
		mcp.WithString("from",
			mcp.Description("First day, YYYY-MM-DD (default: 7 days ago)")),
		mcp.WithString("to",
			mcp.Description("Last day, YYYY-MM-DD (default: today)")),
	), makeListBlocksHandler(database, loc))

	s.AddTool(mcp.NewTool("search_events",
		mcp.WithDescription("Full-text search over imported events. Supports project:<name>, after:<date> and before:<date> filters inside the query."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms and filters")),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20)")),
	), makeSearchEventsHandler(database, loc))

	return s
}

func decodeArgs(request mcp.CallToolRequest, out interface{}) error {
	argsBytes, _ := json.Marshal(request.Params.Arguments)
	return json.Unmarshal(argsBytes, out)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	resultJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func findProject(database *db.DB, ref string) (*models.Project, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return database.GetProject(id)
	}
	return database.GetProjectByName(ref)
}

func makeListProjectsHandler(database *db.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projects, err := database.ListProjects()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}

		list := make([]ProjectSummary, 0, len(projects))
		for _, p := range projects {
			ps := ProjectSummary{ID: p.ID, Name: p.Name, Description: p.Description}
			if p.StartDate != nil {
				ps.StartDate = p.StartDate.String()
			}
			if p.MonthlyBudget != nil {
				ps.MonthlyBudget = models.DecimalHours(*p.MonthlyBudget)
			}
			if p.TotalBudget != nil {
				ps.TotalBudget = models.DecimalHours(*p.TotalBudget)
			}
			list = append(list, ps)
		}
		return jsonResult(map[string]interface{}{"projects": list})
	}
}

// loadSheet resolves the project and period shared by the sheet tools
func loadSheet(database *db.DB, loc *time.Location, args GetTimesheetArgs) (*timesheet.Sheet, error) {
	project, err := findProject(database, args.Project)
	if err != nil {
		return nil, err
	}
	period, err := timesheet.ParsePeriod(args.Month, time.Now(), loc)
	if err != nil {
		return nil, err
	}
	return timesheet.Load(database, project, period, loc)
}

func makeGetTimesheetHandler(database *db.DB, loc *time.Location) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args GetTimesheetArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		sheet, err := loadSheet(database, loc, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(sheet.View())
	}
}

func makeGetBudgetHandler(database *db.DB, loc *time.Location) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args GetTimesheetArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if args.Month == "all" {
			return mcp.NewToolResultError("budgets are reported per month; pass 'current' or YYYY-MM"), nil
		}
		sheet, err := loadSheet(database, loc, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		view := sheet.View()
		if view.Budget == nil {
			return mcp.NewToolResultError(fmt.Sprintf("project %s has no budget", sheet.Project.Name)), nil
		}
		return jsonResult(map[string]interface{}{
			"project": view.Project,
			"period":  view.Period,
			"budget":  view.Budget,
		})
	}
}

func makeListBlocksHandler(database *db.DB, loc *time.Location) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ListBlocksArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		project, err := findProject(database, args.Project)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		to := models.DateIn(time.Now(), loc)
		if args.To != "" {
			if to, err = models.ParseDate(args.To); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		from := to.AddDays(-7)
		if args.From != "" {
			if from, err = models.ParseDate(args.From); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}

		blocks, err := database.ListBlocks(project.ID, models.TimeRange{From: from.In(loc), To: to.AddDays(1).In(loc)})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}

		list := make([]BlockDetail, 0, len(blocks))
		for _, b := range blocks {
			list = append(list, BlockDetail{
				ID:       b.ID,
				Date:     models.DateIn(b.Start, loc).String(),
				Start:    b.Start.In(loc).Format("15:04"),
				End:      b.End.In(loc).Format("15:04"),
				Hours:    models.DecimalHours(b.Duration()),
				Events:   b.EventCount,
				Summary:  b.Summary,
				Exported: b.Exported,
			})
		}
		return jsonResult(map[string]interface{}{"project": project.Name, "blocks": list})
	}
}

func makeSearchEventsHandler(database *db.DB, loc *time.Location) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args SearchEventsArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		limit := args.Limit
		if limit == 0 {
			limit = 20
		}

		filters := search.ParseQuery(args.Query, time.Now().In(loc))
		results, err := search.Search(database, filters, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		matches := make([]EventMatch, 0, len(results))
		for _, r := range results {
			matches = append(matches, EventMatch{
				Project:   r.ProjectName,
				Source:    r.SourceType,
				Timestamp: r.Timestamp.In(loc).Format("2006-01-02 15:04:05"),
				Snippet:   r.Snippet,
			})
		}
		return jsonResult(map[string]interface{}{"events": matches})
	}
}
