package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Somers1/logsheet/cmd/logsheet/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Start MCP server over stdio",
	Long: `Start an MCP (Model Context Protocol) server exposing projects,
timesheets, budgets, work blocks and event search to an assistant.

Example client configuration:
  {
    "mcpServers": {
      "logsheet": {
        "command": "logsheet",
        "args": ["serve-mcp"]
      }
    }
  }
`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	_, loc, err := loadConfig()
	if err != nil {
		return err
	}
	if err := mcp.StartServer(dbPath, loc); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
