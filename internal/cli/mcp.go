package cli

import (
	"github.com/mvp-joe/ctxpack/internal/git"
	"github.com/mvp-joe/ctxpack/internal/mcp"
	"github.com/mvp-joe/ctxpack/internal/source"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server exposing bundle assembly",
	Long: `Start the Model Context Protocol (MCP) server so coding assistants can ask
for a bundle directly.

The MCP server:
- Provides the ctxpack_assemble tool, which packs the current instruction
- Accepts per-call overrides for budget, scope, references, diffs and regions
- Communicates via stdio (standard MCP transport)

Flags given here become the defaults for every tool call.

Example:
  ctxpack mcp --budget 80000`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	gitOps := git.NewOperations()
	root, cfg, err := loadProject(cmd.Flags(), gitOps)
	if err != nil {
		return err
	}

	reader, err := source.NewCachedReader(source.DefaultCacheBytes)
	if err != nil {
		return err
	}
	defer reader.Close()

	runner := mcp.NewRunner(root, cfg, gitOps, reader)
	return mcp.NewMCPServer(runner, Version).Serve(cmd.Context())
}
