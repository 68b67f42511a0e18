package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/ctxpack/internal/config"
	"github.com/mvp-joe/ctxpack/internal/instruction"
	"gopkg.in/yaml.v3"
)

// ToolName is the name ctxpack registers its assembly tool under.
const ToolName = "ctxpack_assemble"

// AddAssembleTool registers the ctxpack_assemble tool with an MCP server.
func AddAssembleTool(s *server.MCPServer, runner *Runner) {
	tool := mcp.NewTool(
		ToolName,
		mcp.WithDescription("Assemble a context bundle for the instruction comment (default marker `// TODO: ai`) most recently written in the project. Returns the instruction file, the files defining the types it mentions and a closing instruction, ready to be answered. Add the marker comment describing the change before calling."),
		mcp.WithNumber("budget",
			mcp.Description("Hard character budget for the bundle; 0 disables it. Files named in the instruction are always included.")),
		mcp.WithNumber("warn_threshold",
			mcp.Description("Character count above which exclusion suggestions are returned; 0 disables them.")),
		mcp.WithBoolean("whole_repo",
			mcp.Description("Search the whole repository instead of the instruction's package.")),
		mcp.WithBoolean("references",
			mcp.Description("Also include files referencing the type enclosing the instruction.")),
		mcp.WithString("diff",
			mcp.Description("Append diffs against this branch; 'auto' picks main or master.")),
		mcp.WithBoolean("regions",
			mcp.Description("Reduce context files to their `// v` ... `// ^` regions (default true).")),
		mcp.WithBoolean("report",
			mcp.Description("Append the YAML run report after the diagnostics.")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createAssembleHandler(runner))
}

// createAssembleHandler creates the handler function for ctxpack_assemble.
// The first content item is the bundle, the second the diagnostics.
func createAssembleHandler(runner *Runner) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if _, ok := request.Params.Arguments.(map[string]interface{}); !ok && request.Params.Arguments != nil {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		var args AssembleRequest
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := runner.Run(ctx, args)
		if err != nil {
			if errors.Is(err, instruction.ErrNoInstructionFound) {
				return mcp.NewToolResultError(fmt.Sprintf("no instruction found: add a %q comment describing the change", runner.cfg.Marker.Instruction)), nil
			}
			if errors.Is(err, ErrInvalidRequest) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return nil, fmt.Errorf("assembly failed: %w", err)
		}

		diagnostics := result.Diagnostics()
		if args.Report {
			data, err := yaml.Marshal(result.Report())
			if err != nil {
				return nil, fmt.Errorf("failed to marshal report: %w", err)
			}
			diagnostics += "\n" + string(data)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(result.Bundle.Text),
				mcp.NewTextContent(diagnostics),
			},
		}, nil
	}
}

// apply returns a copy of cfg with the request's overrides.
func (r AssembleRequest) apply(cfg *config.Config) *config.Config {
	out := *cfg
	if r.Budget != nil {
		out.Budget.Limit = *r.Budget
	}
	if r.WarnThreshold != nil {
		out.Budget.WarnThreshold = *r.WarnThreshold
	}
	if r.WholeRepo != nil {
		out.Scope.WholeRepo = *r.WholeRepo
	}
	if r.References != nil {
		out.Scope.References = *r.References
	}
	if r.Diff != nil {
		out.Diff.Branch = *r.Diff
	}
	if r.Regions != nil {
		out.Output.Regions = *r.Regions
	}
	return &out
}
