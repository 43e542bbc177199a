package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	mcptest "github.com/aryanjp1/mcp-test-framework"
	"github.com/aryanjp1/mcp-test-framework/internal/render"
)

// newCheckCommand runs the built-in assertion battery against a server:
// every advertised tool must have a valid schema and names must be unique.
func newCheckCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [flags] -- <server-command> [server-args...]",
		Short: "Run schema and naming checks against an MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, serverArgs := splitDash(cmd, args)
			return flags.withSession(cmd, serverArgs, func(ctx context.Context, s *mcptest.Session) error {
				out := cmd.OutOrStdout()
				tools, err := s.ListTools(ctx)
				if err != nil {
					return err
				}

				failures := 0
				for _, tool := range tools {
					if err := mcptest.AssertToolSchemaValid(tool); err != nil {
						render.Fail(out, "%v", err)
						failures++
						continue
					}
					render.Pass(out, "tool %q has a valid schema", tool.Name)
				}

				if err := mcptest.AssertToolsHaveUniqueNames(ctx, s); err != nil {
					render.Fail(out, "%v", err)
					failures++
				} else {
					render.Pass(out, "tool names are unique")
				}

				if failures > 0 {
					return fmt.Errorf("%d check(s) failed", failures)
				}
				return nil
			})
		},
	}
}
