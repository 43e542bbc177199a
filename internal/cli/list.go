package cli

import (
	"context"

	"github.com/spf13/cobra"

	mcptest "github.com/aryanjp1/mcp-test-framework"
	"github.com/aryanjp1/mcp-test-framework/internal/render"
)

// newToolsCommand lists the server's advertised tools.
func newToolsCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tools [flags] -- <server-command> [server-args...]",
		Short: "List the tools advertised by an MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, serverArgs := splitDash(cmd, args)
			return flags.withSession(cmd, serverArgs, func(ctx context.Context, s *mcptest.Session) error {
				tools, err := s.ListTools(ctx)
				if err != nil {
					return err
				}
				render.Tools(cmd.OutOrStdout(), tools)
				return nil
			})
		},
	}
}

// newResourcesCommand lists the server's advertised resources.
func newResourcesCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resources [flags] -- <server-command> [server-args...]",
		Short: "List the resources advertised by an MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, serverArgs := splitDash(cmd, args)
			return flags.withSession(cmd, serverArgs, func(ctx context.Context, s *mcptest.Session) error {
				resources, err := s.ListResources(ctx)
				if err != nil {
					return err
				}
				render.Resources(cmd.OutOrStdout(), resources)
				return nil
			})
		},
	}
}
