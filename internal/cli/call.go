package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	mcptest "github.com/aryanjp1/mcp-test-framework"
)

// newCallCommand invokes one tool and prints its content items.
func newCallCommand(flags *rootFlags) *cobra.Command {
	var argsJSON string

	cmd := &cobra.Command{
		Use:   "call <tool> [flags] -- <server-command> [server-args...]",
		Short: "Call a tool on an MCP server",
		Example: `  mcptest call add --args '{"a": 5, "b": 3}' -- python server.py
  mcptest call list_users --server users`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			own, serverArgs := splitDash(cmd, args)
			if len(own) != 1 {
				return fmt.Errorf("expected exactly one tool name, got %d", len(own))
			}
			tool := own[0]

			var arguments map[string]any
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &arguments); err != nil {
					return fmt.Errorf("failed to parse --args: %w", err)
				}
			}

			return flags.withSession(cmd, serverArgs, func(ctx context.Context, s *mcptest.Session) error {
				result, err := s.CallTool(ctx, tool, arguments)
				if err != nil {
					return fmt.Errorf("%s: %w", mcptest.FormatToolCall(tool, arguments), err)
				}
				printContent(cmd, result.Content)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&argsJSON, "args", "", "tool arguments as a JSON object")
	return cmd
}

// newReadCommand reads one resource and prints its contents.
func newReadCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "read <uri> [flags] -- <server-command> [server-args...]",
		Short: "Read a resource from an MCP server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			own, serverArgs := splitDash(cmd, args)
			if len(own) != 1 {
				return fmt.Errorf("expected exactly one resource URI, got %d", len(own))
			}
			uri := own[0]

			return flags.withSession(cmd, serverArgs, func(ctx context.Context, s *mcptest.Session) error {
				result, err := s.ReadResource(ctx, uri)
				if err != nil {
					return err
				}
				for _, contents := range result.Contents {
					if tc, ok := mcp.AsTextResourceContents(contents); ok {
						fmt.Fprintln(cmd.OutOrStdout(), tc.Text)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", contents)
				}
				return nil
			})
		},
	}
}

func printContent(cmd *cobra.Command, content []mcp.Content) {
	for _, item := range content {
		if tc, ok := mcp.AsTextContent(item); ok {
			fmt.Fprintln(cmd.OutOrStdout(), tc.Text)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", item)
	}
}
