// Package cli implements the mcptest command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcptest "github.com/aryanjp1/mcp-test-framework"
	"github.com/aryanjp1/mcp-test-framework/internal/config"
)

type rootFlags struct {
	configPath string
	serverName string
	timeout    time.Duration
	verbose    bool
}

// NewRootCommand builds the mcptest root command.
func NewRootCommand(version string) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "mcptest",
		Short: "Test and inspect MCP servers over stdio",
		Long: `mcptest connects to Model Context Protocol (MCP) servers over standard
input/output and inspects their advertised tools and resources, invokes
operations, and manages snapshot baselines used in regression tests.

Servers are given either inline after "--" or by name from mcptest.yaml:

  mcptest tools -- python server.py
  mcptest call add --args '{"a": 5, "b": 3}' --server calculator`,
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVar(&flags.configPath, "config", "", "path to the mcptest configuration file")
	persistent.StringVar(&flags.serverName, "server", "", "named server from the configuration file")
	persistent.DurationVar(&flags.timeout, "timeout", 30*time.Second, "timeout for server operations")
	persistent.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newToolsCommand(flags))
	rootCmd.AddCommand(newResourcesCommand(flags))
	rootCmd.AddCommand(newCallCommand(flags))
	rootCmd.AddCommand(newReadCommand(flags))
	rootCmd.AddCommand(newCheckCommand(flags))
	rootCmd.AddCommand(newSnapshotsCommand(flags))

	return rootCmd
}

// Execute runs the CLI with signal-aware cancellation.
func Execute(version string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return NewRootCommand(version).ExecuteContext(ctx)
}

func (f *rootFlags) logger() *slog.Logger {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (f *rootFlags) loadConfig() (*config.Config, error) {
	return config.Load(f.configPath)
}

// resolveServer picks the target server: the command line after "--" wins,
// otherwise the --server entry from the configuration file.
func (f *rootFlags) resolveServer(serverArgs []string) (mcptest.ServerConfig, error) {
	if len(serverArgs) > 0 {
		return mcptest.ParseCommandLine(strings.Join(serverArgs, " "))
	}
	if f.serverName == "" {
		return mcptest.ServerConfig{}, fmt.Errorf("no server given: pass one after \"--\" or use --server")
	}
	cfg, err := f.loadConfig()
	if err != nil {
		return mcptest.ServerConfig{}, err
	}
	entry, err := cfg.Lookup(f.serverName)
	if err != nil {
		return mcptest.ServerConfig{}, err
	}
	return mcptest.ServerConfig{Command: entry.Command, Args: entry.Args, Env: entry.Env}, nil
}

// withSession connects a session to the resolved server, runs fn, and always
// disconnects afterwards.
func (f *rootFlags) withSession(cmd *cobra.Command, serverArgs []string, fn func(ctx context.Context, s *mcptest.Session) error) error {
	server, err := f.resolveServer(serverArgs)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	defer cancel()

	session := mcptest.NewSession(server, mcptest.WithLogger(f.logger()))
	if err := session.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := session.Disconnect(); err != nil {
			f.logger().Warn("failed to disconnect", "error", err)
		}
	}()

	return fn(ctx, session)
}

// splitDash separates a command's own positionals from the server command
// after "--".
func splitDash(cmd *cobra.Command, args []string) (own, server []string) {
	at := cmd.ArgsLenAtDash()
	if at < 0 {
		return args, nil
	}
	return args[:at], args[at:]
}
