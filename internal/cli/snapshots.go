package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aryanjp1/mcp-test-framework/internal/render"
)

// newSnapshotsCommand manages persisted snapshot records as an operator
// surface: tests own creation and comparison, deletion is explicit.
func newSnapshotsCommand(flags *rootFlags) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Manage snapshot baselines",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "snapshot directory (defaults to snapshot_dir from the configuration)")

	resolveDir := func() (string, error) {
		if dir != "" {
			return dir, nil
		}
		cfg, err := flags.loadConfig()
		if err != nil {
			return "", err
		}
		return cfg.SnapshotDir, nil
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all snapshot records",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshotDir, err := resolveDir()
			if err != nil {
				return err
			}
			records, err := listRecords(snapshotDir)
			if err != nil {
				return err
			}
			render.Title(cmd.OutOrStdout(), fmt.Sprintf("Snapshots in %s (%d)", snapshotDir, len(records)))
			for _, record := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", record)
			}
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <record>...",
		Short: "Delete snapshot records by file name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshotDir, err := resolveDir()
			if err != nil {
				return err
			}
			for _, record := range args {
				path := filepath.Join(snapshotDir, filepath.Base(record))
				if err := os.Remove(path); err != nil {
					return fmt.Errorf("failed to delete %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", path)
			}
			return nil
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(deleteCmd)
	return cmd
}

func listRecords(dir string) ([]string, error) {
	var records []string
	for _, pattern := range []string{"*.json", "*.txt"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			records = append(records, filepath.Base(match))
		}
	}
	sort.Strings(records)
	return records, nil
}
