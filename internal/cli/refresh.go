package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one fsmonitor refresh cycle by hand",
	Long: `Query the configured oracle once, apply whatever it reports against
the worktree's index, and persist the result. Like every automatic
refresh, this is a no-op if a refresh already ran earlier in this
process: has_run_once is scoped to the process, not to this command.`,
	RunE: runRefresh,
}

func runRefresh(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := svc.Refresh()
	if err != nil {
		return fmt.Errorf("refresh fsmonitor: %w", err)
	}

	fmt.Printf("fsmonitor refresh complete for %s\n", result.WorktreeRoot)
	fmt.Printf("  mode:    %s\n", result.Mode)
	fmt.Printf("  token:   %s\n", result.Token)
	fmt.Printf("  entries: %d (%d dirty)\n", result.TotalEntries, result.DirtyEntries)
	return nil
}
