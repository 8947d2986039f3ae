package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// enableCmd represents the enable command
var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable FSM-driven freshness tracking for this worktree",
	Long: `Turn on the filesystem-monitor integration for the worktree in the
current directory: every entry is marked dirty, a fresh oracle token is
seeded, and an initial refresh is run immediately.`,
	RunE: runEnable,
}

func runEnable(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := svc.Enable(); err != nil {
		return fmt.Errorf("enable fsmonitor: %w", err)
	}

	status := svc.Status()
	fmt.Printf("fsmonitor enabled for %s\n", status.WorktreeRoot)
	fmt.Printf("  mode:    %s\n", status.Mode)
	fmt.Printf("  entries: %d (%d dirty)\n", status.TotalEntries, status.DirtyEntries)
	return nil
}
