package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// disableCmd represents the disable command
var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable FSM-driven freshness tracking for this worktree",
	Long: `Turn off the filesystem-monitor integration for the worktree in the
current directory. The persisted token is discarded; a subsequent enable
starts from a fully invalidated state.`,
	RunE: runDisable,
}

func runDisable(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := svc.Disable(); err != nil {
		return fmt.Errorf("disable fsmonitor: %w", err)
	}

	fmt.Printf("fsmonitor disabled for %s\n", svc.Status().WorktreeRoot)
	return nil
}
