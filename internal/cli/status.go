package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the fsmonitor status for this worktree",
	Long: `Display the current state of the filesystem-monitor integration for
the worktree in the current directory: whether it is enabled, which
oracle mode is configured, the last token, and how many entries are
currently marked dirty.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("detailed", false, "Also list recent refresh history")
	statusCmd.Flags().Bool("json", false, "Output status in JSON format")
}

func runStatus(cmd *cobra.Command, args []string) error {
	detailed, _ := cmd.Flags().GetBool("detailed")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	status := svc.Status()

	if jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal status: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("fsmonitor status: %s\n", status.WorktreeRoot)
	fmt.Printf("  enabled: %t\n", status.Enabled)
	fmt.Printf("  mode:    %s\n", status.Mode)
	fmt.Printf("  token:   %s\n", status.Token)
	fmt.Printf("  entries: %d total, %d dirty, %d clean\n",
		status.TotalEntries, status.DirtyEntries, status.TotalEntries-status.DirtyEntries)

	if detailed {
		history, err := svc.History()
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		fmt.Printf("\nrecent refresh history (%d entries):\n", len(history))
		for _, h := range history {
			fmt.Printf("  [%s] %s outcome=%s applied=%d token=%s\n",
				h.RanAt.Format("2006-01-02 15:04:05"), h.CorrelationID, h.Outcome, h.PathsApplied, h.Token)
		}
	}

	return nil
}
