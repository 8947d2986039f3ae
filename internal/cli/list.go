package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List index entries and their CLEAN status",
	Long: `Display the entries in the worktree's index, along with whether
fsmonitor currently considers each one CLEAN (unchanged since the last
refresh) or dirty.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().String("prefix", "", "Only show entries whose name has this prefix")
	listCmd.Flags().Bool("dirty-only", false, "Only show entries that are not CLEAN")
	listCmd.Flags().Int("limit", 0, "Limit number of results (0 = no limit)")
}

func runList(cmd *cobra.Command, args []string) error {
	prefix, _ := cmd.Flags().GetString("prefix")
	dirtyOnly, _ := cmd.Flags().GetBool("dirty-only")
	limit, _ := cmd.Flags().GetInt("limit")

	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	entries := svc.Entries()

	fmt.Printf("%-60s %-10s\n", "Name", "Status")
	fmt.Printf("%-60s %-10s\n", strings.Repeat("-", 60), strings.Repeat("-", 10))

	shown := 0
	clean, dirty := 0, 0
	for _, e := range entries {
		if e.IsRemoved() {
			continue
		}
		if prefix != "" && !strings.HasPrefix(e.Name, prefix) {
			continue
		}
		if e.IsClean() {
			clean++
		} else {
			dirty++
		}
		if dirtyOnly && e.IsClean() {
			continue
		}
		if limit > 0 && shown >= limit {
			continue
		}

		status := "clean"
		if !e.IsClean() {
			status = "dirty"
		}
		fmt.Printf("%-60s %-10s\n", e.Name, status)
		shown++
	}

	fmt.Printf("\nshown: %d | total: %d clean, %d dirty\n", shown, clean, dirty)
	return nil
}
