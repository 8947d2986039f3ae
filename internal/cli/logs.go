package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// logsCmd represents the logs command
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View fsmonitor logs",
	Long: `Display the tail of the fsmonitor log file, with optional level
filtering and follow mode.`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().Int("tail", 20, "Number of lines to display")
	logsCmd.Flags().Bool("follow", false, "Follow log output (like tail -f)")
	logsCmd.Flags().String("level", "", "Filter by log level (debug, info, warn, error)")
	logsCmd.Flags().String("file", "", "Path to the log file (default ~/.fsmonitor/logs/fsmcore.log)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	tail, _ := cmd.Flags().GetInt("tail")
	follow, _ := cmd.Flags().GetBool("follow")
	level, _ := cmd.Flags().GetString("level")
	logFile, _ := cmd.Flags().GetString("file")

	if logFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("determine home directory: %w", err)
		}
		logFile = filepath.Join(home, ".fsmonitor", "logs", "fsmcore.log")
	}

	f, err := os.Open(logFile)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("no log file at %s yet\n", logFile)
			return nil
		}
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	lines, err := tailLines(f, tail)
	if err != nil {
		return fmt.Errorf("read log file: %w", err)
	}
	for _, line := range lines {
		printLogLine(line, level)
	}

	if !follow {
		return nil
	}

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("seek log file: %w", err)
	}

	for {
		time.Sleep(500 * time.Millisecond)

		fi, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat log file: %w", err)
		}
		if fi.Size() < offset {
			// The open file shrank (it was truncated); start reading from
			// the top. A file renamed away by rotation is not detected:
			// f keeps reading the old file.
			offset = 0
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return err
			}
		}
		if fi.Size() == offset {
			continue
		}

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			printLogLine(scanner.Text(), level)
		}
		offset, _ = f.Seek(0, io.SeekCurrent)
	}
}

// tailLines returns up to n lines from the end of f.
func tailLines(f *os.File, n int) ([]string, error) {
	scanner := bufio.NewScanner(f)
	var all []string
	for scanner.Scan() {
		all = append(all, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if n <= 0 || n >= len(all) {
		return all, nil
	}
	return all[len(all)-n:], nil
}

func printLogLine(line, levelFilter string) {
	if levelFilter != "" && !strings.Contains(strings.ToLower(line), strings.ToLower(levelFilter)) {
		return
	}
	fmt.Println(line)
}
