package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize fsmonitor configuration",
	Long: `Initialize fsmonitor configuration in your home directory.

This command creates the necessary configuration files and directories
for the filesystem-monitor integration to operate. It will create:
- ~/.fsmonitor/config.yaml - Main configuration file
- ~/.fsmonitor/logs/ - Directory for log files
- ~/.fsmonitor/db/ - Directory for the persisted extension database`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing configuration")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	fsmonitorDir := filepath.Join(home, ".fsmonitor")

	if err := os.MkdirAll(fsmonitorDir, 0700); err != nil {
		return fmt.Errorf("failed to create fsmonitor directory: %w", err)
	}

	dirs := []string{"logs", "db"}
	for _, dir := range dirs {
		dirPath := filepath.Join(fsmonitorDir, dir)
		if err := os.MkdirAll(dirPath, 0700); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	configPath := filepath.Join(fsmonitorDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration already exists at %s. Use --force to overwrite", configPath)
	}

	defaultConfig := map[string]interface{}{
		"version": "1.0",
		"fsmonitor": map[string]interface{}{
			"mode":                      "hook",
			"hook_path":                 "",
			"hook_version_preference":   0,
			"case_insensitive":          false,
			"compat_reason":             "",
		},
		"logging": map[string]interface{}{
			"level":       "info",
			"file":        filepath.Join(fsmonitorDir, "logs", "fsmcore.log"),
			"max_size":    100,
			"max_backups": 5,
			"max_age":     30,
		},
	}

	configData, err := yaml.Marshal(defaultConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if err := os.WriteFile(configPath, configData, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("fsmonitor initialized successfully\n")
	fmt.Printf("  configuration directory: %s\n", fsmonitorDir)
	fmt.Printf("  configuration file:      %s\n", configPath)
	fmt.Printf("\n")
	fmt.Printf("Next steps:\n")
	fmt.Printf("1. Set fsmonitor.mode and fsmonitor.hook_path in %s\n", configPath)
	fmt.Printf("2. Run 'fsmonitor enable' from inside the worktree you want monitored\n")

	return nil
}
