package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// fsmonitorConfigKeys enumerates the fsmonitor.* keys, plus logging.level,
// that init.go writes into config.yaml (internal/cli/init.go), so "config show" can render them in
// a fixed, meaningful order instead of dumping viper's whole settings map.
var fsmonitorConfigKeys = []string{
	"fsmonitor.mode",
	"fsmonitor.hook_path",
	"fsmonitor.hook_version_preference",
	"fsmonitor.case_insensitive",
	"fsmonitor.compat_reason",
	"logging.level",
}

// validModes mirrors fsmonitor.Mode's constants, checked at "config set
// fsmonitor.mode" time so a typo doesn't silently disable FSM.
var validModes = map[string]bool{"disabled": true, "hook": true, "ipc": true}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage FSM integration configuration",
	Long:  `View and modify the fsmonitor.* and logging.* settings in config.yaml.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current fsmonitor configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration file in $EDITOR",
	RunE:  runConfigEdit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configEditCmd)
}

func configFilePath() string {
	if f := viper.ConfigFileUsed(); f != "" {
		return f
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".fsmonitor", "config.yaml")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	fmt.Printf("config file: %s\n\n", configFilePath())

	for _, key := range fsmonitorConfigKeys {
		value := viper.Get(key)
		if value == nil {
			value = "(unset)"
		}
		fmt.Printf("  %-32s %v\n", key, value)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	if key == "fsmonitor.mode" && !validModes[value] {
		return fmt.Errorf("invalid fsmonitor.mode %q: must be one of disabled, hook, ipc", value)
	}

	viper.Set(key, value)

	if err := viper.WriteConfig(); err != nil {
		if err := viper.SafeWriteConfig(); err != nil {
			return fmt.Errorf("failed to write configuration: %w", err)
		}
	}

	fmt.Printf("%s = %s\n", key, value)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := viper.Get(key)
	if value == nil {
		return fmt.Errorf("configuration key %q not found", key)
	}
	fmt.Printf("%v\n", value)
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configFile := configFilePath()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, candidate := range []string{"nano", "vim", "vi"} {
			if path, err := exec.LookPath(candidate); err == nil {
				editor = path
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found; set $EDITOR or $VISUAL")
	}

	editCmd := exec.Command(editor, configFile)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
