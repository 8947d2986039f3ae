package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/fsmonitor/fsmcore/internal/database"
	"github.com/fsmonitor/fsmcore/internal/fsmonitor"
	"github.com/fsmonitor/fsmcore/internal/service"
)

// openService builds a Service for the worktree in the current working
// directory using whatever fsmonitor.* settings viper has loaded, opening
// (and leaving open) the backing database. Every FSM subcommand goes
// through this one entry point so they all see the same configuration.
func openService() (*service.Service, func(), error) {
	worktree, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("determine worktree root: %w", err)
	}

	dbOpts := database.DefaultOptions()
	if home, herr := os.UserHomeDir(); herr == nil {
		dbOpts.Path = filepath.Join(home, ".fsmonitor", "db", "fsmcore.db")
	}

	db, err := database.NewManager(dbOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("create database manager: %w", err)
	}
	if err := db.Open(); err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	cfg := loadFSMConfig()

	svc, err := service.New(worktree, cfg, db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return svc, func() { db.Close() }, nil
}

// loadFSMConfig reads the fsmonitor.* viper keys populated by "fsmonitor
// init" and config set/edit into an fsmonitor.Config.
func loadFSMConfig() fsmonitor.Config {
	mode := fsmonitor.Mode(viper.GetString("fsmonitor.mode"))
	if mode == "" {
		mode = fsmonitor.ModeDisabled
	}

	compat := fsmonitor.CompatReason(viper.GetString("fsmonitor.compat_reason"))

	return fsmonitor.Config{
		Mode:                   mode,
		HookPath:               viper.GetString("fsmonitor.hook_path"),
		HookVersionPreference:  viper.GetInt("fsmonitor.hook_version_preference"),
		CaseInsensitiveFS:      viper.GetBool("fsmonitor.case_insensitive"),
		Compat:                 compat,
	}
}
