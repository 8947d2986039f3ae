// Package main is the entry point for the fsmonitor CLI.
package main

import (
	"fmt"
	"os"

	"github.com/fsmonitor/fsmcore/internal/cli"
	pkglogger "github.com/fsmonitor/fsmcore/pkg/logger"
	"go.uber.org/zap"
)

// Version information (set during build)
var (
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	if err := pkglogger.Initialize(pkglogger.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer pkglogger.Sync()

	cli.SetVersionInfo(Version, BuildDate)

	if err := cli.Execute(); err != nil {
		pkglogger.Get().Error("fsmonitor command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
