// Package logger provides a centralized logging configuration for the FSM
// integration core.
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// coreLogger is the global logger instance every helper in this package
// and every zero-value collaborator (Diagnostics, testfixture.SimulatedDaemon)
// falls back to before a Service has a chance to attach worktree context.
var coreLogger *zap.Logger

// LogConfig holds the logging configuration.
type LogConfig struct {
	Level       string
	OutputPath  string
	MaxSize     int // megabytes
	MaxBackups  int
	MaxAge      int // days
	Compress    bool
	Development bool
	EnableJSON  bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *LogConfig {
	home, _ := os.UserHomeDir()
	return &LogConfig{
		Level:       "info",
		OutputPath:  filepath.Join(home, ".fsmonitor", "logs", "fsmcore.log"),
		MaxSize:     100,
		MaxBackups:  5,
		MaxAge:      30,
		Compress:    true,
		Development: false,
		EnableJSON:  false,
	}
}

// Initialize sets up the global logger with the given configuration.
func Initialize(cfg *LogConfig) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	switch {
	case cfg.Development && !cfg.EnableJSON:
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	case cfg.EnableJSON:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	logDir := filepath.Dir(cfg.OutputPath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.OutputPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	writers := []zapcore.WriteSyncer{zapcore.AddSync(fileWriter)}
	if cfg.Development {
		writers = append(writers, zapcore.AddSync(os.Stdout))
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.NewMultiWriteSyncer(writers...),
		zap.NewAtomicLevelAt(level),
	)

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	coreLogger = zap.New(core, opts...)
	zap.ReplaceGlobals(coreLogger)
	return nil
}

// Get returns the global logger instance, initializing it with
// DefaultConfig on first use.
func Get() *zap.Logger {
	if coreLogger == nil {
		Initialize(DefaultConfig())
	}
	return coreLogger
}

// Sync flushes any buffered log entries.
func Sync() error {
	if coreLogger != nil {
		return coreLogger.Sync()
	}
	return nil
}

// WithWorktree scopes the global logger to one monitored worktree, so
// every log line a Service emits for that tree carries its root without
// every call site repeating zap.String("worktree", ...). See
// internal/service.New, which attaches this once per Service rather than
// the raw global logger.
func WithWorktree(worktreeRoot string) *zap.Logger {
	return Get().With(zap.String("worktree", worktreeRoot))
}

// WithDiagnosticKey scopes the global logger to one WarnOnce key, mirroring
// the key Diagnostics uses to decide whether a warning has already fired
// (internal/fsmonitor/diagnostics.go), so a log line and the suppression
// decision behind it always carry the same identifier.
func WithDiagnosticKey(key string) *zap.Logger {
	return Get().With(zap.String("diagnostic_key", key))
}
