package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig selects where and how much to log.
type LogConfig struct {
	Level      string `yaml:"level,omitempty"`
	Format     string `yaml:"format,omitempty" validate:"omitempty,oneof=console json"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" validate:"omitempty,min=1"`
	MaxBackups int    `yaml:"max_backups,omitempty" validate:"omitempty,min=0"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty" validate:"omitempty,min=0"`
}

// Logger provides leveled logging with verbose mode support
type Logger struct {
	mu      sync.RWMutex
	base    *zap.Logger
	sugar   *zap.SugaredLogger
	level   zap.AtomicLevel
	verbose bool
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
)

// GetLogger returns the global logger instance. Until InitLogger is called
// it writes warnings and above to stderr.
func GetLogger() *Logger {
	loggerOnce.Do(func() {
		level := zap.NewAtomicLevelAt(zap.WarnLevel)
		globalLogger = &Logger{level: level}
		globalLogger.install(zapcore.NewCore(consoleEncoder(), zapcore.Lock(os.Stderr), level))
	})
	return globalLogger
}

// InitLogger rebuilds the global logger from cfg.
func InitLogger(cfg LogConfig) error {
	l := GetLogger()

	lvl := zap.InfoLevel
	if cfg.Level != "" {
		if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}
	l.level.SetLevel(lvl)

	encoder := consoleEncoder()
	if cfg.Format == "json" {
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.TimeKey = "ts"
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	var writer zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		writer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    withDefault(cfg.MaxSizeMB, 50),
			MaxBackups: withDefault(cfg.MaxBackups, 7),
			MaxAge:     withDefault(cfg.MaxAgeDays, 14),
			Compress:   true,
		})
	}

	l.install(zapcore.NewCore(encoder, writer, l.level))
	return nil
}

func withDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func consoleEncoder() zapcore.Encoder {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encoderCfg)
}

func (l *Logger) install(core zapcore.Core) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.base = zap.New(core)
	l.sugar = l.base.Sugar()
}

func (l *Logger) sugared() *zap.SugaredLogger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sugar
}

// Zap returns the structured logger behind l.
func (l *Logger) Zap() *zap.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.base
}

// SetVerbose enables or disables verbose logging
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	l.verbose = verbose
	l.mu.Unlock()
	if verbose {
		l.level.SetLevel(zap.DebugLevel)
	}
}

// IsVerbose returns whether verbose logging is enabled
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// Debug logs a debug message (only when verbose is enabled)
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugared().Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugared().Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugared().Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugared().Errorf(format, args...)
}

// Sync flushes buffered log entries
func (l *Logger) Sync() {
	_ = l.Zap().Sync()
}

// Zap is a convenience function for the global structured logger
func Zap() *zap.Logger {
	return GetLogger().Zap()
}

// Debugf is a convenience function for debug logging
func Debugf(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

// Infof is a convenience function for info logging
func Infof(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

// Warnf is a convenience function for warning logging
func Warnf(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

// Errorf is a convenience function for error logging
func Errorf(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}

// SetVerboseMode is a convenience function to set global verbose mode
func SetVerboseMode(verbose bool) {
	GetLogger().SetVerbose(verbose)
}

// LogOperation logs the start and end of an operation
func LogOperation(operation string, fn func() error) error {
	logger := GetLogger()
	logger.Debug("Starting operation: %s", operation)

	err := fn()

	if err != nil {
		logger.Debug("Operation failed: %s - %v", operation, err)
	} else {
		logger.Debug("Operation completed: %s", operation)
	}

	return err
}

// LogOperationf logs the start and end of an operation with formatted message
func LogOperationf(format string, fn func() error, args ...interface{}) error {
	operation := fmt.Sprintf(format, args...)
	return LogOperation(operation, fn)
}

// ParseLevel reports whether s names a log level.
func ParseLevel(s string) bool {
	var lvl zapcore.Level
	return lvl.UnmarshalText([]byte(strings.ToLower(s))) == nil
}
