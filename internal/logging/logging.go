// Package logging provides categorized structured logging for the distiller.
// Each pipeline stage logs through a named zap logger so a single run can be
// filtered per stage. The package is a thin wrapper: initialize once at
// startup, then fetch per-category loggers.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a pipeline stage for log filtering.
type Category string

const (
	CategoryEngine  Category = "engine"
	CategoryChunker Category = "chunker"
	CategoryCards   Category = "cards"
	CategoryThemes  Category = "themes"
	CategoryDedup   Category = "dedup"
	CategoryQuota   Category = "quota"
	CategoryPack    Category = "pack"
	CategoryBudget  Category = "budget"
	CategoryConfig  Category = "config"
)

var (
	mu      sync.RWMutex
	root    *zap.Logger
	loggers = make(map[Category]*zap.Logger)
)

// Initialize installs the root logger. Verbose switches to debug level with
// development-friendly output. Safe to call more than once; the last call
// wins.
func Initialize(verbose bool) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	root = logger
	loggers = make(map[Category]*zap.Logger)
	return nil
}

// Get returns the logger for a category. Before Initialize it returns a
// no-op logger so library code never nil-checks.
func Get(cat Category) *zap.Logger {
	mu.RLock()
	if l, ok := loggers[cat]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		return zap.NewNop()
	}
	if l, ok := loggers[cat]; ok {
		return l
	}
	l := root.Named(string(cat))
	loggers[cat] = l
	return l
}

// Sync flushes buffered log entries. Called before process exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}
