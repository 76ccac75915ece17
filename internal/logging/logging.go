// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the application-wide zap logger.
//
// The terminal belongs to the UI, so log output goes to a file. Components
// ask for a category-scoped logger with Named and attach structured fields.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category constants for consistent logger names.
const (
	CategoryApp          = "App"
	CategoryBackend      = "Backend"
	CategoryAudio        = "Audio"
	CategoryTyping       = "Typing"
	CategoryUI           = "UI"
	CategoryConfig       = "Config"
	CategoryConversation = "Conversation"
)

// Options controls where and how much is logged.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string

	// File is the log file path. Empty disables logging entirely.
	File string

	// Console additionally writes human-readable output to stderr.
	Console bool
}

var (
	global   atomic.Pointer[zap.Logger]
	closerMu sync.Mutex
	closer   func() error
)

func init() {
	global.Store(zap.NewNop())
}

// ParseLevel converts a level name to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// New builds a logger from options without touching the global logger.
// The returned close function flushes and closes the log file.
func New(opts Options) (*zap.Logger, func() error, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var cores []zapcore.Core
	closeFn := func() error { return nil }

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), lvl))
		closeFn = f.Close
	}

	if opts.Console {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), lvl))
	}

	if len(cores) == 0 {
		return zap.NewNop(), closeFn, nil
	}

	logger := zap.New(zapcore.NewTee(cores...))
	return logger, func() error {
		_ = logger.Sync()
		return closeFn()
	}, nil
}

// Init replaces the global logger.
func Init(opts Options) error {
	logger, closeFn, err := New(opts)
	if err != nil {
		return err
	}

	closerMu.Lock()
	prev := closer
	closer = closeFn
	closerMu.Unlock()

	global.Store(logger)
	if prev != nil {
		_ = prev()
	}
	return nil
}

// Shutdown flushes and closes the global logger.
func Shutdown() {
	closerMu.Lock()
	fn := closer
	closer = nil
	closerMu.Unlock()

	global.Store(zap.NewNop())
	if fn != nil {
		_ = fn()
	}
}

// L returns the global logger.
func L() *zap.Logger {
	return global.Load()
}

// Named returns the global logger scoped to a category.
func Named(category string) *zap.Logger {
	return global.Load().Named(category)
}

// Set installs logger as the global logger. Intended for tests.
func Set(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	global.Store(logger)
}
