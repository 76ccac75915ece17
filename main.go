// salescoach - practice sales conversations against an AI trainer in the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/salescoach-tui/internal/cli"
	"github.com/jeranaias/salescoach-tui/internal/config"
	"github.com/jeranaias/salescoach-tui/internal/logging"
	"github.com/jeranaias/salescoach-tui/internal/ui/chat"
	"github.com/jeranaias/salescoach-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args, err := cli.Parse()
	if err != nil {
		cli.DisplayError(err)
		os.Exit(cli.GetExitCode(err))
	}

	switch cmd {
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		if err := runTUI(args); err != nil { // Default to TUI
			cli.DisplayError(err)
			os.Exit(cli.GetExitCode(err))
		}
	}
}

// runTUI starts the full-screen interface.
func runTUI(args cli.Args) error {
	app, err := cli.Bootstrap(args)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.LoadWarning != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", app.LoadWarning)
	}

	cfg := app.Config
	theme := styles.NewTheme(cfg.UI.Theme)
	m := chat.New(app.Coach, cfg,
		chat.WithRecorder(app.Pipeline),
		chat.WithTheme(theme),
		chat.WithLogger(logging.Named(logging.CategoryUI)),
	)
	defer m.Shutdown()

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(m, opts...)

	// Config edits apply to the running session.
	watcher, err := config.NewWatcher(app.ConfigFile, func(reloaded *config.Config, err error) {
		if reloaded != nil {
			args.Apply(reloaded)
			config.SetGlobal(reloaded)
		}
		p.Send(chat.ConfigReloadedMsg{Config: reloaded, Err: err})
	}, logging.Named(logging.CategoryConfig))
	if err == nil {
		if werr := watcher.Watch(); werr != nil {
			app.Logger.Info("config hot reload disabled", zap.String("path", app.ConfigFile), zap.Error(werr))
		}
		defer watcher.Close()
	} else {
		app.Logger.Warn("config watcher unavailable", zap.Error(err))
	}

	if _, err := p.Run(); err != nil {
		app.Logger.Error("tui exited with error", zap.Error(err))
		return fmt.Errorf("running salescoach: %w", err)
	}
	return nil
}
