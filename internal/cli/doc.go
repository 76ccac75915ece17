// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands for
// salescoach.
//
// # Key Types
//
//   - Command: Enumeration of the CLI commands
//   - Args: Parsed global flags and command arguments
//   - App: Configuration, backend client, audio devices and coach, wired once
//   - LineChat: The line-based training chat behind "salescoach chat"
//
// # Usage
//
//	cmd, args, err := cli.Parse()
//	switch cmd {
//	case cli.CmdChat:
//	    cli.HandleChat(args)
//	case cli.CmdConfig:
//	    cli.HandleConfig(args)
//	}
package cli
