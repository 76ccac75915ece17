// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads salescoach settings: where the training backend
// lives, how fast replies are typed, how speech is captured and played,
// and which role and scenario to start with.
//
// Later sources override earlier ones:
//   - built-in defaults
//   - ~/.salescoach/config.toml, or config.json if there is no TOML file
//   - .env in the working directory or ~/.salescoach
//   - SALESCOACH_* environment variables
//
// SALESCOACH_HOME moves the whole directory. A Watcher reloads the file
// while the TUI runs so typing speed and the TTS default can be tuned
// live.
//
//	cfg, err := config.Load()
//	if cfg == nil {
//	    return err
//	}
//	engine := typing.NewEngine(cfg.Typing.Engine())
package config
