// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles holds the salescoach palette, the Theme handed to every
// TUI component, and the frame loops for the typing indicator, pending
// calls and the recording pulse.
//
// Colors are lipgloss AdaptiveColors, so the same palette works on light
// and dark terminals. [ui] theme in the config file pins the mode.
//
//	theme := styles.NewTheme(cfg.UI.Theme)
//	frame := styles.TypingDots.At(time.Since(start))
package styles
