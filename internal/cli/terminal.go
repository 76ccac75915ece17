// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	defaultChatWidth = 80
	minChatWidth     = 40
)

// Terminal describes where the line chat writes.
type Terminal struct {
	// Interactive is true when output goes to a terminal. The typing
	// indicator and Markdown rendering need it.
	Interactive bool

	// Width is the column count used for wrapping, never below 40.
	Width int

	// Profile is the color profile for lipgloss output.
	Profile termenv.Profile
}

// DetectTerminal inspects f and the NO_COLOR / FORCE_COLOR variables.
func DetectTerminal(f *os.File) Terminal {
	fd := int(f.Fd())
	interactive := term.IsTerminal(fd)

	width := 0
	if interactive {
		width, _, _ = term.GetSize(fd)
	}
	return Terminal{
		Interactive: interactive,
		Width:       chatWidth(width),
		Profile:     colorProfile(os.Getenv, interactive),
	}
}

func chatWidth(w int) int {
	switch {
	case w <= 0:
		return defaultChatWidth
	case w < minChatWidth:
		return minChatWidth
	default:
		return w
	}
}

// colorProfile honours https://no-color.org/: NO_COLOR wins over
// FORCE_COLOR, which wins over TTY detection.
func colorProfile(getenv func(string) string, interactive bool) termenv.Profile {
	if getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	if getenv("FORCE_COLOR") == "" && !interactive {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}
