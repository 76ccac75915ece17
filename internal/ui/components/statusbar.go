// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/salescoach-tui/internal/ui/styles"
)

// Shortcut is one key hint in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// DefaultShortcuts are shown when nothing more specific applies.
var DefaultShortcuts = []Shortcut{
	{"Enter", "send"},
	{"^R", "record"},
	{"^T", "tts"},
	{"^S", "switch"},
	{"^A", "analyze"},
	{"^X", "reset"},
	{"^C", "quit"},
}

// StatusBar is the bottom line of the TUI.
type StatusBar struct {
	TTSEnabled bool
	Started    bool

	// Pending names the backend call in flight, with its spinner frame.
	Pending      string
	PendingFrame string

	MessageCount int
	Shortcuts    []Shortcut
	Width        int

	theme *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, Shortcuts: DefaultShortcuts, theme: theme}
}

// View renders the status bar, dropping shortcuts that do not fit.
func (s *StatusBar) View() string {
	var left []string
	if s.TTSEnabled {
		left = append(left, s.theme.TTSOn.Render("TTS on"))
	} else {
		left = append(left, s.theme.TTSOff.Render("TTS off"))
	}
	if s.Started {
		left = append(left, s.theme.ShortcutDesc.Render(pluralize(s.MessageCount, "message")))
	}
	if s.Pending != "" {
		left = append(left, s.theme.Pending.Render(strings.TrimSpace(s.PendingFrame+" "+s.Pending)))
	}
	leftText := strings.Join(left, "  ")

	avail := s.Width - 2 - lipgloss.Width(leftText) - 2
	var hints []string
	used := 0
	for _, sc := range s.Shortcuts {
		hint := s.theme.ShortcutKey.Render(sc.Key) + " " + s.theme.ShortcutDesc.Render(sc.Desc)
		w := lipgloss.Width(hint) + 2
		if used+w > avail {
			break
		}
		hints = append(hints, hint)
		used += w
	}
	rightText := strings.Join(hints, "  ")

	gap := max(s.Width-2-lipgloss.Width(leftText)-lipgloss.Width(rightText), 1)
	return s.theme.StatusBar.Width(s.Width).Render(leftText + strings.Repeat(" ", gap) + rightText)
}

func pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
