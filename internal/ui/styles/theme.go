// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by NewTheme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme is the set of styles for one color mode. Components receive a
// *Theme instead of building their own styles.
type Theme struct {
	IsDark bool

	// Header: brand, role banner, scenario and guidance.
	Header         lipgloss.Style
	HeaderBrand    lipgloss.Style
	HeaderBanner   lipgloss.Style
	HeaderScenario lipgloss.Style
	Guidance       lipgloss.Style

	// Transcript.
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SystemNotice    lipgloss.Style
	UserName        lipgloss.Style
	AssistantName   lipgloss.Style
	Timestamp       lipgloss.Style
	TypingIndicator lipgloss.Style
	SpeechBadge     lipgloss.Style

	// Input line.
	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// Status bar.
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	TTSOn        lipgloss.Style
	TTSOff       lipgloss.Style
	Pending      lipgloss.Style

	// Recording overlay and feedback modal.
	RecordingBox   lipgloss.Style
	RecordingTitle lipgloss.Style
	RecordingHint  lipgloss.Style
	ModalBox       lipgloss.Style
	ModalTitle     lipgloss.Style
	ModalHint      lipgloss.Style
}

// NewTheme builds the styles for mode: "dark", "light", or "auto" (any
// other value) to ask the terminal for its background.
func NewTheme(mode string) *Theme {
	var dark bool
	switch strings.ToLower(mode) {
	case ThemeDark:
		dark = true
	case ThemeLight:
		dark = false
	default:
		dark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(dark)

	t := &Theme{IsDark: dark}
	t.build()
	return t
}

// GlamourStyle names the glamour style used for feedback Markdown.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

func fg(c lipgloss.TerminalColor) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

func bold(c lipgloss.TerminalColor) lipgloss.Style { return fg(c).Bold(true) }

func italic(c lipgloss.TerminalColor) lipgloss.Style { return fg(c).Italic(true) }

func boxed(b lipgloss.Border, c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().BorderStyle(b).BorderForeground(c)
}

func (t *Theme) build() {
	t.Header = boxed(lipgloss.RoundedBorder(), Purple).Background(SurfaceDim).Padding(0, 1)
	t.HeaderBrand = bold(Cyan)
	t.HeaderBanner = bold(Purple)
	t.HeaderScenario = italic(TextSecondary)
	t.Guidance = italic(Amber)

	// The trainee's bubbles sit right of the trainer's.
	t.UserBubble = boxed(lipgloss.RoundedBorder(), UserBubbleBorder).
		Foreground(UserBubbleFg).Padding(0, 1).MarginLeft(4)
	t.AssistantBubble = boxed(lipgloss.RoundedBorder(), AssistantBubbleBorder).
		Foreground(AssistantBubbleFg).Padding(0, 1).MarginRight(4)
	t.SystemNotice = italic(SystemBubbleFg).Align(lipgloss.Center)
	t.UserName = bold(Cyan).MarginLeft(4)
	t.AssistantName = bold(Purple)
	t.Timestamp = fg(TextMuted)
	t.TypingIndicator = bold(Purple)
	t.SpeechBadge = italic(TextMuted)

	t.InputContainer = boxed(lipgloss.NormalBorder(), Overlay).
		BorderTop(true).BorderBottom(false).BorderLeft(false).BorderRight(false).
		Padding(0, 1)
	t.InputPrompt = bold(Cyan)
	t.InputPlaceholder = italic(TextMuted)

	t.StatusBar = fg(TextSecondary).Background(SurfaceDim).Padding(0, 1)
	t.ShortcutKey = bold(Cyan)
	t.ShortcutDesc = fg(TextMuted)
	t.TTSOn = bold(Emerald)
	t.TTSOff = fg(TextMuted)
	t.Pending = fg(Purple)

	t.RecordingBox = boxed(lipgloss.DoubleBorder(), Rose).Padding(1, 3).Align(lipgloss.Center)
	t.RecordingTitle = bold(Rose)
	t.RecordingHint = fg(TextMuted)
	t.ModalBox = boxed(lipgloss.RoundedBorder(), Purple).Padding(0, 1)
	t.ModalTitle = bold(Purple)
	t.ModalHint = fg(TextMuted)
}
