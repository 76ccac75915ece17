// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/salescoach-tui/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(DetectTerminal(os.Stdout).Profile)
}

// Output styles for the config and version commands. They draw on the
// same palette as the TUI.
var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(styles.Cyan).MarginBottom(1)
	SectionStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimary).MarginTop(1)
	LabelStyle   = lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(30)
	ValueStyle   = lipgloss.NewStyle().Foreground(styles.TextPrimary)
	SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.SuccessHighContrast)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(styles.ErrorHighContrast)
	WarningStyle = lipgloss.NewStyle().Foreground(styles.WarningHighContrast)
	DimStyle     = lipgloss.NewStyle().Foreground(styles.TextMuted)
)

// Line chat styles.
var (
	promptStyle         = lipgloss.NewStyle().Bold(true).Foreground(styles.UserBubbleBorder)
	welcomeStyle        = lipgloss.NewStyle().Bold(true).Foreground(styles.Purple)
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.AssistantBubbleBorder)
	noticeStyle         = lipgloss.NewStyle().Foreground(styles.Amber)
	recordingStyle      = lipgloss.NewStyle().Bold(true).Foreground(styles.Rose)
	ruleStyle           = lipgloss.NewStyle().Foreground(styles.Overlay)
)

// rule draws a horizontal line under the welcome banner.
func rule(width int) string {
	if width <= 0 {
		width = minChatWidth
	}
	return ruleStyle.Render(strings.Repeat("─", width))
}
