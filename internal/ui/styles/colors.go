// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// Accents. Purple is the AI trainer, Cyan the brand and key hints,
// Emerald the TTS indicator, Rose the microphone, Amber system notices.
var (
	Purple  = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	Cyan    = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}
	Rose    = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	Amber   = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}
)

// Surfaces and text.
var (
	SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}
	Overlay    = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
)

// Transcript bubbles: the trainee in blue, the trainer in violet.
var (
	UserBubbleFg          = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
	UserBubbleBorder      = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}
	AssistantBubbleFg     = lipgloss.AdaptiveColor{Light: "#5B4B8A", Dark: "#E9E4F5"}
	AssistantBubbleBorder = lipgloss.AdaptiveColor{Light: "#C4B5FD", Dark: "#A78BFA"}
	SystemBubbleFg        = lipgloss.AdaptiveColor{Light: "#92400E", Dark: "#FEF3C7"}
)

// High-contrast status colors. They are always paired with a text marker
// so meaning survives a monochrome terminal.
var (
	SuccessHighContrast = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#22C55E"}
	ErrorHighContrast   = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}
	WarningHighContrast = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}
	InfoHighContrast    = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#3B82F6"}
)

// Status is the severity of a transient message.
type Status int

const (
	StatusInfo Status = iota
	StatusSuccess
	StatusWarning
	StatusError
)

var statusMarks = map[Status]struct {
	mark  string
	color lipgloss.AdaptiveColor
}{
	StatusInfo:    {"[i]", InfoHighContrast},
	StatusSuccess: {"[OK]", SuccessHighContrast},
	StatusWarning: {"[!]", WarningHighContrast},
	StatusError:   {"[X]", ErrorHighContrast},
}

// RenderStatus prefixes message with the ASCII marker for s and colors it.
func RenderStatus(s Status, message string) string {
	sm, ok := statusMarks[s]
	if !ok {
		sm = statusMarks[StatusInfo]
	}
	return lipgloss.NewStyle().Bold(true).Foreground(sm.color).Render(sm.mark + " " + message)
}
