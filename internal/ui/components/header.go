// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/salescoach-tui/internal/ui/styles"
)

// Header shows who the user is playing and the current guidance.
type Header struct {
	Banner   string
	Scenario string
	Guidance string
	Width    int

	// GuidanceLines caps the guidance text; 0 means no limit.
	GuidanceLines int

	theme *styles.Theme
}

// NewHeader creates a header.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{Width: 80, GuidanceLines: 3, theme: theme}
}

// View renders the header.
func (h *Header) View() string {
	inner := max(h.Width-4, 10)

	title := h.theme.HeaderBrand.Render("salescoach") + "  " + h.theme.HeaderBanner.Render(h.Banner)
	if h.Scenario != "" {
		title += "  " + h.theme.HeaderScenario.Render(h.Scenario)
	}
	title = truncateStyled(title, inner)

	lines := []string{title}
	if h.Guidance != "" {
		wrapped := wordWrap(h.Guidance, inner)
		if h.GuidanceLines > 0 {
			wrapped = clampLines(wrapped, h.GuidanceLines, inner)
		}
		lines = append(lines, h.theme.Guidance.Render(wrapped))
	}

	return h.theme.Header.Width(max(h.Width-2, 10)).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Height returns the rendered height in lines.
func (h *Header) Height() int {
	return lipgloss.Height(h.View())
}

// clampLines keeps the first n lines, marking the cut with an ellipsis.
func clampLines(text string, n, width int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text
	}
	lines = lines[:n]
	lines[n-1] = truncate(lines[n-1]+" ...", width)
	return strings.Join(lines, "\n")
}

// truncateStyled leaves styled text alone when it already fits.
func truncateStyled(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
