// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/salescoach-tui/internal/conversation"
	"github.com/jeranaias/salescoach-tui/internal/ui/components"
	"github.com/jeranaias/salescoach-tui/internal/ui/styles"
)

// Fixed heights of the input area (top border plus line) and status bar.
const (
	inputAreaHeight = 2
	statusBarHeight = 1
)

// refresh copies the coach state into the components and re-renders the
// transcript, following new content when already scrolled to the bottom.
func (m *Model) refresh() {
	st := m.coach.State()
	elapsed := time.Since(m.clock.epoch)

	m.header.Width = m.width
	m.header.Banner = st.Banner()
	m.header.Scenario = conversation.ScenarioWords(st.Scenario)
	m.header.Guidance = st.Guidance

	m.status.Width = m.width
	m.status.TTSEnabled = st.TTSEnabled
	m.status.Started = st.Started
	m.status.MessageCount = m.coach.MessageCount()
	m.status.Pending = m.pending
	m.status.PendingFrame = styles.Waiting.At(elapsed)

	m.overlay.Frame = styles.MicPulse.At(elapsed)

	if m.ready {
		m.viewport.Width = max(m.width, 1)
		m.viewport.Height = max(m.height-lipgloss.Height(m.header.View())-inputAreaHeight-statusBarHeight, 1)
	}

	list := components.NewMessageList(m.theme)
	list.Messages = m.coach.Messages()
	list.Width = m.viewport.Width
	list.ShowTimestamps = m.showTimestamps
	list.IndicatorFrame = styles.TypingDots.At(elapsed)

	follow := m.viewport.AtBottom()
	m.viewport.SetContent(list.View())
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m Model) renderChat() string {
	if !m.ready || m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.rec.active() {
		return m.overlay.View()
	}
	if m.feedback.Visible() {
		return m.feedback.View()
	}

	header := m.header.View()
	base := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.renderInput(),
		m.status.View(),
	)

	if toasts := m.toasts.Toasts(); len(toasts) > 0 {
		return overlayLines(base, components.RenderToasts(toasts, m.width), lipgloss.Height(header))
	}
	return base
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(max(m.width-2, 10)).Render(m.input.View())
}

// overlayLines replaces the lines of base starting at row with overlay.
func overlayLines(base, overlay string, row int) string {
	baseLines := strings.Split(base, "\n")
	for i, line := range strings.Split(overlay, "\n") {
		if row+i >= len(baseLines) {
			break
		}
		baseLines[row+i] = line
	}
	return strings.Join(baseLines, "\n")
}
