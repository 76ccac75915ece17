// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/salescoach-tui/internal/model"
	"github.com/jeranaias/salescoach-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one transcript entry.
type MessageBubble struct {
	Message       model.Message
	Width         int
	ShowTimestamp bool

	// IndicatorFrame is drawn while a reply waits for its first character.
	IndicatorFrame string

	theme *styles.Theme
}

// NewMessageBubble creates a new MessageBubble.
func NewMessageBubble(msg model.Message, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Message:        msg,
		Width:          80,
		IndicatorFrame: "...",
		theme:          theme,
	}
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	switch b.Message.Role {
	case model.RoleUser:
		return b.renderBubble(b.theme.UserName, b.theme.UserBubble, true)
	case model.RoleAssistant:
		return b.renderBubble(b.theme.AssistantName, b.theme.AssistantBubble, false)
	default:
		return b.renderNotice()
	}
}

func (b *MessageBubble) renderBubble(nameStyle, bubbleStyle lipgloss.Style, alignRight bool) string {
	header := nameStyle.Render(b.Message.Role.Label())
	if b.Message.Spoken {
		header += " " + b.theme.SpeechBadge.Render("(spoken)")
	}
	if b.ShowTimestamp && !b.Message.SentAt.IsZero() {
		header += " " + b.theme.Timestamp.Render(formatTime(b.Message.SentAt))
	}

	var body string
	if b.Message.ShowIndicator() {
		body = b.theme.TypingIndicator.Render(b.IndicatorFrame)
	} else {
		maxContent := max(b.Width-12, 20)
		body = wordWrap(b.Message.Visible(), maxContent)
	}

	contentWidth := min(max(maxLineWidth(body), 3)+2, max(b.Width-8, 10))
	bubble := bubbleStyle.Width(contentWidth).Render(body)

	if alignRight {
		pad := max(b.Width-lipgloss.Width(bubble)-4, 0)
		return lipgloss.NewStyle().MarginLeft(pad).Render(header) + "\n" +
			lipgloss.NewStyle().MarginLeft(pad).Render(bubble)
	}
	return header + "\n" + bubble
}

func (b *MessageBubble) renderNotice() string {
	text := wordWrap(b.Message.Content, max(b.Width-4, 20))
	return b.theme.SystemNotice.Width(b.Width).Render(text)
}

// =============================================================================
// MESSAGE LIST COMPONENT
// =============================================================================

// MessageList renders the whole transcript.
type MessageList struct {
	Messages       []model.Message
	Width          int
	ShowTimestamps bool
	IndicatorFrame string
	theme          *styles.Theme
}

// NewMessageList creates a new MessageList.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{Width: 80, IndicatorFrame: "...", theme: theme}
}

// View renders all messages, or a hint when there are none.
func (ml *MessageList) View() string {
	if len(ml.Messages) == 0 {
		return lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Width(ml.Width).
			Align(lipgloss.Center).
			Padding(1, 0).
			Render("Choose a role and scenario, then /start to begin.")
	}

	parts := make([]string, 0, len(ml.Messages))
	for _, msg := range ml.Messages {
		bubble := NewMessageBubble(msg, ml.theme)
		bubble.Width = ml.Width
		bubble.ShowTimestamp = ml.ShowTimestamps
		bubble.IndicatorFrame = ml.IndicatorFrame
		parts = append(parts, bubble.View())
	}
	return strings.Join(parts, "\n\n")
}
