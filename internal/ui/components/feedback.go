// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/salescoach-tui/internal/ui/styles"
)

// FeedbackModal displays the coaching analysis as rendered Markdown in a
// scrollable box.
type FeedbackModal struct {
	Title    string
	markdown string
	visible  bool

	viewport viewport.Model
	width    int
	height   int

	theme *styles.Theme
}

// NewFeedbackModal creates a hidden modal.
func NewFeedbackModal(theme *styles.Theme) *FeedbackModal {
	return &FeedbackModal{
		Title:    "Conversation Feedback",
		viewport: viewport.New(60, 20),
		width:    80,
		height:   24,
		theme:    theme,
	}
}

// Open shows markdown in the modal.
func (f *FeedbackModal) Open(markdown string) {
	f.markdown = markdown
	f.visible = true
	f.render()
	f.viewport.GotoTop()
}

// Close hides the modal.
func (f *FeedbackModal) Close() {
	f.visible = false
}

// Visible reports whether the modal is open.
func (f *FeedbackModal) Visible() bool {
	return f.visible
}

// SetSize fits the modal to the terminal.
func (f *FeedbackModal) SetSize(width, height int) {
	f.width, f.height = width, height
	f.viewport.Width = f.innerWidth()
	f.viewport.Height = max(height-8, 3)
	if f.visible {
		f.render()
	}
}

func (f *FeedbackModal) innerWidth() int {
	return max(min(f.width-6, 100), 20)
}

func (f *FeedbackModal) render() {
	f.viewport.SetContent(RenderMarkdown(f.markdown, f.innerWidth(), f.theme.GlamourStyle()))
}

// Update scrolls the modal.
func (f *FeedbackModal) Update(msg tea.Msg) tea.Cmd {
	if !f.visible {
		return nil
	}
	var cmd tea.Cmd
	f.viewport, cmd = f.viewport.Update(msg)
	return cmd
}

// View renders the modal centered on screen.
func (f *FeedbackModal) View() string {
	if !f.visible {
		return ""
	}
	title := f.theme.ModalTitle.Render(f.Title)
	hint := f.theme.ModalHint.Render("Up/Down scroll  Esc close")
	box := f.theme.ModalBox.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", f.viewport.View(), "", hint))
	return lipgloss.Place(f.width, f.height, lipgloss.Center, lipgloss.Center, box)
}

// RenderMarkdown renders Markdown for the terminal with glamour, falling
// back to the raw text when rendering fails.
func RenderMarkdown(markdown string, width int, style string) string {
	if style == "" {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.Trim(out, "\n")
}
