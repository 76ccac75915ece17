// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/salescoach-tui/internal/ui/styles"
)

// RecordingOverlay is shown while the microphone is open. Any key or click
// on it stops the recording.
type RecordingOverlay struct {
	Elapsed time.Duration
	Limit   time.Duration

	// Transcribing switches the overlay to its waiting state.
	Transcribing bool
	Frame        string

	Width  int
	Height int

	theme *styles.Theme
}

// NewRecordingOverlay creates an overlay.
func NewRecordingOverlay(theme *styles.Theme) *RecordingOverlay {
	return &RecordingOverlay{Limit: 30 * time.Second, Width: 80, Height: 24, theme: theme}
}

// Remaining returns the time left before the automatic stop.
func (r *RecordingOverlay) Remaining() time.Duration {
	if rem := r.Limit - r.Elapsed; rem > 0 {
		return rem
	}
	return 0
}

// View renders the overlay centered in the available space.
func (r *RecordingOverlay) View() string {
	barWidth := min(40, max(r.Width-16, 10))

	var title, detail, hint string
	if r.Transcribing {
		title = r.theme.RecordingTitle.Render(r.Frame + " Transcribing...")
		detail = r.theme.RecordingHint.Render("Sending your recording for speech recognition")
		hint = ""
	} else {
		title = r.theme.RecordingTitle.Render(r.Frame + " Recording")
		detail = styles.CountdownBar(barWidth, r.Elapsed, r.Limit) + "  " +
			formatClock(r.Elapsed) + " / " + formatClock(r.Limit)
		hint = r.theme.RecordingHint.Render("Press any key or click to stop")
	}

	lines := []string{title, "", detail}
	if hint != "" {
		lines = append(lines, "", hint)
	}
	box := r.theme.RecordingBox.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
	return lipgloss.Place(r.Width, r.Height, lipgloss.Center, lipgloss.Center, box)
}
