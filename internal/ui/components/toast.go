// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/salescoach-tui/internal/ui/styles"
)

// How long toasts stay up. Errors such as "Error switching roles: ..."
// need more reading time than "Text-to-speech on".
const (
	DefaultToastDuration = 4 * time.Second
	ErrorToastDuration   = 8 * time.Second

	maxToasts     = 3
	toastInterval = 250 * time.Millisecond
)

// Toast is a message floated over the transcript's top-right corner.
type Toast struct {
	Message string
	Status  styles.Status
	Expires time.Time
}

// ToastManager holds the visible toasts, oldest first.
type ToastManager struct {
	mu     sync.Mutex
	toasts []Toast
	now    func() time.Time
}

// NewToastManager returns an empty manager.
func NewToastManager() *ToastManager {
	return &ToastManager{now: time.Now}
}

func (m *ToastManager) push(message string, s styles.Status, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.toasts = append(m.toasts, Toast{Message: message, Status: s, Expires: m.now().Add(ttl)})
	if over := len(m.toasts) - maxToasts; over > 0 {
		m.toasts = m.toasts[over:]
	}
}

// AddError shows a failed action.
func (m *ToastManager) AddError(message string) {
	m.push(message, styles.StatusError, ErrorToastDuration)
}

// AddStatus shows a setting change or hint.
func (m *ToastManager) AddStatus(message string) {
	m.push(message, styles.StatusInfo, DefaultToastDuration)
}

// Tick drops expired toasts and reports whether any are left.
func (m *ToastManager) Tick() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if now.Before(t.Expires) {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
	return len(kept) > 0
}

// Toasts returns a snapshot, oldest first.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Toast(nil), m.toasts...)
}

// ToastTickMsg drives expiry while toasts are visible.
type ToastTickMsg struct{ Time time.Time }

// ToastTickCmd schedules the next ToastTickMsg.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(toastInterval, func(t time.Time) tea.Msg { return ToastTickMsg{Time: t} })
}

// RenderToasts stacks the toasts against the right edge of width.
func RenderToasts(toasts []Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}
	boxWidth := min(60, max(width-4, 20))
	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 1).
		MaxWidth(boxWidth)

	rows := make([]string, len(toasts))
	for i, t := range toasts {
		body := styles.RenderStatus(t.Status, wordWrap(t.Message, boxWidth-10))
		rows[i] = lipgloss.PlaceHorizontal(width, lipgloss.Right, box.Render(body))
	}
	return strings.Join(rows, "\n")
}
