// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"time"
)

// Loop is a frame animation. All loops are driven by one frame clock in
// the chat model; each picks its frame from the elapsed time.
type Loop struct {
	Frames   []string
	Interval time.Duration
}

var (
	// TypingDots fills an assistant bubble while the reply is held back.
	TypingDots = Loop{Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "}, Interval: 166 * time.Millisecond}

	// Waiting marks a backend call in the status bar.
	Waiting = Loop{Frames: []string{"|", "/", "-", "\\"}, Interval: 100 * time.Millisecond}

	// MicPulse animates the recording overlay title.
	MicPulse = Loop{Frames: []string{"( )", "(.)", "(o)", "(O)", "(o)", "(.)"}, Interval: 125 * time.Millisecond}
)

// At returns the frame shown after elapsed.
func (l Loop) At(elapsed time.Duration) string {
	if len(l.Frames) == 0 {
		return ""
	}
	step := l.Interval
	if step <= 0 {
		step = time.Second
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return l.Frames[int(elapsed/step)%len(l.Frames)]
}

// CountdownBar draws how much of a time limit has been used, e.g. the
// 30 second recording window. Filled cells are '#', the rest '-'.
func CountdownBar(width int, used, limit time.Duration) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if limit > 0 && used > 0 {
		filled = int(int64(width) * int64(used) / int64(limit))
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}
