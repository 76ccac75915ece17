// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// wrapper accumulates wrapped output one paragraph at a time.
type wrapper struct {
	width int
	out   []string
	line  string
}

func (w *wrapper) flush() {
	w.out = append(w.out, w.line)
	w.line = ""
}

func (w *wrapper) word(word string) {
	// Break words wider than a whole line, e.g. URLs.
	for runewidth.StringWidth(word) > w.width {
		if w.line != "" {
			w.flush()
		}
		head := runewidth.Truncate(word, w.width, "")
		if head == "" {
			break
		}
		w.line = head
		w.flush()
		word = word[len(head):]
	}
	switch {
	case word == "":
	case w.line == "":
		w.line = word
	case runewidth.StringWidth(w.line)+1+runewidth.StringWidth(word) <= w.width:
		w.line += " " + word
	default:
		w.flush()
		w.line = word
	}
}

// wordWrap fits text into width terminal cells, keeping explicit line
// breaks. East Asian wide characters count as two cells.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	w := &wrapper{width: width}
	for _, para := range strings.Split(text, "\n") {
		for _, word := range strings.Fields(para) {
			w.word(word)
		}
		w.flush()
	}
	return strings.TrimRight(strings.Join(w.out, "\n"), "\n")
}

func maxLineWidth(text string) int {
	widest := 0
	for _, line := range strings.Split(text, "\n") {
		widest = max(widest, runewidth.StringWidth(line))
	}
	return widest
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "...")
}

// formatClock renders the recording timer as m:ss.
func formatClock(d time.Duration) string {
	secs := int(max(d, 0) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func formatTime(t time.Time) string {
	return t.Format("3:04 PM")
}
