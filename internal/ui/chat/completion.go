// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/salescoach-tui/internal/conversation"
)

// roleTokens returns the known roles as single words for the command line.
func roleTokens() []string {
	out := make([]string, len(conversation.KnownRoles))
	for i, r := range conversation.KnownRoles {
		out[i] = strings.ReplaceAll(r, " ", "_")
	}
	return out
}

// argCandidates returns what may be typed at position index (1-based) of
// command name.
func argCandidates(name string, index int) []string {
	switch name {
	case "start":
		switch index {
		case 1:
			return roleTokens()
		case 2:
			return conversation.KnownScenarios
		}
	case "role":
		if index == 1 {
			return roleTokens()
		}
	case "scenario":
		if index == 1 {
			return conversation.KnownScenarios
		}
	case "tts":
		if index == 1 {
			return []string{"on", "off"}
		}
	}
	return nil
}

// complete extends a slash command line as far as it is unambiguous. It
// returns the new line and the candidates that matched.
func complete(line string) (string, []string) {
	if !strings.HasPrefix(line, "/") {
		return line, nil
	}

	fields := strings.Fields(line[1:])
	trailing := strings.HasSuffix(line, " ")

	var options []string
	var partial string
	switch {
	case len(fields) == 0:
		options = commandNames()
	case len(fields) == 1 && !trailing:
		options = commandNames()
		partial = fields[0]
	default:
		index := len(fields)
		if !trailing {
			index--
			partial = fields[len(fields)-1]
		}
		options = argCandidates(strings.ToLower(fields[0]), index)
	}

	var matches []string
	for _, o := range options {
		if strings.HasPrefix(o, strings.ToLower(partial)) {
			matches = append(matches, o)
		}
	}
	if len(matches) == 0 {
		return line, nil
	}

	base := line[:len(line)-len(partial)]
	if len(matches) == 1 {
		return base + matches[0] + " ", matches
	}
	return base + commonPrefix(matches), matches
}

func commandNames() []string {
	out := make([]string, len(commandList))
	for i, c := range commandList {
		out[i] = c.Name
	}
	return out
}

func commonPrefix(words []string) string {
	if len(words) == 0 {
		return ""
	}
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}

func (m Model) handleComplete() (tea.Model, tea.Cmd) {
	line, matches := complete(m.input.Value())
	if line != m.input.Value() {
		m.input.SetValue(line)
		m.input.CursorEnd()
	}
	if len(matches) > 1 {
		return m, m.toastStatus(strings.Join(matches, "  "))
	}
	return m, nil
}
