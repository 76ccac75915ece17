// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/salescoach-tui/internal/conversation"
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// CommandHandler handles one slash command. It receives the model and the
// command arguments and returns the updated model and command.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

// commandInfo describes a command for help and completion.
type commandInfo struct {
	Name string
	Args string
	Desc string
}

// commandList is the documented command set in help order.
var commandList = []commandInfo{
	{"start", "[role] [scenario]", "Start the conversation"},
	{"role", "<role>", "Choose your role for the next start"},
	{"scenario", "<scenario>", "Choose or switch the scenario"},
	{"switch", "", "Switch roles with the AI"},
	{"analyze", "", "Get feedback on the conversation"},
	{"reset", "", "Clear the conversation, keep the roles"},
	{"tts", "[on|off]", "Toggle reading replies aloud"},
	{"record", "", "Dictate a message"},
	{"help", "", "Show commands and keys"},
	{"quit", "", "Exit"},
}

// commandHandlers maps command names and aliases to their handlers.
var commandHandlers = map[string]CommandHandler{
	"start":    handleStartCommand,
	"role":     handleRoleCommand,
	"scenario": handleScenarioCommand,
	"switch":   handleSwitchCommand,
	"analyze":  handleAnalyzeCommand,
	"feedback": handleAnalyzeCommand,
	"reset":    handleResetCommand,
	"tts":      handleTTSCommand,
	"record":   handleRecordCommand,
	"help":     handleHelpCommand,
	"h":        handleHelpCommand,
	"?":        handleHelpCommand,
	"quit":     handleQuitCommand,
	"exit":     handleQuitCommand,
	"q":        handleQuitCommand,
}

// handleCommand dispatches a slash command line.
func (m Model) handleCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if len(fields) == 0 {
		return m, m.toastError("Type /help for commands.")
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]

	handler, ok := commandHandlers[name]
	if !ok {
		return m, m.toastError(fmt.Sprintf("Unknown command: /%s. Type /help for commands.", name))
	}
	return handler(&m, args)
}

// =============================================================================
// HANDLERS
// =============================================================================

func handleStartCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) > 0 {
		role, scenario := m.coach.Selection()
		role, scenario = conversation.ParseStartArgs(args, role, scenario)
		m.coach.Select(role, scenario)
	}
	return m.beginAction("Starting conversation", m.startCmd())
}

func handleRoleCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return *m, m.toastError("Usage: /role <" + strings.Join(roleTokens(), "|") + ">")
	}
	_, scenario := m.coach.Selection()
	m.coach.Select(strings.Join(args, " "), scenario)
	m.refresh()

	role, _ := m.coach.Selection()
	if m.coach.State().Started {
		return *m, m.toastStatus("Role " + role + " applies on the next /start")
	}
	return *m, m.toastStatus("Role: " + role)
}

func handleScenarioCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return *m, m.toastError("Usage: /scenario <" + strings.Join(conversation.KnownScenarios, "|") + ">")
	}
	scenario := strings.Join(args, "_")
	if m.coach.State().Started {
		return m.beginAction("Switching scenario", m.switchScenarioCmd(scenario))
	}

	role, _ := m.coach.Selection()
	m.coach.Select(role, scenario)
	m.refresh()
	return *m, m.toastStatus("Scenario: " + conversation.ScenarioWords(conversation.NormalizeScenario(scenario)))
}

func handleSwitchCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return m.beginAction("Switching roles", m.switchRolesCmd())
}

func handleAnalyzeCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return m.beginAction("Analyzing conversation", m.analyzeCmd())
}

func handleResetCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return m.beginAction("Resetting conversation", m.resetCmd())
}

func handleTTSCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	enabled := !m.coach.State().TTSEnabled
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "on", "true", "yes", "1":
			enabled = true
		case "off", "false", "no", "0":
			enabled = false
		default:
			return *m, m.toastError("Usage: /tts [on|off]")
		}
	}
	return m.setTTS(enabled)
}

func handleRecordCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return m.startRecording()
}

func handleHelpCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.feedback.Title = "Help"
	m.feedback.Open(helpMarkdown(m.keys))
	return *m, nil
}

func handleQuitCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return m.quit()
}

// =============================================================================
// HELP
// =============================================================================

func helpMarkdown(k KeyMap) string {
	var sb strings.Builder

	sb.WriteString("## Commands\n\n")
	for _, c := range commandList {
		usage := "/" + c.Name
		if c.Args != "" {
			usage += " " + c.Args
		}
		fmt.Fprintf(&sb, "- `%s` %s\n", usage, c.Desc)
	}

	sb.WriteString("\n## Keys\n\n")
	for _, group := range k.FullHelp() {
		for _, b := range group {
			h := b.Help()
			fmt.Fprintf(&sb, "- `%s` %s\n", h.Key, h.Desc)
		}
	}

	sb.WriteString("\n## Roles\n\n")
	for _, r := range roleTokens() {
		fmt.Fprintf(&sb, "- `%s`\n", r)
	}
	sb.WriteString("\n## Scenarios\n\n")
	for _, s := range conversation.KnownScenarios {
		fmt.Fprintf(&sb, "- `%s`\n", s)
	}
	return sb.String()
}
