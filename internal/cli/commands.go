// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/salescoach-tui/internal/conversation"
)

// slashHandler runs one chat command. It reports whether the chat should end.
type slashHandler func(ctx context.Context, c *LineChat, args []string) (bool, error)

type slashCommand struct {
	Name string
	Args string
	Desc string
}

var slashCommands = []slashCommand{
	{"start", "[role] [scenario]", "Start the conversation"},
	{"role", "<role>", "Choose your role for the next start"},
	{"scenario", "<scenario>", "Choose or switch the scenario"},
	{"switch", "", "Switch roles with the AI"},
	{"analyze", "", "Get feedback on the conversation"},
	{"reset", "", "Clear the conversation, keep the roles"},
	{"record", "", "Dictate a message, Enter stops"},
	{"tts", "[on|off]", "Toggle reading replies aloud"},
	{"history", "", "Show the transcript"},
	{"help", "", "Show commands"},
	{"quit", "", "Exit"},
}

var slashHandlers map[string]slashHandler

// Assigned in init: cmdRecord reaches handleSlashCommand, which reads the
// map, so a static initializer would form an initialization cycle.
func init() {
	slashHandlers = map[string]slashHandler{
		"start":    cmdStart,
		"role":     cmdRole,
		"scenario": cmdScenario,
		"switch":   cmdSwitch,
		"analyze":  cmdAnalyze,
		"feedback": cmdAnalyze,
		"reset":    cmdReset,
		"record":   cmdRecord,
		"tts":      cmdTTS,
		"history":  cmdHistory,
		"help":     cmdHelp,
		"h":        cmdHelp,
		"?":        cmdHelp,
		"quit":     cmdQuit,
		"exit":     cmdQuit,
		"q":        cmdQuit,
	}
}

func (c *LineChat) handleSlashCommand(ctx context.Context, input string) (bool, error) {
	fields := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(fields) == 0 {
		return false, errEmptyCommand
	}
	name := strings.ToLower(fields[0])
	handler, ok := slashHandlers[name]
	if !ok {
		return false, &unknownCommandError{name: name}
	}
	return handler(ctx, c, fields[1:])
}

// start (re)starts the conversation, applying "[role] [scenario]" first.
func (c *LineChat) start(ctx context.Context, args []string) error {
	if len(args) > 0 {
		role, scenario := c.coach.Selection()
		c.coach.Select(conversation.ParseStartArgs(args, role, scenario))
	}
	opCtx, done := c.interruptible(ctx)
	defer done()
	if err := c.coach.Start(opCtx); err != nil {
		return err
	}
	c.printNew()
	c.printGuidance()
	return nil
}

func cmdStart(ctx context.Context, c *LineChat, args []string) (bool, error) {
	return false, c.start(ctx, args)
}

func cmdRole(ctx context.Context, c *LineChat, args []string) (bool, error) {
	if len(args) == 0 {
		return false, &chatUsageError{usage: "/role <" + strings.Join(conversation.KnownRoles, "|") + ">"}
	}
	_, scenario := c.coach.Selection()
	c.coach.Select(strings.Join(args, " "), scenario)
	role, _ := c.coach.Selection()

	if c.coach.State().Started {
		fmt.Fprintln(c.out, DimStyle.Render("Role "+role+" applies on the next /start"))
	} else {
		fmt.Fprintln(c.out, DimStyle.Render("Role: "+role))
	}
	return false, nil
}

func cmdScenario(ctx context.Context, c *LineChat, args []string) (bool, error) {
	if len(args) == 0 {
		return false, &chatUsageError{usage: "/scenario <" + strings.Join(conversation.KnownScenarios, "|") + ">"}
	}
	scenario := strings.Join(args, "_")
	if c.coach.State().Started {
		opCtx, done := c.interruptible(ctx)
		defer done()
		if err := c.coach.SwitchScenario(opCtx, scenario); err != nil {
			return false, err
		}
		c.printNew()
		c.printGuidance()
		return false, nil
	}

	role, _ := c.coach.Selection()
	c.coach.Select(role, scenario)
	fmt.Fprintln(c.out, DimStyle.Render("Scenario: "+conversation.ScenarioWords(conversation.NormalizeScenario(scenario))))
	return false, nil
}

func cmdSwitch(ctx context.Context, c *LineChat, args []string) (bool, error) {
	opCtx, done := c.interruptible(ctx)
	defer done()
	if err := c.coach.SwitchRoles(opCtx); err != nil {
		return false, err
	}
	c.printNew()
	c.printGuidance()
	return false, nil
}

func cmdAnalyze(ctx context.Context, c *LineChat, args []string) (bool, error) {
	fmt.Fprintln(c.out, DimStyle.Render("Analyzing conversation..."))
	opCtx, done := c.interruptible(ctx)
	defer done()
	fb, err := c.coach.Analyze(opCtx)
	if err != nil {
		return false, err
	}
	fmt.Fprintln(c.out, c.renderMarkdown("# Conversation Feedback\n\n"+fb.Markdown()))
	return false, nil
}

func cmdReset(ctx context.Context, c *LineChat, args []string) (bool, error) {
	opCtx, done := c.interruptible(ctx)
	defer done()
	if err := c.coach.Reset(opCtx); err != nil {
		return false, err
	}
	c.printNew()
	return false, nil
}

func cmdRecord(ctx context.Context, c *LineChat, args []string) (bool, error) {
	return false, c.record(ctx)
}

func cmdTTS(ctx context.Context, c *LineChat, args []string) (bool, error) {
	enabled := !c.coach.State().TTSEnabled
	if len(args) > 0 {
		b, err := parseOnOff(args[0])
		if err != nil {
			return false, &chatUsageError{usage: "/tts [on|off]"}
		}
		enabled = b
	}
	c.coach.SetTTS(enabled)
	if enabled {
		fmt.Fprintln(c.out, DimStyle.Render("Text-to-speech on"))
	} else {
		fmt.Fprintln(c.out, DimStyle.Render("Text-to-speech off"))
	}
	return false, nil
}

func cmdHistory(ctx context.Context, c *LineChat, args []string) (bool, error) {
	transcript := c.coach.Transcript()
	if transcript == "" {
		fmt.Fprintln(c.out, DimStyle.Render("No messages yet."))
		return false, nil
	}
	fmt.Fprintln(c.out, transcript)
	return false, nil
}

func cmdHelp(ctx context.Context, c *LineChat, args []string) (bool, error) {
	fmt.Fprintln(c.out, SectionStyle.Render("Commands"))
	for _, cmd := range slashCommands {
		usage := "/" + cmd.Name
		if cmd.Args != "" {
			usage += " " + cmd.Args
		}
		fmt.Fprintf(c.out, "  %-28s %s\n", usage, DimStyle.Render(cmd.Desc))
	}
	fmt.Fprintf(c.out, "\n  Roles:     %s\n", strings.Join(conversation.KnownRoles, ", "))
	fmt.Fprintf(c.out, "  Scenarios: %s\n", strings.Join(conversation.KnownScenarios, ", "))
	return false, nil
}

func cmdQuit(ctx context.Context, c *LineChat, args []string) (bool, error) {
	return true, nil
}
