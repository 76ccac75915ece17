// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for salescoach.
//
// Commands:
//   salescoach [tui]              Full-screen training chat (default)
//   salescoach chat               Line-based training chat
//   salescoach config [sub]       View and modify configuration
//   salescoach version            Show version information
//   salescoach help               Show this help
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/jeranaias/salescoach-tui/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	URL        string
	Role       string
	Scenario   string
	TTS        *bool
	ConfigPath string
	LogFile    string
	Verbose    bool
	Quiet      bool

	// Command-specific
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Force      bool

	// Raw holds the arguments after the command name.
	Raw []string
}

const usageText = `salescoach - practice sales conversations in your terminal

Usage:
  salescoach [flags] [command]

Commands:
  tui                  Full-screen training chat (default)
  chat                 Line-based training chat
  config [show]        Show the effective configuration
  config path          Show the configuration file location
  config init [-f]     Write a default configuration file
  config get <key>     Print one configuration value
  config set <k> <v>   Change one configuration value
  version              Show version information
  help                 Show this help

Flags:
  --url URL            Training backend URL (default http://localhost:8000)
  --role ROLE          Your role: "sales specialist" or "customer"
  --scenario NAME      product_pitch, objection_handling, negotiation, upselling
  --tts, --no-tts      Read replies aloud
  --config PATH        Use this configuration file
  --log-file PATH      Write logs here ("off" disables logging)
  -v, --verbose        Debug logging
  -q, --quiet          Minimal output in the line chat

In the chat:
  /start [role] [scenario]   Start the conversation
  /switch                    Switch roles with the AI
  /scenario <name>           Change the scenario
  /analyze                   Get feedback on the conversation
  /reset                     Clear the conversation, keep the roles
  /record                    Dictate a message (Ctrl+R in the TUI)
  /tts [on|off]              Toggle reading replies aloud
  /help                      Show commands
  /quit                      Exit

Environment:
  SALESCOACH_URL, SALESCOACH_ROLE, SALESCOACH_SCENARIO, SALESCOACH_TTS,
  SALESCOACH_LOG_LEVEL, SALESCOACH_CAPTURE_CMD, SALESCOACH_PLAYBACK_CMD
  NO_COLOR disables colored output.

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("salescoach version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

// Parse parses os.Args and returns the command and args.
func Parse() (Command, Args, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses command-line arguments without the program name.
func ParseArgs(argv []string) (Command, Args, error) {
	remaining, parsedArgs, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, parsedArgs, err
	}

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs, nil
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs, nil

	case "chat":
		return CmdChat, parsedArgs, nil

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs, nil

	case "version", "--version":
		return CmdVersion, parsedArgs, nil

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs, nil

	default:
		return CmdHelp, parsedArgs, &ValidationError{
			Field:   "command",
			Value:   cmd,
			Reason:  "unknown command",
			Example: "salescoach chat",
		}
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Flags may appear anywhere on the command line.
func parseGlobalFlags(args []string) ([]string, Args, error) {
	var remaining []string
	var parsedArgs Args

	value := func(i int, name string) (string, error) {
		if i+1 >= len(args) {
			return "", &ValidationError{Field: name, Reason: "missing value"}
		}
		return args[i+1], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// --flag=value form
		name, val, hasVal := strings.Cut(arg, "=")
		if !strings.HasPrefix(arg, "--") {
			name, hasVal = arg, false
		}

		var target *string
		switch name {
		case "--url":
			target = &parsedArgs.URL
		case "--role":
			target = &parsedArgs.Role
		case "--scenario":
			target = &parsedArgs.Scenario
		case "--config":
			target = &parsedArgs.ConfigPath
		case "--log-file":
			target = &parsedArgs.LogFile
		case "--tts":
			enabled := true
			if hasVal {
				b, err := parseOnOff(val)
				if err != nil {
					return nil, parsedArgs, &ValidationError{Field: "--tts", Value: val, Reason: "expected on or off"}
				}
				enabled = b
			}
			parsedArgs.TTS = &enabled
			continue
		case "--no-tts":
			disabled := false
			parsedArgs.TTS = &disabled
			continue
		case "-v", "--verbose":
			parsedArgs.Verbose = true
			continue
		case "-q", "--quiet":
			parsedArgs.Quiet = true
			continue
		case "-f", "--force":
			parsedArgs.Force = true
			continue
		default:
			remaining = append(remaining, arg)
			continue
		}

		if hasVal {
			*target = val
			continue
		}
		v, err := value(i, name)
		if err != nil {
			return nil, parsedArgs, err
		}
		*target = v
		i++
	}

	return remaining, parsedArgs, nil
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = strings.ToLower(remaining[0])
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = strings.Join(remaining[2:], " ")
		}
	}
}

// parseOnOff accepts the usual spellings of a boolean switch.
func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a switch value: %q", s)
}

// Apply copies flag overrides into cfg. Flags win over the config file and
// the environment.
func (a Args) Apply(cfg *config.Config) {
	if a.URL != "" {
		cfg.Backend.URL = a.URL
	}
	if a.Role != "" {
		cfg.Conversation.DefaultRole = a.Role
	}
	if a.Scenario != "" {
		cfg.Conversation.DefaultScenario = a.Scenario
	}
	if a.TTS != nil {
		cfg.Conversation.TTSEnabled = *a.TTS
	}
	if a.LogFile != "" {
		cfg.Log.File = a.LogFile
	}
	if a.Verbose {
		cfg.Log.Level = "debug"
	}
}

// LoadConfig loads the configuration named by --config, or the default
// locations, and applies flag overrides. A broken default config file is
// reported alongside the usable defaults.
func LoadConfig(a Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if a.ConfigPath != "" {
		cfg, err = config.LoadFromPath(a.ConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, err
		}
	}
	a.Apply(cfg)
	if verr := cfg.Validate(); verr != nil {
		return nil, fmt.Errorf("invalid flags: %w", verr)
	}
	return cfg, err
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleChat handles the "chat" command.
// This delegates to the full implementation in chat.go.
func HandleChat(args Args) {
	if err := HandleChatCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
