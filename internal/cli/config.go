// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for salescoach.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display the effective configuration
//   path                Show configuration file path
//   init [-f]           Write a default configuration file
//   get <key>           Print one value
//   set <key> <value>   Set a value in the configuration file
//
// Examples:
//   salescoach config
//   salescoach config set backend.url http://trainer.local:8000
//   salescoach config set typing.chars_per_second 25
//   salescoach config set conversation.default_role customer
//   salescoach --config ./team.toml config show
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/salescoach-tui/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) {
	if err := HandleConfigCommand(args, os.Stdout); err != nil {
		DisplayError(err)
		os.Exit(GetExitCode(err))
	}
}

// HandleConfigCommand runs a config subcommand, writing to out.
func HandleConfigCommand(args Args, out io.Writer) error {
	switch args.Subcommand {
	case "", "show":
		return showConfig(args, out)
	case "path":
		path, err := configPath(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, path)
		return nil
	case "init":
		return initConfig(args, out)
	case "get":
		return getConfig(args, out)
	case "set":
		return setConfig(args, out)
	default:
		return &ValidationError{
			Field:   "config subcommand",
			Value:   args.Subcommand,
			Reason:  "expected show, path, init, get or set",
			Example: "salescoach config set backend.url http://localhost:8000",
		}
	}
}

// configPath is --config when given, otherwise the default TOML location.
func configPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

func showConfig(args Args, out io.Writer) error {
	cfg, err := LoadConfig(args)
	if cfg == nil {
		return NewCommandError("config", "show", "could not load configuration", err)
	}
	if err != nil {
		fmt.Fprintln(out, WarningStyle.Render("Warning: "+err.Error()+" (showing defaults)"))
	}

	path, _ := configPath(args)
	fmt.Fprintln(out, TitleStyle.Render("salescoach configuration"))
	fmt.Fprintf(out, "%s %s\n", LabelStyle.Render("file"), DimStyle.Render(path))

	section := ""
	for _, key := range config.GetAllKeys() {
		group, _, found := strings.Cut(key, ".")
		if found && group != section {
			section = group
			fmt.Fprintln(out, SectionStyle.Render("["+section+"]"))
		}
		val, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "%s %s\n", LabelStyle.Render(key), ValueStyle.Render(formatValue(val)))
	}
	return nil
}

func initConfig(args Args, out io.Writer) error {
	path, err := configPath(args)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !args.Force {
		return NewCommandError("config", "init", path+" already exists (use --force to overwrite)", nil)
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return NewCommandError("config", "init", "could not write file", err)
	}
	fmt.Fprintln(out, SuccessStyle.Render("Wrote "+path))
	return nil
}

func getConfig(args Args, out io.Writer) error {
	if args.ConfigKey == "" {
		return NewUsageError("key", "missing", "salescoach config get backend.url")
	}
	cfg, err := LoadConfig(args)
	if cfg == nil {
		return NewCommandError("config", "get", "could not load configuration", err)
	}
	val, err := cfg.Get(args.ConfigKey)
	if err != nil {
		return &ValidationError{Field: "key", Value: args.ConfigKey, Reason: err.Error()}
	}
	fmt.Fprintln(out, formatValue(val))
	return nil
}

// setConfig edits the file itself, so environment and flag overrides are
// not written back.
func setConfig(args Args, out io.Writer) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return NewUsageError("arguments", "expected <key> <value>", "salescoach config set typing.chars_per_second 25")
	}
	path, err := configPath(args)
	if err != nil {
		return err
	}

	if strings.HasSuffix(path, ".json") {
		return &ValidationError{Field: "--config", Value: path, Reason: "config set writes TOML files only"}
	}

	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return NewCommandError("config", "set", "could not read "+path, err)
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return NewCommandError("config", "set", "could not read "+path, statErr)
	}

	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return &ValidationError{Field: "key", Value: args.ConfigKey, Reason: err.Error()}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save: %w", err)
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return NewCommandError("config", "set", "could not write file", err)
	}

	fmt.Fprintf(out, "%s %s = %s\n", SuccessStyle.Render("Set"), args.ConfigKey, args.ConfigVal)
	return nil
}

func formatValue(v interface{}) string {
	if s, ok := v.(string); ok {
		if s == "" {
			return `""`
		}
		return s
	}
	return fmt.Sprint(v)
}
