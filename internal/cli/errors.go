// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/salescoach-tui/internal/audio"
	"github.com/jeranaias/salescoach-tui/internal/backend"
	"github.com/jeranaias/salescoach-tui/internal/config"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitNetworkError = 5 // training backend unreachable
	ExitDeviceError  = 6 // microphone or player failed
)

// CommandError is a failed subcommand step, e.g. "config set".
type CommandError struct {
	Command string
	Action  string
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s failed: %s", e.Command, e.Action, e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *CommandError) Unwrap() error { return e.Err }

// ValidationError is bad command-line input. It always exits with
// ExitUsageError.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		fmt.Fprintf(&b, " (got: %s)", e.Value)
	}
	if e.Example != "" {
		fmt.Fprintf(&b, "\nExample: %s", e.Example)
	}
	return b.String()
}

// NewCommandError returns a *CommandError.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewUsageError returns a *ValidationError for a missing or malformed argument.
func NewUsageError(field, reason, example string) error {
	return &ValidationError{Field: field, Reason: reason, Example: example}
}

// exitClass pairs an error test with its exit code and a hint for the user.
type exitClass struct {
	match func(error) bool
	code  int
	hint  string
}

var exitClasses = []exitClass{
	{
		match: func(err error) bool {
			var v *ValidationError
			return errors.As(err, &v)
		},
		code: ExitUsageError,
		hint: "Run 'salescoach help' for usage.",
	},
	{
		match: func(err error) bool {
			var v config.ValidateErrors
			return errors.As(err, &v)
		},
		code: ExitConfigError,
		hint: "Check the file shown by 'salescoach config path'.",
	},
	{
		match: func(err error) bool { return errors.Is(err, backend.ErrNetwork) },
		code:  ExitNetworkError,
		hint:  "Is the training backend running? Set it with --url or SALESCOACH_URL.",
	},
	{
		match: func(err error) bool {
			return errors.Is(err, audio.ErrPermissionDenied) || errors.Is(err, audio.ErrCaptureFailed)
		},
		code: ExitDeviceError,
		hint: "Check audio.capture_command and microphone access.",
	},
}

func classify(err error) (exitClass, bool) {
	for _, c := range exitClasses {
		if c.match(err) {
			return c, true
		}
	}
	return exitClass{}, false
}

// GetExitCode maps err to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if c, ok := classify(err); ok {
		return c.code
	}
	return ExitGeneralError
}

// DisplayError prints err and, for known failure classes, a hint to stderr.
func DisplayError(err error) {
	writeError(os.Stderr, err)
}

func writeError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %v\n", ErrorStyle.Render("[ERROR]"), err)
	if c, ok := classify(err); ok {
		fmt.Fprintln(w, DimStyle.Render(c.hint))
	}
}

// Line chat errors.
var (
	errVoiceUnavailable = errors.New("voice input is not available")
	errEmptyCommand     = errors.New("empty command")
)

// unknownCommandError is a slash command with no handler.
type unknownCommandError struct {
	name string
}

func (e *unknownCommandError) Error() string {
	return "unknown command: /" + e.name
}

// chatUsageError is a slash command called with bad arguments.
type chatUsageError struct {
	usage string
}

func (e *chatUsageError) Error() string {
	return "usage: " + e.usage
}

// chatNotices is the text the line chat prints for its own errors.
var chatNotices = map[error]string{
	errVoiceUnavailable: "Voice input is not available.",
	errEmptyCommand:     "Type /help for commands.",
}

// chatNotice returns the line chat's wording for err.
func chatNotice(err error) string {
	for target, text := range chatNotices {
		if errors.Is(err, target) {
			return text
		}
	}
	var (
		unknown *unknownCommandError
		usage   *chatUsageError
	)
	switch {
	case errors.As(err, &unknown):
		return fmt.Sprintf("Unknown command: /%s. Type /help for commands.", unknown.name)
	case errors.As(err, &usage):
		return "Usage: " + usage.usage
	}
	return err.Error()
}
