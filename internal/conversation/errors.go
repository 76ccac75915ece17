// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import "errors"

// Precondition errors. Their text is shown to the user as is.
var (
	ErrSelectionRequired = errors.New("Please select both a role and scenario before starting.")
	ErrNotStarted        = errors.New("Start a conversation first.")
	ErrNotEnoughMessages = errors.New("Please have a conversation before requesting analysis.")
)

// ActionError reports a failed backend action in the form the user sees,
// e.g. "Error switching roles: Failed to switch roles".
type ActionError struct {
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return "Error " + e.Action + ": " + e.Err.Error()
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
