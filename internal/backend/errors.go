// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"errors"
	"fmt"
)

// Error variables for common backend failures.
var (
	// ErrNetwork indicates the request never produced a usable response.
	ErrNetwork = errors.New("network error")

	// ErrInvalidAudio indicates the synthesized audio could not be decoded.
	ErrInvalidAudio = errors.New("invalid audio payload")

	// ErrEmptyAudio indicates an upload or synthesis carried no audio bytes.
	ErrEmptyAudio = errors.New("empty audio payload")
)

// Fallback messages used when the server reports failure without a message.
const (
	MsgSendFailed       = "Failed to get response"
	MsgStartFailed      = "Failed to start conversation"
	MsgSwitchFailed     = "Failed to switch roles"
	MsgScenarioFailed   = "Failed to switch scenario"
	MsgAnalyzeFailed    = "Failed to analyze conversation"
	MsgResetFailed      = "Failed to reset conversation"
	MsgTranscribeFailed = "Transcription failed"
	MsgSynthesizeFailed = "Text-to-speech failed"
	MsgNoFeedback       = "Could not generate feedback"
)

// APIError is a response whose status was not "success".
type APIError struct {
	Op         string
	StatusCode int
	Status     string
	Message    string
}

// Error returns the server-provided detail so it can be shown verbatim.
func (e *APIError) Error() string {
	return e.Message
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", ErrNetwork, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrNetwork) true for every NetworkError.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// IsAPIError reports whether err is an *APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
