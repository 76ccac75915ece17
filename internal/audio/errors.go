// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import "errors"

// Error variables for capture failures.
var (
	// ErrRecordingInProgress is returned by Start while a session is active.
	ErrRecordingInProgress = errors.New("recording already in progress")

	// ErrPermissionDenied indicates the microphone could not be opened
	// because access was refused.
	ErrPermissionDenied = errors.New("microphone access denied")

	// ErrNoAudioRecorded indicates the session stopped with zero chunks.
	ErrNoAudioRecorded = errors.New("no audio recorded")

	// ErrCaptureFailed indicates the capture device failed.
	ErrCaptureFailed = errors.New("audio capture failed")

	// ErrTranscriptionFailed matches every transcription failure.
	ErrTranscriptionFailed = errors.New("transcription failed")
)

// TranscriptionError wraps the transcriber's error. Its message is the
// transcriber's message unchanged so server details reach the user.
type TranscriptionError struct {
	Err error
}

// Error implements the error interface.
func (e *TranscriptionError) Error() string {
	if e.Err == nil {
		return ErrTranscriptionFailed.Error()
	}
	return e.Err.Error()
}

// Unwrap returns the transcriber's error.
func (e *TranscriptionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTranscriptionFailed) true.
func (e *TranscriptionError) Is(target error) bool {
	return target == ErrTranscriptionFailed
}
