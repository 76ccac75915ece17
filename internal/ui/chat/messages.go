// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/salescoach-tui/internal/audio"
	"github.com/jeranaias/salescoach-tui/internal/backend"
	"github.com/jeranaias/salescoach-tui/internal/config"
	"github.com/jeranaias/salescoach-tui/internal/model"
)

// =============================================================================
// BACKEND RESULTS
// =============================================================================

// autoStartMsg starts the configured conversation on launch.
type autoStartMsg struct{}

// actionDoneMsg reports the outcome of a start, switch, scenario or reset
// call. Notices for the transcript are already appended by the coach.
type actionDoneMsg struct {
	Action string
	Err    error
}

// replyMsg delivers the assistant reply to a sent message.
type replyMsg struct {
	Message *model.Message
	Err     error
}

// feedbackMsg delivers a conversation analysis.
type feedbackMsg struct {
	Feedback *backend.Feedback
	Err      error
}

// =============================================================================
// TYPING
// =============================================================================

// typingTickMsg fires one scheduled typing step.
type typingTickMsg struct {
	ID uint64
}

// indicatorDoneMsg ends the typing indicator of a reply and starts its
// animation.
type indicatorDoneMsg struct {
	MessageID string
}

// =============================================================================
// RECORDING
// =============================================================================

// recordingStartedMsg reports that the microphone opened, or why not.
type recordingStartedMsg struct {
	Session *audio.Session
	Err     error
}

// recordingDoneMsg delivers the transcription of a finished recording.
type recordingDoneMsg struct {
	Result audio.Result
}

// frameTickMsg advances the indicator, spinner and recording clock.
type frameTickMsg struct {
	Time time.Time
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// ConfigReloadedMsg carries a configuration re-read from disk. Send it to
// the program to apply typing and text-to-speech settings live.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}
