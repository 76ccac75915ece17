// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual UI components for the salescoach TUI.

Components are plain structs with a View method; the chat model owns their
state and sets fields before rendering.

# Components

  - Header (header.go) - Role banner, scenario and guidance text
  - MessageBubble (message.go) - One transcript entry, with typing indicator
  - StatusBar (statusbar.go) - TTS state, pending call spinner and shortcuts
  - RecordingOverlay (recording.go) - Shown while the microphone is open
  - FeedbackModal (feedback.go) - Scrollable coaching feedback rendered by glamour
  - ToastManager (toast.go) - Auto-dismissing notifications
*/
package components
