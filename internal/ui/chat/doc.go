// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea model for the sales training chat.

The model owns no conversation state of its own. Roles, scenario and the
transcript live in a conversation.Coach; the model turns key presses and
slash commands into coach calls run as tea.Cmds and redraws from the
coach's snapshot.

# Typing animation

Assistant replies are revealed by a typing.Engine whose scheduler is backed
by tea.Tick. Every step of the animation arrives as a typingTickMsg and runs
on the Update goroutine, so the transcript is only ever mutated there. A
reply first shows the typing indicator for the configured indicator delay.

# Voice input

Ctrl+R (or /record) opens the microphone through an audio pipeline. While
recording, any key or mouse click stops the capture, Esc stops it as well
and Ctrl+C abandons it and quits. The transcription becomes the input draft
and is sent as a spoken message when submitted unchanged.

# Key bindings

	Enter    send message or run slash command
	Tab      complete command, role or scenario
	Ctrl+R   record voice input
	Ctrl+T   toggle text-to-speech
	Ctrl+S   switch roles
	Ctrl+A   analyze conversation
	Ctrl+X   reset conversation
	Esc      close feedback / stop recording
	Ctrl+C   quit
*/
package chat
