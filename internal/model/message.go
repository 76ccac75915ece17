// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Role is who said a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Label is the speaker name shown in the transcript.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	}
	return string(r)
}

// Message is one line of the transcript.
//
// Assistant replies arrive complete but are shown a prefix at a time.
// While Typing is set, Visible returns the revealed prefix instead of
// Content.
type Message struct {
	ID     string
	Role   Role
	SentAt time.Time

	// Content is the full NFC-normalised text.
	Content string

	Typing   bool
	revealed string

	// Spoken marks user messages sent unchanged from a transcription.
	Spoken bool
}

func newMessage(role Role, content string) *Message {
	return &Message{
		ID:      uuid.NewString(),
		Role:    role,
		SentAt:  time.Now(),
		Content: norm.NFC.String(content),
	}
}

// NewUserMessage returns a message typed or spoken by the trainee.
func NewUserMessage(content string) *Message { return newMessage(RoleUser, content) }

// NewSystemMessage returns a notice such as "[Conversation started] ...".
func NewSystemMessage(content string) *Message { return newMessage(RoleSystem, content) }

// NewAssistantMessage returns a reply with nothing revealed yet.
func NewAssistantMessage(content string) *Message {
	m := newMessage(RoleAssistant, content)
	m.Typing = true
	return m
}

// SetRevealed records the prefix currently on screen. It is a no-op once
// typing has finished.
func (m *Message) SetRevealed(prefix string) {
	if m.Typing {
		m.revealed = prefix
	}
}

// FinishTyping shows the whole message.
func (m *Message) FinishTyping() {
	m.Typing = false
	m.revealed = ""
}

// Visible is the text to render right now.
func (m *Message) Visible() string {
	if m.Typing {
		return m.revealed
	}
	return m.Content
}

// ShowIndicator is true between a reply's arrival and its first character.
func (m *Message) ShowIndicator() bool {
	return m.Typing && m.revealed == ""
}
