// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Conversation is the transcript of one practice session. It is cleared
// when the session is started or reset; the server keeps the real history.
type Conversation struct {
	ID        string
	StartedAt time.Time
	Messages  []*Message
}

// NewConversation returns an empty transcript.
func NewConversation() *Conversation {
	return &Conversation{ID: uuid.NewString(), StartedAt: time.Now()}
}

func (c *Conversation) add(m *Message) *Message {
	c.Messages = append(c.Messages, m)
	return m
}

// AddUser appends what the trainee said.
func (c *Conversation) AddUser(content string) *Message {
	return c.add(NewUserMessage(content))
}

// AddReply appends an assistant reply in the typing state.
func (c *Conversation) AddReply(content string) *Message {
	return c.add(NewAssistantMessage(content))
}

// AddNotice appends a system message.
func (c *Conversation) AddNotice(content string) *Message {
	return c.add(NewSystemMessage(content))
}

// Find returns the message with the given ID, or nil.
func (c *Conversation) Find(id string) *Message {
	for _, m := range c.Messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// LastReply returns the newest assistant message, or nil.
func (c *Conversation) LastReply() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i]
		}
	}
	return nil
}

// Clear drops every message and starts a new transcript ID.
func (c *Conversation) Clear() {
	c.Messages = nil
	c.ID = uuid.NewString()
	c.StartedAt = time.Now()
}

// MessageCount counts user and assistant messages. Notices are not turns.
func (c *Conversation) MessageCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role != RoleSystem {
			n++
		}
	}
	return n
}

// Transcript renders "Speaker: text" lines with full content.
func (c *Conversation) Transcript() string {
	var sb strings.Builder
	for _, m := range c.Messages {
		sb.WriteString(m.Role.Label())
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteByte('\n')
	}
	return sb.String()
}
