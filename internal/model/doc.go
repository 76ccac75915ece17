// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model holds the practice transcript: messages from the trainee,
// replies from the AI trainer, and system notices.
//
//	conv := model.NewConversation()
//	conv.AddUser("Hi, I'm calling about my bill.")
//	reply := conv.AddReply("Sure, let me pull up your account.")
//	reply.SetRevealed("Sure, let")
//	reply.FinishTyping()
package model
