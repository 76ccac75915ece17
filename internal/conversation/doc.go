// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation coordinates a training conversation with the backend.
//
// A Coach mirrors the roles and scenario the backend last reported, owns the
// transcript, and turns backend outcomes into the system messages the user
// sees. Both front-ends (the Bubble Tea TUI and the line chat) drive the same
// Coach; it is safe for concurrent use so backend calls can run off the UI
// goroutine.
//
// # Usage
//
//	coach := conversation.NewCoach(client, conversation.WithSpeaker(speaker))
//	coach.Select("customer", "negotiation")
//	if err := coach.Start(ctx); err != nil {
//	    return err
//	}
//	reply, err := coach.Send(ctx, "Hi, I'd like to talk about the renewal.")
package conversation
