// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the sales-training backend.
//
// Every endpoint answers with a JSON envelope carrying a status field. Any
// status other than "success" is returned as an *APIError whose message is
// the server's message field, or an operation-specific fallback when the
// server sent none. Transport failures are returned as *NetworkError and
// match ErrNetwork with errors.Is.
//
// Requests are never retried. There is no request timeout unless one is
// configured with WithTimeout; callers bound requests with their context.
//
// # Usage
//
//	client := backend.NewClient("http://localhost:8000").
//	    WithLogger(logging.Named(logging.CategoryBackend))
//
//	start, err := client.StartConversation(ctx, backend.StartRequest{
//	    SystemRole: "customer",
//	    Scenario:   "objection_handling",
//	})
package backend
