// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// StatusSuccess is the envelope status of a successful call.
const StatusSuccess = "success"

// =============================================================================
// ENVELOPE
// =============================================================================

// Envelope is carried by every response.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the call succeeded.
func (e *Envelope) OK() bool {
	return e.Status == StatusSuccess
}

func (e *Envelope) envelope() *Envelope { return e }

type enveloped interface {
	envelope() *Envelope
}

// =============================================================================
// REQUESTS
// =============================================================================

// SendRequest is the body of /api/send-message.
type SendRequest struct {
	Content string `json:"content"`
}

// StartRequest is the body of /api/start-conversation and /api/switch-scenario.
type StartRequest struct {
	SystemRole    string `json:"system_role"`
	AssistantRole string `json:"assistant_role,omitempty"`
	Scenario      string `json:"scenario"`
}

// AnalyzeRequest is the body of /api/analyze-conversation.
type AnalyzeRequest struct {
	IncludeSuggestions bool `json:"include_suggestions"`
}

// SpeechRequest is the body of /api/text-to-speech.
type SpeechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// SendResponse is returned by /api/send-message.
type SendResponse struct {
	Envelope
	Response      string `json:"response"`
	SystemRole    string `json:"system_role,omitempty"`
	AssistantRole string `json:"assistant_role,omitempty"`
}

// RolesResponse is returned by /api/start-conversation and /api/switch-roles.
type RolesResponse struct {
	Envelope
	SystemRole    string `json:"system_role"`
	AssistantRole string `json:"assistant_role"`
	Scenario      string `json:"scenario,omitempty"`
	RoleGuidance  string `json:"role_guidance"`
}

// ScenarioResponse is returned by /api/switch-scenario.
type ScenarioResponse struct {
	Envelope
	Scenario     string `json:"scenario"`
	RoleGuidance string `json:"role_guidance"`
}

// AnalyzeResponse is returned by /api/analyze-conversation.
type AnalyzeResponse struct {
	Envelope
	Feedback *Feedback `json:"feedback"`
}

// TranscribeResponse is returned by /api/speech-to-text.
type TranscribeResponse struct {
	Envelope
	Text string `json:"text"`
}

// SpeechResponse is returned by /api/text-to-speech.
type SpeechResponse struct {
	Envelope
	Audio string `json:"audio"`
}

// =============================================================================
// FEEDBACK
// =============================================================================

// StringList decodes from either a JSON string or an array of values.
// Non-string array items are kept as their compact JSON text.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*l = nil
			return nil
		}
		*l = StringList{s}
		return nil

	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make(StringList, 0, len(raw))
		for _, item := range raw {
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				out = append(out, s)
				continue
			}
			var buf bytes.Buffer
			if err := json.Compact(&buf, item); err != nil {
				return err
			}
			out = append(out, buf.String())
		}
		*l = out
		return nil

	default:
		// Numbers and booleans become a single item.
		*l = StringList{string(data)}
		return nil
	}
}

// Feedback is the coaching analysis of a conversation.
type Feedback struct {
	Strengths              StringList `json:"strengths,omitempty"`
	Weaknesses             StringList `json:"weaknesses,omitempty"`
	KeyMoments             StringList `json:"key_moments,omitempty"`
	ImprovementSuggestions StringList `json:"improvement_suggestions,omitempty"`
	RoleSpecificFeedback   StringList `json:"role_specific_feedback,omitempty"`
	Error                  string     `json:"error,omitempty"`
}

// FeedbackSection is one titled block of feedback.
type FeedbackSection struct {
	Title string
	Items []string
	// Prose sections are rendered as paragraphs instead of bullets.
	Prose bool
}

// Failed reports whether the analysis itself failed.
func (f *Feedback) Failed() bool {
	return f == nil || f.Error != ""
}

// ErrorText returns the failure detail for a failed analysis.
func (f *Feedback) ErrorText() string {
	if f == nil || f.Error == "" {
		return MsgNoFeedback
	}
	return f.Error
}

// Sections returns the non-empty sections in display order.
func (f *Feedback) Sections() []FeedbackSection {
	if f.Failed() {
		return nil
	}
	all := []FeedbackSection{
		{Title: "Strengths", Items: f.Strengths},
		{Title: "Areas for Improvement", Items: f.Weaknesses},
		{Title: "Key Moments", Items: f.KeyMoments},
		{Title: "Improvement Suggestions", Items: f.ImprovementSuggestions},
		{Title: "Role-Specific Feedback", Items: f.RoleSpecificFeedback, Prose: true},
	}
	out := all[:0]
	for _, s := range all {
		if len(s.Items) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Markdown renders the feedback as a Markdown document.
func (f *Feedback) Markdown() string {
	if f.Failed() {
		return fmt.Sprintf("**Error:** %s\n", f.ErrorText())
	}

	var sb strings.Builder
	for i, s := range f.Sections() {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("## ")
		sb.WriteString(s.Title)
		sb.WriteString("\n\n")
		if s.Prose {
			sb.WriteString(strings.Join(s.Items, "\n\n"))
			sb.WriteString("\n")
			continue
		}
		for _, item := range s.Items {
			sb.WriteString("- ")
			sb.WriteString(item)
			sb.WriteString("\n")
		}
	}
	if sb.Len() == 0 {
		return "_No feedback was returned._\n"
	}
	return sb.String()
}
