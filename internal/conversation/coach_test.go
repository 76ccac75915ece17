// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/salescoach-tui/internal/backend"
	"github.com/jeranaias/salescoach-tui/internal/model"
)

// fakeBackend answers like the training server; fields set to non-nil
// errors make the matching call fail.
type fakeBackend struct {
	mu sync.Mutex

	startReq  backend.StartRequest
	sent      []string
	resets    int
	reply     string
	guidance  string
	assistant string
	feedback  *backend.Feedback

	startErr, sendErr, switchErr, scenarioErr, analyzeErr, resetErr error
}

func (f *fakeBackend) StartConversation(ctx context.Context, req backend.StartRequest) (*backend.RolesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startReq = req
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &backend.RolesResponse{
		SystemRole:    req.SystemRole,
		AssistantRole: f.assistant,
		Scenario:      req.Scenario,
		RoleGuidance:  f.guidance,
	}, nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, content string) (*backend.SendResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, content)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &backend.SendResponse{Response: f.reply}, nil
}

func (f *fakeBackend) SwitchRoles(ctx context.Context) (*backend.RolesResponse, error) {
	if f.switchErr != nil {
		return nil, f.switchErr
	}
	return &backend.RolesResponse{SystemRole: "sales specialist", AssistantRole: "customer", RoleGuidance: "Lead with value."}, nil
}

func (f *fakeBackend) SwitchScenario(ctx context.Context, systemRole, scenario string) (*backend.ScenarioResponse, error) {
	if f.scenarioErr != nil {
		return nil, f.scenarioErr
	}
	return &backend.ScenarioResponse{Scenario: scenario, RoleGuidance: "Hold your price."}, nil
}

func (f *fakeBackend) AnalyzeConversation(ctx context.Context, include bool) (*backend.Feedback, error) {
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.feedback, nil
}

func (f *fakeBackend) ResetConversation(ctx context.Context) error {
	f.resets++
	return f.resetErr
}

type recordingSpeaker struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingSpeaker) Speak(ctx context.Context, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
}

func newStartedCoach(t *testing.T, fb *fakeBackend, opts ...Option) *Coach {
	t.Helper()
	c := NewCoach(fb, opts...)
	c.Select("customer", "negotiation")
	require.NoError(t, c.Start(context.Background()))
	return c
}

func TestSelect_PreviewGuidance(t *testing.T) {
	c := NewCoach(&fakeBackend{})

	assert.Equal(t, "", c.Select("customer", ""))

	got := c.Select("sales specialist", "objection_handling")
	assert.Equal(t, "As a sales specialist in a objection handling scenario, you'll need to adapt your communication strategy accordingly. Start the conversation to see specific guidance.", got)
	assert.Equal(t, "Not started", c.State().Banner())
}

func TestSelect_WhileStartedAppliesOnNextStart(t *testing.T) {
	fb := &fakeBackend{}
	c := newStartedCoach(t, fb)

	c.Select("sales_specialist", "upselling")
	assert.Equal(t, "customer", c.State().SystemRole)
	role, scenario := c.Selection()
	assert.Equal(t, "sales specialist", role)
	assert.Equal(t, "upselling", scenario)

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, "upselling", c.State().Scenario)
}

func TestStart_RequiresSelection(t *testing.T) {
	fb := &fakeBackend{}
	c := NewCoach(fb)
	c.Select("customer", "")

	err := c.Start(context.Background())
	assert.ErrorIs(t, err, ErrSelectionRequired)
	assert.Equal(t, "Please select both a role and scenario before starting.", err.Error())
	assert.Empty(t, fb.startReq.SystemRole)
}

func TestStart_ShowsBannerGuidanceAndClearsTranscript(t *testing.T) {
	fb := &fakeBackend{assistant: "sales specialist", guidance: "Push back on the late fee."}
	c := NewCoach(fb)
	c.Notice("stale notice")
	c.Select("customer", "billing_dispute")

	require.NoError(t, c.Start(context.Background()))

	st := c.State()
	assert.Equal(t, "Your role: CUSTOMER", st.Banner())
	assert.Equal(t, "Push back on the late fee.", st.Guidance)
	assert.True(t, st.Started)
	assert.Equal(t, backend.StartRequest{SystemRole: "customer", Scenario: "billing_dispute"}, fb.startReq)

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleSystem, msgs[0].Role)
	assert.Equal(t, "[Conversation started] You are the CUSTOMER, the AI is the SALES SPECIALIST. Scenario: billing dispute.", msgs[0].Content)
}

func TestStart_MissingAssistantRoleIsUnknown(t *testing.T) {
	c := newStartedCoach(t, &fakeBackend{})
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "the AI is the Unknown.")
}

func TestStart_Failure(t *testing.T) {
	fb := &fakeBackend{startErr: &backend.APIError{Op: "start", Message: "Failed to start conversation"}}
	c := NewCoach(fb)
	c.Select("customer", "negotiation")

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Error starting conversation: Failed to start conversation", err.Error())
	var apiErr *backend.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.False(t, c.State().Started)
	assert.Empty(t, c.Messages())
}

func TestSwitchRoles(t *testing.T) {
	c := NewCoach(&fakeBackend{})
	assert.ErrorIs(t, c.SwitchRoles(context.Background()), ErrNotStarted)

	c = newStartedCoach(t, &fakeBackend{assistant: "sales specialist"})
	require.NoError(t, c.SwitchRoles(context.Background()))

	st := c.State()
	assert.Equal(t, "Your role: SALES SPECIALIST", st.Banner())
	assert.Equal(t, "Lead with value.", st.Guidance)
	msgs := c.Messages()
	assert.Equal(t, "[Roles switched] You are now the SALES SPECIALIST, the AI is the CUSTOMER.", msgs[len(msgs)-1].Content)
}

func TestSwitchScenario(t *testing.T) {
	c := newStartedCoach(t, &fakeBackend{})
	require.NoError(t, c.SwitchScenario(context.Background(), "Objection Handling"))

	st := c.State()
	assert.Equal(t, "objection_handling", st.Scenario)
	assert.Equal(t, "Hold your price.", st.Guidance)
	msgs := c.Messages()
	assert.Equal(t, "[Scenario switched] Scenario: objection handling.", msgs[len(msgs)-1].Content)
}

func TestReset(t *testing.T) {
	fb := &fakeBackend{assistant: "sales specialist", reply: "Hello."}
	c := newStartedCoach(t, fb)
	_, err := c.Send(context.Background(), "Hi")
	require.NoError(t, err)

	require.NoError(t, c.Reset(context.Background()))
	assert.Equal(t, 1, fb.resets)

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "[Conversation reset] You are the CUSTOMER, the AI is the SALES SPECIALIST. Scenario: negotiation.", msgs[0].Content)
	assert.Zero(t, c.MessageCount())
}

func TestReset_FailureKeepsTranscript(t *testing.T) {
	fb := &fakeBackend{resetErr: errors.New("Failed to reset conversation")}
	c := newStartedCoach(t, fb)

	err := c.Reset(context.Background())
	assert.EqualError(t, err, "Error resetting conversation: Failed to reset conversation")
	assert.Len(t, c.Messages(), 1)
}

func TestAnalyze_RequiresConversation(t *testing.T) {
	fb := &fakeBackend{reply: "Sure.", feedback: &backend.Feedback{Strengths: backend.StringList{"Clear opener"}}}
	c := newStartedCoach(t, fb)

	_, err := c.Analyze(context.Background())
	assert.ErrorIs(t, err, ErrNotEnoughMessages)
	assert.Equal(t, "Please have a conversation before requesting analysis.", err.Error())

	_, err = c.Send(context.Background(), "Can we talk price?")
	require.NoError(t, err)
	assert.Equal(t, 2, c.MessageCount())

	fbk, err := c.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, backend.StringList{"Clear opener"}, fbk.Strengths)
}

func TestAnalyze_FailedFeedbackIsNotAnError(t *testing.T) {
	fb := &fakeBackend{reply: "Sure.", feedback: &backend.Feedback{Error: "Could not generate feedback"}}
	c := newStartedCoach(t, fb)
	_, err := c.Send(context.Background(), "Hello")
	require.NoError(t, err)

	fbk, err := c.Analyze(context.Background())
	require.NoError(t, err)
	assert.True(t, fbk.Failed())
}

func TestSend(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		sendErr   error
		wantSent  []string
		wantLast  string
		wantRole  model.Role
		wantTyped bool
		wantErr   bool
	}{
		{
			name:      "reply is appended in typing state",
			input:     "  How much is it?  ",
			wantSent:  []string{"How much is it?"},
			wantLast:  "It depends on the plan.",
			wantRole:  model.RoleAssistant,
			wantTyped: true,
		},
		{
			name:     "blank input is ignored",
			input:    "   ",
			wantLast: "[Conversation started] You are the CUSTOMER, the AI is the Unknown. Scenario: negotiation.",
			wantRole: model.RoleSystem,
		},
		{
			name:     "failure becomes a system message",
			input:    "Hello",
			sendErr:  &backend.APIError{Op: "send", Message: "Failed to get response"},
			wantSent: []string{"Hello"},
			wantLast: "Error: Failed to get response",
			wantRole: model.RoleSystem,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeBackend{reply: "It depends on the plan.", sendErr: tt.sendErr}
			c := newStartedCoach(t, fb)

			_, err := c.Send(context.Background(), tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantSent, fb.sent)

			msgs := c.Messages()
			last := msgs[len(msgs)-1]
			assert.Equal(t, tt.wantLast, last.Content)
			assert.Equal(t, tt.wantRole, last.Role)
			assert.Equal(t, tt.wantTyped, last.Typing)
		})
	}
}

func TestSend_NotStarted(t *testing.T) {
	fb := &fakeBackend{}
	c := NewCoach(fb)
	_, err := c.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.Empty(t, fb.sent)
}

func TestSend_SpeaksWhenTTSEnabled(t *testing.T) {
	sp := &recordingSpeaker{}
	fb := &fakeBackend{reply: "Welcome back."}
	c := newStartedCoach(t, fb, WithSpeaker(sp))

	_, err := c.Send(context.Background(), "one")
	require.NoError(t, err)
	assert.Empty(t, sp.texts)

	assert.True(t, c.ToggleTTS())
	_, err = c.Send(context.Background(), "two")
	require.NoError(t, err)
	assert.Equal(t, []string{"Welcome back."}, sp.texts)

	c.SetTTS(false)
	fb.sendErr = errors.New("boom")
	c.SetTTS(true)
	_, _ = c.Send(context.Background(), "three")
	assert.Len(t, sp.texts, 1)
}

func TestRevealAndFinishTyping(t *testing.T) {
	c := newStartedCoach(t, &fakeBackend{reply: "Hello there."})
	reply, err := c.Send(context.Background(), "Hi")
	require.NoError(t, err)

	c.Reveal(reply.ID, "Hel")
	msgs := c.Messages()
	assert.Equal(t, "Hel", msgs[len(msgs)-1].Visible())

	c.FinishTyping(reply.ID)
	msgs = c.Messages()
	assert.False(t, msgs[len(msgs)-1].Typing)
	assert.Equal(t, "Hello there.", msgs[len(msgs)-1].Visible())

	// Unknown IDs are ignored.
	c.Reveal("missing", "x")
	c.FinishTyping("missing")
}

func TestFinishAllTyping(t *testing.T) {
	c := newStartedCoach(t, &fakeBackend{reply: "One."})
	_, _ = c.Send(context.Background(), "a")
	_, _ = c.Send(context.Background(), "b")

	c.FinishAllTyping()
	for _, m := range c.Messages() {
		assert.False(t, m.Typing, m.Content)
	}
}

func TestDictated(t *testing.T) {
	c := newStartedCoach(t, &fakeBackend{})

	assert.Equal(t, "café prices", c.Dictated("  café prices ", nil))

	assert.Equal(t, "", c.Dictated("", errors.New("no audio recorded")))
	msgs := c.Messages()
	assert.Equal(t, "Speech recognition error: no audio recorded", msgs[len(msgs)-1].Content)
}

func TestSubmitSpoken(t *testing.T) {
	c := newStartedCoach(t, &fakeBackend{})
	msg, err := c.SubmitSpoken("I need a better price")
	require.NoError(t, err)
	assert.True(t, msg.Spoken)
	assert.True(t, c.Messages()[1].Spoken)
}

func TestMessagesReturnsSnapshot(t *testing.T) {
	c := newStartedCoach(t, &fakeBackend{})
	msgs := c.Messages()
	msgs[0].Content = "changed"
	assert.NotEqual(t, "changed", c.Messages()[0].Content)
}

func TestScenarioHelpers(t *testing.T) {
	tests := []struct {
		in, role, scenario string
	}{
		{"Sales_Specialist", "sales specialist", "sales_specialist"},
		{"  objection handling ", "objection handling", "objection_handling"},
		{"product-pitch", "product pitch", "product_pitch"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.role, NormalizeRole(tt.in))
		assert.Equal(t, tt.scenario, NormalizeScenario(tt.in))
	}

	assert.True(t, IsKnownRole("Customer"))
	assert.False(t, IsKnownRole("manager"))
	assert.True(t, IsKnownScenario("Upselling"))
	assert.False(t, IsKnownScenario("billing_dispute"))
	assert.Equal(t, "objection handling", ScenarioWords("objection_handling"))
	assert.Equal(t, "Unknown", RoleLabel(""))
}

func TestParseStartArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantRole     string
		wantScenario string
	}{
		{"no args keeps selection", nil, "customer", "negotiation"},
		{"known scenario alone", []string{"upselling"}, "customer", "upselling"},
		{"role alone", []string{"sales_specialist"}, "sales_specialist", "negotiation"},
		{"role and scenario", []string{"sales", "specialist", "product_pitch"}, "sales specialist", "product_pitch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, scenario := ParseStartArgs(tt.args, "customer", "negotiation")
			if role != tt.wantRole || scenario != tt.wantScenario {
				t.Errorf("ParseStartArgs(%v) = %q, %q; want %q, %q", tt.args, role, scenario, tt.wantRole, tt.wantScenario)
			}
		})
	}
}
