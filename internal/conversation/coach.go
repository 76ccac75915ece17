// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/salescoach-tui/internal/backend"
	"github.com/jeranaias/salescoach-tui/internal/model"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Backend is the subset of the backend client the coach drives.
type Backend interface {
	SendMessage(ctx context.Context, content string) (*backend.SendResponse, error)
	StartConversation(ctx context.Context, req backend.StartRequest) (*backend.RolesResponse, error)
	SwitchRoles(ctx context.Context) (*backend.RolesResponse, error)
	SwitchScenario(ctx context.Context, systemRole, scenario string) (*backend.ScenarioResponse, error)
	AnalyzeConversation(ctx context.Context, includeSuggestions bool) (*backend.Feedback, error)
	ResetConversation(ctx context.Context) error
}

// Speaker reads replies aloud. Speak must not block.
type Speaker interface {
	Speak(ctx context.Context, text string)
}

// =============================================================================
// STATE
// =============================================================================

// State mirrors the last successful backend response.
type State struct {
	SystemRole    string
	AssistantRole string
	Scenario      string
	Guidance      string
	TTSEnabled    bool
	Started       bool
}

// Banner returns the role status line, e.g. "Your role: CUSTOMER".
func (s State) Banner() string {
	if !s.Started {
		return "Not started"
	}
	return "Your role: " + RoleLabel(s.SystemRole)
}

// Coach runs one training conversation. Safe for concurrent use.
type Coach struct {
	backend Backend
	speaker Speaker
	logger  *zap.Logger

	mu    sync.Mutex
	state State
	conv  *model.Conversation

	// selRole and selScenario are used by the next Start.
	selRole     string
	selScenario string
}

// Option configures a Coach.
type Option func(*Coach)

// WithSpeaker enables text-to-speech playback of replies.
func WithSpeaker(s Speaker) Option {
	return func(c *Coach) { c.speaker = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coach) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTTS sets the initial text-to-speech toggle.
func WithTTS(enabled bool) Option {
	return func(c *Coach) { c.state.TTSEnabled = enabled }
}

// NewCoach creates a coach that talks to b.
func NewCoach(b Backend, opts ...Option) *Coach {
	c := &Coach{
		backend: b,
		logger:  zap.NewNop(),
		conv:    model.NewConversation(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the conversation state.
func (c *Coach) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a snapshot of the transcript.
func (c *Coach) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Message, len(c.conv.Messages))
	for i, m := range c.conv.Messages {
		out[i] = *m
	}
	return out
}

// MessageCount counts user and assistant messages.
func (c *Coach) MessageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.MessageCount()
}

// Transcript returns the conversation as plain text.
func (c *Coach) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Transcript()
}

// =============================================================================
// SELECTION AND SETTINGS
// =============================================================================

// Select records the role and scenario for the next Start and returns the
// guidance to show. Before the first start the state and the placeholder
// guidance follow the selection; a running conversation keeps both until
// it is started again.
func (c *Coach) Select(role, scenario string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selRole = NormalizeRole(role)
	c.selScenario = NormalizeScenario(scenario)
	if c.state.Started {
		return c.state.Guidance
	}
	c.state.SystemRole = c.selRole
	c.state.Scenario = c.selScenario
	if g := PreviewGuidance(c.selRole, c.selScenario); g != "" {
		c.state.Guidance = g
	}
	return c.state.Guidance
}

// Selection returns the role and scenario the next Start will use.
func (c *Coach) Selection() (role, scenario string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selRole, c.selScenario
}

// SetTTS turns reply playback on or off.
func (c *Coach) SetTTS(enabled bool) {
	c.mu.Lock()
	c.state.TTSEnabled = enabled
	c.mu.Unlock()
	c.logger.Info("tts toggled", zap.Bool("enabled", enabled))
}

// ToggleTTS flips reply playback and returns the new setting.
func (c *Coach) ToggleTTS() bool {
	c.mu.Lock()
	enabled := !c.state.TTSEnabled
	c.state.TTSEnabled = enabled
	c.mu.Unlock()
	c.logger.Info("tts toggled", zap.Bool("enabled", enabled))
	return enabled
}

// =============================================================================
// CONVERSATION LIFECYCLE
// =============================================================================

// Start begins the conversation with the selected role and scenario. The
// transcript is cleared and replaced by a start notice.
func (c *Coach) Start(ctx context.Context) error {
	role, scenario := c.Selection()
	if role == "" || scenario == "" {
		return ErrSelectionRequired
	}

	resp, err := c.backend.StartConversation(ctx, backend.StartRequest{SystemRole: role, Scenario: scenario})
	if err != nil {
		c.logger.Warn("start failed", zap.Error(err))
		return &ActionError{Action: "starting conversation", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SystemRole = resp.SystemRole
	c.state.AssistantRole = resp.AssistantRole
	c.state.Scenario = resp.Scenario
	c.state.Guidance = resp.RoleGuidance
	c.state.Started = true
	c.conv.Clear()
	c.conv.AddNotice(startedNotice(c.state.SystemRole, c.state.AssistantRole, c.state.Scenario))

	c.logger.Info("conversation started",
		zap.String("role", c.state.SystemRole),
		zap.String("assistant_role", c.state.AssistantRole),
		zap.String("scenario", c.state.Scenario))
	return nil
}

// SwitchRoles swaps the user and assistant roles.
func (c *Coach) SwitchRoles(ctx context.Context) error {
	if !c.State().Started {
		return ErrNotStarted
	}

	resp, err := c.backend.SwitchRoles(ctx)
	if err != nil {
		c.logger.Warn("switch roles failed", zap.Error(err))
		return &ActionError{Action: "switching roles", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SystemRole = resp.SystemRole
	c.state.AssistantRole = resp.AssistantRole
	c.state.Guidance = resp.RoleGuidance
	c.conv.AddNotice(switchedNotice(c.state.SystemRole, c.state.AssistantRole))
	c.logger.Info("roles switched", zap.String("role", c.state.SystemRole))
	return nil
}

// SwitchScenario changes the scenario of the running conversation.
func (c *Coach) SwitchScenario(ctx context.Context, scenario string) error {
	st := c.State()
	if !st.Started {
		return ErrNotStarted
	}
	scenario = NormalizeScenario(scenario)
	if scenario == "" {
		return ErrSelectionRequired
	}

	resp, err := c.backend.SwitchScenario(ctx, st.SystemRole, scenario)
	if err != nil {
		c.logger.Warn("switch scenario failed", zap.Error(err))
		return &ActionError{Action: "switching scenario", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Scenario = resp.Scenario
	if resp.RoleGuidance != "" {
		c.state.Guidance = resp.RoleGuidance
	}
	c.conv.AddNotice(scenarioNotice(c.state.Scenario))
	c.logger.Info("scenario switched", zap.String("scenario", c.state.Scenario))
	return nil
}

// Reset clears the transcript on both sides and keeps the roles.
func (c *Coach) Reset(ctx context.Context) error {
	if !c.State().Started {
		return ErrNotStarted
	}

	if err := c.backend.ResetConversation(ctx); err != nil {
		c.logger.Warn("reset failed", zap.Error(err))
		return &ActionError{Action: "resetting conversation", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conv.Clear()
	c.conv.AddNotice(resetNotice(c.state.SystemRole, c.state.AssistantRole, c.state.Scenario))
	c.logger.Info("conversation reset")
	return nil
}

// Analyze requests coaching feedback. An analysis the backend could not
// produce is returned as feedback with Failed() set, not as an error.
func (c *Coach) Analyze(ctx context.Context) (*backend.Feedback, error) {
	c.mu.Lock()
	ready := c.state.Started && c.conv.MessageCount() >= 2
	c.mu.Unlock()
	if !ready {
		return nil, ErrNotEnoughMessages
	}

	fb, err := c.backend.AnalyzeConversation(ctx, true)
	if err != nil {
		c.logger.Warn("analysis failed", zap.Error(err))
		return nil, &ActionError{Action: "analyzing conversation", Err: err}
	}
	if fb.Failed() {
		c.logger.Warn("analysis returned an error", zap.String("error", fb.ErrorText()))
	}
	return fb, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// Submit trims text and appends it as the user's turn. It returns nil for
// blank input.
func (c *Coach) Submit(text string) (*model.Message, error) {
	return c.submit(text, false)
}

// SubmitSpoken is Submit for text that came from speech recognition.
func (c *Coach) SubmitSpoken(text string) (*model.Message, error) {
	return c.submit(text, true)
}

func (c *Coach) submit(text string, spoken bool) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Started {
		return nil, ErrNotStarted
	}
	msg := c.conv.AddUser(text)
	msg.Spoken = spoken
	copied := *msg
	return &copied, nil
}

// Reply fetches the assistant's answer to text and appends it in its typing
// state. On failure a system message "Error: ..." is appended and the error
// returned. When text-to-speech is on the reply is spoken right away.
func (c *Coach) Reply(ctx context.Context, text string) (*model.Message, error) {
	resp, err := c.backend.SendMessage(ctx, strings.TrimSpace(text))
	if err != nil {
		c.logger.Warn("send failed", zap.Error(err))
		c.mu.Lock()
		c.conv.AddNotice(fmt.Sprintf("Error: %s", err.Error()))
		c.mu.Unlock()
		return nil, err
	}

	c.mu.Lock()
	msg := c.conv.AddReply(resp.Response)
	copied := *msg
	if resp.SystemRole != "" {
		c.state.SystemRole = resp.SystemRole
	}
	if resp.AssistantRole != "" {
		c.state.AssistantRole = resp.AssistantRole
	}
	speak := c.state.TTSEnabled && c.speaker != nil
	c.mu.Unlock()

	c.logger.Debug("reply received", zap.String("message_id", copied.ID), zap.Int("length", len(copied.Content)))
	if speak {
		c.speaker.Speak(context.WithoutCancel(ctx), copied.Content)
	}
	return &copied, nil
}

// Send submits text and waits for the reply. It returns (nil, nil) for
// blank input.
func (c *Coach) Send(ctx context.Context, text string) (*model.Message, error) {
	msg, err := c.Submit(text)
	if err != nil || msg == nil {
		return nil, err
	}
	return c.Reply(ctx, msg.Content)
}

// Reveal updates the visible prefix of a reply being typed. Unknown IDs,
// e.g. after a reset, are ignored.
func (c *Coach) Reveal(id, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg := c.conv.Find(id); msg != nil {
		msg.SetRevealed(prefix)
	}
}

// FinishTyping shows the full text of a reply.
func (c *Coach) FinishTyping(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg := c.conv.Find(id); msg != nil {
		msg.FinishTyping()
	}
}

// FinishAllTyping completes every reply still being typed.
func (c *Coach) FinishAllTyping() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, msg := range c.conv.Messages {
		if msg.Typing {
			msg.FinishTyping()
		}
	}
}

// Dictated handles the outcome of a recording. On success it returns the
// text to place in the input draft; on failure it appends
// "Speech recognition error: ..." and returns "".
func (c *Coach) Dictated(text string, err error) string {
	if err != nil {
		c.logger.Warn("speech recognition failed", zap.Error(err))
		c.mu.Lock()
		c.conv.AddNotice(fmt.Sprintf("Speech recognition error: %s", err.Error()))
		c.mu.Unlock()
		return ""
	}
	return norm.NFC.String(strings.TrimSpace(text))
}

// Notice appends a system message.
func (c *Coach) Notice(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conv.AddNotice(text)
}
