// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/salescoach-tui/internal/audio"
	"github.com/jeranaias/salescoach-tui/internal/typing"
	"github.com/jeranaias/salescoach-tui/internal/ui/components"
)

// Action names carried by actionDoneMsg.
const (
	actionStart          = "start"
	actionSwitchRoles    = "switch roles"
	actionSwitchScenario = "switch scenario"
	actionReset          = "reset"
)

const msgWaitForRequest = "Please wait for the current request to finish."

// =============================================================================
// COMMAND CREATORS
// =============================================================================

func (m Model) startCmd() tea.Cmd {
	coach, ctx := m.coach, m.ctx
	return func() tea.Msg {
		return actionDoneMsg{Action: actionStart, Err: coach.Start(ctx)}
	}
}

func (m Model) switchRolesCmd() tea.Cmd {
	coach, ctx := m.coach, m.ctx
	return func() tea.Msg {
		return actionDoneMsg{Action: actionSwitchRoles, Err: coach.SwitchRoles(ctx)}
	}
}

func (m Model) switchScenarioCmd(scenario string) tea.Cmd {
	coach, ctx := m.coach, m.ctx
	return func() tea.Msg {
		return actionDoneMsg{Action: actionSwitchScenario, Err: coach.SwitchScenario(ctx, scenario)}
	}
}

func (m Model) resetCmd() tea.Cmd {
	coach, ctx := m.coach, m.ctx
	return func() tea.Msg {
		return actionDoneMsg{Action: actionReset, Err: coach.Reset(ctx)}
	}
}

func (m Model) replyCmd(text string) tea.Cmd {
	coach, ctx := m.coach, m.ctx
	return func() tea.Msg {
		msg, err := coach.Reply(ctx, text)
		return replyMsg{Message: msg, Err: err}
	}
}

func (m Model) analyzeCmd() tea.Cmd {
	coach, ctx := m.coach, m.ctx
	return func() tea.Msg {
		fb, err := coach.Analyze(ctx)
		return feedbackMsg{Feedback: fb, Err: err}
	}
}

func (m Model) startRecordingCmd() tea.Cmd {
	recorder, ctx := m.recorder, m.ctx
	return func() tea.Msg {
		s, err := recorder.Start(ctx)
		return recordingStartedMsg{Session: s, Err: err}
	}
}

func waitRecordingCmd(s *audio.Session) tea.Cmd {
	return func() tea.Msg {
		return recordingDoneMsg{Result: s.Wait()}
	}
}

func indicatorCmd(id string, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return indicatorDoneMsg{MessageID: id}
	})
}

func frameTickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameTickMsg{Time: t}
	})
}

// =============================================================================
// KEYBOARD AND MOUSE
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}

	if m.rec.active() {
		return m.handleRecordingKey(msg)
	}

	if m.feedback.Visible() {
		if key.Matches(msg, m.keys.Close) {
			m.feedback.Close()
			return m, nil
		}
		return m, m.feedback.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()
	case key.Matches(msg, m.keys.Complete):
		return m.handleComplete()
	case key.Matches(msg, m.keys.Record):
		return m.startRecording()
	case key.Matches(msg, m.keys.ToggleTTS):
		return m.setTTS(!m.coach.State().TTSEnabled)
	case key.Matches(msg, m.keys.SwitchRoles):
		return m.beginAction("Switching roles", m.switchRolesCmd())
	case key.Matches(msg, m.keys.Analyze):
		return m.beginAction("Analyzing conversation", m.analyzeCmd())
	case key.Matches(msg, m.keys.Reset):
		return m.beginAction("Resetting conversation", m.resetCmd())
	case key.Matches(msg, m.keys.Close):
		// Esc with nothing open finishes replies still being typed.
		m.skipTyping()
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Home):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.End):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleRecordingKey treats any key as the stop gesture. Keys pressed while
// the microphone is still opening or the recording is being transcribed
// are dropped.
func (m Model) handleRecordingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.rec.session
	if s == nil || s.State() != audio.StateRecording {
		return m, nil
	}
	if key.Matches(msg, m.keys.Close) {
		s.Stop()
	} else {
		s.StopGesture()
	}
	m.overlay.Transcribing = true
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.rec.active() {
		if msg.Type == tea.MouseLeft && m.rec.session != nil {
			if m.rec.session.StopGesture() {
				m.overlay.Transcribing = true
			}
		}
		return m, nil
	}

	if m.feedback.Visible() {
		return m, m.feedback.Update(msg)
	}

	switch msg.Type {
	case tea.MouseWheelUp:
		m.viewport.LineUp(3)
	case tea.MouseWheelDown:
		m.viewport.LineDown(3)
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	m.feedback.SetSize(m.width, m.height)
	m.overlay.Width = m.width
	m.overlay.Height = m.height

	// "> " prompt plus the container's border and padding.
	m.input.Width = max(m.width-8, 10)

	m.refresh()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// SENDING
// =============================================================================

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		m.spokenDraft = ""
		return m.handleCommand(text)
	}

	if m.pending != "" {
		return m, m.toastStatus(msgWaitForRequest)
	}

	submit := m.coach.Submit
	if m.spokenDraft != "" && text == m.spokenDraft {
		submit = m.coach.SubmitSpoken
	}
	msg, err := submit(text)
	if err != nil {
		return m, m.toastError(err.Error())
	}
	if msg == nil {
		return m, nil
	}

	m.input.Reset()
	m.spokenDraft = ""
	m.skipTyping()
	m.pending = "Waiting for reply"
	m.refresh()
	m.viewport.GotoBottom()

	m.logger.Debug("message sent", zap.String("message_id", msg.ID), zap.Bool("spoken", msg.Spoken))
	return m, tea.Batch(m.replyCmd(msg.Content), m.startFrames())
}

func (m Model) handleReply(msg replyMsg) (tea.Model, tea.Cmd) {
	m.pending = ""
	if msg.Err != nil || msg.Message == nil {
		m.refresh()
		return m, nil
	}

	id := msg.Message.ID
	if m.typingDisabled {
		m.coach.FinishTyping(id)
		m.refresh()
		return m, nil
	}

	if m.indicatorDelay <= 0 {
		m.animate(id)
		m.refresh()
		return m, m.sched.Drain()
	}

	m.typing.waiting[id] = true
	m.refresh()
	return m, tea.Batch(indicatorCmd(id, m.indicatorDelay), m.startFrames())
}

func (m Model) handleIndicatorDone(msg indicatorDoneMsg) (tea.Model, tea.Cmd) {
	if !m.typing.waiting[msg.MessageID] {
		return m, nil
	}
	delete(m.typing.waiting, msg.MessageID)
	m.animate(msg.MessageID)
	m.refresh()
	return m, m.sched.Drain()
}

// animate starts revealing the reply with the given ID. Its steps are
// queued on the tick scheduler; the caller drains them.
func (m *Model) animate(id string) {
	var content string
	found := false
	for _, msg := range m.coach.Messages() {
		if msg.ID == id && msg.Typing {
			content, found = msg.Content, true
			break
		}
	}
	if !found {
		return
	}

	coach, ts := m.coach, m.typing
	target := typing.TargetFunc(func(prefix string) {
		coach.Reveal(id, prefix)
	})
	s := m.engine.Animate(target, content, func() {
		coach.FinishTyping(id)
		delete(ts.sessions, id)
	})
	if s.State() == typing.StateRevealing {
		ts.sessions[id] = s
	}
}

// skipTyping completes every reply still typing, e.g. when a new message
// supersedes them.
func (m *Model) skipTyping() {
	for id, s := range m.typing.sessions {
		s.Skip()
		delete(m.typing.sessions, id)
	}
	for id := range m.typing.waiting {
		m.coach.FinishTyping(id)
		delete(m.typing.waiting, id)
	}
}

// cancelTyping stops every animation where it is.
func (m *Model) cancelTyping() {
	for id, s := range m.typing.sessions {
		s.Cancel()
		delete(m.typing.sessions, id)
	}
	for id := range m.typing.waiting {
		delete(m.typing.waiting, id)
	}
}

// =============================================================================
// CONVERSATION ACTIONS
// =============================================================================

// beginAction runs cmd as the single backend call in flight.
func (m Model) beginAction(label string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m.pending != "" {
		return m, m.toastStatus(msgWaitForRequest)
	}
	m.pending = label
	m.refresh()
	return m, tea.Batch(cmd, m.startFrames())
}

func (m Model) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	m.pending = ""
	if msg.Err != nil {
		m.logger.Warn("action failed", zap.String("action", msg.Action), zap.Error(msg.Err))
		m.refresh()
		return m, m.toastError(msg.Err.Error())
	}

	if msg.Action == actionStart || msg.Action == actionReset {
		m.cancelTyping()
	}
	m.refresh()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleFeedback(msg feedbackMsg) (tea.Model, tea.Cmd) {
	m.pending = ""
	m.refresh()
	if msg.Err != nil {
		return m, m.toastError(msg.Err.Error())
	}
	m.feedback.Title = "Conversation Feedback"
	m.feedback.Open(msg.Feedback.Markdown())
	return m, nil
}

func (m Model) setTTS(enabled bool) (tea.Model, tea.Cmd) {
	m.coach.SetTTS(enabled)
	m.refresh()
	if enabled {
		return m, m.toastStatus("Text-to-speech on")
	}
	return m, m.toastStatus("Text-to-speech off")
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.Shutdown()
	return m, tea.Quit
}

// =============================================================================
// RECORDING
// =============================================================================

func (m Model) startRecording() (tea.Model, tea.Cmd) {
	if m.recorder == nil {
		return m, m.toastError("Voice input is not available.")
	}
	if m.rec.active() {
		return m, nil
	}

	m.rec.requesting = true
	m.overlay.Elapsed = 0
	m.overlay.Transcribing = false
	return m, tea.Batch(m.startRecordingCmd(), m.startFrames())
}

func (m Model) handleRecordingStarted(msg recordingStartedMsg) (tea.Model, tea.Cmd) {
	m.rec.requesting = false
	if msg.Err != nil {
		if !m.quitting && !errors.Is(msg.Err, context.Canceled) {
			m.coach.Dictated("", msg.Err)
			m.refresh()
		}
		return m, nil
	}

	m.rec.session = msg.Session
	return m, waitRecordingCmd(msg.Session)
}

func (m Model) handleRecordingDone(msg recordingDoneMsg) (tea.Model, tea.Cmd) {
	m.rec.session = nil
	m.overlay.Transcribing = false
	if m.quitting || errors.Is(msg.Result.Err, context.Canceled) {
		return m, nil
	}

	m.logger.Debug("recording finished",
		zap.String("reason", msg.Result.Reason.String()),
		zap.Int("chunks", msg.Result.Chunks),
		zap.Duration("duration", msg.Result.Duration))

	if text := m.coach.Dictated(msg.Result.Text, msg.Result.Err); text != "" {
		m.input.SetValue(text)
		m.input.CursorEnd()
		m.spokenDraft = text
	}
	m.refresh()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// CLOCKS
// =============================================================================

func (m Model) busy() bool {
	return m.pending != "" || len(m.typing.waiting) > 0 || m.rec.active()
}

// startFrames starts the frame clock unless it is already running.
func (m Model) startFrames() tea.Cmd {
	if m.clock.frames {
		return nil
	}
	m.clock.frames = true
	return frameTickCmd()
}

func (m Model) handleFrameTick() (tea.Model, tea.Cmd) {
	if !m.busy() {
		m.clock.frames = false
		m.refresh()
		return m, nil
	}
	if s := m.rec.session; s != nil {
		m.overlay.Elapsed = s.Elapsed()
		m.overlay.Transcribing = s.State() != audio.StateRecording
	}
	m.refresh()
	return m, frameTickCmd()
}

func (m Model) toastError(text string) tea.Cmd {
	m.toasts.AddError(text)
	return m.startToastClock()
}

func (m Model) toastStatus(text string) tea.Cmd {
	m.toasts.AddStatus(text)
	return m.startToastClock()
}

func (m Model) startToastClock() tea.Cmd {
	if m.clock.toasts {
		return nil
	}
	m.clock.toasts = true
	return components.ToastTickCmd()
}

// =============================================================================
// CONFIGURATION
// =============================================================================

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Warn("config reload failed", zap.Error(msg.Err))
		return m, m.toastError("Config reload failed: " + msg.Err.Error())
	}
	cfg := msg.Config
	if cfg == nil {
		return m, nil
	}

	m.engine.SetConfig(cfg.Typing.Engine())
	m.indicatorDelay = cfg.Typing.IndicatorDelay()
	m.typingDisabled = cfg.Typing.Disabled
	m.showTimestamps = cfg.UI.ShowTimestamps
	m.coach.SetTTS(cfg.Conversation.TTSEnabled)
	m.refresh()

	m.logger.Info("config reloaded")
	return m, m.toastStatus("Configuration reloaded")
}

