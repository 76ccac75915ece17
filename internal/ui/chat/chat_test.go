// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/salescoach-tui/internal/audio"
	"github.com/jeranaias/salescoach-tui/internal/backend"
	"github.com/jeranaias/salescoach-tui/internal/config"
	"github.com/jeranaias/salescoach-tui/internal/conversation"
	"github.com/jeranaias/salescoach-tui/internal/model"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeBackend struct {
	mu       sync.Mutex
	sent     []string
	reply    string
	feedback *backend.Feedback
	startErr error
	sendErr  error
}

func (f *fakeBackend) StartConversation(ctx context.Context, req backend.StartRequest) (*backend.RolesResponse, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &backend.RolesResponse{
		SystemRole:    req.SystemRole,
		AssistantRole: "sales specialist",
		Scenario:      req.Scenario,
		RoleGuidance:  "Push back on the price.",
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
	return &backend.RolesResponse{SystemRole: "sales specialist", AssistantRole: "customer"}, nil
}

func (f *fakeBackend) SwitchScenario(ctx context.Context, systemRole, scenario string) (*backend.ScenarioResponse, error) {
	return &backend.ScenarioResponse{Scenario: scenario}, nil
}

func (f *fakeBackend) AnalyzeConversation(ctx context.Context, include bool) (*backend.Feedback, error) {
	return f.feedback, nil
}

func (f *fakeBackend) ResetConversation(ctx context.Context) error {
	return nil
}

// oneChunkStream yields one chunk, then blocks until closed.
type oneChunkStream struct {
	once   sync.Once
	sent   bool
	closed chan struct{}
}

func (s *oneChunkStream) Read(p []byte) (int, error) {
	if !s.sent {
		s.sent = true
		return copy(p, make([]byte, 3200)), nil
	}
	<-s.closed
	return 0, io.EOF
}

func (s *oneChunkStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakeMic struct {
	err error
}

func (m *fakeMic) Open(ctx context.Context, f audio.Format) (audio.Stream, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &oneChunkStream{closed: make(chan struct{})}, nil
}

type fakeTranscriber struct {
	text string
}

func (t *fakeTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	return t.text, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func newTestModel(t *testing.T, fb *fakeBackend, opts ...Option) Model {
	t.Helper()
	cfg := config.Default()
	cfg.Conversation.DefaultRole = "customer"
	cfg.Conversation.DefaultScenario = "negotiation"

	coach := conversation.NewCoach(fb)
	opts = append([]Option{WithTypingRand(func() float64 { return 0.5 })}, opts...)
	m := New(coach, cfg, opts...)
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	t.Cleanup(m.Shutdown)
	return m
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// await runs cmd, expanding batches, and returns the first message of
// type T. Ticks that fire later are ignored.
func await[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	require.NotNil(t, cmd)

	out := make(chan tea.Msg, 64)
	var run func(c tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() {
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, sub := range batch {
					run(sub)
				}
				return
			}
			select {
			case out <- msg:
			default:
			}
		}()
	}
	run(cmd)

	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-out:
			if v, ok := msg.(T); ok {
				return v
			}
		case <-timeout:
			var zero T
			t.Fatalf("no %T message", zero)
			return zero
		}
	}
}

func typeAndSubmit(m Model, text string) (Model, tea.Cmd) {
	m.input.SetValue(text)
	return update(m, tea.KeyMsg{Type: tea.KeyEnter})
}

func startConversation(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := typeAndSubmit(m, "/start")
	m, _ = update(m, await[actionDoneMsg](t, cmd))
	require.True(t, m.coach.State().Started)
	return m
}

// finishTyping fires scheduled typing steps until none are left.
func finishTyping(t *testing.T, m Model) Model {
	t.Helper()
	for i := 0; m.sched.Armed() > 0; i++ {
		require.Less(t, i, 1000, "typing never finished")
		m, _ = update(m, typingTickMsg{ID: armedTimer(m.sched)})
	}
	return m
}

func armedTimer(s *tickScheduler) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.timers {
		return id
	}
	return 0
}

func lastMessage(m Model) model.Message {
	msgs := m.coach.Messages()
	return msgs[len(msgs)-1]
}

func lastToast(t *testing.T, m Model) string {
	t.Helper()
	toasts := m.toasts.Toasts()
	require.NotEmpty(t, toasts)
	return toasts[len(toasts)-1].Message
}

// =============================================================================
// SCHEDULER
// =============================================================================

func TestTickScheduler(t *testing.T) {
	s := newTickScheduler()
	assert.Nil(t, s.Drain())

	var ran []string
	a := s.AfterFunc(time.Millisecond, func() { ran = append(ran, "a") })
	s.AfterFunc(time.Millisecond, func() { ran = append(ran, "b") })
	assert.NotNil(t, s.Drain())
	assert.Nil(t, s.Drain(), "drain empties the queue")
	assert.Equal(t, 2, s.Armed())

	assert.True(t, a.Stop())
	assert.False(t, a.Stop())
	assert.False(t, s.Fire(1), "stopped timer must not fire")
	assert.True(t, s.Fire(2))
	assert.False(t, s.Fire(2), "timer fires once")
	assert.Equal(t, []string{"b"}, ran)
	assert.Equal(t, 0, s.Armed())
}

func TestTickScheduler_TickCarriesID(t *testing.T) {
	s := newTickScheduler()
	s.AfterFunc(0, func() {})
	msg := s.Drain()()
	tick, ok := msg.(typingTickMsg)
	require.True(t, ok)
	assert.Equal(t, uint64(1), tick.ID)
}

// =============================================================================
// COMMAND PARSING AND COMPLETION
// =============================================================================

func TestComplete(t *testing.T) {
	tests := []struct {
		line        string
		want        string
		wantMatches int
	}{
		{"hello", "hello", 0},
		{"/an", "/analyze ", 1},
		{"/s", "/s", 3},
		{"/sc", "/scenario ", 1},
		{"/start c", "/start customer ", 1},
		{"/start customer ne", "/start customer negotiation ", 1},
		{"/scenario ", "/scenario ", 4},
		{"/tts o", "/tts o", 2},
		{"/tts of", "/tts off ", 1},
		{"/switch x", "/switch x", 0},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, matches := complete(tt.line)
			assert.Equal(t, tt.want, got)
			assert.Len(t, matches, tt.wantMatches)
		})
	}
}

func TestHelpMarkdownListsCommandsAndScenarios(t *testing.T) {
	md := helpMarkdown(DefaultKeyMap())
	for _, want := range []string{"/start [role] [scenario]", "/tts [on|off]", "sales_specialist", "objection_handling", "C-r"} {
		assert.Contains(t, md, want)
	}
}

// =============================================================================
// MODEL
// =============================================================================

func TestModel_StartCommand(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	assert.Contains(t, m.View(), "Not started")

	m, cmd := typeAndSubmit(m, "/start customer billing_dispute")
	assert.Equal(t, "Starting conversation", m.Pending())
	assert.Equal(t, "", m.InputValue())

	m, _ = update(m, await[actionDoneMsg](t, cmd))
	assert.Equal(t, "", m.Pending())

	st := m.coach.State()
	assert.True(t, st.Started)
	assert.Equal(t, "billing_dispute", st.Scenario)
	assert.Contains(t, m.View(), "Your role: CUSTOMER")
	assert.Equal(t, "[Conversation started] You are the CUSTOMER, the AI is the SALES SPECIALIST. Scenario: billing dispute.", lastMessage(m).Content)
}

func TestModel_StartFailureShowsToast(t *testing.T) {
	m := newTestModel(t, &fakeBackend{startErr: errors.New("backend down")})

	m, cmd := typeAndSubmit(m, "/start")
	m, _ = update(m, await[actionDoneMsg](t, cmd))

	assert.False(t, m.coach.State().Started)
	assert.Equal(t, "Error starting conversation: backend down", lastToast(t, m))
}

func TestModel_SendBeforeStart(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, _ = typeAndSubmit(m, "Hello")
	assert.Equal(t, conversation.ErrNotStarted.Error(), lastToast(t, m))
	assert.Equal(t, "Hello", m.InputValue(), "draft is kept")
}

func TestModel_SendShowsIndicatorThenTypes(t *testing.T) {
	fb := &fakeBackend{reply: "That plan is $40."}
	m := startConversation(t, newTestModel(t, fb))

	m, cmd := typeAndSubmit(m, "  How much is it?  ")
	assert.Equal(t, "Waiting for reply", m.Pending())
	assert.Equal(t, "", m.InputValue())

	m, _ = update(m, await[replyMsg](t, cmd))
	assert.Equal(t, []string{"How much is it?"}, fb.sent)
	assert.True(t, m.Typing())

	reply := lastMessage(m)
	assert.True(t, reply.ShowIndicator(), "indicator shows before the first character")

	m, _ = update(m, indicatorDoneMsg{MessageID: reply.ID})
	typed := lastMessage(m)
	assert.Equal(t, "T", typed.Visible())
	assert.Equal(t, 1, m.sched.Armed())

	m = finishTyping(t, m)
	final := lastMessage(m)
	assert.False(t, final.Typing)
	assert.Equal(t, "That plan is $40.", final.Visible())
	assert.False(t, m.Typing())
}

func TestModel_NewMessageSkipsRunningReply(t *testing.T) {
	fb := &fakeBackend{reply: "A long answer."}
	m := startConversation(t, newTestModel(t, fb))

	m, cmd := typeAndSubmit(m, "First")
	m, _ = update(m, await[replyMsg](t, cmd))
	first := lastMessage(m)
	m, _ = update(m, indicatorDoneMsg{MessageID: first.ID})
	require.True(t, m.Typing())

	m, _ = typeAndSubmit(m, "Second")
	assert.False(t, m.Typing())
	for _, msg := range m.coach.Messages() {
		if msg.ID == first.ID {
			assert.False(t, msg.Typing)
			assert.Equal(t, "A long answer.", msg.Visible())
		}
	}
}

func TestModel_IndicatorForSupersededReplyIsIgnored(t *testing.T) {
	m := startConversation(t, newTestModel(t, &fakeBackend{reply: "Sure."}))

	m, cmd := typeAndSubmit(m, "First")
	m, _ = update(m, await[replyMsg](t, cmd))
	first := lastMessage(m)

	m, _ = typeAndSubmit(m, "Second")
	m, cmd = update(m, indicatorDoneMsg{MessageID: first.ID})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, m.sched.Armed())
}

func TestModel_SendFailureAppendsError(t *testing.T) {
	fb := &fakeBackend{sendErr: &backend.APIError{Op: "send", Message: "Failed to get response"}}
	m := startConversation(t, newTestModel(t, fb))

	m, cmd := typeAndSubmit(m, "Hello")
	m, _ = update(m, await[replyMsg](t, cmd))

	assert.Equal(t, "", m.Pending())
	assert.Equal(t, "Error: Failed to get response", lastMessage(m).Content)
	assert.False(t, m.Typing())
}

func TestModel_PendingBlocksSecondRequest(t *testing.T) {
	m := startConversation(t, newTestModel(t, &fakeBackend{reply: "ok"}))

	m, _ = typeAndSubmit(m, "Hello")
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.NotNil(t, cmd)
	assert.Equal(t, "Waiting for reply", m.Pending())
	assert.Equal(t, msgWaitForRequest, lastToast(t, m))
}

func TestModel_AnalyzeOpensFeedback(t *testing.T) {
	fb := &fakeBackend{
		reply: "Let me check.",
		feedback: &backend.Feedback{
			Strengths:  backend.StringList{"Clear opening"},
			Weaknesses: backend.StringList{"Rushed close"},
		},
	}
	m := startConversation(t, newTestModel(t, fb))
	m, cmd := typeAndSubmit(m, "Can you lower the price?")
	m, _ = update(m, await[replyMsg](t, cmd))

	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyCtrlA})
	assert.Equal(t, "Analyzing conversation", m.Pending())
	m, _ = update(m, await[feedbackMsg](t, cmd))

	require.True(t, m.feedback.Visible())
	view := m.View()
	assert.Contains(t, view, "Strengths")
	assert.Contains(t, view, "opening")

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.feedback.Visible())
}

func TestModel_AnalyzeTooEarly(t *testing.T) {
	m := startConversation(t, newTestModel(t, &fakeBackend{}))

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlA})
	m, _ = update(m, await[feedbackMsg](t, cmd))

	assert.False(t, m.feedback.Visible())
	assert.Equal(t, conversation.ErrNotEnoughMessages.Error(), lastToast(t, m))
}

func TestModel_ToggleTTS(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	require.False(t, m.coach.State().TTSEnabled)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.True(t, m.coach.State().TTSEnabled)
	assert.Equal(t, "Text-to-speech on", lastToast(t, m))

	m, _ = typeAndSubmit(m, "/tts off")
	assert.False(t, m.coach.State().TTSEnabled)
}

func TestModel_ScenarioCommand(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, _ = typeAndSubmit(m, "/scenario Objection Handling")
	_, scenario := m.coach.Selection()
	assert.Equal(t, "objection_handling", scenario)

	m = startConversation(t, m)
	m, cmd := typeAndSubmit(m, "/scenario upselling")
	m, _ = update(m, await[actionDoneMsg](t, cmd))
	assert.Equal(t, "upselling", m.coach.State().Scenario)
	assert.Equal(t, "[Scenario switched] Scenario: upselling.", lastMessage(m).Content)
}

func TestModel_UnknownCommand(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m, _ = typeAndSubmit(m, "/dance")
	assert.Equal(t, "Unknown command: /dance. Type /help for commands.", lastToast(t, m))
}

func TestModel_HelpCommand(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m, _ = typeAndSubmit(m, "/help")
	require.True(t, m.feedback.Visible())
	assert.Contains(t, m.View(), "Help")
}

func TestModel_TabCompletes(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m.input.SetValue("/ana")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "/analyze ", m.InputValue())
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "", m.View())
}

func TestModel_ConfigReloadAppliesTyping(t *testing.T) {
	m := startConversation(t, newTestModel(t, &fakeBackend{reply: "Right away."}))

	cfg := config.Default()
	cfg.Typing.Disabled = true
	cfg.Conversation.TTSEnabled = true
	m, _ = update(m, ConfigReloadedMsg{Config: cfg})
	assert.True(t, m.coach.State().TTSEnabled)

	m, cmd := typeAndSubmit(m, "Hi")
	m, _ = update(m, await[replyMsg](t, cmd))
	assert.False(t, lastMessage(m).Typing)
	assert.False(t, m.Typing())

	m, _ = update(m, ConfigReloadedMsg{Err: errors.New("bad toml")})
	assert.Equal(t, "Config reload failed: bad toml", lastToast(t, m))
}

// =============================================================================
// RECORDING
// =============================================================================

func newRecordingModel(t *testing.T, mic *fakeMic, text string) Model {
	t.Helper()
	p := audio.NewPipeline(mic, &fakeTranscriber{text: text})
	return newTestModel(t, &fakeBackend{reply: "Noted."}, WithRecorder(p))
}

func TestModel_RecordingKeyStopsAndFillsDraft(t *testing.T) {
	m := newRecordingModel(t, &fakeMic{}, "  I want a discount  ")
	m = startConversation(t, m)

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.True(t, m.Recording())
	m, waitCmd := update(m, await[recordingStartedMsg](t, cmd))
	require.NotNil(t, waitCmd)
	assert.Contains(t, m.View(), "Press any key or click to stop")

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Equal(t, "", m.InputValue(), "stop key is not typed")

	done := await[recordingDoneMsg](t, waitCmd)
	assert.Equal(t, audio.StopGesture, done.Result.Reason)
	m, _ = update(m, done)
	assert.False(t, m.Recording())
	assert.Equal(t, "I want a discount", m.InputValue())

	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msgs := m.coach.Messages()
	assert.True(t, msgs[len(msgs)-1].Spoken)
}

func TestModel_RecordingClickStops(t *testing.T) {
	m := newRecordingModel(t, &fakeMic{}, "Hello there")

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m, waitCmd := update(m, await[recordingStartedMsg](t, cmd))

	m, _ = update(m, tea.MouseMsg{Type: tea.MouseLeft})
	done := await[recordingDoneMsg](t, waitCmd)
	assert.Equal(t, audio.StopGesture, done.Result.Reason)

	m, _ = update(m, done)
	assert.Equal(t, "Hello there", m.InputValue())
}

func TestModel_RecordingEscStops(t *testing.T) {
	m := newRecordingModel(t, &fakeMic{}, "Hello")

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m, waitCmd := update(m, await[recordingStartedMsg](t, cmd))

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	done := await[recordingDoneMsg](t, waitCmd)
	assert.Equal(t, audio.StopExplicit, done.Result.Reason)
}

func TestModel_RecordingPermissionDenied(t *testing.T) {
	m := newRecordingModel(t, &fakeMic{err: audio.ErrPermissionDenied}, "")

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m, _ = update(m, await[recordingStartedMsg](t, cmd))

	assert.False(t, m.Recording())
	assert.Equal(t, "Speech recognition error: microphone access denied", lastMessage(m).Content)
}

func TestModel_RecordingUnavailable(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.False(t, m.Recording())
	assert.True(t, strings.HasPrefix(lastToast(t, m), "Voice input is not available"))
}
