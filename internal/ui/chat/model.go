// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/salescoach-tui/internal/audio"
	"github.com/jeranaias/salescoach-tui/internal/config"
	"github.com/jeranaias/salescoach-tui/internal/conversation"
	"github.com/jeranaias/salescoach-tui/internal/logging"
	"github.com/jeranaias/salescoach-tui/internal/typing"
	"github.com/jeranaias/salescoach-tui/internal/ui/components"
	"github.com/jeranaias/salescoach-tui/internal/ui/styles"
)

// frameInterval paces the indicator, spinner and recording clock.
const frameInterval = 100 * time.Millisecond

// Recorder captures one voice recording at a time. *audio.Pipeline
// implements it.
type Recorder interface {
	Start(ctx context.Context) (*audio.Session, error)
	MaxDuration() time.Duration
}

// =============================================================================
// MUTABLE STATE
// =============================================================================
// Model is passed by value through Update, so anything shared with typing
// callbacks or tea.Cmds lives behind pointers.

// typingState tracks reveal animations by message ID.
type typingState struct {
	sessions map[string]*typing.Session
	// waiting holds replies still showing the typing indicator.
	waiting map[string]bool
}

func newTypingState() *typingState {
	return &typingState{
		sessions: make(map[string]*typing.Session),
		waiting:  make(map[string]bool),
	}
}

// recordingState is the voice input in progress.
type recordingState struct {
	requesting bool
	session    *audio.Session
}

func (r *recordingState) active() bool {
	return r.requesting || r.session != nil
}

// clockState tracks the self-rescheduling tick loops.
type clockState struct {
	frames bool
	toasts bool
	epoch  time.Time
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the training chat.
type Model struct {
	coach    *conversation.Coach
	recorder Recorder
	engine   *typing.Engine
	sched    *tickScheduler
	theme    *styles.Theme
	keys     KeyMap
	logger   *zap.Logger

	indicatorDelay time.Duration
	typingDisabled bool
	showTimestamps bool
	autoStart      bool

	// Components
	viewport viewport.Model
	input    textinput.Model
	header   *components.Header
	status   *components.StatusBar
	overlay  *components.RecordingOverlay
	feedback *components.FeedbackModal
	toasts   *components.ToastManager

	typing *typingState
	rec    *recordingState
	clock  *clockState

	ctx    context.Context
	cancel context.CancelFunc

	// pending names the backend call in flight; one at a time.
	pending string
	// spokenDraft is the transcription placed in the input.
	spokenDraft string

	width    int
	height   int
	ready    bool
	quitting bool
}

// Option configures a Model.
type Option func(*Model)

// WithRecorder enables voice input.
func WithRecorder(r Recorder) Option {
	return func(m *Model) { m.recorder = r }
}

// WithTheme sets the theme.
func WithTheme(t *styles.Theme) Option {
	return func(m *Model) {
		if t != nil {
			m.theme = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTypingRand replaces the random source of the typing engine.
func WithTypingRand(f func() float64) Option {
	return func(m *Model) {
		m.engine = typing.NewEngine(m.engine.Config(),
			typing.WithScheduler(m.sched),
			typing.WithRand(f),
			typing.WithLogger(logging.Named(logging.CategoryTyping)))
	}
}

// New creates the chat model around coach. cfg supplies typing, theme and
// startup settings; nil means defaults.
func New(coach *conversation.Coach, cfg *config.Config, opts ...Option) Model {
	if cfg == nil {
		cfg = config.Default()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message or /help..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sched := newTickScheduler()
	theme := styles.NewTheme(cfg.UI.Theme)
	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		coach:  coach,
		engine: typing.NewEngine(cfg.Typing.Engine(), typing.WithScheduler(sched), typing.WithLogger(logging.Named(logging.CategoryTyping))),
		sched:  sched,
		theme:  theme,
		keys:   DefaultKeyMap(),
		logger: logging.Named(logging.CategoryUI),

		indicatorDelay: cfg.Typing.IndicatorDelay(),
		typingDisabled: cfg.Typing.Disabled,
		showTimestamps: cfg.UI.ShowTimestamps,
		autoStart:      cfg.Conversation.AutoStart,

		viewport: vp,
		input:    ti,
		toasts:   components.NewToastManager(),

		typing: newTypingState(),
		rec:    &recordingState{},
		clock:  &clockState{epoch: time.Now()},

		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.input.PromptStyle = m.theme.InputPrompt
	m.input.PlaceholderStyle = m.theme.InputPlaceholder

	m.header = components.NewHeader(m.theme)
	m.header.GuidanceLines = 3
	m.status = components.NewStatusBar(m.theme)
	m.status.Shortcuts = shortcutsFromKeys(m.keys)
	m.overlay = components.NewRecordingOverlay(m.theme)
	if m.recorder != nil {
		m.overlay.Limit = m.recorder.MaxDuration()
	}
	m.feedback = components.NewFeedbackModal(m.theme)

	if coach != nil && !coach.State().Started {
		coach.Select(cfg.Conversation.DefaultRole, cfg.Conversation.DefaultScenario)
	}
	return m
}

func shortcutsFromKeys(k KeyMap) []components.Shortcut {
	bindings := k.ShortHelp()
	out := make([]components.Shortcut, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, components.Shortcut{Key: h.Key, Desc: h.Desc})
	}
	return out
}

// Init starts the cursor blink and, when configured, the conversation.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.autoStart {
		cmds = append(cmds, func() tea.Msg { return autoStartMsg{} })
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case autoStartMsg:
		return m.beginAction("Starting conversation", m.startCmd())

	case actionDoneMsg:
		return m.handleActionDone(msg)

	case replyMsg:
		return m.handleReply(msg)

	case feedbackMsg:
		return m.handleFeedback(msg)

	case indicatorDoneMsg:
		return m.handleIndicatorDone(msg)

	case typingTickMsg:
		m.sched.Fire(msg.ID)
		m.refresh()
		return m, m.sched.Drain()

	case recordingStartedMsg:
		return m.handleRecordingStarted(msg)

	case recordingDoneMsg:
		return m.handleRecordingDone(msg)

	case frameTickMsg:
		return m.handleFrameTick()

	case components.ToastTickMsg:
		if m.toasts.Tick() {
			return m, components.ToastTickCmd()
		}
		m.clock.toasts = false
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)
	}

	return m, nil
}

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderChat()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Coach returns the conversation coach.
func (m Model) Coach() *conversation.Coach {
	return m.coach
}

// Pending returns the label of the backend call in flight, or "".
func (m Model) Pending() string {
	return m.pending
}

// Recording reports whether voice input is active.
func (m Model) Recording() bool {
	return m.rec.active()
}

// InputValue returns the current input draft.
func (m Model) InputValue() string {
	return m.input.Value()
}

// Typing reports whether any reply is still being revealed.
func (m Model) Typing() bool {
	return len(m.typing.sessions) > 0 || len(m.typing.waiting) > 0
}

// Shutdown stops animations and recording and cancels in-flight calls.
func (m Model) Shutdown() {
	m.cancelTyping()
	if m.rec.session != nil {
		m.rec.session.Stop()
	}
	m.cancel()
}
