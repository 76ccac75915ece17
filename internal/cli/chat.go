// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line chat for salescoach.
//
// Command: chat
// Short:   Practice a sales conversation without the full-screen UI
//
// Examples:
//   salescoach chat
//   salescoach chat --role customer --scenario negotiation
//   salescoach chat --tts
//
// Interactive Commands (during chat):
//   /start [role] [scenario]  Start the conversation
//   /role, /scenario          Change the selection
//   /switch                   Switch roles with the AI
//   /analyze                  Coaching feedback
//   /reset                    Clear the conversation
//   /record                   Dictate a message, Enter stops
//   /tts [on|off]             Read replies aloud
//   /history                  Show the transcript
//   /help, /quit
//   Ctrl+C                    Skip typing or cancel a request
//   Ctrl+D                    Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/salescoach-tui/internal/audio"
	"github.com/jeranaias/salescoach-tui/internal/config"
	"github.com/jeranaias/salescoach-tui/internal/conversation"
	"github.com/jeranaias/salescoach-tui/internal/logging"
	"github.com/jeranaias/salescoach-tui/internal/model"
	"github.com/jeranaias/salescoach-tui/internal/typing"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of input.
type LineReader interface {
	Prompt(prompt string) (string, error)
	PromptWithSuggestion(prompt, text string, pos int) (string, error)
}

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads a line and records non-empty input in the history.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// PromptWithSuggestion is Prompt with text already in the editor.
func (c *ChatCLI) PromptWithSuggestion(prompt, text string, pos int) (string, error) {
	input, err := c.line.PromptWithSuggestion(prompt, text, pos)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history to file with secure permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// LINE CHAT
// =============================================================================

// Recorder starts voice capture sessions.
type Recorder interface {
	Start(ctx context.Context) (*audio.Session, error)
	MaxDuration() time.Duration
}

// LineChat runs a training conversation on a plain terminal. Replies are
// typed out on the current line.
type LineChat struct {
	coach    *conversation.Coach
	reader   LineReader
	out      io.Writer
	engine   *typing.Engine
	recorder Recorder
	logger   *zap.Logger

	indicatorDelay time.Duration
	typingDisabled bool
	autoStart      bool
	quiet          bool
	tty            bool
	width          int

	// interrupt delivers Ctrl+C while no prompt is active.
	interrupt <-chan os.Signal

	// seen holds the IDs of messages already printed.
	seen map[string]bool
}

// ChatOption configures a LineChat.
type ChatOption func(*LineChat)

// WithRecorder enables /record.
func WithRecorder(r Recorder) ChatOption {
	return func(c *LineChat) { c.recorder = r }
}

// WithEngine replaces the typing engine.
func WithEngine(e *typing.Engine) ChatOption {
	return func(c *LineChat) { c.engine = e }
}

// WithInterrupt sets the channel that skips typing and cancels requests.
func WithInterrupt(ch <-chan os.Signal) ChatOption {
	return func(c *LineChat) { c.interrupt = ch }
}

// WithTerminal sets the output width. An interactive terminal also
// enables the typing indicator and Markdown rendering.
func WithTerminal(t Terminal) ChatOption {
	return func(c *LineChat) {
		c.tty = t.Interactive
		c.width = chatWidth(t.Width)
	}
}

// WithQuiet hides the welcome banner and guidance.
func WithQuiet(quiet bool) ChatOption {
	return func(c *LineChat) { c.quiet = quiet }
}

// NewLineChat creates a line chat driving coach.
func NewLineChat(coach *conversation.Coach, reader LineReader, out io.Writer, cfg *config.Config, opts ...ChatOption) *LineChat {
	c := &LineChat{
		coach:          coach,
		reader:         reader,
		out:            out,
		logger:         logging.Named(logging.CategoryUI),
		indicatorDelay: cfg.Typing.IndicatorDelay(),
		typingDisabled: cfg.Typing.Disabled,
		autoStart:      cfg.Conversation.AutoStart,
		width:          defaultChatWidth,
		seen:           make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = typing.NewEngine(cfg.Typing.Engine(),
			typing.WithScheduler(typing.RealScheduler{}),
			typing.WithLogger(logging.Named(logging.CategoryTyping)))
	}
	if !coach.State().Started {
		coach.Select(cfg.Conversation.DefaultRole, cfg.Conversation.DefaultScenario)
	}
	return c
}

// HandleChatCommand handles the "chat" command with full interactive support.
func HandleChatCommand(args Args) error {
	app, err := Bootstrap(args)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.LoadWarning != nil && !args.Quiet {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: "+app.LoadWarning.Error()))
	}

	input := NewChatCLI()
	defer input.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)

	chat := NewLineChat(app.Coach, input, os.Stdout, app.Config,
		WithRecorder(app.Pipeline),
		WithInterrupt(sigChan),
		WithTerminal(DetectTerminal(os.Stdout)),
		WithQuiet(args.Quiet),
	)
	return chat.Run(context.Background())
}

// Run reads and handles lines until /quit, Ctrl+C at the prompt, or EOF.
func (c *LineChat) Run(ctx context.Context) error {
	if !c.quiet {
		c.printWelcome()
	}
	if c.autoStart {
		c.report(c.start(ctx, nil))
	}

	for {
		input, err := c.reader.Prompt(promptStyle.Render("you> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out)
				return nil
			}
			return err
		}

		quit, err := c.HandleLine(ctx, input)
		c.report(err)
		if quit {
			return nil
		}
	}
}

// HandleLine handles one line of input. It reports whether the chat should
// end.
func (c *LineChat) HandleLine(ctx context.Context, input string) (bool, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return false, nil
	}

	if strings.HasPrefix(input, "/") {
		return c.handleSlashCommand(ctx, input)
	}
	if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
		return true, nil
	}
	return false, c.send(ctx, input, false)
}

// report prints err, if any, after any new transcript lines.
func (c *LineChat) report(err error) {
	c.printNew()
	if err != nil {
		fmt.Fprintf(c.out, "%s %s\n", ErrorStyle.Render("[Error]"), chatNotice(err))
	}
}

// =============================================================================
// MESSAGES
// =============================================================================

// send submits text as the user's turn and types out the reply.
func (c *LineChat) send(ctx context.Context, text string, spoken bool) error {
	submit := c.coach.Submit
	if spoken {
		submit = c.coach.SubmitSpoken
	}
	msg, err := submit(text)
	if err != nil || msg == nil {
		return err
	}
	c.seen[msg.ID] = true

	opCtx, done := c.interruptible(ctx)
	stopIndicator := c.showIndicator()
	reply, err := c.coach.Reply(opCtx, msg.Content)
	done()
	stopIndicator()
	if err != nil {
		// The coach has added the error to the transcript.
		return nil
	}

	c.seen[reply.ID] = true
	c.typeReply(ctx, reply)
	return nil
}

// typeReply waits out the indicator delay and reveals the reply on the
// current line. Ctrl+C shows the rest at once.
func (c *LineChat) typeReply(ctx context.Context, reply *model.Message) {
	label := assistantLabelStyle.Render(c.assistantName() + ":")
	id := reply.ID

	if !c.typingDisabled && c.indicatorDelay > 0 && c.tty {
		stop := c.showIndicator()
		c.wait(ctx, c.indicatorDelay)
		stop()
	}

	fmt.Fprint(c.out, label+" ")
	if c.typingDisabled {
		fmt.Fprintln(c.out, reply.Content)
		c.coach.FinishTyping(id)
		return
	}

	written := 0
	target := typing.TargetFunc(func(prefix string) {
		if len(prefix) < written {
			written = 0
		}
		fmt.Fprint(c.out, prefix[written:])
		written = len(prefix)
		c.coach.Reveal(id, prefix)
	})
	sess := c.engine.Animate(target, reply.Content, func() {
		c.coach.FinishTyping(id)
	})

	select {
	case <-sess.Done():
	case <-c.interrupt:
		sess.Skip()
	case <-ctx.Done():
		sess.Skip()
	}
	<-sess.Done()
	fmt.Fprintln(c.out)
}

// printNew prints transcript messages not shown yet. User turns are
// already on screen as typed.
func (c *LineChat) printNew() {
	for _, msg := range c.coach.Messages() {
		if c.seen[msg.ID] {
			continue
		}
		c.seen[msg.ID] = true

		switch msg.Role {
		case model.RoleSystem:
			fmt.Fprintln(c.out, noticeStyle.Render(msg.Content))
		case model.RoleAssistant:
			fmt.Fprintf(c.out, "%s %s\n", assistantLabelStyle.Render(c.assistantName()+":"), msg.Content)
		}
	}
}

func (c *LineChat) assistantName() string {
	role := c.coach.State().AssistantRole
	if role == "" {
		return "AI"
	}
	return cases.Title(language.English).String(role)
}

// printGuidance prints the banner and role guidance after a role change.
func (c *LineChat) printGuidance() {
	if c.quiet {
		return
	}
	st := c.coach.State()
	fmt.Fprintln(c.out, TitleStyle.Render(st.Banner()))
	if st.Guidance != "" {
		fmt.Fprintln(c.out, DimStyle.Render(st.Guidance))
	}
}

// =============================================================================
// WAITING
// =============================================================================

// interruptible returns a context cancelled by Ctrl+C. done must be called
// when the operation ends.
func (c *LineChat) interruptible(ctx context.Context) (context.Context, func()) {
	opCtx, cancel := context.WithCancel(ctx)
	finished := make(chan struct{})
	go func() {
		select {
		case <-c.interrupt:
			cancel()
		case <-finished:
		}
	}()
	return opCtx, func() {
		close(finished)
		cancel()
	}
}

// wait sleeps for d unless interrupted.
func (c *LineChat) wait(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-c.interrupt:
	case <-ctx.Done():
	}
}

// showIndicator prints "..." while the assistant is busy and returns a
// function that erases it. It does nothing on a plain output stream.
func (c *LineChat) showIndicator() func() {
	if !c.tty {
		return func() {}
	}
	fmt.Fprint(c.out, DimStyle.Render("..."))
	return func() { fmt.Fprint(c.out, "\r\x1b[K") }
}

// =============================================================================
// RECORDING
// =============================================================================

// record captures one utterance. Enter stops the capture; the recognized
// text is then offered for editing and sent on Enter.
func (c *LineChat) record(ctx context.Context) error {
	if c.recorder == nil {
		return errVoiceUnavailable
	}

	sess, err := c.recorder.Start(ctx)
	if err != nil {
		if errors.Is(err, audio.ErrRecordingInProgress) {
			return err
		}
		c.coach.Dictated("", err)
		return nil
	}

	fmt.Fprintln(c.out, recordingStyle.Render(fmt.Sprintf("● Recording... press Enter to stop (max %s)", c.recorder.MaxDuration())))
	_, promptErr := c.reader.Prompt("")
	sess.StopGesture()

	fmt.Fprintln(c.out, DimStyle.Render("Transcribing..."))
	res := sess.Wait()
	if res.Reason == audio.StopTimeout {
		fmt.Fprintln(c.out, DimStyle.Render("Recording stopped at the time limit."))
	}
	if promptErr != nil {
		return nil
	}

	text := c.coach.Dictated(res.Text, res.Err)
	if text == "" {
		return nil
	}
	c.printNew()

	edited, err := c.reader.PromptWithSuggestion(promptStyle.Render("you> "), text, -1)
	if err != nil {
		return nil
	}
	edited = strings.TrimSpace(edited)
	if edited == "" {
		return nil
	}
	if strings.HasPrefix(edited, "/") {
		_, err := c.handleSlashCommand(ctx, edited)
		return err
	}
	return c.send(ctx, edited, edited == text)
}

// =============================================================================
// DISPLAY
// =============================================================================

func (c *LineChat) printWelcome() {
	fmt.Fprintln(c.out, welcomeStyle.Render("salescoach "+Version))
	fmt.Fprintln(c.out, DimStyle.Render("Type /start to begin, /help for commands, Ctrl+D to exit."))
	role, scenario := c.coach.Selection()
	if role != "" && scenario != "" {
		fmt.Fprintf(c.out, "%s %s, %s\n", DimStyle.Render("Selected:"), role, conversation.ScenarioWords(scenario))
	}
	fmt.Fprintln(c.out, rule(min(c.width, 60)))
}

// renderMarkdown renders with glamour on a terminal and returns the raw
// Markdown otherwise.
func (c *LineChat) renderMarkdown(md string) string {
	if !c.tty {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(c.width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		c.logger.Debug("markdown render failed", zap.Error(err))
		return md
	}
	return strings.TrimRight(out, "\n")
}

