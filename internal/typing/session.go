// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typing

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
	"go.uber.org/zap"
)

// Target is the display surface a session writes into.
type Target interface {
	SetText(text string)
}

// TargetFunc adapts a function to Target.
type TargetFunc func(text string)

// SetText calls f.
func (f TargetFunc) SetText(text string) { f(text) }

// State is the lifecycle state of a Session.
type State int

const (
	// StateRevealing means steps are still being scheduled.
	StateRevealing State = iota
	// StateCompleted means the full text was shown and onComplete ran.
	StateCompleted
	// StateCancelled means the session was stopped before completion.
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRevealing:
		return "revealing"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine starts typing sessions with shared pacing.
type Engine struct {
	mu     sync.RWMutex
	cfg    Config
	sched  Scheduler
	rand   func() float64
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler sets the scheduler used for step timers.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithRand sets the uniform [0,1) source for delay jitter.
func WithRand(f func() float64) Option {
	return func(e *Engine) { e.rand = f }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine. Unset options default to wall-clock timers,
// math/rand jitter and a no-op logger.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg.withDefaults(),
		sched:  RealScheduler{},
		rand:   rand.Float64,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the current pacing.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// SetConfig changes pacing for steps computed from now on, including
// those of sessions already running.
func (e *Engine) SetConfig(cfg Config) {
	e.mu.Lock()
	e.cfg = cfg.withDefaults()
	e.mu.Unlock()
}

func (e *Engine) nextDelay(ch string) time.Duration {
	e.mu.RLock()
	cfg := e.cfg
	e.mu.RUnlock()
	return cfg.Delay(ch, e.rand())
}

// Animate clears target and reveals fullText into it. The first character
// is shown before Animate returns. onComplete may be nil; otherwise it runs
// exactly once, from the step scheduled after the last character, and
// never after Cancel. Empty text completes immediately.
func (e *Engine) Animate(target Target, fullText string, onComplete func()) *Session {
	s := &Session{
		id:         uuid.NewString(),
		engine:     e,
		target:     target,
		text:       fullText,
		ends:       clusterEnds(fullText),
		onComplete: onComplete,
		done:       make(chan struct{}),
	}

	e.logger.Debug("typing started",
		zap.String("session", s.id),
		zap.Int("chars", len(s.ends)))

	target.SetText("")
	s.step()
	return s
}

// clusterEnds returns the byte offset just past each grapheme cluster.
func clusterEnds(text string) []int {
	ends := make([]int, 0, len(text))
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		_, to := g.Positions()
		ends = append(ends, to)
	}
	return ends
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one running reveal. It owns its pending timer exclusively.
type Session struct {
	// writeMu serializes target writes; it is taken before mu.
	writeMu    sync.Mutex
	mu         sync.Mutex
	id         string
	engine     *Engine
	target     Target
	text       string
	ends       []int
	cursor     int
	timer      Timer
	state      State
	onComplete func()
	done       chan struct{}

	// writing is set while step is inside target.SetText; a Skip made
	// then leaves the full write to the end of that step.
	writing     bool
	skipPending bool
}

// step reveals one character and schedules the next step, or completes the
// session when the cursor is already at the end.
func (s *Session) step() {
	s.writeMu.Lock()
	s.mu.Lock()
	if s.state != StateRevealing {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return
	}
	s.timer = nil

	if s.cursor >= len(s.ends) {
		s.state = StateCompleted
		cb := s.onComplete
		s.mu.Unlock()
		s.writeMu.Unlock()

		close(s.done)
		s.engine.logger.Debug("typing completed", zap.String("session", s.id))
		if cb != nil {
			cb()
		}
		return
	}

	start := 0
	if s.cursor > 0 {
		start = s.ends[s.cursor-1]
	}
	end := s.ends[s.cursor]
	ch := s.text[start:end]
	s.cursor++
	prefix := s.text[:end]
	s.writing = true
	s.mu.Unlock()

	s.target.SetText(prefix)
	delay := s.engine.nextDelay(ch)

	s.mu.Lock()
	s.writing = false
	if s.skipPending {
		s.skipPending = false
		s.mu.Unlock()
		s.showAll()
		return
	}
	if s.state == StateRevealing {
		s.timer = s.engine.sched.AfterFunc(delay, s.step)
	}
	s.mu.Unlock()
	s.writeMu.Unlock()
}

// Cancel stops the animation where it is. The target keeps the partial
// text and onComplete is not called. It reports whether the session was
// still running.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	if s.state != StateRevealing {
		s.mu.Unlock()
		return false
	}
	s.state = StateCancelled
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	close(s.done)
	s.engine.logger.Debug("typing cancelled", zap.String("session", s.id))
	return true
}

// Skip shows the remaining text at once and completes the session,
// running onComplete. It reports whether the session was still running.
// Called from inside the target's SetText, the full text is written once
// that call returns.
func (s *Session) Skip() bool {
	s.mu.Lock()
	if s.state != StateRevealing {
		s.mu.Unlock()
		return false
	}
	if s.writing {
		s.complete()
		s.skipPending = true
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	s.writeMu.Lock()
	s.mu.Lock()
	if s.state != StateRevealing {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return false
	}
	s.complete()
	s.mu.Unlock()
	s.showAll()
	return true
}

// complete marks the session finished and disarms its timer. Callers hold mu.
func (s *Session) complete() {
	s.state = StateCompleted
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.cursor = len(s.ends)
}

// showAll writes the full text, releases writeMu and runs onComplete.
func (s *Session) showAll() {
	s.target.SetText(s.text)
	s.writeMu.Unlock()
	close(s.done)
	s.engine.logger.Debug("typing skipped", zap.String("session", s.id))
	if s.onComplete != nil {
		s.onComplete()
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Text returns the full text being revealed.
func (s *Session) Text() string { return s.text }

// Len returns the number of characters in the full text.
func (s *Session) Len() int { return len(s.ends) }

// Cursor returns how many characters have been revealed.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Revealed returns the currently displayed prefix.
func (s *Session) Revealed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == 0 {
		return ""
	}
	return s.text[:s.ends[s.cursor-1]]
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed when the session completes or is cancelled.
func (s *Session) Done() <-chan struct{} { return s.done }
