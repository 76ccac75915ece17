// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/salescoach-tui/internal/typing"
)

// tickScheduler is a typing.Scheduler driven by the Bubble Tea event loop.
// AfterFunc queues a tea.Tick; when its typingTickMsg comes back through
// Update, Fire runs the callback there. Callbacks therefore never race with
// rendering.
type tickScheduler struct {
	mu      sync.Mutex
	next    uint64
	timers  map[uint64]func()
	pending []tea.Cmd
}

func newTickScheduler() *tickScheduler {
	return &tickScheduler{timers: make(map[uint64]func())}
}

type tickTimer struct {
	sched *tickScheduler
	id    uint64
}

// AfterFunc implements typing.Scheduler.
func (s *tickScheduler) AfterFunc(d time.Duration, f func()) typing.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	id := s.next
	s.timers[id] = f
	s.pending = append(s.pending, tea.Tick(d, func(time.Time) tea.Msg {
		return typingTickMsg{ID: id}
	}))
	return &tickTimer{sched: s, id: id}
}

// Stop implements typing.Timer. The tick still arrives but is ignored.
func (t *tickTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	if _, ok := t.sched.timers[t.id]; !ok {
		return false
	}
	delete(t.sched.timers, t.id)
	return true
}

// Fire runs the callback for id unless it was stopped or already ran.
func (s *tickScheduler) Fire(id uint64) bool {
	s.mu.Lock()
	f, ok := s.timers[id]
	delete(s.timers, id)
	s.mu.Unlock()

	if ok {
		f()
	}
	return ok
}

// Drain returns the ticks queued since the last call.
func (s *tickScheduler) Drain() tea.Cmd {
	s.mu.Lock()
	cmds := s.pending
	s.pending = nil
	s.mu.Unlock()

	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	default:
		return tea.Batch(cmds...)
	}
}

// Armed returns the number of timers waiting to fire.
func (s *tickScheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
