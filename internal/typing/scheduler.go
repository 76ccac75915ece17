// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typing

import (
	"sync"
	"time"
)

// Timer is a pending scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the
	// call stopped the timer, false if it already fired or was stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// =============================================================================
// REAL SCHEDULER
// =============================================================================

// RealScheduler schedules callbacks on wall-clock timers.
type RealScheduler struct{}

// AfterFunc implements Scheduler using time.AfterFunc.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// =============================================================================
// VIRTUAL SCHEDULER
// =============================================================================

// VirtualScheduler is a manually advanced timer queue. Callbacks run on the
// goroutine that calls Advance or RunNext, in due-time order and FIFO for
// equal due times.
type VirtualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   uint64
	queue []*virtualTimer
}

type virtualTimer struct {
	sched *VirtualScheduler
	at    time.Duration
	seq   uint64
	f     func()
	done  bool
}

// NewVirtualScheduler creates an empty queue at virtual time zero.
func NewVirtualScheduler() *VirtualScheduler {
	return &VirtualScheduler{}
}

// AfterFunc queues f to run once virtual time reaches now+d.
func (s *VirtualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &virtualTimer{sched: s, at: s.now + d, seq: s.seq, f: f}
	s.queue = append(s.queue, t)
	return t
}

// Stop removes the timer from the queue.
func (t *virtualTimer) Stop() bool {
	s := t.sched
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	s.remove(t)
	return true
}

// Now returns the current virtual time.
func (s *VirtualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of queued callbacks.
func (s *VirtualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// NextDelay returns how far the next callback is from now.
func (s *VirtualScheduler) NextDelay() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.earliest()
	if t == nil {
		return 0, false
	}
	return t.at - s.now, true
}

// RunNext advances to the earliest queued callback and runs it.
// It returns false when the queue is empty.
func (s *VirtualScheduler) RunNext() bool {
	s.mu.Lock()
	t := s.earliest()
	if t == nil {
		s.mu.Unlock()
		return false
	}
	s.pop(t)
	s.mu.Unlock()

	t.f()
	return true
}

// Advance moves virtual time forward by d, running every callback that
// becomes due, including callbacks scheduled by those callbacks.
func (s *VirtualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	deadline := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		t := s.earliest()
		if t == nil || t.at > deadline {
			s.now = deadline
			s.mu.Unlock()
			return
		}
		s.pop(t)
		s.mu.Unlock()

		t.f()
	}
}

// RunAll drains the queue and returns the number of callbacks run.
// It stops after limit callbacks when limit is positive.
func (s *VirtualScheduler) RunAll(limit int) int {
	n := 0
	for (limit <= 0 || n < limit) && s.RunNext() {
		n++
	}
	return n
}

// earliest must be called with mu held.
func (s *VirtualScheduler) earliest() *virtualTimer {
	var best *virtualTimer
	for _, t := range s.queue {
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

// pop marks t fired and advances the clock to it. mu must be held.
func (s *VirtualScheduler) pop(t *virtualTimer) {
	t.done = true
	if t.at > s.now {
		s.now = t.at
	}
	s.remove(t)
}

func (s *VirtualScheduler) remove(t *virtualTimer) {
	for i, q := range s.queue {
		if q == t {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}
