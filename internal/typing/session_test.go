// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Target that keeps every write.
type recorder struct {
	writes []string
}

func (r *recorder) SetText(text string) { r.writes = append(r.writes, text) }

func (r *recorder) last() string {
	if len(r.writes) == 0 {
		return ""
	}
	return r.writes[len(r.writes)-1]
}

func fixedRand(v float64) func() float64 {
	return func() float64 { return v }
}

func newTestEngine(cfg Config) (*Engine, *VirtualScheduler) {
	sched := NewVirtualScheduler()
	return NewEngine(cfg, WithScheduler(sched), WithRand(fixedRand(0.5))), sched
}

// =============================================================================
// DELAY TESTS
// =============================================================================

func TestConfig_Delay(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ch   string
		draw float64
		want time.Duration
	}{
		{"default letter no jitter", DefaultConfig(), "a", 0.5, 100 * time.Millisecond},
		{"default period no jitter", DefaultConfig(), ".", 0.5, 200 * time.Millisecond},
		{"lowest jitter", DefaultConfig(), "a", 0, 50 * time.Millisecond},
		{"upper jitter", DefaultConfig(), "a", 0.75, 125 * time.Millisecond},
		{"comma", DefaultConfig(), ",", 0.5, 200 * time.Millisecond},
		{"question mark", DefaultConfig(), "?", 0.5, 200 * time.Millisecond},
		{"colon", DefaultConfig(), ":", 0.5, 200 * time.Millisecond},
		{"hyphen is not punctuation", DefaultConfig(), "-", 0.5, 100 * time.Millisecond},
		{"negative clamps to zero", Config{CharsPerSecond: 100, SpeedVarianceLevel: 5, PunctuationPauseMultiplier: 2}, "a", 0, 0},
		{"zero variance", Config{CharsPerSecond: 20, PunctuationPauseMultiplier: 3}, "!", 0.9, 150 * time.Millisecond},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.Delay(tc.ch, tc.draw))
		})
	}
}

func TestConfig_PunctuationNeverFaster(t *testing.T) {
	configs := []Config{
		DefaultConfig(),
		{CharsPerSecond: 1, SpeedVarianceLevel: 0, PunctuationPauseMultiplier: 1.5},
		{CharsPerSecond: 50, SpeedVarianceLevel: 10, PunctuationPauseMultiplier: 4},
		{CharsPerSecond: 200, SpeedVarianceLevel: 20, PunctuationPauseMultiplier: 1.01},
	}

	for _, cfg := range configs {
		for draw := 0.0; draw < 1; draw += 0.05 {
			for _, p := range []string{".", ",", "!", "?", ";", ":"} {
				plain := cfg.Delay("x", draw)
				punct := cfg.Delay(p, draw)
				if punct < plain {
					t.Errorf("cfg=%+v draw=%.2f: Delay(%q)=%v < Delay(x)=%v", cfg, draw, p, punct, plain)
				}
			}
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{CharsPerSecond: 0}.Validate())
	assert.Error(t, Config{CharsPerSecond: 10, SpeedVarianceLevel: -1}.Validate())
	assert.Error(t, Config{CharsPerSecond: 10, PunctuationPauseMultiplier: -2}.Validate())
}

// =============================================================================
// ANIMATION TESTS
// =============================================================================

func TestAnimate_RevealsExactPrefixes(t *testing.T) {
	engine, sched := newTestEngine(DefaultConfig())
	target := &recorder{}
	text := "Hello, world! How are you?"

	completions := 0
	engine.Animate(target, text, func() { completions++ })
	sched.RunAll(0)

	require.Equal(t, 1, completions)
	require.NotEmpty(t, target.writes)
	assert.Equal(t, "", target.writes[0], "target should be cleared first")
	assert.Equal(t, text, target.last())

	// Every write after the clear is the next prefix.
	for i, w := range target.writes[1:] {
		assert.Equal(t, text[:i+1], w)
	}

	full := 0
	for _, w := range target.writes {
		if w == text {
			full++
		}
	}
	assert.Equal(t, 1, full, "full text should be written exactly once")
}

func TestAnimate_CompletionAfterLastCharacter(t *testing.T) {
	engine, sched := newTestEngine(DefaultConfig())
	target := &recorder{}

	var sess *Session
	var seenAtCompletion string
	var cursorAtCompletion int
	sess = engine.Animate(target, "ab.", func() {
		seenAtCompletion = target.last()
		cursorAtCompletion = sess.Cursor()
	})

	// First character is shown synchronously.
	assert.Equal(t, "a", target.last())
	assert.Equal(t, StateRevealing, sess.State())

	sched.Advance(99 * time.Millisecond)
	assert.Equal(t, "a", target.last())

	sched.Advance(1 * time.Millisecond)
	assert.Equal(t, "ab", target.last())

	sched.Advance(100 * time.Millisecond)
	assert.Equal(t, "ab.", target.last())
	assert.Equal(t, StateRevealing, sess.State(), "completion waits for the step after the last character")

	// The period pause is doubled.
	sched.Advance(199 * time.Millisecond)
	assert.Equal(t, StateRevealing, sess.State())

	sched.Advance(1 * time.Millisecond)
	assert.Equal(t, StateCompleted, sess.State())
	assert.Equal(t, "ab.", seenAtCompletion)
	assert.Equal(t, 3, cursorAtCompletion)
	assert.Equal(t, 0, sched.Pending())

	select {
	case <-sess.Done():
	default:
		t.Fatal("Done() should be closed after completion")
	}
}

func TestAnimate_SinglePendingTimer(t *testing.T) {
	engine, sched := newTestEngine(DefaultConfig())
	engine.Animate(&recorder{}, "some longer sentence", nil)

	for sched.Pending() > 0 {
		assert.Equal(t, 1, sched.Pending())
		sched.RunNext()
	}
}

func TestAnimate_EmptyTextCompletesImmediately(t *testing.T) {
	engine, sched := newTestEngine(DefaultConfig())
	target := &recorder{}
	called := 0

	sess := engine.Animate(target, "", func() { called++ })

	assert.Equal(t, 1, called)
	assert.Equal(t, []string{""}, target.writes)
	assert.Equal(t, StateCompleted, sess.State())
	assert.Equal(t, 0, sched.Pending())
}

func TestAnimate_NilCallback(t *testing.T) {
	engine, sched := newTestEngine(DefaultConfig())
	target := &recorder{}
	sess := engine.Animate(target, "ok", nil)
	sched.RunAll(0)
	assert.Equal(t, StateCompleted, sess.State())
	assert.Equal(t, "ok", target.last())
}

func TestAnimate_GraphemeClusters(t *testing.T) {
	engine, sched := newTestEngine(DefaultConfig())
	target := &recorder{}
	text := "Hi 👍🏽 café"

	sess := engine.Animate(target, text, nil)
	sched.RunAll(0)

	// H, i, space, thumbs-up with skin tone, space, c, a, f, é
	assert.Equal(t, 9, sess.Len())
	assert.Equal(t, text, target.last())
	assert.Contains(t, target.writes, "Hi 👍🏽")
	for _, w := range target.writes {
		assert.True(t, strings.HasPrefix(text, w))
	}
}

func TestSession_Cancel(t *testing.T) {
	engine, sched := newTestEngine(DefaultConfig())
	target := &recorder{}
	called := false

	sess := engine.Animate(target, "interrupted reply", func() { called = true })
	sched.RunNext()
	sched.RunNext()
	require.Equal(t, "int", target.last())

	assert.True(t, sess.Cancel())
	assert.False(t, sess.Cancel(), "second cancel is a no-op")
	assert.Equal(t, StateCancelled, sess.State())
	assert.Equal(t, 0, sched.Pending())

	writes := len(target.writes)
	sched.RunAll(0)
	assert.Len(t, target.writes, writes)
	assert.False(t, called)
	assert.Equal(t, "int", sess.Revealed())
	assert.False(t, sess.Skip(), "skip after cancel is a no-op")
}

func TestSession_Skip(t *testing.T) {
	engine, sched := newTestEngine(DefaultConfig())
	target := &recorder{}
	called := 0

	sess := engine.Animate(target, "superseded reply", func() { called++ })
	sched.RunNext()

	assert.True(t, sess.Skip())
	assert.Equal(t, "superseded reply", target.last())
	assert.Equal(t, 1, called)
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, sess.Len(), sess.Cursor())

	sched.RunAll(0)
	assert.False(t, sess.Skip())
	assert.False(t, sess.Cancel())
	assert.Equal(t, 1, called)
}

func TestSession_CancelFromTarget(t *testing.T) {
	engine, sched := newTestEngine(DefaultConfig())
	var sess *Session
	writes := 0
	target := TargetFunc(func(text string) {
		writes++
		if text == "ab" {
			sess.Cancel()
		}
	})

	sess = engine.Animate(target, "abcdef", nil)
	sched.RunAll(0)

	assert.Equal(t, StateCancelled, sess.State())
	assert.Equal(t, 3, writes, "clear, a, ab")
}

func TestSession_SkipFromTarget(t *testing.T) {
	engine, sched := newTestEngine(DefaultConfig())
	var sess *Session
	var writes []string
	called := 0
	skipped := false
	target := TargetFunc(func(text string) {
		writes = append(writes, text)
		if text == "ab" {
			skipped = sess.Skip()
			assert.False(t, sess.Skip(), "second skip is a no-op")
			assert.Zero(t, called, "onComplete waits for the write to return")
		}
	})

	sess = engine.Animate(target, "abcdef", func() { called++ })
	sched.RunAll(0)

	assert.True(t, skipped)
	assert.Equal(t, []string{"", "a", "ab", "abcdef"}, writes)
	assert.Equal(t, StateCompleted, sess.State())
	assert.Equal(t, 1, called)
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, "abcdef", sess.Revealed())
	select {
	case <-sess.Done():
	default:
		t.Fatal("session not done after skip")
	}
}

func TestEngine_SetConfig(t *testing.T) {
	engine, sched := newTestEngine(DefaultConfig())
	engine.SetConfig(Config{CharsPerSecond: 20, PunctuationPauseMultiplier: 1})

	engine.Animate(&recorder{}, "abc", nil)
	d, ok := sched.NextDelay()
	require.True(t, ok)
	assert.Equal(t, 50*time.Millisecond, d)
	assert.Equal(t, float64(20), engine.Config().CharsPerSecond)
}

func TestEngine_RealScheduler(t *testing.T) {
	engine := NewEngine(Config{CharsPerSecond: 1000, PunctuationPauseMultiplier: 1})
	writes := make(chan string, 64)
	sess := engine.Animate(TargetFunc(func(s string) { writes <- s }), "quick", nil)

	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("animation did not finish")
	}
	assert.Equal(t, StateCompleted, sess.State())
	assert.Equal(t, "quick", sess.Revealed())
}
