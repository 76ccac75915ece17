// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Synthesizer turns text into encoded audio (MP3).
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Player plays encoded audio, blocking until playback ends or ctx is done.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// Speaker reads replies aloud in the background.
type Speaker struct {
	synth  Synthesizer
	player Player
	voice  string
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSpeaker creates a speaker. voice may be empty for the server default.
func NewSpeaker(synth Synthesizer, player Player, voice string, logger *zap.Logger) *Speaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Speaker{synth: synth, player: player, voice: voice, logger: logger}
}

// Speak synthesizes text and starts playing it without waiting. A new
// Speak interrupts the previous playback. Failures are logged only.
func (s *Speaker) Speak(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.speak(ctx, text)
	}()
}

// speak never returns an error; every failure ends here.
func (s *Speaker) speak(ctx context.Context, text string) {
	audio, err := s.synth.Synthesize(ctx, text, s.voice)
	if err != nil {
		s.logger.Warn("speech synthesis failed", zap.Error(err))
		return
	}
	if len(audio) == 0 {
		s.logger.Warn("speech synthesis returned no audio")
		return
	}
	if err := s.player.Play(ctx, audio); err != nil && ctx.Err() == nil {
		s.logger.Warn("audio playback failed", zap.Error(err))
	}
}

// Stop interrupts the current synthesis or playback.
func (s *Speaker) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

// Wait blocks until background playback has finished.
func (s *Speaker) Wait() {
	s.wg.Wait()
}
