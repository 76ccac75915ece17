// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typing

import (
	"fmt"
	"strings"
	"time"
)

// Default pacing values.
const (
	DefaultCharsPerSecond             = 10
	DefaultSpeedVarianceLevel         = 5
	DefaultPunctuationPauseMultiplier = 2
)

// punctuation lists the characters that receive the punctuation pause.
const punctuation = ".,!?;:"

// Config controls typing pace.
type Config struct {
	// CharsPerSecond is the average reveal rate.
	CharsPerSecond float64 `toml:"chars_per_second" json:"chars_per_second"`

	// SpeedVarianceLevel scales the random jitter; each step varies by up
	// to ±10*level milliseconds.
	SpeedVarianceLevel float64 `toml:"speed_variance_level" json:"speed_variance_level"`

	// PunctuationPauseMultiplier stretches the base delay after . , ! ? ; :
	PunctuationPauseMultiplier float64 `toml:"punctuation_pause_multiplier" json:"punctuation_pause_multiplier"`
}

// DefaultConfig returns the default pacing.
func DefaultConfig() Config {
	return Config{
		CharsPerSecond:             DefaultCharsPerSecond,
		SpeedVarianceLevel:         DefaultSpeedVarianceLevel,
		PunctuationPauseMultiplier: DefaultPunctuationPauseMultiplier,
	}
}

// Validate checks that the configuration can produce finite delays.
func (c Config) Validate() error {
	if c.CharsPerSecond <= 0 {
		return fmt.Errorf("chars_per_second must be positive, got %v", c.CharsPerSecond)
	}
	if c.SpeedVarianceLevel < 0 {
		return fmt.Errorf("speed_variance_level must not be negative, got %v", c.SpeedVarianceLevel)
	}
	if c.PunctuationPauseMultiplier < 0 {
		return fmt.Errorf("punctuation_pause_multiplier must not be negative, got %v", c.PunctuationPauseMultiplier)
	}
	return nil
}

// withDefaults fills zero fields that would otherwise divide by zero.
func (c Config) withDefaults() Config {
	if c.CharsPerSecond <= 0 {
		c.CharsPerSecond = DefaultCharsPerSecond
	}
	if c.SpeedVarianceLevel < 0 {
		c.SpeedVarianceLevel = 0
	}
	if c.PunctuationPauseMultiplier <= 0 {
		c.PunctuationPauseMultiplier = 1
	}
	return c
}

// IsPunctuation reports whether ch receives the punctuation pause.
// ch is a single grapheme cluster.
func IsPunctuation(ch string) bool {
	return len(ch) == 1 && strings.IndexByte(punctuation, ch[0]) >= 0
}

// Delay computes the pause after revealing ch. draw is a uniform sample in
// [0, 1) that selects the jitter; a draw of 0.5 gives no jitter.
func (c Config) Delay(ch string, draw float64) time.Duration {
	c = c.withDefaults()

	base := 1000 / c.CharsPerSecond
	variance := draw*c.SpeedVarianceLevel*20 - c.SpeedVarianceLevel*10

	multiplier := 1.0
	if IsPunctuation(ch) {
		multiplier = c.PunctuationPauseMultiplier
	}

	ms := base*multiplier + variance
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}
