// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package typing reveals text character by character to simulate a person
// typing.
//
// An Engine holds the pacing configuration. Animate starts a Session that
// walks a cursor over the grapheme clusters of the text, writing the exact
// prefix up to the cursor into a Target at every step. The delay between
// steps is
//
//	1000/CharsPerSecond ms * (PunctuationPauseMultiplier if the revealed
//	character is one of . , ! ? ; : else 1) + uniform(-10v, +10v) ms
//
// where v is SpeedVarianceLevel. Negative delays are clamped to zero.
//
// Steps are chained through a Scheduler: each step schedules the next one
// only after it has run, so a session never has more than one pending
// timer. RealScheduler uses time.AfterFunc; VirtualScheduler is a manual
// timer queue for deterministic tests and for hosts that drive time
// themselves.
//
// # Usage
//
//	engine := typing.NewEngine(typing.DefaultConfig())
//	sess := engine.Animate(typing.TargetFunc(render), reply, func() {
//	    log.Println("done")
//	})
//	// later, if a newer reply supersedes this one:
//	sess.Skip()
package typing
