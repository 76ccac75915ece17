// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audio records speech for transcription and plays synthesized
// replies.
//
// # Capture
//
// A Pipeline owns at most one recording Session at a time; starting a
// second one fails with ErrRecordingInProgress. A session moves through
//
//	Idle -> Requesting -> Recording -> Stopping -> Transcribing -> Idle
//
// and can be stopped explicitly, by a UI gesture, by its context, or by
// the hard duration limit, whichever happens first. Later stop requests
// are no-ops. The microphone stream is closed on every exit path. A
// session that captured nothing fails with ErrNoAudioRecorded; otherwise
// the chunks are concatenated, wrapped in a WAV header and handed to the
// Transcriber. Every outcome is delivered as a Result.
//
// # Playback
//
// Speaker.Speak synthesizes text and plays the returned MP3 in the
// background. Synthesis and playback failures are logged and dropped.
//
// # Devices
//
// CommandMicrophone and CommandPlayer drive external programs (ffmpeg,
// arecord, ffplay, mpg123) so no cgo audio library is needed.
package audio
