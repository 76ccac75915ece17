// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxDuration is the hard recording limit.
const DefaultMaxDuration = 30 * time.Second

// chunkSize is the read buffer for one capture chunk.
const chunkSize = 4096

// =============================================================================
// COLLABORATORS
// =============================================================================

// Stream is a live microphone capture producing raw PCM. Close releases the
// device; it must be safe to call more than once and concurrently with Read.
type Stream interface {
	io.Reader
	Close() error
}

// Microphone opens capture streams. Open blocks while access is requested.
type Microphone interface {
	Open(ctx context.Context, format Format) (Stream, error)
}

// Transcriber turns a WAV recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// Timer is a pending timeout.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// =============================================================================
// STATE
// =============================================================================

// State is the capture lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateRecording
	StateStopping
	StateTranscribing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateTranscribing:
		return "transcribing"
	default:
		return "unknown"
	}
}

// StopReason records what ended a recording.
type StopReason int

const (
	StopNone StopReason = iota
	StopExplicit
	StopGesture
	StopTimeout
	StopCancelled
	StopDeviceEnded
)

// String returns the reason name.
func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "none"
	case StopExplicit:
		return "explicit"
	case StopGesture:
		return "gesture"
	case StopTimeout:
		return "timeout"
	case StopCancelled:
		return "cancelled"
	case StopDeviceEnded:
		return "device-ended"
	default:
		return "unknown"
	}
}

// Result is the outcome of one recording session.
type Result struct {
	SessionID string
	Text      string
	Err       error
	Reason    StopReason
	Chunks    int
	Bytes     int
	Duration  time.Duration
}

// OK reports whether the session produced a transcription.
func (r Result) OK() bool {
	return r.Err == nil
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline records one session at a time and transcribes it.
type Pipeline struct {
	mic         Microphone
	transcriber Transcriber
	format      Format
	maxDuration time.Duration
	afterFunc   AfterFunc
	logger      *zap.Logger

	mu     sync.Mutex
	active *Session
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFormat sets the PCM format requested from the microphone.
func WithFormat(f Format) Option {
	return func(p *Pipeline) { p.format = f }
}

// WithMaxDuration sets the hard recording limit.
func WithMaxDuration(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.maxDuration = d
		}
	}
}

// WithAfterFunc replaces the timer used for the duration limit.
func WithAfterFunc(f AfterFunc) Option {
	return func(p *Pipeline) { p.afterFunc = f }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a capture pipeline.
func NewPipeline(mic Microphone, transcriber Transcriber, opts ...Option) *Pipeline {
	p := &Pipeline{
		mic:         mic,
		transcriber: transcriber,
		format:      DefaultFormat,
		maxDuration: DefaultMaxDuration,
		afterFunc:   realAfterFunc,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxDuration returns the hard recording limit.
func (p *Pipeline) MaxDuration() time.Duration {
	return p.maxDuration
}

// Active returns the running session, or nil.
func (p *Pipeline) Active() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Start opens the microphone and begins recording. It returns once the
// session is in the Recording state. ctx bounds the whole session
// including transcription; cancelling it stops the recording.
func (p *Pipeline) Start(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	if p.active != nil {
		p.mu.Unlock()
		return nil, ErrRecordingInProgress
	}
	s := &Session{
		id:       uuid.NewString(),
		pipeline: p,
		state:    StateRequesting,
		stopped:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	p.active = s
	p.mu.Unlock()

	log := p.logger.With(zap.String("session", s.id))
	log.Debug("requesting microphone")

	stream, err := p.mic.Open(ctx, p.format)
	if err != nil {
		if !errors.Is(err, ErrPermissionDenied) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrCaptureFailed, err)
		}
		log.Warn("microphone unavailable", zap.Error(err))
		s.stopOnce.Do(func() { close(s.stopped) })
		s.mu.Lock()
		s.result = Result{SessionID: s.id, Err: err, Reason: s.reason}
		s.state = StateIdle
		s.mu.Unlock()
		close(s.done)
		p.release(s)
		return nil, err
	}

	s.mu.Lock()
	s.stream = stream
	stoppedEarly := s.state != StateRequesting
	if !stoppedEarly {
		s.state = StateRecording
		s.startedAt = time.Now()
	}
	s.mu.Unlock()

	if stoppedEarly {
		// Stopped while access was pending: nothing was captured.
		s.releaseStream()
		res := s.finalize(ctx, nil)
		s.finish(res)
		return nil, res.Err
	}

	timer := p.afterFunc(p.maxDuration, func() { s.stop(StopTimeout) })
	s.mu.Lock()
	s.timer = timer
	alreadyStopped := s.state != StateRecording
	s.mu.Unlock()
	if alreadyStopped {
		timer.Stop()
	}

	log.Info("recording started", zap.Duration("limit", p.maxDuration))
	go s.run(ctx)
	return s, nil
}

// Record starts a session and waits for its transcription.
func (p *Pipeline) Record(ctx context.Context) (string, error) {
	s, err := p.Start(ctx)
	if err != nil {
		return "", err
	}
	r := s.Wait()
	return r.Text, r.Err
}

func (p *Pipeline) release(s *Session) {
	p.mu.Lock()
	if p.active == s {
		p.active = nil
	}
	p.mu.Unlock()
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one recording. It exclusively owns its stream and timer.
type Session struct {
	id       string
	pipeline *Pipeline

	mu        sync.Mutex
	state     State
	timer     Timer
	reason    StopReason
	stream    Stream
	chunks    [][]byte
	startedAt time.Time

	released bool
	stopOnce sync.Once
	stopped  chan struct{}
	done     chan struct{}
	result   Result
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reason returns what stopped the session, StopNone while recording.
func (s *Session) Reason() StopReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Elapsed returns how long the session has been recording.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}

// Stop ends the recording. It reports whether this call stopped it.
func (s *Session) Stop() bool { return s.stop(StopExplicit) }

// StopGesture ends the recording in response to a UI gesture.
func (s *Session) StopGesture() bool { return s.stop(StopGesture) }

// Stopped is closed when recording has ended for any reason.
func (s *Session) Stopped() <-chan struct{} { return s.stopped }

// Done is closed when the Result is available.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session finishes and returns its Result.
func (s *Session) Wait() Result {
	<-s.done
	return s.result
}

// stop moves Recording to Stopping exactly once and releases the stream so
// a blocked Read returns.
func (s *Session) stop(reason StopReason) bool {
	first := false
	s.stopOnce.Do(func() {
		first = true

		s.mu.Lock()
		s.reason = reason
		s.state = StateStopping
		timer := s.timer
		s.mu.Unlock()

		if timer != nil {
			timer.Stop()
		}
		s.pipeline.logger.Info("recording stopped",
			zap.String("session", s.id),
			zap.Stringer("reason", reason))
		close(s.stopped)
		s.releaseStream()
	})
	return first
}

// releaseStream closes the microphone exactly once. Before Open returns
// there is nothing to close and the call does not count.
func (s *Session) releaseStream() {
	s.mu.Lock()
	stream := s.stream
	if stream == nil || s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	s.mu.Unlock()

	if err := stream.Close(); err != nil {
		s.pipeline.logger.Debug("closing microphone", zap.String("session", s.id), zap.Error(err))
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// run reads chunks until the stream ends, then finalizes the session.
func (s *Session) run(ctx context.Context) {
	readDone := make(chan error, 1)
	go func() { readDone <- s.capture() }()

	var readErr error
	select {
	case readErr = <-readDone:
		s.stop(StopDeviceEnded)
	case <-ctx.Done():
		s.stop(StopCancelled)
		readErr = <-readDone
	case <-s.stopped:
		readErr = <-readDone
	}

	s.releaseStream()
	s.finish(s.finalize(ctx, readErr))
}

// capture appends every chunk read from the stream in arrival order.
func (s *Session) capture() error {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()

	buf := make([]byte, chunkSize)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.mu.Lock()
			s.chunks = append(s.chunks, chunk)
			s.mu.Unlock()
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// finalize branches on what was captured and transcribes it.
func (s *Session) finalize(ctx context.Context, readErr error) Result {
	p := s.pipeline
	s.mu.Lock()
	chunks := s.chunks
	reason := s.reason
	s.mu.Unlock()

	res := Result{SessionID: s.id, Reason: reason, Chunks: len(chunks)}
	pcm := joinChunks(chunks)
	res.Bytes = len(pcm)
	res.Duration = p.format.Duration(len(pcm))

	switch {
	case reason == StopCancelled:
		res.Err = ctx.Err()
		if res.Err == nil {
			res.Err = context.Canceled
		}
		return res

	case reason == StopDeviceEnded && readErr != nil && len(pcm) == 0:
		res.Err = classifyDeviceError(readErr)
		return res

	case len(pcm) == 0:
		res.Err = ErrNoAudioRecorded
		return res
	}

	wav, err := EncodeWAV(pcm, p.format)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrCaptureFailed, err)
		return res
	}

	s.setState(StateTranscribing)
	p.logger.Debug("transcribing",
		zap.String("session", s.id),
		zap.Int("chunks", len(chunks)),
		zap.Int("bytes", len(wav)),
		zap.Duration("audio", res.Duration))

	text, err := p.transcriber.Transcribe(ctx, wav)
	if err != nil {
		res.Err = &TranscriptionError{Err: err}
		return res
	}
	res.Text = text
	return res
}

func (s *Session) finish(res Result) {
	s.mu.Lock()
	s.state = StateIdle
	s.result = res
	s.mu.Unlock()

	log := s.pipeline.logger.With(zap.String("session", s.id), zap.Stringer("reason", res.Reason))
	if res.Err != nil {
		log.Warn("recording failed", zap.Error(res.Err))
	} else {
		log.Info("recording transcribed", zap.Int("chars", len(res.Text)))
	}

	s.pipeline.release(s)
	close(s.done)
}

func joinChunks(chunks [][]byte) []byte {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	if n == 0 {
		return nil
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func classifyDeviceError(err error) error {
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrCaptureFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrCaptureFailed, err)
}
