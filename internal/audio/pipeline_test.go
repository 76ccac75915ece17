// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeStream struct {
	chunks    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	closes    atomic.Int32
	endErr    error
}

func newFakeStream() *fakeStream {
	return &fakeStream{chunks: make(chan []byte), closed: make(chan struct{})}
}

func (s *fakeStream) Read(p []byte) (int, error) {
	select {
	case c, ok := <-s.chunks:
		if !ok {
			if s.endErr != nil {
				return 0, s.endErr
			}
			return 0, io.EOF
		}
		return copy(p, c), nil
	case <-s.closed:
		return 0, errors.New("read on closed stream")
	}
}

func (s *fakeStream) Close() error {
	s.closes.Add(1)
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

type fakeMic struct {
	mu      sync.Mutex
	streams []*fakeStream
	err     error

	// opening and grant hold Open until the test releases it.
	opening chan struct{}
	grant   chan struct{}
}

func (m *fakeMic) Open(ctx context.Context, f Format) (Stream, error) {
	if m.grant != nil {
		close(m.opening)
		<-m.grant
	}
	if m.err != nil {
		return nil, m.err
	}
	s := newFakeStream()
	m.mu.Lock()
	m.streams = append(m.streams, s)
	m.mu.Unlock()
	return s, nil
}

func (m *fakeMic) last() *fakeStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streams[len(m.streams)-1]
}

type fakeTranscriber struct {
	mu    sync.Mutex
	calls int
	wav   []byte
	text  string
	err   error
}

func (t *fakeTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	t.wav = wav
	return t.text, t.err
}

func (t *fakeTranscriber) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

type manualTimer struct {
	mu      sync.Mutex
	d       time.Duration
	f       func()
	stopped bool
}

func (m *manualTimer) afterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d, m.f = d, f
	return m
}

func (m *manualTimer) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	was := !m.stopped
	m.stopped = true
	return was
}

func (m *manualTimer) fire() {
	m.mu.Lock()
	f := m.f
	m.mu.Unlock()
	f()
}

type harness struct {
	mic   *fakeMic
	tr    *fakeTranscriber
	timer *manualTimer
	pipe  *Pipeline
}

func newHarness() *harness {
	h := &harness{
		mic:   &fakeMic{},
		tr:    &fakeTranscriber{text: "hello"},
		timer: &manualTimer{},
	}
	h.pipe = NewPipeline(h.mic, h.tr, WithAfterFunc(h.timer.afterFunc))
	return h
}

func waitResult(t *testing.T, s *Session) Result {
	t.Helper()
	select {
	case <-s.Done():
		return s.Wait()
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
		return Result{}
	}
}

// =============================================================================
// CAPTURE TESTS
// =============================================================================

func TestPipeline_TranscribesChunksInOrder(t *testing.T) {
	h := newHarness()
	s, err := h.pipe.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateRecording, s.State())
	assert.Equal(t, DefaultMaxDuration, h.timer.d)

	stream := h.mic.last()
	stream.chunks <- []byte{1, 2}
	stream.chunks <- []byte{3, 4, 5, 6}

	assert.True(t, s.Stop())
	res := waitResult(t, s)

	require.NoError(t, res.Err)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, StopExplicit, res.Reason)
	assert.Equal(t, 2, res.Chunks)
	assert.Equal(t, 6, res.Bytes)
	assert.True(t, stream.isClosed())
	assert.True(t, h.timer.stopped, "timeout should be disarmed")
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, h.pipe.Active())

	f, n, err := DecodeWAVHeader(h.tr.wav)
	require.NoError(t, err)
	assert.Equal(t, DefaultFormat, f)
	assert.Equal(t, 6, n)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, h.tr.wav[wavHeaderSize:])
}

func TestPipeline_ZeroChunks(t *testing.T) {
	h := newHarness()
	s, err := h.pipe.Start(context.Background())
	require.NoError(t, err)

	s.Stop()
	res := waitResult(t, s)

	assert.ErrorIs(t, res.Err, ErrNoAudioRecorded)
	assert.Equal(t, "no audio recorded", res.Err.Error())
	assert.True(t, h.mic.last().isClosed(), "microphone must be released")
	assert.Equal(t, int32(1), h.mic.last().closes.Load())
	assert.Equal(t, 0, h.tr.callCount())
}

func TestPipeline_TimeoutStopsOnce(t *testing.T) {
	h := newHarness()
	s, err := h.pipe.Start(context.Background())
	require.NoError(t, err)
	h.mic.last().chunks <- []byte{9, 9}

	h.timer.fire()
	<-s.Stopped()

	assert.False(t, s.Stop(), "manual stop after timeout is a no-op")
	assert.False(t, s.StopGesture())

	res := waitResult(t, s)
	require.NoError(t, res.Err)
	assert.Equal(t, StopTimeout, res.Reason)
	assert.Equal(t, StopTimeout, s.Reason())
	assert.Equal(t, 1, h.tr.callCount())
	assert.Equal(t, int32(1), h.mic.last().closes.Load())
}

func TestPipeline_GestureStop(t *testing.T) {
	h := newHarness()
	s, err := h.pipe.Start(context.Background())
	require.NoError(t, err)
	h.mic.last().chunks <- []byte{1}

	assert.True(t, s.StopGesture())
	assert.False(t, s.Stop())
	h.timer.fire() // late timeout is ignored

	res := waitResult(t, s)
	require.NoError(t, res.Err)
	assert.Equal(t, StopGesture, res.Reason)
}

func TestPipeline_RejectsSecondStart(t *testing.T) {
	h := newHarness()
	s, err := h.pipe.Start(context.Background())
	require.NoError(t, err)

	_, err = h.pipe.Start(context.Background())
	assert.ErrorIs(t, err, ErrRecordingInProgress)
	assert.Same(t, s, h.pipe.Active())

	s.Stop()
	waitResult(t, s)

	s2, err := h.pipe.Start(context.Background())
	require.NoError(t, err, "a new session may start once the previous one finished")
	s2.Stop()
	waitResult(t, s2)
}

func TestPipeline_OpenErrors(t *testing.T) {
	tests := []struct {
		name    string
		openErr error
		want    error
	}{
		{"permission denied", ErrPermissionDenied, ErrPermissionDenied},
		{"wrapped permission", errors.Join(errors.New("avfoundation"), ErrPermissionDenied), ErrPermissionDenied},
		{"device missing", errors.New("ffmpeg: executable file not found"), ErrCaptureFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			h.mic.err = tc.openErr

			s, err := h.pipe.Start(context.Background())
			assert.Nil(t, s)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, h.pipe.Active(), "failed start must not hold the slot")
			assert.Nil(t, h.timer.f, "no timeout armed before recording")
		})
	}
}

func TestPipeline_StopWhileRequesting(t *testing.T) {
	tests := []struct {
		name    string
		openErr error
		wantErr error
	}{
		{"access granted late", nil, ErrNoAudioRecorded},
		{"access refused late", ErrPermissionDenied, ErrPermissionDenied},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			h.mic.opening = make(chan struct{})
			h.mic.grant = make(chan struct{})
			h.mic.err = tc.openErr

			started := make(chan error, 1)
			go func() {
				_, err := h.pipe.Start(context.Background())
				started <- err
			}()

			<-h.mic.opening
			s := h.pipe.Active()
			require.NotNil(t, s)
			assert.Equal(t, StateRequesting, s.State())
			assert.True(t, s.Stop())
			close(h.mic.grant)

			select {
			case err := <-started:
				assert.ErrorIs(t, err, tc.wantErr)
			case <-time.After(2 * time.Second):
				t.Fatal("Start did not return")
			}

			res := waitResult(t, s)
			assert.ErrorIs(t, res.Err, tc.wantErr)
			assert.Equal(t, StopExplicit, res.Reason)
			assert.Equal(t, StateIdle, s.State())
			assert.Nil(t, h.pipe.Active(), "stopped session must free the slot")
			assert.Equal(t, 0, h.tr.callCount())
			if tc.openErr == nil {
				assert.True(t, h.mic.last().isClosed(), "microphone must be released")
				assert.Equal(t, int32(1), h.mic.last().closes.Load())
			}

			h.mic.grant, h.mic.err = nil, nil
			s2, err := h.pipe.Start(context.Background())
			require.NoError(t, err)
			s2.Stop()
			waitResult(t, s2)
		})
	}
}

func TestPipeline_TranscriptionFailure(t *testing.T) {
	h := newHarness()
	h.tr.err = errors.New("Invalid file format")

	s, err := h.pipe.Start(context.Background())
	require.NoError(t, err)
	h.mic.last().chunks <- []byte{1, 2}
	s.Stop()

	res := waitResult(t, s)
	assert.ErrorIs(t, res.Err, ErrTranscriptionFailed)
	assert.Equal(t, "Invalid file format", res.Err.Error())
	assert.Empty(t, res.Text)
	assert.True(t, h.mic.last().isClosed())
}

func TestPipeline_ContextCancel(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())

	s, err := h.pipe.Start(ctx)
	require.NoError(t, err)
	h.mic.last().chunks <- []byte{1}
	cancel()

	res := waitResult(t, s)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, StopCancelled, res.Reason)
	assert.Equal(t, 0, h.tr.callCount())
	assert.True(t, h.mic.last().isClosed())
}

func TestPipeline_DeviceEnds(t *testing.T) {
	t.Run("eof after data is transcribed", func(t *testing.T) {
		h := newHarness()
		s, err := h.pipe.Start(context.Background())
		require.NoError(t, err)
		stream := h.mic.last()
		stream.chunks <- []byte{1, 2, 3}
		close(stream.chunks)

		res := waitResult(t, s)
		require.NoError(t, res.Err)
		assert.Equal(t, StopDeviceEnded, res.Reason)
		assert.True(t, stream.isClosed())
	})

	t.Run("failure without data", func(t *testing.T) {
		h := newHarness()
		s, err := h.pipe.Start(context.Background())
		require.NoError(t, err)
		stream := h.mic.last()
		stream.endErr = errors.New("device unplugged")
		close(stream.chunks)

		res := waitResult(t, s)
		assert.ErrorIs(t, res.Err, ErrCaptureFailed)
		assert.Contains(t, res.Err.Error(), "device unplugged")
		assert.True(t, stream.isClosed())
	})

	t.Run("permission failure reported by device", func(t *testing.T) {
		h := newHarness()
		s, err := h.pipe.Start(context.Background())
		require.NoError(t, err)
		stream := h.mic.last()
		stream.endErr = ErrPermissionDenied
		close(stream.chunks)

		res := waitResult(t, s)
		assert.ErrorIs(t, res.Err, ErrPermissionDenied)
	})

	t.Run("clean eof without data", func(t *testing.T) {
		h := newHarness()
		s, err := h.pipe.Start(context.Background())
		require.NoError(t, err)
		close(h.mic.last().chunks)

		res := waitResult(t, s)
		assert.ErrorIs(t, res.Err, ErrNoAudioRecorded)
	})
}

func TestPipeline_RecordWithRealTimer(t *testing.T) {
	mic := &fakeMic{}
	tr := &fakeTranscriber{text: "timed out but heard"}
	pipe := NewPipeline(mic, tr, WithMaxDuration(200*time.Millisecond))

	go func() {
		for {
			mic.mu.Lock()
			n := len(mic.streams)
			mic.mu.Unlock()
			if n > 0 {
				break
			}
			time.Sleep(time.Millisecond)
		}
		stream := mic.last()
		select {
		case stream.chunks <- []byte{7, 7, 7, 7}:
		case <-stream.closed:
		}
	}()

	text, err := pipe.Record(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "timed out but heard", text)
}

func TestStopReason_String(t *testing.T) {
	assert.Equal(t, "timeout", StopTimeout.String())
	assert.Equal(t, "gesture", StopGesture.String())
	assert.Equal(t, "transcribing", StateTranscribing.String())
}
