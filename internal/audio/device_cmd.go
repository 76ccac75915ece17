// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// closeWaitDelay bounds how long Close waits for a killed recorder's
// output pipes to drain.
const closeWaitDelay = 500 * time.Millisecond

// =============================================================================
// COMMAND LINES
// =============================================================================

// DefaultCaptureCommand returns a command that writes raw little-endian
// PCM in format f to stdout until killed.
func DefaultCaptureCommand(f Format) []string {
	rate := strconv.Itoa(f.SampleRate)
	ch := strconv.Itoa(f.Channels)
	sampleFmt := "s" + strconv.Itoa(f.BitsPerSample) + "le"

	var input []string
	switch runtime.GOOS {
	case "darwin":
		input = []string{"-f", "avfoundation", "-i", ":0"}
	case "windows":
		input = []string{"-f", "dshow", "-i", "audio=default"}
	default:
		if _, err := exec.LookPath("ffmpeg"); err != nil {
			if _, err := exec.LookPath("arecord"); err == nil {
				return []string{"arecord", "-q", "-t", "raw", "-f", "S" + strconv.Itoa(f.BitsPerSample) + "_LE", "-r", rate, "-c", ch}
			}
		}
		input = []string{"-f", "pulse", "-i", "default"}
	}

	args := []string{"ffmpeg", "-hide_banner", "-loglevel", "error", "-nostdin"}
	args = append(args, input...)
	args = append(args, "-ac", ch, "-ar", rate, "-f", sampleFmt, "-")
	return args
}

// DefaultPlaybackCommand returns a command that plays MP3 from stdin.
func DefaultPlaybackCommand() []string {
	if _, err := exec.LookPath("ffplay"); err != nil {
		if _, err := exec.LookPath("mpg123"); err == nil {
			return []string{"mpg123", "-q", "-"}
		}
	}
	return []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "error", "-i", "-"}
}

// SplitCommand splits a configured command line on whitespace.
func SplitCommand(line string) []string {
	return strings.Fields(line)
}

// =============================================================================
// MICROPHONE
// =============================================================================

// CommandMicrophone captures audio by running an external recorder.
type CommandMicrophone struct {
	// Command overrides the recorder command line. It must write raw PCM
	// in the requested format to stdout.
	Command []string
	Logger  *zap.Logger
}

// Open starts the recorder process.
func (m *CommandMicrophone) Open(ctx context.Context, f Format) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	argv := m.Command
	if len(argv) == 0 {
		argv = DefaultCaptureCommand(f)
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("%s: %w", argv[0], err)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	stderr := &tailBuffer{limit: 2048}
	cmd.Stderr = stderr
	cmd.WaitDelay = closeWaitDelay
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%s: %w", argv[0], err)
	}

	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("capture process started", zap.Strings("argv", argv), zap.Int("pid", cmd.Process.Pid))

	return &cmdStream{name: argv[0], cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

// cmdStream is the stdout of a recorder process.
type cmdStream struct {
	name   string
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *tailBuffer

	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

// Read returns PCM from the recorder. When the process dies on its own the
// error carries its stderr so permission failures can be told apart.
func (s *cmdStream) Read(p []byte) (int, error) {
	n, err := s.stdout.Read(p)
	if err == nil || n > 0 {
		return n, err
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return n, io.EOF
	}

	msg := strings.TrimSpace(s.stderr.String())
	if msg == "" {
		return n, err
	}
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission denied") || strings.Contains(lower, "access denied") || strings.Contains(lower, "not authorized") {
		return n, fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
	}
	return n, fmt.Errorf("%s: %s", s.name, msg)
}

// Close stops the recorder and reaps it.
func (s *cmdStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		waitErr := s.cmd.Wait()
		var exitErr *exec.ExitError
		if waitErr != nil && !errors.As(waitErr, &exitErr) {
			err = waitErr
		}
	})
	return err
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(p)
	if over := b.buf.Len() - b.limit; over > 0 {
		b.buf.Next(over)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// =============================================================================
// PLAYER
// =============================================================================

// CommandPlayer plays audio by piping it into an external player.
type CommandPlayer struct {
	Command []string
	Logger  *zap.Logger
}

// Play feeds audio to the player's stdin and waits for it to exit.
func (p *CommandPlayer) Play(ctx context.Context, audio []byte) error {
	argv := p.Command
	if len(argv) == 0 {
		argv = DefaultPlaybackCommand()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = closeWaitDelay
	cmd.Stdin = bytes.NewReader(audio)
	stderr := &tailBuffer{limit: 1024}
	cmd.Stderr = stderr

	if p.Logger != nil {
		p.Logger.Debug("playback started", zap.Strings("argv", argv), zap.Int("bytes", len(audio)))
	}
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", argv[0], err, msg)
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}
