package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"voicepilot/internal/ports"
)

// Microphone streams PCM audio (s16le) from ffmpeg.
type Microphone struct {
	command string
}

func NewMicrophone(command string) *Microphone {
	if command == "" {
		command = "ffmpeg"
	}
	return &Microphone{command: command}
}

func (m *Microphone) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioStream, error) {
	cmd := exec.CommandContext(ctx, m.command, captureArgs(cfg)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}

	proc, err := startProcess(cmd, startupWatch)
	if err != nil {
		return nil, err
	}
	return &micStream{stdout: stdout, proc: proc}, nil
}

func captureArgs(cfg ports.AudioConfig) []string {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}
}

type micStream struct {
	stdout io.ReadCloser
	proc   *process

	stopOnce sync.Once
	stopErr  error
}

func (s *micStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *micStream) Close() error {
	return s.Stop()
}

func (s *micStream) Stop() error {
	s.stopOnce.Do(func() {
		s.stopErr = s.proc.stop()
		if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) && s.stopErr == nil {
			s.stopErr = closeErr
		}
		if s.stopErr != nil && s.proc.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimOutput(s.proc.stderr.String()))
		}
	})
	return s.stopErr
}
