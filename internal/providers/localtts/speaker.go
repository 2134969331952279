// Package localtts speaks responses with a local synthesizer binary such as
// espeak-ng or macOS say.
package localtts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const defaultCommand = "espeak-ng"

// Config selects the synthesizer. Args are passed before the text.
type Config struct {
	Command string
	Args    []string
}

// Speaker implements ports.Speaker by running one synthesizer process per
// utterance. Starting a new utterance kills the previous process.
type Speaker struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	current *utterance
}

type utterance struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (u *utterance) stop() {
	select {
	case <-u.done:
		return
	default:
	}
	_ = u.cmd.Process.Kill()
	<-u.done
}

// ParseCommand splits a configured command line into Config.
func ParseCommand(line string) Config {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Config{}
	}
	return Config{Command: fields[0], Args: fields[1:]}
}

func NewSpeaker(cfg Config, logger *slog.Logger) *Speaker {
	if cfg.Command == "" {
		cfg.Command = defaultCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Speaker{cfg: cfg, logger: logger.With("component", "localtts")}
}

func (s *Speaker) Speak(_ context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.Cancel()
	}

	args := append(append([]string(nil), s.cfg.Args...), text)
	cmd := exec.Command(s.cfg.Command, args...)
	cmd.WaitDelay = time.Second

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.stop()
		s.current = nil
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", s.cfg.Command, err)
	}

	u := &utterance{cmd: cmd, done: make(chan struct{})}
	s.current = u
	go func() {
		err := cmd.Wait()
		close(u.done)
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			s.logger.Warn("synthesizer failed", "error", err)
		}
	}()
	return nil
}

// Cancel kills the utterance in flight, if any.
func (s *Speaker) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.stop()
		s.current = nil
	}
	return nil
}
