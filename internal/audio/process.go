package audio

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

const (
	startupWatch = 250 * time.Millisecond
	stopGrace    = 1200 * time.Millisecond
)

// process is a running helper binary (ffmpeg, ffplay) with its exit tracked
// in the background.
type process struct {
	cmd    *exec.Cmd
	stderr *bytes.Buffer

	done chan struct{}
	err  error

	stopOnce sync.Once
}

// startProcess starts cmd. With a positive watch it also fails when the
// binary exits within that window, which is how a missing input device shows
// up.
func startProcess(cmd *exec.Cmd, watch time.Duration) (*process, error) {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = stopGrace
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}

	p := &process{cmd: cmd, stderr: &stderr, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()

	if watch <= 0 {
		return p, nil
	}
	select {
	case <-p.done:
		if p.err != nil {
			return nil, fmt.Errorf("%s exited before capture started: %w: %s", cmd.Path, p.err, trimOutput(stderr.String()))
		}
		return nil, fmt.Errorf("%s exited before capture started", cmd.Path)
	case <-time.After(watch):
	}
	return p, nil
}

// wait blocks until the process exits and reports a failed exit.
func (p *process) wait() error {
	<-p.done
	if p.err != nil {
		return fmt.Errorf("%w: %s", p.err, trimOutput(p.stderr.String()))
	}
	return nil
}

// stop interrupts the process, killing it if it outlives the grace period.
// Exit statuses caused by the interrupt are not errors.
func (p *process) stop() error {
	p.stopOnce.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}

		_ = p.cmd.Process.Signal(os.Interrupt)
		select {
		case <-p.done:
		case <-time.After(stopGrace):
			_ = p.cmd.Process.Kill()
			<-p.done
		}
	})

	<-p.done
	return normalizeStopErr(p.err)
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimOutput(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}
