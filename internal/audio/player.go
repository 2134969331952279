package audio

import (
	"context"
	"io"
	"os/exec"
)

// Player plays encoded audio (mp3, wav) piped into ffplay.
type Player struct {
	command string
}

func NewPlayer(command string) *Player {
	if command == "" {
		command = "ffplay"
	}
	return &Player{command: command}
}

// Play blocks until playback finishes. Cancelling ctx interrupts the player
// and returns ctx.Err().
func (p *Player) Play(ctx context.Context, audio io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd := exec.Command(p.command, "-nodisp", "-autoexit", "-loglevel", "error", "-i", "-")
	cmd.Stdin = audio

	proc, err := startProcess(cmd, 0)
	if err != nil {
		return err
	}

	finished := make(chan error, 1)
	go func() { finished <- proc.wait() }()

	select {
	case err := <-finished:
		return err
	case <-ctx.Done():
		_ = proc.stop()
		<-finished
		return ctx.Err()
	}
}
