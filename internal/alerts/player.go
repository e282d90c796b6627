// internal/alerts/player.go
package alerts

import (
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"sync"

	"kitchen-hub/internal/common/logger"
)

// CommandPlayer plays the alert sound through an external player binary. No
// audio pipeline in-process; kiosks ship with a minimal player installed.
// At most one player process runs at a time: Play kills the in-flight
// process before starting the next, so a rapid re-trigger restarts the
// sound instead of overlapping it.
type CommandPlayer struct {
	command   string
	soundFile string
	logger    logger.Logger

	mu      sync.Mutex
	current *exec.Cmd
}

func NewCommandPlayer(command, soundFile string, log logger.Logger) *CommandPlayer {
	return &CommandPlayer{
		command:   command,
		soundFile: soundFile,
		logger:    log.WithFields(map[string]interface{}{"component": "alerts.player"}),
	}
}

func (p *CommandPlayer) Play(ctx context.Context) error {
	if p.soundFile == "" {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	cmd := exec.CommandContext(ctx, p.command, p.soundFile)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start alert playback: %w", err)
	}
	p.current = cmd

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		if p.current == cmd {
			p.current = nil
		}
		p.mu.Unlock()

		// Exit code -1 means the process died to a signal, which is how a
		// restart or Stop ends it. Anything else is worth a warning.
		var exitErr *exec.ExitError
		if err != nil && !(stderrors.As(err, &exitErr) && exitErr.ExitCode() == -1) {
			p.logger.Warn("alert playback exited with error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
	return nil
}

func (p *CommandPlayer) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *CommandPlayer) stopLocked() {
	if p.current != nil && p.current.Process != nil {
		p.current.Process.Kill()
	}
	p.current = nil
}
