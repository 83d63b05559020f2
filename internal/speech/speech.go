// Package speech turns finished sentences into audio.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// DefaultTimeout bounds a single utterance.
const DefaultTimeout = 30 * time.Second

// ErrEmptyText is returned when there is nothing to say.
var ErrEmptyText = errors.New("speech: empty text")

// Speaker says a piece of text out loud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// CommandSpeaker runs a local TTS program with the text on stdin.
type CommandSpeaker struct {
	Name    string
	Args    []string
	Timeout time.Duration
}

// DefaultCommand returns the platform TTS program.
func DefaultCommand() string {
	if runtime.GOOS == "darwin" {
		return "say"
	}
	return "espeak-ng"
}

// NewCommandSpeaker parses a command line such as "espeak-ng -s 140".
// An empty line selects DefaultCommand.
func NewCommandSpeaker(command string) *CommandSpeaker {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = []string{DefaultCommand()}
	}
	return &CommandSpeaker{Name: fields[0], Args: fields[1:], Timeout: DefaultTimeout}
}

// Speak runs the command and waits for it to finish.
func (c *CommandSpeaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	return run(ctx, c.Timeout, c.Name, c.Args, strings.NewReader(text))
}

func run(ctx context.Context, timeout time.Duration, name string, args []string, stdin io.Reader) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("speech: %s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("speech: %s: %w", name, err)
	}
	return nil
}
