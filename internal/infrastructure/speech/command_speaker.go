package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/logging"
)

// CommandSpeaker speaks through an external TTS binary such as espeak.
// Every utterance runs in its own process and blocks until it exits.
type CommandSpeaker struct {
	Command string
	Rate    int
	Voice   string

	path string
}

func NewCommandSpeaker(command string, rate int, voice string) (*CommandSpeaker, error) {
	s := &CommandSpeaker{Command: command, Rate: rate, Voice: voice}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CommandSpeaker) Args(text string) []string {
	var args []string
	if s.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(s.Rate))
	}
	if s.Voice != "" {
		args = append(args, "-v", s.Voice)
	}
	return append(args, text)
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.path, s.Args(text)...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", s.Command, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Reset resolves the binary again, picking up a reinstalled engine.
func (s *CommandSpeaker) Reset() error {
	path, err := exec.LookPath(s.Command)
	if err != nil {
		return fmt.Errorf("speech engine %q: %w", s.Command, err)
	}
	s.path = path
	return nil
}

// LogSpeaker writes announcements to the log when no engine is installed.
type LogSpeaker struct {
	Logger logging.Logger
}

func (s *LogSpeaker) Speak(_ context.Context, text string) error {
	s.Logger.Info("announcement", map[string]any{"text": text})
	return nil
}

func (s *LogSpeaker) Reset() error { return nil }
