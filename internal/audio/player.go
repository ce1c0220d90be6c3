package audio

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Player plays a resolved audio source
type Player interface {
	Play(ctx context.Context, source string) error
}

// PlayerFunc adapts a function to Player
type PlayerFunc func(ctx context.Context, source string) error

// Play calls f
func (f PlayerFunc) Play(ctx context.Context, source string) error {
	return f(ctx, source)
}

// CommandPlayer plays files with the platform's command line player and
// waits until playback ends
type CommandPlayer struct {
	lookPath func(string) (string, error)
	goos     string
}

// NewCommandPlayer creates a player for the current platform
func NewCommandPlayer() *CommandPlayer {
	return &CommandPlayer{lookPath: exec.LookPath, goos: runtime.GOOS}
}

// Command returns the player command for file
func (p *CommandPlayer) Command(ctx context.Context, file string) (*exec.Cmd, error) {
	switch p.goos {
	case "darwin":
		return exec.CommandContext(ctx, "afplay", file), nil
	case "linux":
		// mpg123 first since it handles MP3 files best
		if _, err := p.lookPath("mpg123"); err == nil {
			return exec.CommandContext(ctx, "mpg123", "-q", file), nil
		} else if _, err := p.lookPath("ffplay"); err == nil {
			return exec.CommandContext(ctx, "ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", file), nil
		} else if _, err := p.lookPath("play"); err == nil {
			// SoX play command
			return exec.CommandContext(ctx, "play", "-q", file), nil
		} else if _, err := p.lookPath("paplay"); err == nil {
			return exec.CommandContext(ctx, "paplay", file), nil
		} else if _, err := p.lookPath("aplay"); err == nil {
			return exec.CommandContext(ctx, "aplay", "-q", file), nil
		}
		return nil, fmt.Errorf("no audio player found. Install mpg123, ffplay, sox, paplay, or aplay")
	case "windows":
		return exec.CommandContext(ctx, "cmd", "/c", "start", "/min", file), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", p.goos)
	}
}

// Play runs the player command for source
func (p *CommandPlayer) Play(ctx context.Context, source string) error {
	cmd, err := p.Command(ctx, source)
	if err != nil {
		return err
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w\nOutput: %s", cmd.Args[0], err, string(output))
	}
	return nil
}
