package ui

import (
	"errors"
	"os"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ErrCancelled is returned when the user aborts an interactive prompt.
var ErrCancelled = errors.New("cancelled")

// NoInteractionError reports that a prompt was needed but the terminal
// cannot show one. Hint names the flag that bypasses the prompt.
type NoInteractionError struct {
	Hint string
}

func (e *NoInteractionError) Error() string {
	msg := "terminal is non-interactive"
	if e.Hint != "" {
		msg += "; " + e.Hint
	}
	return msg
}

// RequireInteraction errors when prompts cannot be shown.
func RequireInteraction(bypassHint string) error {
	if IsInteractive() {
		return nil
	}
	return &NoInteractionError{Hint: bypassHint}
}

// interactivity stays 0 until decided, then holds interactiveYes or
// interactiveNo for the rest of the process.
var interactivity atomic.Int32

const (
	interactiveYes int32 = 1
	interactiveNo  int32 = 2
)

// ConfigureInteraction decides whether this process may prompt, spin,
// and repaint, and pins the lipgloss color profile to match. The root
// command calls it before any subcommand runs.
func ConfigureInteraction(noInteraction bool) {
	mode := interactiveNo
	if decideInteractive(noInteraction) {
		mode = interactiveYes
	}
	interactivity.Store(mode)

	if mode == interactiveYes {
		lipgloss.SetColorProfile(termenv.ColorProfile())
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

// IsInteractive reports whether interactive rendering is on, deciding
// from the environment when ConfigureInteraction has not run yet.
func IsInteractive() bool {
	if interactivity.Load() == 0 {
		ConfigureInteraction(false)
	}
	return interactivity.Load() == interactiveYes
}

func IsNoInteraction() bool { return !IsInteractive() }

func decideInteractive(forcedOff bool) bool {
	if forcedOff || envTruthy("NO_INTERACTION") || envTruthy("CI") {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TERM")), "dumb") {
		return false
	}
	fi, err := os.Stderr.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func envTruthy(name string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	return slices.Contains([]string{"1", "true", "yes", "on"}, v)
}
