package ui

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// RunWithSpinner runs fn behind an animated status line on stderr.
// Non-interactive terminals run fn directly with no output. Ctrl+C or
// esc cancels fn's context and reports context.Canceled.
func RunWithSpinner(ctx context.Context, msg string, fn func(ctx context.Context) error) error {
	if IsNoInteraction() {
		return fn(ctx)
	}

	fnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := &busyLine{
		spin: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
		msg:  msg,
	}
	prog := tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithContext(ctx))

	done := make(chan error, 1)
	go func() {
		done <- fn(fnCtx)
		prog.Send(busyDone{})
	}()

	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("status spinner: %w", err)
	}
	if m.aborted {
		return context.Canceled
	}
	return <-done
}

type busyDone struct{}

type busyLine struct {
	spin    spinner.Model
	msg     string
	quiet   bool
	aborted bool
}

func (m *busyLine) Init() tea.Cmd { return m.spin.Tick }

func (m *busyLine) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if s := msg.String(); s == "ctrl+c" || s == "esc" {
			m.aborted = true
			m.quiet = true
			return m, tea.Quit
		}
	case busyDone:
		m.quiet = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *busyLine) View() string {
	if m.quiet {
		return ""
	}
	return m.spin.View() + m.msg + "\n"
}
