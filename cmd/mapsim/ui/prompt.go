package ui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// Confirm asks a yes/no question on stderr, defaulting to no; the
// answered prompt stays on screen. bypassHint names the flag that skips
// the prompt (e.g. "use --yes to skip"); non-interactive terminals
// return *NoInteractionError carrying it.
func Confirm(question, bypassHint string) (bool, error) {
	if err := RequireInteraction(bypassHint); err != nil {
		return false, fmt.Errorf("confirmation required: %w", err)
	}

	m := &confirmPrompt{question: question}
	if _, err := tea.NewProgram(m, tea.WithOutput(os.Stderr)).Run(); err != nil {
		return false, fmt.Errorf("confirm prompt: %w", err)
	}
	if m.aborted {
		return false, ErrCancelled
	}
	return m.answer, nil
}

type confirmPrompt struct {
	question string
	answer   bool
	decided  bool
	aborted  bool
}

func (m *confirmPrompt) Init() tea.Cmd { return nil }

func (m *confirmPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answer = true
		m.decided = true
		return m, tea.Quit
	case "n", "N", "enter":
		m.decided = true
		return m, tea.Quit
	case "esc", "ctrl+c":
		m.aborted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *confirmPrompt) View() string {
	line := warnStyle.Render("?") + " " + m.question + " " + mutedStyle.Render("[y/N]")
	switch {
	case m.aborted:
		return line + " " + mutedStyle.Render("cancelled") + "\n"
	case m.decided && m.answer:
		return line + " yes\n"
	case m.decided:
		return line + " no\n"
	}
	return line + " "
}
