package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PickRow shows rows as a navigable table on stderr and returns the
// index of the row chosen with enter, or -1 when the user backs out.
// Non-interactive terminals get the static table on stdout and -1.
func PickRow(headers []string, rows [][]string) (int, error) {
	if IsNoInteraction() {
		fmt.Println(Table(headers, rows))
		return -1, nil
	}

	t := table.New(
		table.WithColumns(pickerColumns(headers, rows)),
		table.WithRows(pickerRows(rows)),
		table.WithFocused(true),
		table.WithHeight(min(len(rows), 15)),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Foreground(accentColor).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(borderColor)
	styles.Selected = styles.Selected.Reverse(true).Bold(false)
	t.SetStyles(styles)

	m := &rowPicker{table: t, choice: -1}
	if _, err := tea.NewProgram(m, tea.WithOutput(os.Stderr)).Run(); err != nil {
		return -1, fmt.Errorf("row picker: %w", err)
	}
	return m.choice, nil
}

// pickerColumns sizes each column to its widest cell, capped so one
// long value cannot push the rest off screen.
func pickerColumns(headers []string, rows [][]string) []table.Column {
	const widthCap = 40

	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		width := len(h)
		for _, row := range rows {
			if i < len(row) {
				width = max(width, len(row[i]))
			}
		}
		cols[i] = table.Column{Title: h, Width: min(width, widthCap) + 2}
	}
	return cols
}

func pickerRows(rows [][]string) []table.Row {
	out := make([]table.Row, len(rows))
	for i, row := range rows {
		out[i] = table.Row(row)
	}
	return out
}

type rowPicker struct {
	table  table.Model
	choice int
}

func (m *rowPicker) Init() tea.Cmd { return nil }

func (m *rowPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			m.choice = m.table.Cursor()
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			m.choice = -1
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *rowPicker) View() string {
	return m.table.View() + "\n" + mutedStyle.Render("↑/↓ move · enter choose · q cancel") + "\n"
}
