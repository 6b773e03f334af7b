// Package ui renders mapsim's terminal output: styled messages, key
// value blocks, and tables on every terminal, plus live progress,
// prompts, and pickers when the terminal is interactive.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Palette, named by role rather than hue so the hues can shift without
// touching call sites.
var (
	accentColor  = lipgloss.Color("44")
	successColor = lipgloss.Color("77")
	warnColor    = lipgloss.Color("178")
	errorColor   = lipgloss.Color("167")
	mutedColor   = lipgloss.Color("246")
	borderColor  = lipgloss.Color("240")
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(accentColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
)

// Accent highlights a value inside a message: a scan name, a path, an id.
func Accent(s string) string { return accentStyle.Render(s) }

func Muted(s string) string   { return mutedStyle.Render(s) }
func Success(s string) string { return successStyle.Render(s) }
func Warn(s string) string    { return warnStyle.Render(s) }
func Error(s string) string   { return errorStyle.Render(s) }

// Status lines: one glyph, one formatted message, no trailing newline.

func InfoMsg(format string, a ...any) string    { return statusLine(accentStyle, "•", format, a) }
func SuccessMsg(format string, a ...any) string { return statusLine(successStyle, "✓", format, a) }
func WarnMsg(format string, a ...any) string    { return statusLine(warnStyle, "!", format, a) }
func ErrorMsg(format string, a ...any) string   { return statusLine(errorStyle, "✗", format, a) }

func statusLine(style lipgloss.Style, glyph, format string, args []any) string {
	return style.Render(glyph) + " " + fmt.Sprintf(format, args...)
}

// Pair is one labelled value for KeyValues.
type Pair struct {
	key   string
	value string
}

// KV builds a Pair.
func KV(key, value string) Pair { return Pair{key: key, value: value} }

// KeyValues renders pairs as aligned "key: value" lines, one per pair,
// ending with a newline.
func KeyValues(indent string, pairs ...Pair) string {
	widest := 0
	for _, p := range pairs {
		widest = max(widest, len(p.key))
	}

	var b strings.Builder
	for _, p := range pairs {
		b.WriteString(indent)
		b.WriteString(mutedStyle.Render(p.key + ":"))
		b.WriteString(strings.Repeat(" ", widest-len(p.key)+1))
		b.WriteString(p.value)
		b.WriteByte('\n')
	}
	return b.String()
}

// Table renders rows under a bold header inside rounded borders.
func Table(headers []string, rows [][]string) string {
	header := accentStyle.Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}
