package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

var spinGlyphs = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// checklist paints progress rows in place on stderr: pending rows
// muted, active rows animated, finished rows marked with the time they
// took. Row lists only ever extend, so a repaint moves the cursor up
// over the previous frame and rewrites every line.
type checklist struct {
	mu    sync.Mutex
	rows  []row
	drawn int
	tick  int

	stop     chan struct{}
	stopOnce sync.Once
}

func newChecklist() *checklist {
	c := &checklist{stop: make(chan struct{})}
	go c.animate()
	return c
}

// update takes a fresh frame from the tracker and repaints.
func (c *checklist) update(rows []row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = rows
	c.paint()
}

func (c *checklist) close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *checklist) animate() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.tick++
			// Repaint on ticks only while a row is active; a settled
			// checklist must not chase output printed below it.
			if c.anyActiveLocked() {
				c.paint()
			}
			c.mu.Unlock()
		}
	}
}

func (c *checklist) anyActiveLocked() bool {
	for _, r := range c.rows {
		if r.phase == rowActive {
			return true
		}
	}
	return false
}

// paint rewrites the whole block in one write. Caller holds c.mu.
func (c *checklist) paint() {
	if len(c.rows) == 0 {
		return
	}

	var b strings.Builder
	if c.drawn > 0 {
		fmt.Fprintf(&b, "\x1b[%dA", c.drawn)
	}
	for _, r := range c.rows {
		b.WriteString("\r\x1b[2K")
		b.WriteString(checkRow(r, c.tick))
		b.WriteByte('\n')
	}
	os.Stderr.WriteString(b.String())
	c.drawn = len(c.rows)
}

func checkRow(r row, tick int) string {
	indent := "  "
	if r.group != "" {
		indent = "    "
	}

	var line string
	switch r.phase {
	case rowActive:
		line = indent + accentStyle.Render(spinGlyphs[tick%len(spinGlyphs)]) + " " + r.label
	case rowPassed:
		line = indent + successStyle.Render("✓") + " " + r.label
		if r.took > 0 {
			line += " " + mutedStyle.Render(compactDuration(r.took))
		}
	case rowFailed:
		line = indent + errorStyle.Render("✗") + " " + errorStyle.Render(r.label)
	default:
		line = indent + mutedStyle.Render("·") + " " + mutedStyle.Render(r.label)
	}
	if r.note != "" {
		line += " " + mutedStyle.Render(r.note)
	}
	return line
}
