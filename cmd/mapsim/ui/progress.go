package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/piyanatk/mapsim/pkg/telemetry"
)

// Progress renders the span stream of one pipeline invocation as
// terminal progress. Interactive terminals get a live checklist that
// repaints in place; everything else gets one plain line per state
// change.
type Progress struct {
	provider *sdktrace.TracerProvider
	stopLive func()
}

// NewProgress wires a tracer provider whose spans drive the renderer
// picked for the current terminal.
func NewProgress() *Progress {
	p := &Progress{stopLive: func() {}}

	var emit func([]row)
	if IsInteractive() {
		live := newChecklist()
		emit = live.update
		p.stopLive = live.close
	} else {
		emit = newPlainRenderer(os.Stderr).update
	}

	p.provider = sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(spanFold{newTracker(emit)}),
	)
	return p
}

// Tracer returns a tracer feeding this renderer, or the globally
// registered one when no provider was wired.
func (p *Progress) Tracer(name string) trace.Tracer {
	if p == nil || p.provider == nil {
		return otel.Tracer(name)
	}
	return p.provider.Tracer(name)
}

// Close flushes the provider and stops the live renderer. The final
// frame stays on screen.
func (p *Progress) Close() {
	if p == nil {
		return
	}
	if p.provider != nil {
		_ = p.provider.Shutdown(context.Background())
	}
	p.stopLive()
}

// rowPhase is the lifecycle of one checklist row.
type rowPhase uint8

const (
	rowPending rowPhase = iota
	rowActive
	rowPassed
	rowFailed
)

// row is one line of progress: a pipeline stage, a batch scan, or the
// group holding the scans. Ids nest one level by slash ("runs/eor0"
// sits under "runs").
type row struct {
	id    string
	group string
	label string
	phase rowPhase
	note  string
	took  time.Duration
}

// tracker folds plan announcements and span transitions into an ordered
// row list and hands a copy to emit after every change. Planned rows
// keep plan order; rows first seen as spans append at the end.
type tracker struct {
	mu   sync.Mutex
	rows []row
	byID map[string]int
	emit func([]row)
}

func newTracker(emit func([]row)) *tracker {
	return &tracker{byID: make(map[string]int), emit: emit}
}

func (t *tracker) setPlan(plan telemetry.Plan) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, step := range plan.Steps {
		id := strings.TrimSpace(step.ID)
		if id == "" {
			continue
		}
		i, ok := t.byID[id]
		if !ok {
			i = t.appendLocked(row{id: id})
		}
		t.rows[i].group = strings.TrimSpace(step.ParentID)
		t.rows[i].label = strings.TrimSpace(step.Title)
		if t.rows[i].label == "" {
			t.rows[i].label = id
		}
	}
	t.emitLocked()
}

func (t *tracker) begin(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.ensureLocked(name)
	t.rows[i].phase = rowActive
	t.rows[i].note = ""
	t.emitLocked()
}

func (t *tracker) finish(name string, took time.Duration, failed bool, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.ensureLocked(name)
	t.rows[i].took = took
	if failed {
		t.rows[i].phase = rowFailed
		t.rows[i].note = note
	} else {
		t.rows[i].phase = rowPassed
		t.rows[i].note = ""
	}
	t.emitLocked()
}

func (t *tracker) ensureLocked(name string) int {
	id := strings.TrimSpace(name)
	if id == "" {
		id = "step"
	}
	if i, ok := t.byID[id]; ok {
		return i
	}

	group := ""
	if cut := strings.LastIndex(id, "/"); cut > 0 {
		group = id[:cut]
		if _, ok := t.byID[group]; !ok {
			t.appendLocked(row{id: group, label: group})
		}
	}
	return t.appendLocked(row{id: id, group: group, label: id})
}

func (t *tracker) appendLocked(r row) int {
	t.byID[r.id] = len(t.rows)
	t.rows = append(t.rows, r)
	return len(t.rows) - 1
}

// emitLocked snapshots the rows, writes group tallies, and reports.
// A failed group keeps its own error note; otherwise the tally wins.
func (t *tracker) emitLocked() {
	if t.emit == nil {
		return
	}

	frame := make([]row, len(t.rows))
	copy(frame, t.rows)

	type tally struct {
		total, passed, failed int
		active                bool
	}
	tallies := make(map[string]*tally)
	for _, r := range frame {
		if r.group == "" {
			continue
		}
		c := tallies[r.group]
		if c == nil {
			c = &tally{}
			tallies[r.group] = c
		}
		c.total++
		switch r.phase {
		case rowPassed:
			c.passed++
		case rowFailed:
			c.failed++
		case rowActive:
			c.active = true
		}
	}

	for i := range frame {
		c := tallies[frame[i].id]
		if c == nil {
			continue
		}
		if frame[i].phase != rowFailed || frame[i].note == "" {
			note := fmt.Sprintf("%d of %d done", c.passed, c.total)
			if c.failed > 0 {
				note += fmt.Sprintf(", %d failed", c.failed)
			}
			frame[i].note = note
		}
		moving := c.active || c.passed > 0 || c.failed > 0
		if frame[i].phase == rowPending && moving {
			frame[i].phase = rowActive
		}
	}

	t.emit(frame)
}

// spanFold maps the span stream onto tracker transitions: the root span
// announces the plan, child spans are rows keyed by span name, and row
// durations come from the span clock.
type spanFold struct {
	t *tracker
}

func (f spanFold) OnStart(_ context.Context, span sdktrace.ReadWriteSpan) {
	if f.t == nil {
		return
	}
	if span.Parent().IsValid() {
		f.t.begin(span.Name())
		return
	}
	if plan, ok := planFromSpan(span); ok {
		f.t.setPlan(plan)
	}
}

func (f spanFold) OnEnd(span sdktrace.ReadOnlySpan) {
	if f.t == nil || !span.Parent().IsValid() {
		return
	}
	status := span.Status()
	f.t.finish(
		span.Name(),
		span.EndTime().Sub(span.StartTime()),
		status.Code == codes.Error,
		strings.TrimSpace(status.Description),
	)
}

func (spanFold) Shutdown(context.Context) error   { return nil }
func (spanFold) ForceFlush(context.Context) error { return nil }

func planFromSpan(span sdktrace.ReadWriteSpan) (telemetry.Plan, bool) {
	var raw string
	for _, attr := range span.Attributes() {
		if string(attr.Key) == telemetry.PlanJSONKey {
			raw = attr.Value.AsString()
			break
		}
	}
	if strings.TrimSpace(raw) == "" {
		return telemetry.Plan{}, false
	}

	var plan telemetry.Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return telemetry.Plan{}, false
	}
	return plan, true
}

// plainRenderer writes one line per row transition, for logs and dumb
// terminals. Unchanged rows stay silent across frames.
type plainRenderer struct {
	mu   sync.Mutex
	w    io.Writer
	seen map[string]string
}

func newPlainRenderer(w io.Writer) *plainRenderer {
	return &plainRenderer{w: w, seen: make(map[string]string)}
}

func (p *plainRenderer) update(rows []row) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, r := range rows {
		if r.phase == rowPending {
			continue
		}
		key := fmt.Sprintf("%d|%s", r.phase, r.note)
		if p.seen[r.id] == key {
			continue
		}
		p.seen[r.id] = key
		fmt.Fprintln(p.w, plainLine(r))
	}
}

func plainLine(r row) string {
	indent := "  "
	if r.group != "" {
		indent = "    "
	}

	switch r.phase {
	case rowActive:
		if r.note != "" {
			return fmt.Sprintf("%s run  %s (%s)", indent, r.label, r.note)
		}
		return fmt.Sprintf("%s run  %s", indent, r.label)
	case rowFailed:
		if r.note != "" {
			return fmt.Sprintf("%sFAIL  %s: %s", indent, r.label, r.note)
		}
		return fmt.Sprintf("%sFAIL  %s", indent, r.label)
	default:
		var extra []string
		if r.took > 0 {
			extra = append(extra, compactDuration(r.took))
		}
		if r.note != "" {
			extra = append(extra, r.note)
		}
		if len(extra) > 0 {
			return fmt.Sprintf("%sdone  %s (%s)", indent, r.label, strings.Join(extra, ", "))
		}
		return fmt.Sprintf("%sdone  %s", indent, r.label)
	}
}

// compactDuration drops precision the longer a step ran, so checklist
// lines stay short.
func compactDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return d.Round(time.Second).String()
	case d >= time.Second:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}
