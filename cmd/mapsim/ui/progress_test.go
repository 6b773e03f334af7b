package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/piyanatk/mapsim"
	"github.com/piyanatk/mapsim/pkg/telemetry"
)

func captureFrames() (*tracker, *[][]row) {
	frames := &[][]row{}
	t := newTracker(func(rows []row) {
		*frames = append(*frames, rows)
	})
	return t, frames
}

func lastFrame(t *testing.T, frames [][]row) []row {
	t.Helper()
	if len(frames) == 0 {
		t.Fatal("no frames emitted")
	}
	return frames[len(frames)-1]
}

func findRow(frame []row, id string) (row, bool) {
	for _, r := range frame {
		if r.id == id {
			return r, true
		}
	}
	return row{}, false
}

func mustRow(t *testing.T, frame []row, id string) row {
	t.Helper()
	r, ok := findRow(frame, id)
	if !ok {
		t.Fatalf("missing row %q", id)
	}
	return r
}

func TestProgressFollowsPipelineSpans(t *testing.T) {
	t.Parallel()

	tr, frames := captureFrames()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanFold{tr}))
	tracer := provider.Tracer("ui-test")

	op, err := telemetry.EmitPlan(context.Background(), tracer, "scan.run", "eor0",
		telemetry.PipelinePlan(mapsim.StageVisgen, mapsim.StageUVFITS))
	if err != nil {
		t.Fatalf("EmitPlan: %v", err)
	}
	if err := op.RunStage(op.Context(), mapsim.StageVisgen, func(context.Context) error {
		time.Sleep(time.Millisecond)
		return nil
	}); err != nil {
		t.Fatalf("RunStage: %v", err)
	}
	boom := errors.New("exit status 1")
	_ = op.RunStage(op.Context(), mapsim.StageUVFITS, func(context.Context) error { return boom })
	op.End(boom)

	final := lastFrame(t, *frames)
	if final[0].id != "visgen" || final[1].id != "uvfits" {
		t.Fatalf("row order = [%s %s], want plan order", final[0].id, final[1].id)
	}

	visgen := mustRow(t, final, "visgen")
	if visgen.phase != rowPassed {
		t.Errorf("visgen phase = %d, want passed", visgen.phase)
	}
	if visgen.took <= 0 {
		t.Errorf("visgen took = %v, want span-derived duration", visgen.took)
	}

	uvfits := mustRow(t, final, "uvfits")
	if uvfits.phase != rowFailed {
		t.Errorf("uvfits phase = %d, want failed", uvfits.phase)
	}
	if uvfits.note != "exit status 1" {
		t.Errorf("uvfits note = %q", uvfits.note)
	}
}

func TestTrackerGroupTally(t *testing.T) {
	t.Parallel()

	tr, frames := captureFrames()
	tr.setPlan(telemetry.Plan{Steps: []telemetry.PlannedStep{
		{ID: "runs", Title: "Running scans"},
		{ID: "runs/eor0_low", ParentID: "runs", Title: "eor0_low"},
		{ID: "runs/eor0_hi", ParentID: "runs", Title: "eor0_hi"},
	}})
	tr.begin("runs")
	tr.begin("runs/eor0_low")
	tr.finish("runs/eor0_low", time.Second, false, "")
	tr.begin("runs/eor0_hi")
	tr.finish("runs/eor0_hi", time.Second, true, "visgen wrote stderr")
	tr.finish("runs", 2*time.Second, true, "1 of 2 scans failed")

	midSeen := false
	for _, frame := range *frames {
		group, ok := findRow(frame, "runs")
		low, okLow := findRow(frame, "runs/eor0_low")
		if ok && okLow && group.phase == rowActive && low.phase == rowPassed {
			if group.note != "1 of 2 done" {
				t.Errorf("mid-batch group note = %q, want 1 of 2 done", group.note)
			}
			midSeen = true
			break
		}
	}
	if !midSeen {
		t.Error("no frame showed the group tally mid-batch")
	}

	final := lastFrame(t, *frames)
	group := mustRow(t, final, "runs")
	if group.phase != rowFailed {
		t.Errorf("group phase = %d, want failed", group.phase)
	}
	if group.note != "1 of 2 scans failed" {
		t.Errorf("failed group note = %q, want its own error text", group.note)
	}
	child := mustRow(t, final, "runs/eor0_hi")
	if child.note != "visgen wrote stderr" {
		t.Errorf("failed child note = %q", child.note)
	}
}

func TestTrackerAdoptsUnplannedSpans(t *testing.T) {
	t.Parallel()

	tr, frames := captureFrames()
	tr.begin("runs/field1")
	tr.finish("runs/field1", time.Second, false, "")

	final := lastFrame(t, *frames)
	if final[0].id != "runs" || final[1].id != "runs/field1" {
		t.Fatalf("row order = [%s %s], want group before child", final[0].id, final[1].id)
	}

	child := mustRow(t, final, "runs/field1")
	if child.group != "runs" {
		t.Errorf("child group = %q, want runs", child.group)
	}
	group := mustRow(t, final, "runs")
	if group.phase != rowActive {
		t.Errorf("group phase = %d, want active while children settle", group.phase)
	}
	if group.note != "1 of 1 done" {
		t.Errorf("group note = %q, want 1 of 1 done", group.note)
	}
}

func TestPlainRendererPrintsTransitionsOnce(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	p := newPlainRenderer(&buf)

	active := []row{{id: "visgen", label: "Generating visibilities", phase: rowActive}}
	p.update(active)
	p.update(active)
	p.update([]row{{id: "visgen", label: "Generating visibilities", phase: rowPassed, took: 2 * time.Second}})

	out := buf.String()
	if got := strings.Count(out, " run  Generating visibilities"); got != 1 {
		t.Errorf("run line printed %d times, want 1\n%s", got, out)
	}
	if !strings.Contains(out, "done  Generating visibilities (2s)") {
		t.Errorf("missing done line with duration:\n%s", out)
	}
}

func TestPlainLine(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		r    row
		want string
	}{
		{
			name: "active stage",
			r:    row{id: "visgen", label: "Generating visibilities", phase: rowActive},
			want: "   run  Generating visibilities",
		},
		{
			name: "done batch child with duration",
			r:    row{id: "runs/eor0", group: "runs", label: "eor0", phase: rowPassed, took: 90 * time.Second},
			want: "    done  eor0 (1m30s)",
		},
		{
			name: "failed stage with note",
			r:    row{id: "uvfits", label: "Converting to UVFITS", phase: rowFailed, note: "exit status 1"},
			want: "  FAIL  Converting to UVFITS: exit status 1",
		},
		{
			name: "active group with tally",
			r:    row{id: "runs", label: "Running scans", phase: rowActive, note: "3 of 8 done"},
			want: "   run  Running scans (3 of 8 done)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := plainLine(tc.r); got != tc.want {
				t.Errorf("plainLine() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCompactDuration(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		d    time.Duration
		want string
	}{
		{d: 45 * time.Millisecond, want: "45ms"},
		{d: 2500 * time.Millisecond, want: "2.5s"},
		{d: 90*time.Second + 300*time.Millisecond, want: "1m30s"},
	}
	for _, tc := range testCases {
		if got := compactDuration(tc.d); got != tc.want {
			t.Errorf("compactDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
