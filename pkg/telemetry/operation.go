// Package telemetry emits step-planned traces for pipeline runs. A
// command opens an operation span for one scan, announces the stages it
// intends to run as a plan event, and wraps each stage in a child span;
// terminal renderers turn the spans into live checklists.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/piyanatk/mapsim"
)

// Span attribute and event names shared with the renderers.
const (
	PlanEventName  = "mapsim.plan"
	PlanVersion    = "1"
	PlanVersionKey = "mapsim.plan.version"
	PlanJSONKey    = "mapsim.plan.json"
	ScanKey        = "mapsim.scan"
)

type PlannedStep struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Title    string `json:"title"`
}

type Plan struct {
	Steps []PlannedStep `json:"steps"`
}

// Validate rejects plans a renderer could not lay out: steps without
// ids, duplicate ids, and parents the plan never names.
func (p Plan) Validate() error {
	ids := make(map[string]struct{}, len(p.Steps))
	for i, step := range p.Steps {
		id := strings.TrimSpace(step.ID)
		if id == "" {
			return fmt.Errorf("step %d has no id", i)
		}
		if _, dup := ids[id]; dup {
			return fmt.Errorf("step id %q appears twice", id)
		}
		ids[id] = struct{}{}
	}
	for i, step := range p.Steps {
		parent := strings.TrimSpace(step.ParentID)
		if parent == "" {
			continue
		}
		if _, ok := ids[parent]; !ok {
			return fmt.Errorf("step %d names unknown parent %q", i, parent)
		}
	}
	return nil
}

// PipelinePlan lays out the stages a scan will run, in order.
func PipelinePlan(stages ...mapsim.Stage) Plan {
	var p Plan
	for _, st := range stages {
		p.Steps = append(p.Steps, PlannedStep{ID: st.String(), Title: StageTitle(st)})
	}
	return p
}

// StageTitle is the human-readable checklist label for a stage.
func StageTitle(st mapsim.Stage) string {
	switch st {
	case mapsim.StageGrid:
		return "Gridding sky image"
	case mapsim.StageSpec:
		return "Writing observation spec"
	case mapsim.StageVisgen:
		return "Generating visibilities"
	case mapsim.StageUVFITS:
		return "Converting to UVFITS"
	case mapsim.StageLog:
		return "Writing run log"
	default:
		return st.String()
	}
}

// Operation is an open root span with a declared stage plan.
type Operation struct {
	ctx    context.Context
	tracer trace.Tracer
	span   trace.Span
}

// EmitPlan opens the operation span and records the plan as both a span
// attribute and an event, so renderers that subscribe late still see it.
// The scan name, when set, is attached for multi-scan batches.
func EmitPlan(ctx context.Context, tracer trace.Tracer, operation, scan string, plan Plan) (*Operation, error) {
	if tracer == nil {
		return nil, fmt.Errorf("emit telemetry plan: tracer is required")
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("emit telemetry plan: %w", err)
	}
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("emit telemetry plan: marshal plan: %w", err)
	}

	attrs := []attribute.KeyValue{
		attribute.String(PlanVersionKey, PlanVersion),
		attribute.String(PlanJSONKey, string(planJSON)),
	}
	if scan != "" {
		attrs = append(attrs, attribute.String(ScanKey, scan))
	}

	name := strings.TrimSpace(operation)
	if name == "" {
		name = "pipeline"
	}
	spanCtx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	span.AddEvent(PlanEventName, trace.WithAttributes(attrs...))

	return &Operation{ctx: spanCtx, tracer: tracer, span: span}, nil
}

// Context carries the operation span, so steps started from it nest
// under the operation.
func (o *Operation) Context() context.Context {
	if o == nil || o.ctx == nil {
		return context.Background()
	}
	return o.ctx
}

// RunStep runs fn in a child span named by the planned step id. A nil
// operation or tracer degrades to calling fn directly, so library code
// works without telemetry wiring.
func (o *Operation) RunStep(ctx context.Context, id string, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("run telemetry step: step id is required")
	}
	if o == nil || o.tracer == nil {
		return fn(ctx)
	}
	if ctx == nil {
		ctx = o.Context()
	}

	stepCtx, span := o.tracer.Start(ctx, id)
	defer span.End()

	err := fn(stepCtx)
	if err != nil {
		markFailed(span, err)
	}
	return err
}

// RunStage runs fn in a child span named after the pipeline stage.
func (o *Operation) RunStage(ctx context.Context, stage mapsim.Stage, fn func(context.Context) error) error {
	return o.RunStep(ctx, stage.String(), fn)
}

// End closes the operation span, recording err when the run failed.
func (o *Operation) End(err error) {
	if o == nil || o.span == nil {
		return
	}
	if err != nil {
		markFailed(o.span, err)
	}
	o.span.End()
}

func markFailed(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
}
