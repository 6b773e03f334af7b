package drift

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/piyanatk/mapsim/pkg/mapsrun"
)

// DefaultWorkers bounds concurrent scans in a batch.
const DefaultWorkers = 4

// BatchResult pairs one batch scan with its outcome.
type BatchResult struct {
	Name     string
	Err      error
	Duration time.Duration
}

// BatchOptions tune a batch run.
type BatchOptions struct {
	// Workers bounds concurrent scans; zero or negative uses
	// DefaultWorkers.
	Workers int

	// RunScan overrides how one scan executes. The CLI nests each scan
	// in a telemetry step through it; nil runs Scan.Run directly.
	RunScan func(ctx context.Context, s *Scan) error
}

// BuildScans materializes manifest configurations into scans sharing one
// toolchain. Two scans resolving to the same name would overwrite each
// other's product files, so duplicates are rejected.
func BuildScans(cfgs []Config, tools *mapsrun.Tools) ([]*Scan, error) {
	scans := make([]*Scan, 0, len(cfgs))
	seen := make(map[string]struct{}, len(cfgs))
	for i, cfg := range cfgs {
		s, err := New(cfg, tools)
		if err != nil {
			return nil, fmt.Errorf("scan %d: %w", i+1, err)
		}
		if _, dup := seen[s.Name()]; dup {
			return nil, fmt.Errorf("scan %d: name %q is already taken; products would collide", i+1, s.Name())
		}
		seen[s.Name()] = struct{}{}
		scans = append(scans, s)
	}
	return scans, nil
}

// RunBatch executes independent scans through a fixed-size worker pool.
// Scans share no state, so a failing scan does not stop its siblings;
// every scan's outcome is reported in input order. Cancelling the
// context stops pending work at the next external tool launch.
func RunBatch(ctx context.Context, scans []*Scan, opts BatchOptions) []BatchResult {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	run := opts.RunScan
	if run == nil {
		run = func(ctx context.Context, s *Scan) error { return s.Run(ctx) }
	}

	results := make([]BatchResult, len(scans))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, sc := range scans {
		g.Go(func() error {
			start := time.Now()
			err := run(ctx, sc)
			results[i] = BatchResult{Name: sc.Name(), Err: err, Duration: time.Since(start)}
			return nil
		})
	}
	// Workers record their outcome instead of returning it.
	_ = g.Wait()
	return results
}
