package mapsim

import "time"

// RunPhase is the lifecycle state of a recorded simulation run.
type RunPhase uint8

const (
	RunRunning RunPhase = iota + 1
	RunSucceeded
	RunFailed
)

func (p RunPhase) String() string {
	switch p {
	case RunRunning:
		return "running"
	case RunSucceeded:
		return "succeeded"
	case RunFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseRunPhase maps a phase name back to its RunPhase, for records read
// from the run registry. Unknown names map to the zero value.
func ParseRunPhase(s string) RunPhase {
	switch s {
	case "running":
		return RunRunning
	case "succeeded":
		return RunSucceeded
	case "failed":
		return RunFailed
	default:
		return 0
	}
}

// RunRecord is a row in the local run registry. One record per driver
// invocation, written when the pipeline starts and updated once when it
// finishes.
type RunRecord struct {
	ID         string
	Name       string
	Image      string
	Site       string
	Mode       string
	Phase      RunPhase
	Stage      Stage
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall-clock time of a finished run, zero while running.
func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
