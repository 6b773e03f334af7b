// Package ntpcheck verifies the local clock against an NTP pool. Runs
// with an absolute scan start trust the operator's wall clock; a skewed
// clock silently shifts the simulated hour angle, so the driver checks
// before such runs and during environment preflight.
package ntpcheck

import (
	"time"

	"github.com/beevik/ntp"
)

const (
	DefaultPool      = "pool.ntp.org"
	DefaultThreshold = 500 * time.Millisecond
)

// Verdict classifies one clock check.
type Verdict uint8

const (
	ClockHealthy Verdict = iota + 1
	ClockSkewed
	ClockUnknown // the query failed
)

func (v Verdict) String() string {
	switch v {
	case ClockHealthy:
		return "healthy"
	case ClockSkewed:
		return "skewed"
	case ClockUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// Status is the outcome of one clock check.
type Status struct {
	Offset    time.Duration
	Verdict   Verdict
	Server    string
	Error     string
	CheckedAt time.Time
}

// Checker queries an NTP pool and judges the local clock offset.
type Checker struct {
	Pool      string        // NTP pool host; empty uses DefaultPool
	Threshold time.Duration // allowed absolute offset; zero uses DefaultThreshold

	// QueryFunc overrides the NTP query. Test seam; nil queries Pool.
	QueryFunc func(host string) (time.Duration, error)
}

// Check queries the pool once.
func (c *Checker) Check() Status {
	pool := c.Pool
	if pool == "" {
		pool = DefaultPool
	}
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	offset, err := c.query(pool)
	status := Status{Server: pool, CheckedAt: time.Now()}
	if err != nil {
		status.Verdict = ClockUnknown
		status.Error = err.Error()
		return status
	}

	status.Offset = offset
	status.Verdict = ClockSkewed
	if offset.Abs() < threshold {
		status.Verdict = ClockHealthy
	}
	return status
}

func (c *Checker) query(host string) (time.Duration, error) {
	if c.QueryFunc != nil {
		return c.QueryFunc(host)
	}
	resp, err := ntp.Query(host)
	if err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}
