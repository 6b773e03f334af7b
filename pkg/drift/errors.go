package drift

import "errors"

// Stage precondition errors, reported before an external tool launches.
var (
	ErrNoSkyImage   = errors.New("no sky image to grid")
	ErrNoSpecFile   = errors.New("observation spec not written yet")
	ErrNoVisibility = errors.New("no visibility file; generate visibilities first")
)
