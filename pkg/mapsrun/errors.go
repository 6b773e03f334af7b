package mapsrun

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoInput means a visgen invocation was requested with neither an
// out-of-bounds source list nor a uv grid to draw visibilities from.
var ErrNoInput = errors.New("need an out-of-bounds source list or a uv grid")

// VisgenError reports output on the visibility generator's error stream.
// The stream is saved next to the run products; ErrFile points at it.
// visgen signals problems there rather than through its exit status.
type VisgenError struct {
	Message string // what the tool wrote to stderr
	ErrFile string // where that text was saved
}

func (e *VisgenError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i] + " ..."
	}
	return fmt.Sprintf("visgen reported errors (saved to %s): %s", e.ErrFile, msg)
}
