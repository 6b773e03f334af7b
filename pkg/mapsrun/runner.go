// Package mapsrun invokes the MIT Array Performance Simulator
// executables: maps_im2uv grids a FITS sky image onto the uv plane,
// visgen generates visibilities for an observation spec, and maps2uvfits
// converts the result to UVFITS. The tools run either as host child
// processes or inside a toolchain container; all file handoffs are plain
// paths in the work directory.
package mapsrun

import (
	"context"
	"slices"
)

// External executable names, resolved via PATH on the host or inside the
// toolchain image.
const (
	BinIm2UV    = "maps_im2uv"
	BinVisgen   = "visgen"
	BinToUVFITS = "maps2uvfits"
	BinMPIRun   = "mpirun"
)

// Invocation is one external tool launch.
type Invocation struct {
	Path string   // executable name or path
	Args []string // arguments, excluding the executable itself
	Dir  string   // working directory; empty means the caller's
}

// Result holds the captured output streams of a finished invocation.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Combined returns stdout followed by stderr, for tools whose streams are
// logged together. Original interleaving is not preserved.
func (r Result) Combined() []byte {
	return slices.Concat(r.Stdout, r.Stderr)
}

// Runner launches external simulation tools and captures their output.
// A non-zero exit is reported as an error; the Result still carries
// whatever output the tool produced.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}
