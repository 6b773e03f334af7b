package mapsrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piyanatk/mapsim/pkg/site"
)

// Tools invokes the MAPS executables through a Runner.
type Tools struct {
	runner   Runner
	arrayDir string
	workDir  string
}

// New returns a Tools bound to a runner. arrayDir holds the station
// layout files; workDir is where products and logs land (empty for the
// process working directory).
func New(runner Runner, arrayDir, workDir string) *Tools {
	return &Tools{runner: runner, arrayDir: arrayDir, workDir: workDir}
}

// WorkDir is the directory tool invocations run in and logs land in.
func (t *Tools) WorkDir() string { return t.workDir }

// Im2UVOptions configure the image-to-uv gridding tool.
type Im2UVOptions struct {
	Vis        string  // output uv grid; empty derives <image base>.dat
	Normalizer float64 // multiply pixel values, e.g. kelvin to SI intensity; zero omits the flag
	PadPixels  int     // zero-pixel padding per side; zero omits the flag
}

// Im2UV grids a FITS sky image onto the uv plane. It returns the uv grid
// path. Combined tool output is saved to <grid base>.im2uvlog when
// non-empty.
func (t *Tools) Im2UV(ctx context.Context, fits string, opts Im2UVOptions) (string, error) {
	vis := opts.Vis
	if vis == "" {
		vis = strings.TrimSuffix(filepath.Base(fits), ".fits") + ".dat"
	}

	args := []string{"-i", fits, "-o", vis}
	if opts.Normalizer != 0 {
		args = append(args, "-n", strconv.FormatFloat(opts.Normalizer, 'g', -1, 64))
	}
	if opts.PadPixels != 0 {
		args = append(args, "-p", strconv.Itoa(opts.PadPixels))
	}

	res, runErr := t.run(ctx, BinIm2UV, args)
	if out := res.Combined(); len(out) > 0 {
		logFile := strings.TrimSuffix(filepath.Base(vis), ".dat") + ".im2uvlog"
		if err := t.save(logFile, out); err != nil {
			return "", err
		}
	}
	if runErr != nil {
		return "", fmt.Errorf("grid image %s: %w", fits, runErr)
	}
	return vis, nil
}

// VisgenOptions configure a visibility generation run. At least one of
// OOBs and UVGrid must be set.
type VisgenOptions struct {
	OOBs   string // out-of-bounds point source list
	UVGrid string // gridded sky input from Im2UV
	MPI    int    // >1 launches the tool under mpirun with that many ranks
}

// Visgen generates visibilities for an observation spec and returns the
// visibility path <prefix>.vis. Tool stdout is always saved to
// <prefix>.vislog. Anything on stderr is saved to <prefix>.viserr and
// surfaced as a *VisgenError.
func (t *Tools) Visgen(ctx context.Context, prefix string, st site.Site, specFile string, opts VisgenOptions) (string, error) {
	args := []string{
		"-n", prefix,
		"-s", st.Name,
		"-A", st.ConfigPath(t.arrayDir),
		"-V", specFile,
	}
	switch {
	case opts.OOBs != "" && opts.UVGrid == "":
		args = append(args, "-O", opts.OOBs, "-Z")
	case opts.OOBs == "" && opts.UVGrid != "":
		args = append(args, "-G", opts.UVGrid)
	case opts.OOBs != "" && opts.UVGrid != "":
		args = append(args, "-O", opts.OOBs, "-G", opts.UVGrid)
	default:
		return "", fmt.Errorf("generate visibilities for %s: %w", prefix, ErrNoInput)
	}
	args = append(args, "-N", "-m", "0")

	path := BinVisgen
	if opts.MPI > 1 {
		path = BinMPIRun
		args = append([]string{"-n", strconv.Itoa(opts.MPI), BinVisgen}, args...)
	}

	res, runErr := t.run(ctx, path, args)
	if err := t.save(prefix+".vislog", res.Stdout); err != nil {
		return "", err
	}
	if len(res.Stderr) > 0 {
		errFile := prefix + ".viserr"
		if err := t.save(errFile, res.Stderr); err != nil {
			return "", err
		}
		return "", &VisgenError{Message: string(res.Stderr), ErrFile: errFile}
	}
	if runErr != nil {
		return "", fmt.Errorf("generate visibilities for %s: %w", prefix, runErr)
	}
	return prefix + ".vis", nil
}

// ToUVFITS converts a visgen visibility file to UVFITS using the site's
// location and station layout. An empty uvfits derives <vis base>.uvfits.
// Combined tool output is saved to <vis base>.maps2uvfitslog when
// non-empty.
func (t *Tools) ToUVFITS(ctx context.Context, vis string, st site.Site, uvfits string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(vis), ".vis")
	if uvfits == "" {
		uvfits = base + ".uvfits"
	}

	args := []string{vis, uvfits}
	args = append(args, st.LocationArgs()...)
	args = append(args, st.ConfigPath(t.arrayDir))

	res, runErr := t.run(ctx, BinToUVFITS, args)
	if out := res.Combined(); len(out) > 0 {
		if err := t.save(base+".maps2uvfitslog", out); err != nil {
			return "", err
		}
	}
	if runErr != nil {
		return "", fmt.Errorf("convert %s: %w", vis, runErr)
	}
	return uvfits, nil
}

func (t *Tools) run(ctx context.Context, path string, args []string) (Result, error) {
	slog.Debug("Running external tool.", "tool", path, "args", args)
	return t.runner.Run(ctx, Invocation{Path: path, Args: args, Dir: t.workDir})
}

// save writes a captured log next to the run products.
func (t *Tools) save(name string, data []byte) error {
	path := name
	if t.workDir != "" && !filepath.IsAbs(name) {
		path = filepath.Join(t.workDir, name)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save tool log: %w", err)
	}
	return nil
}
