package drift

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/piyanatk/mapsim/pkg/astro"
	"github.com/piyanatk/mapsim/pkg/mapsrun"
)

// GridImage grids the sky image onto the uv plane, producing the uv grid
// the visibility generator reads. When the scan converts kelvin to SI
// intensity, pixel values are scaled by the Rayleigh-Jeans factor at the
// channel center.
func (s *Scan) GridImage(ctx context.Context) error {
	if s.skyImage == "" {
		return fmt.Errorf("grid image: %w", ErrNoSkyImage)
	}
	slog.Info("Gridding sky image.", "scan", s.name, "image", s.skyImage)

	var opts mapsrun.Im2UVOptions
	if s.cfg.ConvertK2JySr {
		opts.Normalizer = astro.RayleighJeans(s.cfg.Frequency)
	}
	vis, err := s.tools.Im2UV(ctx, s.skyImage, opts)
	if err != nil {
		return err
	}
	s.visIn = vis
	s.appendLog(fmt.Sprintf("# $> im2uv(%s)\n# >>> sky uvgrid: %s\n", s.skyImage, s.visIn))
	return nil
}

// WriteSpec writes the observation spec to <name>.ospec. Later stages
// update the file inventory, so the spec is rewritten as the run
// progresses.
func (s *Scan) WriteSpec() error {
	s.specFile = s.name + ".ospec"
	s.appendLog(fmt.Sprintf("# $> write_spec()\n# >>> visgen spec: %s\n", s.specFile))
	if err := os.WriteFile(s.path(s.specFile), []byte(s.SpecText()), 0o644); err != nil {
		return fmt.Errorf("write observation spec: %w", err)
	}
	return nil
}

// GenVisibility generates visibilities from the observation spec and the
// uv grid or out-of-bounds source list.
func (s *Scan) GenVisibility(ctx context.Context) error {
	if s.specFile == "" {
		return fmt.Errorf("generate visibilities: %w", ErrNoSpecFile)
	}
	slog.Info("Generating visibilities.", "scan", s.name)

	vis, err := s.tools.Visgen(ctx, s.name, s.cfg.Site, s.specFile, mapsrun.VisgenOptions{
		OOBs:   s.oobs,
		UVGrid: s.visIn,
		MPI:    s.cfg.MPI,
	})
	if err != nil {
		return err
	}
	s.visOut = vis
	s.visLog = s.name + ".vislog"
	s.appendLog(fmt.Sprintf("# $> visgen()\n# >>>> visgen visibility: %s\n# >>>> visgen log file: %s\n",
		s.visOut, s.visLog))
	return nil
}

// ToUVFITS converts the generated visibility file to UVFITS.
func (s *Scan) ToUVFITS(ctx context.Context) error {
	if s.visOut == "" {
		return fmt.Errorf("convert to uvfits: %w", ErrNoVisibility)
	}
	slog.Info("Converting to UVFITS.", "scan", s.name)

	uvfits, err := s.tools.ToUVFITS(ctx, s.visOut, s.cfg.Site, "")
	if err != nil {
		return err
	}
	s.uvfits = uvfits
	s.appendLog(fmt.Sprintf("# $> maps2uvfits(%s)\n# >>>> uvfits: %s\n", s.visOut, s.uvfits))
	return nil
}

// RemoveUVGrid deletes the intermediate uv grid once visibilities exist.
// The grid is the largest run product and is fully consumed by the
// generator, so the full pipeline drops it between stages.
func (s *Scan) RemoveUVGrid() error {
	if s.visIn == "" {
		return nil
	}
	if err := os.Remove(s.path(s.visIn)); err != nil {
		return fmt.Errorf("remove uv grid: %w", err)
	}
	s.appendLog("# remove " + s.visIn)
	return nil
}

// WriteLog writes the observation spec and the run log to <name>.log.
func (s *Scan) WriteLog() error {
	logFile := s.name + ".log"
	s.appendLog(fmt.Sprintf("# $> write_log()\n# >>> log file: %s\n", logFile))
	if err := os.WriteFile(s.path(logFile), []byte(s.String()), 0o644); err != nil {
		return fmt.Errorf("write run log: %w", err)
	}
	return nil
}

// Run executes the full pipeline: grid the sky image when one is
// configured, write the observation spec, generate visibilities, drop
// the intermediate uv grid (unless the scan keeps it), convert to
// UVFITS, and write the final spec and run log.
func (s *Scan) Run(ctx context.Context) error {
	if s.skyImage != "" {
		if err := s.GridImage(ctx); err != nil {
			return err
		}
	}
	if err := s.WriteSpec(); err != nil {
		return err
	}
	if err := s.GenVisibility(ctx); err != nil {
		return err
	}
	if !s.cfg.KeepUVGrid {
		if err := s.RemoveUVGrid(); err != nil {
			return err
		}
	}
	if err := s.ToUVFITS(ctx); err != nil {
		return err
	}
	if err := s.WriteSpec(); err != nil {
		return err
	}
	return s.WriteLog()
}
