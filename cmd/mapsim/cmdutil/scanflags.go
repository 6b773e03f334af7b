package cmdutil

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piyanatk/mapsim/pkg/drift"
)

// ScanFlags bind the observation parameters shared by run and spec.
type ScanFlags struct {
	Image       string
	OOBs        string
	RA          float64
	HA          float64
	SiteName    string
	Freq        float64
	BW          float64
	Duration    float64
	IntTime     float64
	Start       string
	FOVRA       float64
	FOVDec      float64
	PointingRA  string
	PointingDec string
	Name        string
	K2JySr      bool
	MPI         int
	KeepUVGrid  bool
}

func (f *ScanFlags) Bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.Image, "image", "i", "", "Sky image to observe (FITS, SIN projection)")
	fl.StringVar(&f.OOBs, "oob", "", "Out-of-bounds point source list")
	fl.Float64Var(&f.RA, "ra", 0, "Target right ascension, decimal hours")
	fl.Float64Var(&f.HA, "ha", 0, "Target hour angle at scan start, decimal hours")
	fl.StringVar(&f.SiteName, "site", "", "Observing site (see mapsim sites)")
	fl.Float64Var(&f.Freq, "freq", drift.DefaultFrequency, "Channel center frequency, MHz")
	fl.Float64Var(&f.BW, "bw", drift.DefaultCorrChanBW, "Correlator channel bandwidth, MHz")
	fl.Float64Var(&f.Duration, "duration", drift.DefaultDuration, "Scan duration, seconds")
	fl.Float64Var(&f.IntTime, "int-time", drift.DefaultCorrIntTime, "Correlator integration time, seconds")
	fl.StringVar(&f.Start, "start", "", "Absolute scan start, year:day:hour:minute:second")
	fl.Float64Var(&f.FOVRA, "fov-ra", drift.DefaultFOVSize, "Field of view along RA, arcsec")
	fl.Float64Var(&f.FOVDec, "fov-dec", drift.DefaultFOVSize, "Field of view along Dec, arcsec")
	fl.StringVar(&f.PointingRA, "pointing-ra", "", "Pointing center RA, hh:mm:ss (default zenith)")
	fl.StringVar(&f.PointingDec, "pointing-dec", "", "Pointing center Dec, dd:mm:ss (default zenith)")
	fl.StringVarP(&f.Name, "name", "n", "", "Observation name (default derived from the sky image)")
	fl.BoolVar(&f.K2JySr, "k2jysr", false, "Scale the sky image from kelvin to Jy/sr while gridding")
	fl.IntVar(&f.MPI, "mpi", 0, "visgen MPI ranks (0 uses settings)")
	fl.BoolVar(&f.KeepUVGrid, "keep-uvgrid", false, "Keep the intermediate uv grid")
}

// Config assembles the scan configuration, resolving the site against
// the catalog and filling settings defaults.
func (f *ScanFlags) Config(env *Env) (drift.Config, error) {
	siteName := f.SiteName
	if siteName == "" {
		siteName = env.Settings.Site
	}
	st, err := env.Catalog.Lookup(siteName)
	if err != nil {
		return drift.Config{}, err
	}

	mpi := f.MPI
	if mpi <= 0 {
		mpi = env.Settings.MPI
	}

	cfg := drift.Config{
		TargetRA:      f.RA,
		TargetHA:      f.HA,
		SkyImage:      f.Image,
		OOBs:          f.OOBs,
		FOVSizeRA:     f.FOVRA,
		FOVSizeDec:    f.FOVDec,
		Duration:      f.Duration,
		Frequency:     f.Freq,
		CorrIntTime:   f.IntTime,
		CorrChanBW:    f.BW,
		ScanStart:     f.Start,
		Site:          st,
		Name:          f.Name,
		ConvertK2JySr: f.K2JySr,
		KeepUVGrid:    f.KeepUVGrid,
		MPI:           mpi,
	}

	if f.PointingRA != "" || f.PointingDec != "" {
		if f.PointingRA == "" || f.PointingDec == "" {
			return drift.Config{}, fmt.Errorf("explicit pointing needs both --pointing-ra and --pointing-dec")
		}
		cfg.Pointing = &drift.Pointing{RA: f.PointingRA, Dec: f.PointingDec}
	}
	return cfg, nil
}
