// Package drift orchestrates drift-scan simulations: it resolves an
// observation from its configuration, sequences the external gridding,
// visibility generation, and UVFITS conversion stages with file-based
// handoffs, and maintains the textual observation spec and run log that
// describe the run.
package drift

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/piyanatk/mapsim/pkg/astro"
	"github.com/piyanatk/mapsim/pkg/mapsrun"
	"github.com/piyanatk/mapsim/pkg/site"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultFOVSize     = 412530.0 // arcsec; two radians, a whole-sky SIN projection
	DefaultDuration    = 2.0      // seconds
	DefaultFrequency   = 140.0    // MHz, channel center
	DefaultCorrIntTime = 1.0      // seconds
	DefaultCorrChanBW  = 0.04     // MHz
)

// Pointing is an explicit pointing center in sexagesimal text.
type Pointing struct {
	RA  string // hh:mm:ss
	Dec string // dd:mm:ss
}

// Config describes one drift scan.
type Config struct {
	// TargetRA and TargetHA place the target: its right ascension and its
	// hour angle from the zenith meridian at scan start, both in decimal
	// hours. With zenith pointing they fix the field-of-view center.
	TargetRA float64
	TargetHA float64

	// SkyImage is a FITS image of the sky in SIN projection. OOBs is a
	// point source list for sources outside the imaged field. At least
	// one must be present by the time visibilities are generated.
	SkyImage string
	OOBs     string

	// Pointing overrides the zenith-derived pointing center.
	Pointing *Pointing

	FOVSizeRA   float64 // field of view along RA, arcsec
	FOVSizeDec  float64 // field of view along Dec, arcsec
	Duration    float64 // scan duration, seconds
	Frequency   float64 // channel center frequency, MHz
	CorrIntTime float64 // correlator integration time, seconds
	CorrChanBW  float64 // correlator channel bandwidth, MHz

	// ScanStart is an absolute start time "year:day-of-year:hour:minute:
	// second". Empty uses the site's Greenwich hour angle convention.
	ScanStart string

	Site site.Site

	// Name labels the observation and prefixes every product file. Empty
	// derives it from the sky image base name, or from the scan
	// parameters when there is no image.
	Name string

	// ConvertK2JySr scales the sky image from kelvin to SI intensity
	// while gridding, using the Rayleigh-Jeans factor at Frequency.
	ConvertK2JySr bool

	// KeepUVGrid retains the intermediate uv grid after visibilities are
	// generated instead of deleting it.
	KeepUVGrid bool

	// MPI sets the visibility generator's rank count; values above one
	// launch it under mpirun.
	MPI int
}

// Scan carries the state of one drift-scan run: the resolved observation
// parameters, the files produced so far, and the accumulated run log.
type Scan struct {
	cfg  Config
	name string

	fovCenterRA  string
	fovCenterDec string
	scanStart    string
	frequency    string // channel start frequency, MHz
	channel      string

	skyImage string
	oobs     string
	specFile string
	visIn    string
	visOut   string
	visLog   string
	uvfits   string

	log   strings.Builder
	tools *mapsrun.Tools

	// Now supplies spec and log timestamps. Test seam; defaults to
	// time.Now.
	Now func() time.Time
}

// New resolves a scan from its configuration, applying defaults and
// deriving the pointing center, channel, and observation name.
func New(cfg Config, tools *mapsrun.Tools) (*Scan, error) {
	if cfg.Site.Name == "" {
		return nil, fmt.Errorf("new scan: site is required")
	}
	if cfg.FOVSizeRA == 0 {
		cfg.FOVSizeRA = DefaultFOVSize
	}
	if cfg.FOVSizeDec == 0 {
		cfg.FOVSizeDec = DefaultFOVSize
	}
	if cfg.Duration == 0 {
		cfg.Duration = DefaultDuration
	}
	if cfg.Frequency == 0 {
		cfg.Frequency = DefaultFrequency
	}
	if cfg.CorrIntTime == 0 {
		cfg.CorrIntTime = DefaultCorrIntTime
	}
	if cfg.CorrChanBW == 0 {
		cfg.CorrChanBW = DefaultCorrChanBW
	}

	s := &Scan{
		cfg:      cfg,
		skyImage: cfg.SkyImage,
		oobs:     cfg.OOBs,
		tools:    tools,
		Now:      time.Now,
	}

	if cfg.Pointing != nil {
		s.fovCenterRA = cfg.Pointing.RA
		s.fovCenterDec = cfg.Pointing.Dec
	} else {
		s.fovCenterRA = astro.HMS24(cfg.TargetRA + cfg.TargetHA)
		s.fovCenterDec = astro.DMS(cfg.Site.Latitude)
	}

	s.frequency = formatFloat(cfg.Frequency - cfg.CorrChanBW/2)
	s.channel = s.frequency + ":" + formatFloat(cfg.CorrChanBW)

	if cfg.ScanStart != "" {
		s.scanStart = cfg.ScanStart
	} else {
		s.scanStart = fmt.Sprintf("GHA %f", cfg.Site.GHA)
	}

	s.name = cfg.Name
	if s.name == "" {
		if cfg.SkyImage != "" {
			s.name = strings.TrimSuffix(filepath.Base(cfg.SkyImage), ".fits")
		} else {
			s.name = fmt.Sprintf("visgen_%.2fh_%.2fha_%.3fMHz_%.3fkHz_%.2fsec",
				cfg.TargetRA, cfg.TargetHA, cfg.Frequency, cfg.CorrChanBW, cfg.Duration)
		}
	}
	return s, nil
}

// Name is the observation name prefixing every product file.
func (s *Scan) Name() string { return s.name }

// Config is the resolved configuration, defaults applied.
func (s *Scan) Config() Config { return s.cfg }

// SpecFile is the observation spec path, empty until WriteSpec runs.
func (s *Scan) SpecFile() string { return s.specFile }

// Vis is the generated visibility path, empty until GenVisibility runs.
func (s *Scan) Vis() string { return s.visOut }

// UVFITS is the converted visibility path, empty until ToUVFITS runs.
func (s *Scan) UVFITS() string { return s.uvfits }

// VisLog is the visibility generator's log path, empty until
// GenVisibility runs.
func (s *Scan) VisLog() string { return s.visLog }

// String renders the observation spec followed by the run log.
func (s *Scan) String() string {
	return s.SpecText() + s.log.String()
}

// path resolves a product file name against the work directory.
func (s *Scan) path(name string) string {
	if dir := s.tools.WorkDir(); dir != "" && !filepath.IsAbs(name) {
		return filepath.Join(dir, name)
	}
	return name
}
