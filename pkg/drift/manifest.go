package drift

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/piyanatk/mapsim/pkg/site"
)

// DefaultSite is used when a configuration names no observing site.
const DefaultSite = "MWA_128"

// Manifest is a YAML description of a batch of scans.
type Manifest struct {
	Defaults ManifestRun   `yaml:"defaults"`
	Runs     []ManifestRun `yaml:"runs"`
}

// ManifestRun configures one scan. Unset fields inherit the manifest
// defaults and then the package defaults; booleans are or-ed with the
// defaults.
type ManifestRun struct {
	Name          string   `yaml:"name"`
	Site          string   `yaml:"site"`
	SkyImage      string   `yaml:"sky_image"`
	OOBs          string   `yaml:"oobs"`
	TargetRA      *float64 `yaml:"target_ra"`
	TargetHA      *float64 `yaml:"target_ha"`
	PointingRA    string   `yaml:"pointing_ra"`
	PointingDec   string   `yaml:"pointing_dec"`
	FOVSizeRA     float64  `yaml:"fov_size_ra"`
	FOVSizeDec    float64  `yaml:"fov_size_dec"`
	Duration      float64  `yaml:"duration"`
	Frequency     float64  `yaml:"frequency"`
	FreqPlan      string   `yaml:"frequency_plan"`
	CorrIntTime   float64  `yaml:"corr_int_time"`
	CorrChanBW    float64  `yaml:"corr_chan_bw"`
	ScanStart     string   `yaml:"scan_start"`
	ConvertK2JySr bool     `yaml:"convert_k2jysr"`
	KeepUVGrid    bool     `yaml:"keep_uvgrid"`
}

// LoadManifest reads a batch manifest and expands it into scan
// configurations, resolving site names through the catalog.
func LoadManifest(path string, catalog *site.Catalog) ([]Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return m.Expand(catalog)
}

// Expand resolves every manifest run into scan configurations. A run
// with a frequency plan becomes one configuration per channel, named
// <base>_<freq>MHz when the run carries a name or sky image. Every run
// must name an input and explicit run names must be unique.
func (m Manifest) Expand(catalog *site.Catalog) ([]Config, error) {
	if len(m.Runs) == 0 {
		return nil, fmt.Errorf("manifest lists no runs")
	}
	var configs []Config
	for i, run := range m.Runs {
		if run.Frequency != 0 && run.FreqPlan != "" {
			return nil, fmt.Errorf("manifest run %d: frequency and frequency_plan are mutually exclusive", i+1)
		}
		merged := run.merge(m.Defaults)
		if run.Frequency != 0 {
			// An explicit frequency beats an inherited plan.
			merged.FreqPlan = ""
		}
		if merged.SkyImage == "" && merged.OOBs == "" {
			return nil, fmt.Errorf("manifest run %d: needs a sky_image or an oobs source list", i+1)
		}

		siteName := merged.Site
		if siteName == "" {
			siteName = DefaultSite
		}
		st, err := catalog.Lookup(siteName)
		if err != nil {
			return nil, fmt.Errorf("manifest run %d: %w", i+1, err)
		}

		cfg := Config{
			TargetRA:      deref(merged.TargetRA),
			TargetHA:      deref(merged.TargetHA),
			SkyImage:      merged.SkyImage,
			OOBs:          merged.OOBs,
			FOVSizeRA:     merged.FOVSizeRA,
			FOVSizeDec:    merged.FOVSizeDec,
			Duration:      merged.Duration,
			Frequency:     merged.Frequency,
			CorrIntTime:   merged.CorrIntTime,
			CorrChanBW:    merged.CorrChanBW,
			ScanStart:     merged.ScanStart,
			Site:          st,
			Name:          merged.Name,
			ConvertK2JySr: merged.ConvertK2JySr,
			KeepUVGrid:    merged.KeepUVGrid,
		}
		if merged.PointingRA != "" || merged.PointingDec != "" {
			cfg.Pointing = &Pointing{RA: merged.PointingRA, Dec: merged.PointingDec}
		}

		if merged.FreqPlan == "" {
			configs = append(configs, cfg)
			continue
		}
		freqs, err := site.FreqPlan(merged.FreqPlan)
		if err != nil {
			return nil, fmt.Errorf("manifest run %d: %w", i+1, err)
		}
		base := cfg.Name
		if base == "" && cfg.SkyImage != "" {
			base = strings.TrimSuffix(filepath.Base(cfg.SkyImage), ".fits")
		}
		for _, f := range freqs {
			c := cfg
			c.Frequency = f
			if base != "" {
				c.Name = fmt.Sprintf("%s_%.3fMHz", base, f)
			}
			configs = append(configs, c)
		}
	}

	// Named runs must stay distinct after channel fan-out; two runs
	// sharing a name would overwrite each other's products. Auto-named
	// runs are checked once scans are built.
	names := make(map[string]struct{}, len(configs))
	for _, cfg := range configs {
		if cfg.Name == "" {
			continue
		}
		if _, dup := names[cfg.Name]; dup {
			return nil, fmt.Errorf("manifest: duplicate run name %q", cfg.Name)
		}
		names[cfg.Name] = struct{}{}
	}
	return configs, nil
}

// merge fills unset fields from the manifest defaults.
func (r ManifestRun) merge(d ManifestRun) ManifestRun {
	if r.Name == "" {
		r.Name = d.Name
	}
	if r.Site == "" {
		r.Site = d.Site
	}
	if r.SkyImage == "" {
		r.SkyImage = d.SkyImage
	}
	if r.OOBs == "" {
		r.OOBs = d.OOBs
	}
	if r.TargetRA == nil {
		r.TargetRA = d.TargetRA
	}
	if r.TargetHA == nil {
		r.TargetHA = d.TargetHA
	}
	if r.PointingRA == "" {
		r.PointingRA = d.PointingRA
	}
	if r.PointingDec == "" {
		r.PointingDec = d.PointingDec
	}
	if r.FOVSizeRA == 0 {
		r.FOVSizeRA = d.FOVSizeRA
	}
	if r.FOVSizeDec == 0 {
		r.FOVSizeDec = d.FOVSizeDec
	}
	if r.Duration == 0 {
		r.Duration = d.Duration
	}
	if r.Frequency == 0 {
		r.Frequency = d.Frequency
	}
	if r.FreqPlan == "" {
		r.FreqPlan = d.FreqPlan
	}
	if r.CorrIntTime == 0 {
		r.CorrIntTime = d.CorrIntTime
	}
	if r.CorrChanBW == 0 {
		r.CorrChanBW = d.CorrChanBW
	}
	if r.ScanStart == "" {
		r.ScanStart = d.ScanStart
	}
	r.ConvertK2JySr = r.ConvertK2JySr || d.ConvertK2JySr
	r.KeepUVGrid = r.KeepUVGrid || d.KeepUVGrid
	return r
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
