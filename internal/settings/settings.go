// Package settings resolves where the simulation toolchain lives and how
// runs behave by default.
//
// Values merge from three layers, highest wins: process environment (the
// classic SIM variable and its SIM_* companions), the user config file at
// $XDG_CONFIG_HOME/mapsim/config.yaml, and compiled-in defaults. Command
// flags override on top at the CLI layer.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/piyanatk/mapsim/internal/ntpcheck"
	"github.com/piyanatk/mapsim/pkg/drift"
	"github.com/piyanatk/mapsim/pkg/mapsrun"
)

// Runner selection for the external tools.
const (
	RunnerHost   = "host"
	RunnerDocker = "docker"
)

const (
	// DefaultWorkers is the batch fan-out width when none is configured.
	DefaultWorkers = 4

	// DefaultImage is the container image carrying the MAPS toolchain,
	// used when the docker runner is selected without an explicit image.
	DefaultImage = mapsrun.DefaultImage
)

// Settings is the resolved driver configuration.
type Settings struct {
	RootDir  string `env:"SIM"           yaml:"root_dir,omitempty"`  // MAPS installation root
	ArrayDir string `env:"SIM_ARRAY_DIR" yaml:"array_dir,omitempty"` // station layout files, default <root>/array
	Runner   string `env:"SIM_RUNNER"    yaml:"runner,omitempty"`    // host or docker
	Image    string `env:"SIM_IMAGE"     yaml:"image,omitempty"`     // toolchain image for the docker runner
	Site     string `env:"SIM_SITE"      yaml:"site,omitempty"`      // observing site when none is given
	MPI      int    `env:"SIM_MPI"       yaml:"mpi,omitempty"`       // visgen MPI ranks, 1 disables mpirun
	Workers  int    `env:"SIM_WORKERS"   yaml:"workers,omitempty"`   // batch pool size
	SiteFile string `env:"SIM_SITES"     yaml:"sites,omitempty"`     // extra site catalog
	DataDir  string `env:"SIM_DATA_DIR"  yaml:"data_dir,omitempty"`  // run registry home
	NTPPool  string `env:"SIM_NTP_POOL"  yaml:"ntp_pool,omitempty"`  // clock check pool

	rootFallback bool
}

// Load reads the config file, overlays the environment, and fills defaults.
func Load() (*Settings, error) {
	s := &Settings{}
	if err := s.mergeFile(ConfigPath()); err != nil {
		return nil, err
	}
	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	s.fillDefaults()
	if s.Runner != RunnerHost && s.Runner != RunnerDocker {
		return nil, fmt.Errorf("invalid runner %q (want %s or %s)", s.Runner, RunnerHost, RunnerDocker)
	}
	return s, nil
}

// RootConfigured reports whether the toolchain root came from SIM or the
// config file rather than the working-directory fallback.
func (s *Settings) RootConfigured() bool {
	return !s.rootFallback
}

func (s *Settings) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (s *Settings) fillDefaults() {
	if s.RootDir == "" {
		s.rootFallback = true
		if wd, err := os.Getwd(); err == nil {
			s.RootDir = wd
		} else {
			s.RootDir = "."
		}
	}
	if s.ArrayDir == "" {
		s.ArrayDir = filepath.Join(s.RootDir, "array")
	}
	if s.Runner == "" {
		s.Runner = RunnerHost
	}
	if s.Image == "" {
		s.Image = DefaultImage
	}
	if s.Site == "" {
		s.Site = drift.DefaultSite
	}
	if s.MPI <= 0 {
		s.MPI = 1
	}
	if s.Workers <= 0 {
		s.Workers = DefaultWorkers
	}
	if s.SiteFile == "" {
		s.SiteFile = filepath.Join(configDir(), "sites.yaml")
	}
	if s.DataDir == "" {
		s.DataDir = defaultDataDir()
	}
	if s.NTPPool == "" {
		s.NTPPool = ntpcheck.DefaultPool
	}
}

// ConfigPath returns the config file location. It respects
// XDG_CONFIG_HOME, falling back to ~/.config/mapsim/config.yaml.
func ConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "mapsim")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "mapsim")
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".local", "state", "mapsim")
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "mapsim")
}
