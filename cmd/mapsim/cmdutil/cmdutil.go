// Package cmdutil carries the wiring shared by mapsim commands:
// resolved settings, the site catalog, the run registry, and runner
// construction for the external toolchain.
package cmdutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/docker/docker/client"
	"github.com/spf13/cobra"

	"github.com/piyanatk/mapsim/internal/settings"
	"github.com/piyanatk/mapsim/internal/store"
	"github.com/piyanatk/mapsim/pkg/mapsrun"
	"github.com/piyanatk/mapsim/pkg/site"
)

// Env is the resolved command environment: driver settings plus the
// site catalog with the user catalog merged in.
type Env struct {
	Settings *settings.Settings
	Catalog  *site.Catalog
}

// LoadEnv resolves settings and the site catalog. dataDir, when set,
// overrides the registry location; it carries the root --data-dir flag.
func LoadEnv(dataDir string) (*Env, error) {
	cfg, err := settings.Load()
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	catalog := site.Builtin()
	if err := catalog.MergeFile(cfg.SiteFile); err != nil {
		return nil, err
	}

	if !cfg.RootConfigured() {
		slog.Warn("SIM is not set; using the working directory as the toolchain root.", "root", cfg.RootDir)
	}
	return &Env{Settings: cfg, Catalog: catalog}, nil
}

// OpenStore opens the run registry under the data directory.
func (e *Env) OpenStore() (*store.Store, error) {
	return store.Open(filepath.Join(e.Settings.DataDir, "runs.db"))
}

// RunnerFlags select how external tools run: as host processes or inside
// the toolchain container.
type RunnerFlags struct {
	Container bool
	Image     string
	Verbose   bool
}

func (f *RunnerFlags) Bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.Container, "container", false, "Run tools in the toolchain container")
	cmd.Flags().StringVar(&f.Image, "container-image", "", "Toolchain container image")
	cmd.Flags().BoolVarP(&f.Verbose, "verbose", "v", false, "Stream tool output to the terminal")
}

// Mode resolves the runner name, flag over settings.
func (f *RunnerFlags) Mode(cfg *settings.Settings) string {
	if f.Container {
		return settings.RunnerDocker
	}
	return cfg.Runner
}

// Toolchain is a ready tool set bound to its runner. Close releases the
// runner's resources; it never touches run products.
type Toolchain struct {
	Tools *mapsrun.Tools
	Mode  string

	closeFn func()
}

func (t *Toolchain) Close() {
	if t.closeFn != nil {
		t.closeFn()
	}
}

// Toolchain builds the tool set for the selected runner. Products land
// in the working directory; the docker runner bind-mounts it into the
// toolchain container at the same path, so product paths agree on both
// sides.
func (e *Env) Toolchain(f RunnerFlags) (*Toolchain, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	if f.Mode(e.Settings) != settings.RunnerDocker {
		runner := mapsrun.HostRunner{Verbose: f.Verbose}
		return &Toolchain{
			Tools: mapsrun.New(runner, e.Settings.ArrayDir, wd),
			Mode:  settings.RunnerHost,
		}, nil
	}

	image := f.Image
	if image == "" {
		image = e.Settings.Image
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	runner := mapsrun.NewDockerRunner(cli, wd, mapsrun.WithImage(image))
	return &Toolchain{
		Tools:   mapsrun.New(runner, e.Settings.ArrayDir, wd),
		Mode:    settings.RunnerDocker,
		closeFn: func() { _ = cli.Close() },
	}, nil
}
