// Package checkcmd implements "mapsim check": an environment preflight
// that verifies the driver can reach everything a run needs.
package checkcmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/docker/docker/client"
	"github.com/spf13/cobra"

	"github.com/piyanatk/mapsim/cmd/mapsim/cmdutil"
	"github.com/piyanatk/mapsim/cmd/mapsim/ui"
	"github.com/piyanatk/mapsim/internal/ntpcheck"
	"github.com/piyanatk/mapsim/internal/settings"
	"github.com/piyanatk/mapsim/pkg/mapsrun"
)

func Cmd(dataDir *string) *cobra.Command {
	var container bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Diagnose the simulation environment",
		Long: "Checks that the toolchain root, station layouts, external tools,\n" +
			"run registry, and system clock are in shape for a run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.LoadEnv(*dataDir)
			if err != nil {
				return err
			}
			cfg := env.Settings

			mode := cfg.Runner
			if container {
				mode = settings.RunnerDocker
			}

			type issue struct {
				component string
				problem   string
				fix       string
			}
			issues := make([]issue, 0, 6)

			rootCell := cfg.RootDir
			if !cfg.RootConfigured() {
				rootCell = ui.Warn(cfg.RootDir + " (fallback)")
				issues = append(issues, issue{
					component: "root",
					problem:   "SIM is not set; the working directory stands in for the toolchain root",
					fix:       "export SIM=/path/to/maps or set root_dir in " + settings.ConfigPath(),
				})
			}

			arrayCell := cfg.ArrayDir
			if info, err := os.Stat(cfg.ArrayDir); err != nil || !info.IsDir() {
				arrayCell = ui.Error(cfg.ArrayDir)
				issues = append(issues, issue{
					component: "arrays",
					problem:   "array directory " + cfg.ArrayDir + " does not exist",
					fix:       "set SIM_ARRAY_DIR to the directory holding the station layout files",
				})
			} else if missing := missingLayouts(env); len(missing) > 0 {
				arrayCell = ui.Warn(cfg.ArrayDir)
				issues = append(issues, issue{
					component: "arrays",
					problem:   "no station layout for " + strings.Join(missing, ", "),
					fix:       "copy the layout files into " + cfg.ArrayDir + " or point SIM_ARRAY_DIR at them",
				})
			}

			var toolsKV ui.Pair
			if mode == settings.RunnerDocker {
				toolsKV = ui.KV("image", cfg.Image)
				if err := pingDocker(cmd.Context()); err != nil {
					toolsKV = ui.KV("image", ui.Error(cfg.Image))
					issues = append(issues, issue{
						component: "docker",
						problem:   "docker daemon is unreachable: " + err.Error(),
						fix:       "start the docker daemon or set DOCKER_HOST",
					})
				}
			} else {
				found, missing := lookTools(cfg.MPI)
				cell := fmt.Sprintf("%d/%d on PATH", found, found+len(missing))
				if len(missing) > 0 {
					cell = ui.Error(cell)
					issues = append(issues, issue{
						component: "tools",
						problem:   strings.Join(missing, ", ") + " not found on PATH",
						fix:       "add the MAPS bin directory to PATH or switch to --container",
					})
				}
				toolsKV = ui.KV("tools", cell)
			}

			regCell := ui.Success("ok")
			if reg, err := env.OpenStore(); err != nil {
				regCell = ui.Error("unavailable")
				issues = append(issues, issue{
					component: "registry",
					problem:   "cannot open the run registry: " + err.Error(),
					fix:       "check permissions on " + cfg.DataDir + " or pass --data-dir",
				})
			} else {
				reg.Close()
			}

			checker := ntpcheck.Checker{Pool: cfg.NTPPool}
			var status ntpcheck.Status
			_ = ui.RunWithSpinner(cmd.Context(), "checking clock against "+cfg.NTPPool, func(context.Context) error {
				status = checker.Check()
				return nil
			})
			var clockCell string
			switch status.Verdict {
			case ntpcheck.ClockHealthy:
				clockCell = fmt.Sprintf("offset %s vs %s", status.Offset.Round(time.Millisecond), status.Server)
			case ntpcheck.ClockSkewed:
				offset := status.Offset.Round(time.Millisecond)
				clockCell = ui.Warn(fmt.Sprintf("off by %s vs %s", offset, status.Server))
				issues = append(issues, issue{
					component: "clock",
					problem:   fmt.Sprintf("system clock is off by %s; absolute scan starts will drift", offset),
					fix:       "sync the clock (chronyd or ntpd), or use relative scan starts",
				})
			default:
				clockCell = ui.Muted("unknown")
			}

			fmt.Println(ui.InfoMsg("environment diagnostic (%s runner)", ui.Accent(mode)))
			fmt.Print(ui.KeyValues("  ",
				ui.KV("root", rootCell),
				ui.KV("arrays", arrayCell),
				toolsKV,
				ui.KV("registry", regCell),
				ui.KV("clock", clockCell),
			))

			if len(issues) == 0 {
				fmt.Println(ui.SuccessMsg("no issues detected"))
				return nil
			}

			fmt.Println(ui.WarnMsg("detected issues:"))
			for i, issue := range issues {
				fmt.Printf("  %d) %s: %s\n", i+1, issue.component, issue.problem)
				fmt.Println(ui.Muted("     fix: " + issue.fix))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&container, "container", false, "Check the container runner instead of host binaries")
	return cmd
}

// missingLayouts lists catalog sites whose station layout file is absent
// from the array directory.
func missingLayouts(env *cmdutil.Env) []string {
	var missing []string
	for _, s := range env.Catalog.All() {
		if _, err := os.Stat(s.ConfigPath(env.Settings.ArrayDir)); err != nil {
			missing = append(missing, s.Name)
		}
	}
	return missing
}

// lookTools resolves the binaries a host run needs, mpirun included when
// the configured rank count calls for it.
func lookTools(mpi int) (found int, missing []string) {
	bins := []string{mapsrun.BinIm2UV, mapsrun.BinVisgen, mapsrun.BinToUVFITS}
	if mpi > 1 {
		bins = append(bins, mapsrun.BinMPIRun)
	}
	for _, bin := range bins {
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, bin)
			continue
		}
		found++
	}
	return found, missing
}

func pingDocker(ctx context.Context) error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return err
	}
	defer cli.Close()
	_, err = cli.Ping(ctx)
	return err
}
