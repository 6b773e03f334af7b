package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	batchcmd "github.com/piyanatk/mapsim/cmd/mapsim/batch"
	checkcmd "github.com/piyanatk/mapsim/cmd/mapsim/check"
	convertcmd "github.com/piyanatk/mapsim/cmd/mapsim/convert"
	runcmd "github.com/piyanatk/mapsim/cmd/mapsim/run"
	runscmd "github.com/piyanatk/mapsim/cmd/mapsim/runs"
	"github.com/piyanatk/mapsim/cmd/mapsim/sites"
	speccmd "github.com/piyanatk/mapsim/cmd/mapsim/spec"
	"github.com/piyanatk/mapsim/cmd/mapsim/ui"
	"github.com/piyanatk/mapsim/internal/buildinfo"
	"github.com/piyanatk/mapsim/internal/logging"
)

func main() {
	var (
		debug   bool
		noInput bool
		dataDir string
	)
	if err := logging.Configure(logging.LevelWarn); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "mapsim",
		Short:         "Drive MAPS drift-scan interferometry simulations",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelWarn
			if debug {
				level = logging.LevelDebug
			}
			if err := logging.Configure(level); err != nil {
				return err
			}
			ui.ConfigureInteraction(noInput)
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&noInput, "no-input", false, "Disable prompts and live rendering")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Run registry directory")

	root.AddCommand(runcmd.Cmd(&dataDir))
	root.AddCommand(batchcmd.Cmd(&dataDir))
	root.AddCommand(runscmd.Cmd(&dataDir))
	root.AddCommand(speccmd.Cmd(&dataDir))
	root.AddCommand(sites.Cmd(&dataDir))
	root.AddCommand(convertcmd.Cmd(&dataDir))
	root.AddCommand(checkcmd.Cmd(&dataDir))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
