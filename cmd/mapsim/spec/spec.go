// Package speccmd implements "mapsim spec": the observation spec on its
// own, without the pipeline around it.
package speccmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piyanatk/mapsim/cmd/mapsim/cmdutil"
	"github.com/piyanatk/mapsim/cmd/mapsim/ui"
	"github.com/piyanatk/mapsim/pkg/drift"
	"github.com/piyanatk/mapsim/pkg/mapsrun"
)

func Cmd(dataDir *string) *cobra.Command {
	var (
		sf     cmdutil.ScanFlags
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Write an observation spec without running the pipeline",
		Long: "Assembles the visgen observation spec from the scan parameters and\n" +
			"writes <name>.ospec in the working directory. With --stdout the spec\n" +
			"prints instead of being written.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.LoadEnv(*dataDir)
			if err != nil {
				return err
			}
			cfg, err := sf.Config(env)
			if err != nil {
				return err
			}

			scan, err := drift.New(cfg, mapsrun.New(mapsrun.HostRunner{}, env.Settings.ArrayDir, ""))
			if err != nil {
				return err
			}

			if stdout {
				fmt.Print(scan.SpecText())
				return nil
			}

			if err := scan.WriteSpec(); err != nil {
				return err
			}
			fmt.Println(ui.SuccessMsg("wrote %s", ui.Accent(scan.SpecFile())))
			return nil
		},
	}

	sf.Bind(cmd)
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the spec instead of writing it")
	return cmd
}
