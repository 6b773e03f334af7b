package runscmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piyanatk/mapsim/cmd/mapsim/cmdutil"
	"github.com/piyanatk/mapsim/cmd/mapsim/ui"
)

func listCmd(dataDir *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded runs, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.LoadEnv(*dataDir)
			if err != nil {
				return err
			}
			reg, err := env.OpenStore()
			if err != nil {
				return err
			}
			defer reg.Close()

			recs, err := reg.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println(ui.Muted("no runs recorded"))
				return nil
			}

			fmt.Println(ui.Table(runHeaders(), runRows(recs, true)))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many runs (0 shows all)")
	return cmd
}
