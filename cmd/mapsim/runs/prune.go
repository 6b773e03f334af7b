package runscmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/piyanatk/mapsim/cmd/mapsim/cmdutil"
	"github.com/piyanatk/mapsim/cmd/mapsim/ui"
)

func pruneCmd(dataDir *string) *cobra.Command {
	var (
		olderThan time.Duration
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old run records",
		Long: "Deletes finished run records older than the cutoff. Runs still\n" +
			"marked running are kept. Product files are never touched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.LoadEnv(*dataDir)
			if err != nil {
				return err
			}

			cutoff := time.Now().Add(-olderThan)
			if !yes {
				ok, err := ui.Confirm(
					fmt.Sprintf("Delete run records started before %s?", cutoff.Local().Format("2006-01-02 15:04")),
					"pass --yes to skip the prompt")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println(ui.Muted("nothing pruned"))
					return nil
				}
			}

			reg, err := env.OpenStore()
			if err != nil {
				return err
			}
			defer reg.Close()

			n, err := reg.Prune(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			fmt.Println(ui.SuccessMsg("pruned %d run records", n))
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff for records")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}
