// Package sites implements "mapsim sites": the observing site catalog
// and the named frequency plans.
package sites

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/piyanatk/mapsim/cmd/mapsim/cmdutil"
	"github.com/piyanatk/mapsim/cmd/mapsim/ui"
	"github.com/piyanatk/mapsim/pkg/site"
)

func Cmd(dataDir *string) *cobra.Command {
	var plans bool

	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List observing sites and frequency plans",
		Long: "Lists the interferometer arrays a scan can target: the compiled-in\n" +
			"catalog plus any sites from the user catalog file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if plans {
				return printPlans()
			}

			env, err := cmdutil.LoadEnv(*dataDir)
			if err != nil {
				return err
			}

			all := env.Catalog.All()
			rows := make([][]string, len(all))
			for i, s := range all {
				rows[i] = siteRow(s)
			}
			fmt.Println(ui.Table(
				[]string{"Name", "Latitude", "Longitude", "Height", "GHA", "Array config"},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&plans, "plans", false, "List frequency plans instead of sites")
	return cmd
}

func siteRow(s site.Site) []string {
	return []string{
		s.Name,
		strconv.FormatFloat(s.Latitude, 'f', -1, 64),
		strconv.FormatFloat(s.Longitude, 'f', -1, 64),
		strconv.FormatFloat(s.Height, 'f', -1, 64),
		strconv.FormatFloat(s.GHA, 'f', 6, 64),
		s.ArrayConfig,
	}
}

func printPlans() error {
	names := site.FreqPlanNames()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		freqs, err := site.FreqPlan(name)
		if err != nil {
			return err
		}
		span := "-"
		if len(freqs) > 0 {
			span = fmt.Sprintf("%.3f-%.3f MHz", freqs[0], freqs[len(freqs)-1])
		}
		rows = append(rows, []string{name, strconv.Itoa(len(freqs)), span})
	}
	fmt.Println(ui.Table([]string{"Plan", "Channels", "Range"}, rows))
	return nil
}
