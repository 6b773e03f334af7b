// Package convertcmd implements "mapsim convert": the unit and
// coordinate conversions that surround simulation runs. Results print as
// bare values so they pipe cleanly.
package convertcmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/piyanatk/mapsim/cmd/mapsim/cmdutil"
	"github.com/piyanatk/mapsim/pkg/astro"
	"github.com/piyanatk/mapsim/pkg/drift"
)

func Cmd(dataDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert intensities, temperatures, and coordinates",
	}
	cmd.AddCommand(jysr2kCmd())
	cmd.AddCommand(k2jysrCmd())
	cmd.AddCommand(jybeam2kCmd())
	cmd.AddCommand(k2jybeamCmd())
	cmd.AddCommand(beamAreaCmd())
	cmd.AddCommand(hmsCmd())
	cmd.AddCommand(dmsCmd())
	cmd.AddCommand(ghaCmd(dataDir))
	return cmd
}

func jysr2kCmd() *cobra.Command {
	var freq float64
	cmd := &cobra.Command{
		Use:   "jysr2k <jy-per-sr>",
		Short: "Jy/sr intensity to brightness temperature in kelvin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloat("intensity", args[0])
			if err != nil {
				return err
			}
			printValue(astro.JyPerSrToK(v, freq))
			return nil
		},
	}
	cmd.Flags().Float64Var(&freq, "freq", drift.DefaultFrequency, "Frequency, MHz")
	return cmd
}

func k2jysrCmd() *cobra.Command {
	var freq float64
	cmd := &cobra.Command{
		Use:   "k2jysr <kelvin>",
		Short: "Brightness temperature in kelvin to Jy/sr intensity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloat("temperature", args[0])
			if err != nil {
				return err
			}
			printValue(astro.KToJyPerSr(v, freq))
			return nil
		},
	}
	cmd.Flags().Float64Var(&freq, "freq", drift.DefaultFrequency, "Frequency, MHz")
	return cmd
}

func jybeam2kCmd() *cobra.Command {
	var freq, beam float64
	cmd := &cobra.Command{
		Use:   "jybeam2k <jy-per-beam>",
		Short: "Jy/beam intensity to brightness temperature in kelvin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloat("intensity", args[0])
			if err != nil {
				return err
			}
			printValue(astro.JyPerBeamToK(v, freq, beam))
			return nil
		},
	}
	cmd.Flags().Float64Var(&freq, "freq", drift.DefaultFrequency, "Frequency, MHz")
	cmd.Flags().Float64Var(&beam, "beam", 0, "Gaussian beam FWHM, degrees")
	_ = cmd.MarkFlagRequired("beam")
	return cmd
}

func k2jybeamCmd() *cobra.Command {
	var freq, beam float64
	cmd := &cobra.Command{
		Use:   "k2jybeam <kelvin>",
		Short: "Brightness temperature in kelvin to Jy/beam intensity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloat("temperature", args[0])
			if err != nil {
				return err
			}
			printValue(astro.KToJyPerBeam(v, freq, beam))
			return nil
		},
	}
	cmd.Flags().Float64Var(&freq, "freq", drift.DefaultFrequency, "Frequency, MHz")
	cmd.Flags().Float64Var(&beam, "beam", 0, "Gaussian beam FWHM, degrees")
	_ = cmd.MarkFlagRequired("beam")
	return cmd
}

func beamAreaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "beam-area <bmaj> <bmin>",
		Short: "Solid angle of an elliptical Gaussian beam from its FWHM widths",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bmaj, err := parseFloat("major axis", args[0])
			if err != nil {
				return err
			}
			bmin, err := parseFloat("minor axis", args[1])
			if err != nil {
				return err
			}
			printValue(astro.BeamArea(bmaj, bmin))
			return nil
		},
	}
}

func hmsCmd() *cobra.Command {
	var signed bool
	cmd := &cobra.Command{
		Use:   "hms <hours>",
		Short: "Decimal hours to hh:mm:ss",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloat("hours", args[0])
			if err != nil {
				return err
			}
			if signed {
				fmt.Println(astro.SignedHMS(v))
			} else {
				fmt.Println(astro.HMS24(v))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&signed, "signed", false, "Keep the sign instead of wrapping into 0-24h")
	return cmd
}

func dmsCmd() *cobra.Command {
	var (
		delim     string
		precision int
	)
	cmd := &cobra.Command{
		Use:   "dms <degrees>",
		Short: "Decimal degrees to dd:mm:ss",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloat("degrees", args[0])
			if err != nil {
				return err
			}
			fmt.Println(astro.DMSWith(v, delim, precision))
			return nil
		},
	}
	cmd.Flags().StringVar(&delim, "delim", ":", "Field delimiter")
	cmd.Flags().IntVar(&precision, "precision", 6, "Decimal places on the seconds field")
	return cmd
}

func ghaCmd(dataDir *string) *cobra.Command {
	var (
		siteName  string
		longitude float64
	)
	cmd := &cobra.Command{
		Use:   "gha <lst-deg>",
		Short: "Local sidereal time in degrees to Greenwich hour angle in hours",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lst, err := parseFloat("local sidereal time", args[0])
			if err != nil {
				return err
			}

			long := longitude
			if !cmd.Flags().Changed("longitude") {
				env, err := cmdutil.LoadEnv(*dataDir)
				if err != nil {
					return err
				}
				name := siteName
				if name == "" {
					name = env.Settings.Site
				}
				st, err := env.Catalog.Lookup(name)
				if err != nil {
					return err
				}
				long = st.Longitude
			}

			printValue(astro.LSTToGHA(lst, long))
			return nil
		},
	}
	cmd.Flags().StringVar(&siteName, "site", "", "Observer site (see mapsim sites)")
	cmd.Flags().Float64Var(&longitude, "longitude", 0, "Observer east longitude, degrees (overrides --site)")
	return cmd
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, s, err)
	}
	return v, nil
}

func printValue(v float64) {
	fmt.Println(strconv.FormatFloat(v, 'g', -1, 64))
}
