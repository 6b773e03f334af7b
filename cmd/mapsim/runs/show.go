package runscmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/piyanatk/mapsim"
	"github.com/piyanatk/mapsim/cmd/mapsim/cmdutil"
	"github.com/piyanatk/mapsim/cmd/mapsim/ui"
	"github.com/piyanatk/mapsim/internal/store"
)

func showCmd(dataDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run]",
		Short: "Show one run in full",
		Long: "Accepts a registry id, an id prefix, or an observation name; a name\n" +
			"resolves to its newest run. Without an argument an interactive picker\n" +
			"opens.",
		Args: cobra.MaximumNArgs(1),
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

			var rec mapsim.RunRecord
			if len(args) == 1 {
				rec, err = reg.Find(cmd.Context(), args[0])
			} else {
				rec, err = pickRun(cmd.Context(), reg)
			}
			if err != nil {
				return err
			}

			printRun(rec)
			return nil
		},
	}
	return cmd
}

func pickRun(ctx context.Context, reg *store.Store) (mapsim.RunRecord, error) {
	if err := ui.RequireInteraction("pass a run id or name instead"); err != nil {
		return mapsim.RunRecord{}, err
	}

	recs, err := reg.List(ctx, 0)
	if err != nil {
		return mapsim.RunRecord{}, err
	}
	if len(recs) == 0 {
		return mapsim.RunRecord{}, fmt.Errorf("no runs recorded")
	}

	idx, err := ui.PickRow(runHeaders(), runRows(recs, false))
	if err != nil {
		return mapsim.RunRecord{}, err
	}
	if idx < 0 || idx >= len(recs) {
		return mapsim.RunRecord{}, ui.ErrCancelled
	}
	return recs[idx], nil
}

func printRun(rec mapsim.RunRecord) {
	kvs := []ui.Pair{
		ui.KV("id", rec.ID),
		ui.KV("name", rec.Name),
	}
	if rec.Image != "" {
		kvs = append(kvs, ui.KV("image", rec.Image))
	}
	kvs = append(kvs,
		ui.KV("site", rec.Site),
		ui.KV("mode", rec.Mode),
		ui.KV("phase", phaseCell(rec.Phase)),
		ui.KV("stage", stageCell(rec.Stage)),
		ui.KV("started", rec.StartedAt.Local().Format("2006-01-02 15:04:05")),
	)
	if !rec.FinishedAt.IsZero() {
		kvs = append(kvs,
			ui.KV("finished", rec.FinishedAt.Local().Format("2006-01-02 15:04:05")),
			ui.KV("duration", rec.Duration().Round(time.Millisecond).String()),
		)
	}

	fmt.Println(ui.InfoMsg("run %s", ui.Accent(rec.Name)))
	fmt.Print(ui.KeyValues("  ", kvs...))
	if rec.Error != "" {
		fmt.Println(ui.ErrorMsg("%s", rec.Error))
	}
}
