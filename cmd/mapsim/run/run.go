// Package runcmd implements "mapsim run": one drift scan through the
// full pipeline, recorded in the run registry.
package runcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/piyanatk/mapsim"
	"github.com/piyanatk/mapsim/cmd/mapsim/cmdutil"
	"github.com/piyanatk/mapsim/cmd/mapsim/ui"
	"github.com/piyanatk/mapsim/pkg/drift"
	"github.com/piyanatk/mapsim/pkg/mapsrun"
	"github.com/piyanatk/mapsim/pkg/telemetry"
)

func Cmd(dataDir *string) *cobra.Command {
	var (
		sf cmdutil.ScanFlags
		rf cmdutil.RunnerFlags
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one drift scan through the pipeline",
		Long: "Grids the sky image onto the uv plane, writes the observation spec,\n" +
			"generates visibilities, converts them to UVFITS, and writes the run\n" +
			"log. Products are named after the observation and land in the working\n" +
			"directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sf.Image == "" && sf.OOBs == "" {
				return fmt.Errorf("nothing to observe: give --image or --oob")
			}

			env, err := cmdutil.LoadEnv(*dataDir)
			if err != nil {
				return err
			}
			cfg, err := sf.Config(env)
			if err != nil {
				return err
			}

			tc, err := env.Toolchain(rf)
			if err != nil {
				return err
			}
			defer tc.Close()

			scan, err := drift.New(cfg, tc.Tools)
			if err != nil {
				return err
			}

			if cfg.ScanStart != "" {
				cmdutil.WarnClockSkew(cmd.Context(), env.Settings.NTPPool)
			}

			reg, err := env.OpenStore()
			if err != nil {
				return err
			}
			defer reg.Close()

			rec := mapsim.RunRecord{
				ID:        ulid.Make().String(),
				Name:      scan.Name(),
				Image:     cfg.SkyImage,
				Site:      cfg.Site.Name,
				Mode:      tc.Mode,
				Phase:     mapsim.RunRunning,
				StartedAt: time.Now(),
			}
			if err := reg.Insert(cmd.Context(), rec); err != nil {
				return err
			}

			fmt.Println(ui.InfoMsg("observing %s at %s", ui.Accent(scan.Name()), cfg.Site.Name))

			progress := ui.NewProgress()
			defer progress.Close()
			tracer := progress.Tracer("mapsim/cmd/run")

			stages := []mapsim.Stage{mapsim.StageSpec, mapsim.StageVisgen, mapsim.StageUVFITS, mapsim.StageLog}
			if cfg.SkyImage != "" {
				stages = append([]mapsim.Stage{mapsim.StageGrid}, stages...)
			}

			op, err := telemetry.EmitPlan(cmd.Context(), tracer, "scan.run", scan.Name(), telemetry.PipelinePlan(stages...))
			if err != nil {
				return err
			}

			started := time.Now()
			var (
				opErr   error
				reached mapsim.Stage
			)
			defer func() {
				op.End(opErr)
			}()
			defer func() {
				phase := mapsim.RunSucceeded
				errText := ""
				if opErr != nil {
					phase = mapsim.RunFailed
					errText = opErr.Error()
				}
				if err := reg.Finish(cmd.Context(), rec.ID, phase, reached, errText, time.Now()); err != nil {
					slog.Warn("Run registry update failed.", "run", rec.ID, "error", err)
				}
			}()

			if cfg.SkyImage != "" {
				opErr = op.RunStage(op.Context(), mapsim.StageGrid, scan.GridImage)
				if opErr != nil {
					return opErr
				}
				reached = mapsim.StageGrid
			}

			opErr = op.RunStage(op.Context(), mapsim.StageSpec, func(context.Context) error {
				return scan.WriteSpec()
			})
			if opErr != nil {
				return opErr
			}
			reached = mapsim.StageSpec

			opErr = op.RunStage(op.Context(), mapsim.StageVisgen, func(stepCtx context.Context) error {
				if err := scan.GenVisibility(stepCtx); err != nil {
					return err
				}
				if !cfg.KeepUVGrid {
					return scan.RemoveUVGrid()
				}
				return nil
			})
			if opErr != nil {
				var verr *mapsrun.VisgenError
				if errors.As(opErr, &verr) {
					fmt.Println(ui.Muted("  visgen's error stream is saved at " + verr.ErrFile))
				}
				return opErr
			}
			reached = mapsim.StageVisgen

			opErr = op.RunStage(op.Context(), mapsim.StageUVFITS, scan.ToUVFITS)
			if opErr != nil {
				return opErr
			}
			reached = mapsim.StageUVFITS

			opErr = op.RunStage(op.Context(), mapsim.StageLog, func(context.Context) error {
				// Rewrite the spec so its file inventory names everything
				// the run produced, then persist the log.
				if err := scan.WriteSpec(); err != nil {
					return err
				}
				return scan.WriteLog()
			})
			if opErr != nil {
				return opErr
			}
			reached = mapsim.StageLog

			fmt.Println(ui.SuccessMsg("scan %s complete", ui.Accent(scan.Name())))
			fmt.Print(ui.KeyValues("  ",
				ui.KV("spec", scan.SpecFile()),
				ui.KV("visibility", scan.Vis()),
				ui.KV("uvfits", scan.UVFITS()),
				ui.KV("visgen log", scan.VisLog()),
				ui.KV("registry id", rec.ID),
				ui.KV("duration", time.Since(started).Round(time.Millisecond).String()),
			))
			return nil
		},
	}

	sf.Bind(cmd)
	rf.Bind(cmd)
	return cmd
}
