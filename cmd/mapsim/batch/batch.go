// Package batchcmd implements "mapsim batch": many drift scans from a
// manifest, fanned out over a worker pool.
package batchcmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/piyanatk/mapsim"
	"github.com/piyanatk/mapsim/cmd/mapsim/cmdutil"
	"github.com/piyanatk/mapsim/cmd/mapsim/ui"
	"github.com/piyanatk/mapsim/internal/store"
	"github.com/piyanatk/mapsim/pkg/drift"
	"github.com/piyanatk/mapsim/pkg/telemetry"
)

// runsGroupID parents every scan step in the batch plan.
const runsGroupID = "runs"

func Cmd(dataDir *string) *cobra.Command {
	var (
		workers int
		rf      cmdutil.RunnerFlags
	)

	cmd := &cobra.Command{
		Use:   "batch <manifest>",
		Short: "Run every scan of a manifest",
		Long: "Expands the manifest into scans and runs them through a fixed-size\n" +
			"worker pool. Scans are independent; one failing does not stop the\n" +
			"rest. Every scan is recorded in the run registry.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath := args[0]

			env, err := cmdutil.LoadEnv(*dataDir)
			if err != nil {
				return err
			}
			cfgs, err := drift.LoadManifest(manifestPath, env.Catalog)
			if err != nil {
				return err
			}
			if len(cfgs) == 0 {
				return fmt.Errorf("manifest %s holds no runs", manifestPath)
			}

			if workers <= 0 {
				workers = env.Settings.Workers
			}

			tc, err := env.Toolchain(rf)
			if err != nil {
				return err
			}
			defer tc.Close()

			scans, err := drift.BuildScans(cfgs, tc.Tools)
			if err != nil {
				return err
			}

			for _, cfg := range cfgs {
				if cfg.ScanStart != "" {
					cmdutil.WarnClockSkew(cmd.Context(), env.Settings.NTPPool)
					break
				}
			}

			reg, err := env.OpenStore()
			if err != nil {
				return err
			}
			defer reg.Close()

			fmt.Println(ui.InfoMsg("running %d scans from %s", len(scans), ui.Accent(manifestPath)))

			progress := ui.NewProgress()
			defer progress.Close()
			tracer := progress.Tracer("mapsim/cmd/batch")

			plan := telemetry.Plan{Steps: []telemetry.PlannedStep{
				{ID: runsGroupID, Title: "Running scans"},
			}}
			for _, s := range scans {
				plan.Steps = append(plan.Steps, telemetry.PlannedStep{
					ID:       runsGroupID + "/" + s.Name(),
					ParentID: runsGroupID,
					Title:    s.Name(),
				})
			}

			op, err := telemetry.EmitPlan(cmd.Context(), tracer, "scan.batch", "", plan)
			if err != nil {
				return err
			}
			var opErr error
			defer func() {
				op.End(opErr)
			}()

			started := time.Now()
			var results []drift.BatchResult
			opErr = op.RunStep(op.Context(), runsGroupID, func(groupCtx context.Context) error {
				results = drift.RunBatch(groupCtx, scans, drift.BatchOptions{
					Workers: workers,
					RunScan: func(ctx context.Context, s *drift.Scan) error {
						return op.RunStep(ctx, runsGroupID+"/"+s.Name(), func(stepCtx context.Context) error {
							return runRecorded(stepCtx, reg, tc.Mode, s)
						})
					},
				})
				if failed := countFailed(results); failed > 0 {
					return fmt.Errorf("%d of %d scans failed", failed, len(results))
				}
				return nil
			})

			if failed := countFailed(results); failed > 0 {
				fmt.Println(ui.WarnMsg("%d of %d scans failed:", failed, len(results)))
				for _, r := range results {
					if r.Err != nil {
						fmt.Printf("  %s: %v\n", ui.Error(r.Name), r.Err)
					}
				}
				return opErr
			}

			fmt.Println(ui.SuccessMsg("%d scans complete", len(results)))
			fmt.Print(ui.KeyValues("  ",
				ui.KV("manifest", manifestPath),
				ui.KV("workers", strconv.Itoa(workers)),
				ui.KV("duration", time.Since(started).Round(time.Millisecond).String()),
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent scans (0 uses settings)")
	rf.Bind(cmd)
	return cmd
}

// runRecorded runs one scan bracketed by registry writes, so aborted
// batches still leave a row per scan that started.
func runRecorded(ctx context.Context, reg *store.Store, mode string, s *drift.Scan) error {
	rec := mapsim.RunRecord{
		ID:        ulid.Make().String(),
		Name:      s.Name(),
		Image:     s.Config().SkyImage,
		Site:      s.Config().Site.Name,
		Mode:      mode,
		Phase:     mapsim.RunRunning,
		StartedAt: time.Now(),
	}
	if err := reg.Insert(ctx, rec); err != nil {
		return err
	}

	runErr := s.Run(ctx)

	phase := mapsim.RunSucceeded
	errText := ""
	if runErr != nil {
		phase = mapsim.RunFailed
		errText = runErr.Error()
	}
	if err := reg.Finish(context.WithoutCancel(ctx), rec.ID, phase, stageReached(s, runErr), errText, time.Now()); err != nil {
		slog.Warn("Run registry update failed.", "run", rec.ID, "error", err)
	}
	return runErr
}

// stageReached infers the deepest completed stage from the scan's
// product state, matching what the run command records.
func stageReached(s *drift.Scan, runErr error) mapsim.Stage {
	if runErr == nil {
		return mapsim.StageLog
	}
	switch {
	case s.UVFITS() != "":
		return mapsim.StageUVFITS
	case s.Vis() != "":
		return mapsim.StageVisgen
	case s.SpecFile() != "":
		return mapsim.StageSpec
	default:
		return mapsim.StageNone
	}
}

func countFailed(results []drift.BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
