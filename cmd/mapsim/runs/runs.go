// Package runscmd implements "mapsim runs": inspecting and pruning the
// local run registry.
package runscmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/piyanatk/mapsim"
	"github.com/piyanatk/mapsim/cmd/mapsim/ui"
)

func Cmd(dataDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run registry",
	}
	cmd.AddCommand(listCmd(dataDir))
	cmd.AddCommand(showCmd(dataDir))
	cmd.AddCommand(pruneCmd(dataDir))
	return cmd
}

func runHeaders() []string {
	return []string{"ID", "Name", "Site", "Mode", "Phase", "Stage", "Started", "Duration"}
}

// runRows renders registry records as table rows. Styled rows carry ANSI
// colors for the static table; the interactive picker needs plain text.
func runRows(recs []mapsim.RunRecord, styled bool) [][]string {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		phase := r.Phase.String()
		if styled {
			phase = phaseCell(r.Phase)
		}
		rows[i] = []string{
			shortID(r.ID),
			r.Name,
			r.Site,
			r.Mode,
			phase,
			stageCell(r.Stage),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			durationCell(r),
		}
	}
	return rows
}

// shortID is the leading id fragment shown in tables; Find resolves it
// back to the full record.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func phaseCell(p mapsim.RunPhase) string {
	switch p {
	case mapsim.RunSucceeded:
		return ui.Success(p.String())
	case mapsim.RunFailed:
		return ui.Error(p.String())
	case mapsim.RunRunning:
		return ui.Accent(p.String())
	default:
		return p.String()
	}
}

func stageCell(s mapsim.Stage) string {
	if s == mapsim.StageNone {
		return "-"
	}
	return s.String()
}

func durationCell(r mapsim.RunRecord) string {
	d := r.Duration()
	if d == 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
