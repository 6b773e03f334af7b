package cmdutil

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/piyanatk/mapsim/cmd/mapsim/ui"
	"github.com/piyanatk/mapsim/internal/ntpcheck"
)

// WarnClockSkew checks the local clock against NTP before runs with an
// absolute start time. visgen stamps observations with wall-clock UT, so
// a skewed clock silently shifts the simulated hour angle.
func WarnClockSkew(ctx context.Context, pool string) {
	checker := ntpcheck.Checker{Pool: pool}
	var status ntpcheck.Status
	_ = ui.RunWithSpinner(ctx, "checking clock against "+pool, func(context.Context) error {
		status = checker.Check()
		return nil
	})

	switch status.Verdict {
	case ntpcheck.ClockSkewed:
		fmt.Println(ui.WarnMsg("system clock is off by %s (NTP %s); absolute scan starts will drift",
			status.Offset.Round(time.Millisecond), status.Server))
	case ntpcheck.ClockUnknown:
		slog.Debug("NTP clock check failed.", "pool", pool, "error", status.Error)
	}
}
