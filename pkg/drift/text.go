package drift

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SpecText renders the observation spec: a commented header inventorying
// the run and its files, the ordered visgen parameters, and the Endscan
// terminator.
func (s *Scan) SpecText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", timestamp(s.Now()))
	b.WriteString("# MAPS drift scan simulation\n")
	fmt.Fprintf(&b, "# name: %s\n", s.name)
	fmt.Fprintf(&b, "# sky image: %s\n", orNone(s.skyImage))
	fmt.Fprintf(&b, "# OOB sources: %s\n", orNone(s.oobs))
	fmt.Fprintf(&b, "# sky uvgrid: %s\n", orNone(s.visIn))
	fmt.Fprintf(&b, "# visibility: %s\n", orNone(s.visOut))
	fmt.Fprintf(&b, "# uvfits: %s\n", orNone(s.uvfits))
	fmt.Fprintf(&b, "# visgen log: %s\n", orNone(s.visLog))
	fmt.Fprintf(&b, "# visgen specification file: %s\n", orNone(s.specFile))

	// visgen reads these in order and stops at Endscan.
	fmt.Fprintf(&b, "FOV_center_RA = %s\n", s.fovCenterRA)
	fmt.Fprintf(&b, "FOV_center_Dec = %s\n", s.fovCenterDec)
	fmt.Fprintf(&b, "FOV_size_RA = %s\n", formatFloat(s.cfg.FOVSizeRA))
	fmt.Fprintf(&b, "FOV_size_Dec = %s\n", formatFloat(s.cfg.FOVSizeDec))
	fmt.Fprintf(&b, "Corr_int_time = %s\n", formatFloat(s.cfg.CorrIntTime))
	fmt.Fprintf(&b, "Corr_chan_bw = %s\n", formatFloat(s.cfg.CorrChanBW))
	fmt.Fprintf(&b, "Scan_start = %s\n", s.scanStart)
	fmt.Fprintf(&b, "Scan_duration = %s\n", formatFloat(s.cfg.Duration))
	fmt.Fprintf(&b, "Channel = %s\n", s.channel)
	b.WriteString("Endscan\n\n")
	return b.String()
}

// LogText is the accumulated run log.
func (s *Scan) LogText() string { return s.log.String() }

// appendLog records a timestamped log entry.
func (s *Scan) appendLog(entry string) {
	fmt.Fprintf(&s.log, "# %s\n%s\n", timestamp(s.Now()), entry)
}

func timestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000000")
}

// formatFloat renders a float in its shortest form, keeping a trailing
// ".0" on integral values so spec files stay diffable against older
// toolchain output.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// orNone substitutes a placeholder for files not produced yet.
func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
