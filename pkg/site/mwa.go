package site

import (
	"fmt"
	"math"
	"slices"
)

// FieldCenter is a pointing center on the sky in decimal degrees.
type FieldCenter struct {
	RA  float64
	Dec float64
}

// MWA Epoch-of-Reionization target fields.
var (
	EoR0 = FieldCenter{RA: 0.0, Dec: -30.0}
	EoR1 = FieldCenter{RA: 4.0 * 15.0, Dec: -30.0}
	EoR2 = FieldCenter{RA: 10.33 * 15.0, Dec: -10.0}
)

// ZenithDec is the declination that drifts through the MWA zenith.
const ZenithDec = -26.7033

// MWA EoR band center frequencies in MHz. The low band covers roughly
// 139-167 MHz and the high band 167-195 MHz; the frequency grid steps by
// the correlator channel width, upper bound excluded.

func FreqEoRLow40kHz() []float64 { return frequencies(138.895, 167.055, 0.04) }
func FreqEoRHi40kHz() []float64  { return frequencies(167.055, 195.255, 0.04) }
func FreqEoRAll40kHz() []float64 { return frequencies(138.895, 195.255, 0.04) }
func FreqEoRLow80kHz() []float64 { return frequencies(138.915, 167.075, 0.08) }
func FreqEoRHi80kHz() []float64  { return frequencies(167.075, 195.275, 0.08) }
func FreqEoRAll80kHz() []float64 { return frequencies(138.915, 195.275, 0.08) }

var freqPlans = map[string]func() []float64{
	"eor_low_40khz": FreqEoRLow40kHz,
	"eor_hi_40khz":  FreqEoRHi40kHz,
	"eor_all_40khz": FreqEoRAll40kHz,
	"eor_low_80khz": FreqEoRLow80kHz,
	"eor_hi_80khz":  FreqEoRHi80kHz,
	"eor_all_80khz": FreqEoRAll80kHz,
}

// FreqPlan returns the named channel plan.
func FreqPlan(name string) ([]float64, error) {
	plan, ok := freqPlans[name]
	if !ok {
		return nil, fmt.Errorf("unknown frequency plan %q", name)
	}
	return plan(), nil
}

// FreqPlanNames lists the known channel plans, sorted.
func FreqPlanNames() []string {
	names := make([]string, 0, len(freqPlans))
	for name := range freqPlans {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// frequencies builds the half-open grid [start, stop) with the given step.
func frequencies(start, stop, step float64) []float64 {
	n := int(math.Ceil((stop - start) / step))
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
