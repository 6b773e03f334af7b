// Package astro provides closed-form astronomical conversions: Gaussian
// beam geometry, sexagesimal angle formatting, sidereal-to-hour-angle
// conversion, and Rayleigh-Jeans brightness temperature conversions.
package astro

import (
	"fmt"
	"math"
)

// Physical constants in SI units.
const (
	boltzmann    = 1.380649e-23 // J/K
	lightSpeed   = 299792458.0  // m/s
	jansky       = 1e-26        // W m^-2 Hz^-1
	megahertz    = 1e6
	degreeInRad  = math.Pi / 180
	hoursPerTurn = 24.0
)

// Freq21cm is the rest frequency of the neutral-hydrogen 21 cm line in MHz.
const Freq21cm = 1420.40575177

// BeamArea returns the solid angle of an elliptical Gaussian beam from the
// FWHM widths of its major and minor axes. No unit conversion is performed:
// widths in degrees give an area in square degrees, widths in pixels an area
// in pixels.
func BeamArea(bmaj, bmin float64) float64 {
	return math.Pi * bmaj * bmin / (4 * math.Ln2)
}

// HMS24 formats decimal hours as hh:mm:ss.sss, wrapping the value into
// [0h, 24h).
func HMS24(hours float64) string {
	h := math.Mod(hours, hoursPerTurn)
	if h < 0 {
		h += hoursPerTurn
	}
	total := h * 3600
	min := math.Floor(total / 60)
	sec := math.Mod(total, 60)
	hh := math.Floor(min / 60)
	mm := math.Mod(min, 60)
	return fmt.Sprintf("%02.0f:%02.0f:%06.3f", hh, mm, sec)
}

// SignedHMS formats decimal hours as [-]h:mm:ss.sss, wrapping the magnitude
// into [0h, 24h) and preserving the sign. Hours are not zero-padded.
func SignedHMS(hours float64) string {
	sign := ""
	if hours < 0 {
		sign = "-"
	}
	h := math.Mod(math.Abs(hours), hoursPerTurn)
	total := h * 3600
	min := math.Floor(total / 60)
	sec := math.Mod(total, 60)
	hh := math.Floor(min / 60)
	mm := math.Mod(min, 60)
	return fmt.Sprintf("%s%.0f:%02.0f:%06.3f", sign, hh, mm, sec)
}

// DMS formats decimal degrees as [-]dd:mm:ss.ssssss with colon delimiters
// and six decimal places on the seconds field.
func DMS(deg float64) string {
	return DMSWith(deg, ":", 6)
}

// DMSWith formats decimal degrees in sexagesimal notation using the given
// field delimiter and number of decimal places on the seconds field.
func DMSWith(deg float64, delim string, precision int) string {
	sign := ""
	if deg < 0 {
		sign = "-"
	}
	total := math.Abs(deg) * 3600
	min := math.Floor(total / 60)
	sec := math.Mod(total, 60)
	dd := math.Floor(min / 60)
	mm := math.Mod(min, 60)
	return fmt.Sprintf("%s%.0f%s%02.0f%s%0*.*f",
		sign, dd, delim, mm, delim, precision+3, precision, sec)
}

// LSTToGHA converts a local sidereal time in decimal degrees to the
// Greenwich hour angle in decimal hours for an observer at the given east
// longitude in decimal degrees.
func LSTToGHA(lstDeg, siteLongDeg float64) float64 {
	gha := lstDeg/15 - siteLongDeg/15
	if gha > hoursPerTurn {
		gha -= hoursPerTurn
	} else if gha < 0 {
		gha += hoursPerTurn
	}
	return gha
}

// RayleighJeans returns the Rayleigh-Jeans conversion factor from kelvin to
// W m^-2 Hz^-1 sr^-1 at the given frequency in MHz: 2 k_B nu^2 / c^2.
func RayleighJeans(freqMHz float64) float64 {
	nu := freqMHz * megahertz
	return 2 * boltzmann * nu * nu / (lightSpeed * lightSpeed)
}

// JyPerSrToK converts intensity in Jy/sr to Rayleigh-Jeans brightness
// temperature in kelvin at the given frequency in MHz.
func JyPerSrToK(intensity, freqMHz float64) float64 {
	return intensity * jansky / RayleighJeans(freqMHz)
}

// KToJyPerSr converts Rayleigh-Jeans brightness temperature in kelvin to
// intensity in Jy/sr at the given frequency in MHz.
func KToJyPerSr(temp, freqMHz float64) float64 {
	return temp * RayleighJeans(freqMHz) / jansky
}

// JyPerBeamToK converts intensity in Jy/beam to brightness temperature in
// kelvin for a symmetric Gaussian beam with the given FWHM width in degrees.
func JyPerBeamToK(intensity, freqMHz, beamWidthDeg float64) float64 {
	sr := BeamArea(beamWidthDeg, beamWidthDeg) * degreeInRad * degreeInRad
	return intensity * jansky / (RayleighJeans(freqMHz) * sr)
}

// KToJyPerBeam converts brightness temperature in kelvin to intensity in
// Jy/beam for a symmetric Gaussian beam with the given FWHM width in degrees.
func KToJyPerBeam(temp, freqMHz, beamWidthDeg float64) float64 {
	sr := BeamArea(beamWidthDeg, beamWidthDeg) * degreeInRad * degreeInRad
	return temp * RayleighJeans(freqMHz) * sr / jansky
}
