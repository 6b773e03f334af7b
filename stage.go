package mapsim

// Stage identifies one step of the drift-scan pipeline. The zero value
// means the pipeline has not started.
type Stage uint8

const (
	StageNone Stage = iota
	StageGrid       // maps_im2uv: FITS image onto the uv plane
	StageSpec       // observation spec written to disk
	StageVisgen     // visgen: visibilities from the gridded image
	StageUVFITS     // maps2uvfits: visibilities to UVFITS
	StageLog        // run log written to disk
)

func (s Stage) String() string {
	switch s {
	case StageGrid:
		return "im2uv"
	case StageSpec:
		return "spec"
	case StageVisgen:
		return "visgen"
	case StageUVFITS:
		return "uvfits"
	case StageLog:
		return "log"
	default:
		return "none"
	}
}

// ParseStage maps a stage name back to its Stage, for records read from
// the run registry. Unknown names map to StageNone.
func ParseStage(s string) Stage {
	switch s {
	case "im2uv":
		return StageGrid
	case "spec":
		return StageSpec
	case "visgen":
		return StageVisgen
	case "uvfits":
		return StageUVFITS
	case "log":
		return StageLog
	default:
		return StageNone
	}
}
