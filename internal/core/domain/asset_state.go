package domain

// AssetBuildState is the per-package progress of an asset build within one session.
type AssetBuildState uint8

const (
	// AssetAbsent means no build has been requested for the package in this session.
	AssetAbsent AssetBuildState = iota
	// AssetStarted means a pipeline run is in flight.
	AssetStarted
	// AssetComplete means the pipeline run finished, successfully or not.
	AssetComplete
)

// String returns the string representation of the state.
func (s AssetBuildState) String() string {
	switch s {
	case AssetAbsent:
		return "absent"
	case AssetStarted:
		return "started"
	case AssetComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Advance returns the next state. Transitions only move forward; a
// backwards or repeated transition reports false and leaves s unchanged.
func (s AssetBuildState) Advance(next AssetBuildState) (AssetBuildState, bool) {
	if next <= s || next > AssetComplete {
		return s, false
	}
	return next, true
}
