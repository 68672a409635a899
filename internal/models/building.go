package models

// RackStyle is the beam connection style.
type RackStyle string

const (
	RackTeardrop   RackStyle = "teardrop"
	RackStructural RackStyle = "structural"
)

// ForkliftType drives the aisle width.
type ForkliftType string

const (
	ForkliftSitDown     ForkliftType = "sitdown"
	ForkliftReach       ForkliftType = "reach"
	ForkliftNarrowAisle ForkliftType = "narrow_aisle"
	ForkliftVNA         ForkliftType = "vna"
)

// RackCondition is new or used rack.
type RackCondition string

const (
	ConditionNew  RackCondition = "new"
	ConditionUsed RackCondition = "used"
)

// DockSide names the building wall carrying the dock doors.
type DockSide string

const (
	DockSouth DockSide = "south"
	DockNorth DockSide = "north"
	DockEast  DockSide = "east"
	DockWest  DockSide = "west"
	DockBoth  DockSide = "both"
)

// Building is the caller-supplied building shell. Length runs along the rows
// (dock to back wall); width runs across them.
type Building struct {
	LengthFt      float64  `json:"length_ft"`
	WidthFt       float64  `json:"width_ft"`
	ClearHeightFt float64  `json:"clear_height_ft"`
	DockSide      DockSide `json:"dock_side"`
	DockDoors     int      `json:"num_dock_doors"`
	ColumnGridXFt float64  `json:"column_grid_x_ft,omitempty"`
	ColumnGridYFt float64  `json:"column_grid_y_ft,omitempty"`
}

// Validate rejects non-positive or negative dimensions.
func (b Building) Validate() error {
	if b.LengthFt <= 0 {
		return NewValidationError("building.length_ft", "must be positive, got %g", b.LengthFt)
	}
	if b.WidthFt <= 0 {
		return NewValidationError("building.width_ft", "must be positive, got %g", b.WidthFt)
	}
	if b.ClearHeightFt <= 0 {
		return NewValidationError("building.clear_height_ft", "must be positive, got %g", b.ClearHeightFt)
	}
	if b.DockDoors < 0 {
		return NewValidationError("building.num_dock_doors", "must not be negative, got %d", b.DockDoors)
	}
	if b.ColumnGridXFt < 0 || b.ColumnGridYFt < 0 {
		return NewValidationError("building.column_grid", "spacing must not be negative")
	}
	return nil
}

// RackRequirements are the caller's rack preferences. Zero values for the
// optional numeric fields mean "use the engine default", which is then
// recorded as an advisory.
type RackRequirements struct {
	RackStyle             RackStyle     `json:"rack_style"`
	RackType              string        `json:"rack_type"`
	FrameDepthIn          float64       `json:"frame_depth_in"`
	ForkliftType          ForkliftType  `json:"forklift_type"`
	PalletSize            string        `json:"pallet_size"`
	MinStagingDepthFt     float64       `json:"min_staging_depth_ft"`
	TargetPalletPositions int           `json:"target_pallet_positions,omitempty"`
	Condition             RackCondition `json:"new_or_used"`
	FirstBeamHeightIn     float64       `json:"first_beam_height_in,omitempty"`
	LevelSpacingIn        float64       `json:"level_spacing_in,omitempty"`
	MaxBeamLevels         int           `json:"max_beam_levels,omitempty"`
	TunnelEveryBays       int           `json:"tunnel_every_bays,omitempty"`
	NoTunnels             bool          `json:"no_tunnels,omitempty"`
	// FlueSpaceIn is the longitudinal flue between back-to-back rows.
	FlueSpaceIn float64 `json:"flue_space_in,omitempty"`
}

// Validate rejects out-of-range rack preferences.
func (r RackRequirements) Validate() error {
	switch r.RackStyle {
	case RackTeardrop, RackStructural:
	default:
		return NewValidationError("requirements.rack_style", "must be teardrop or structural, got %q", r.RackStyle)
	}
	switch r.ForkliftType {
	case ForkliftSitDown, ForkliftReach, ForkliftNarrowAisle, ForkliftVNA:
	default:
		return NewValidationError("requirements.forklift_type", "unknown forklift type %q", r.ForkliftType)
	}
	if r.FrameDepthIn <= 0 {
		return NewValidationError("requirements.frame_depth_in", "must be positive, got %g", r.FrameDepthIn)
	}
	if r.MinStagingDepthFt < 0 {
		return NewValidationError("requirements.min_staging_depth_ft", "must not be negative, got %g", r.MinStagingDepthFt)
	}
	if r.TargetPalletPositions < 0 {
		return NewValidationError("requirements.target_pallet_positions", "must not be negative")
	}
	if r.FirstBeamHeightIn < 0 || r.LevelSpacingIn < 0 {
		return NewValidationError("requirements.beam_spacing", "must not be negative")
	}
	if r.MaxBeamLevels < 0 || r.TunnelEveryBays < 0 {
		return NewValidationError("requirements.levels", "overrides must not be negative")
	}
	if r.FlueSpaceIn < 0 {
		return NewValidationError("requirements.flue_space_in", "must not be negative, got %g", r.FlueSpaceIn)
	}
	switch r.Condition {
	case "", ConditionNew, ConditionUsed:
	default:
		return NewValidationError("requirements.new_or_used", "must be new or used, got %q", r.Condition)
	}
	return nil
}
