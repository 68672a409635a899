package models

// RowSide places a row within its back-to-back pair.
type RowSide string

const (
	RowLeft  RowSide = "left"
	RowRight RowSide = "right"
	RowWall  RowSide = "wall"
)

// Row is one placed rack row.
type Row struct {
	ID       int     `json:"row_id"`
	XFt      float64 `json:"x_ft"`
	YStartFt float64 `json:"y_start_ft"`
	YEndFt   float64 `json:"y_end_ft"`
	Bays     int     `json:"bays"`
	Tunnels  int     `json:"tunnels"`
	PairID   int     `json:"pair_id"`
	Side     RowSide `json:"side"`
}

// CrossAisle is a tunnel position along the rows.
type CrossAisle struct {
	BayPosition int     `json:"bay_position"`
	YFt         float64 `json:"y_ft"`
	WidthFt     float64 `json:"width_ft"`
}

// Column is a building column recorded from the caller's grid. Columns are
// never used to move rows or bays.
type Column struct {
	XFt float64 `json:"x_ft"`
	YFt float64 `json:"y_ft"`
}

// StagingArea is the clear area reserved at the dock wall.
type StagingArea struct {
	DepthFt  float64 `json:"depth_ft"`
	WidthFt  float64 `json:"width_ft"`
	AreaSqft float64 `json:"area_sqft"`
}

// Layout is the synthesized rack geometry. It is produced once per design
// request and not modified afterwards.
type Layout struct {
	FrameHeightIn        int          `json:"frame_height_in"`
	FrameDepthIn         float64      `json:"frame_depth_in"`
	BeamLevels           int          `json:"beam_levels"`
	BeamLengthIn         int          `json:"beam_length_in"`
	PalletsPerBay        int          `json:"pallets_per_bay"`
	AisleWidthIn         int          `json:"aisle_width_in"`
	RowModuleIn          float64      `json:"row_module_in"`
	BayModuleIn          int          `json:"bay_module_in"`
	RowPairs             int          `json:"row_pairs"`
	WallRow              bool         `json:"wall_row"`
	TotalRows            int          `json:"total_rows"`
	BaysPerRow           int          `json:"bays_per_row"`
	TotalBays            int          `json:"total_bays"`
	TunnelSpacingBays    int          `json:"tunnel_spacing_bays"`
	TunnelsPerRow        int          `json:"tunnels_per_row"`
	TotalTunnels         int          `json:"total_tunnels"`
	TunnelBeamLevels     int          `json:"tunnel_beam_levels"`
	EndFrames            int          `json:"end_frames"`
	TotalFrames          int          `json:"total_frames"`
	TotalBeams           int          `json:"total_beams"`
	TotalPalletPositions int          `json:"total_pallet_positions"`
	UtilizationPct       float64      `json:"utilization_pct"`
	Staging              StagingArea  `json:"staging_area"`
	Rows                 []Row        `json:"rows"`
	CrossAisles          []CrossAisle `json:"cross_aisles"`
	Columns              []Column     `json:"columns"`
	BayTypes             []BayType    `json:"bay_types"`
	Notes                []string     `json:"notes"`
	Warnings             []string     `json:"warnings"`
	Advisories           Advisories   `json:"advisories"`
}
