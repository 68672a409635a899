package models

import "fmt"

// Provenance tags a BOM line as computed or passed through.
type Provenance string

const (
	ProvenanceDerived Provenance = "derived"
	ProvenanceManual  Provenance = "manual"
)

// Category groups BOM lines and drives manufacturer assignment.
type Category string

const (
	CategoryFrame         Category = "frame"
	CategoryBeam          Category = "beam"
	CategoryWiredeck      Category = "wiredeck"
	CategoryPalletSupport Category = "pallet_support"
	CategoryAnchor        Category = "anchor"
	CategoryShim          Category = "shim"
	CategoryHardware      Category = "hardware"
	CategoryGuardAnchor   Category = "guard_anchor"
	CategoryEoAGuard      Category = "eoa_guard"
	CategoryRowSpacer     Category = "row_spacer"
	CategoryColumnProtect Category = "column_protector"
	CategoryFillerAngle   Category = "filler_angle"
	CategoryOtherManual   Category = "other"
)

// manualCategories are the categories that have no quantity formula. Their
// counts come from the caller unchanged.
var manualCategories = map[Category]bool{
	CategoryEoAGuard:      true,
	CategoryRowSpacer:     true,
	CategoryColumnProtect: true,
	CategoryFillerAngle:   true,
	CategoryOtherManual:   true,
}

// IsManual reports whether a category is pass-through only.
func (c Category) IsManual() bool {
	return manualCategories[c]
}

// BeamSpec is one beam size carried by a bay type.
type BeamSpec struct {
	LengthIn      int `json:"length_in"`
	LoadRatingLbs int `json:"load_rating_lbs,omitempty"`
	PerBay        int `json:"per_bay"`
}

// Key groups beams by length and load rating.
func (b BeamSpec) Key() string {
	return fmt.Sprintf("%d@%d", b.LengthIn, b.LoadRatingLbs)
}

// BayType is a repeated rack configuration (elevation). Bay types are
// engineering inputs; a Layout only suggests them.
type BayType struct {
	Label                 string     `json:"label"`
	BayCount              int        `json:"bay_count"`
	EndFrames             *int       `json:"end_frames,omitempty"`
	Tunnel                bool       `json:"tunnel,omitempty"`
	FrameHeightIn         int        `json:"frame_height_in,omitempty"`
	Beams                 []BeamSpec `json:"beams"`
	WiredecksPerBay       int        `json:"wiredecks_per_bay"`
	PalletSupportsPerBay  int        `json:"pallet_supports_per_bay"`
	PalletPositionsPerBay int        `json:"pallet_positions_per_bay"`
	Provenance            Provenance `json:"provenance"`
}

// BeamsPerBay totals every beam size in one bay.
func (b BayType) BeamsPerBay() int {
	total := 0
	for _, beam := range b.Beams {
		total += beam.PerBay
	}
	return total
}

// Validate rejects negative per-bay counts.
func (b BayType) Validate() error {
	field := fmt.Sprintf("bay_types[%s]", b.Label)
	if b.Label == "" {
		return NewValidationError("bay_types.label", "must not be empty")
	}
	if b.BayCount < 0 {
		return NewValidationError(field+".bay_count", "must not be negative, got %d", b.BayCount)
	}
	if b.EndFrames != nil && *b.EndFrames < 0 {
		return NewValidationError(field+".end_frames", "must not be negative, got %d", *b.EndFrames)
	}
	if b.WiredecksPerBay < 0 || b.PalletSupportsPerBay < 0 || b.PalletPositionsPerBay < 0 {
		return NewValidationError(field, "per-bay counts must not be negative")
	}
	for _, beam := range b.Beams {
		if beam.LengthIn <= 0 || beam.PerBay < 0 || beam.LoadRatingLbs < 0 {
			return NewValidationError(field+".beams", "beam length must be positive and counts non-negative")
		}
	}
	return nil
}

// ManualItem is a caller-counted line with no quantity formula. It is a
// separate type from derived lines so no derivation can produce one.
type ManualItem struct {
	Category     Category `json:"category"`
	Description  string   `json:"description"`
	Quantity     int      `json:"quantity"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Side         string   `json:"side,omitempty"`
}

// Validate rejects manual items for derived categories.
func (m ManualItem) Validate() error {
	if !m.Category.IsManual() {
		return NewValidationError("manual_items.category", "%q is derived and cannot be supplied manually", m.Category)
	}
	if m.Quantity < 0 {
		return NewValidationError("manual_items.quantity", "must not be negative, got %d", m.Quantity)
	}
	return nil
}

// BOMLineItem is one itemized BOM quantity.
type BOMLineItem struct {
	Category     Category   `json:"category"`
	Description  string     `json:"description"`
	Manufacturer string     `json:"manufacturer"`
	Quantity     int        `json:"quantity"`
	Provenance   Provenance `json:"provenance"`
	Basis        string     `json:"basis,omitempty"`
}

// BOMSummary totals the main categories.
type BOMSummary struct {
	TotalBays           int `json:"total_bays"`
	TunnelBays          int `json:"tunnel_bays"`
	EndFrames           int `json:"end_frames"`
	TotalFrames         int `json:"total_frames"`
	TotalBeams          int `json:"total_beams"`
	TotalWiredecks      int `json:"total_wiredecks"`
	TotalPalletSupports int `json:"total_pallet_supports"`
	TotalAnchors        int `json:"total_anchors"`
	TotalGuards         int `json:"total_guards"`
	PalletPositions     int `json:"pallet_positions"`
}

// BOM is the itemized bill of materials.
type BOM struct {
	Items      []BOMLineItem `json:"items"`
	Summary    BOMSummary    `json:"summary"`
	Advisories Advisories    `json:"advisories"`
}

// Quantity sums the quantities of every line in a category.
func (b BOM) Quantity(category Category) int {
	total := 0
	for _, item := range b.Items {
		if item.Category == category {
			total += item.Quantity
		}
	}
	return total
}

// Find returns the first line with the given description.
func (b BOM) Find(description string) (BOMLineItem, bool) {
	for _, item := range b.Items {
		if item.Description == description {
			return item, true
		}
	}
	return BOMLineItem{}, false
}
