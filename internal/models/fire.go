package models

import "strings"

// CommodityClass is the fire-code commodity classification.
type CommodityClass string

const (
	CommodityI          CommodityClass = "I"
	CommodityII         CommodityClass = "II"
	CommodityIII        CommodityClass = "III"
	CommodityIV         CommodityClass = "IV"
	CommodityHighHazard CommodityClass = "HH"
)

// ParseCommodityClass accepts roman numerals and the high-hazard aliases.
func ParseCommodityClass(s string) (CommodityClass, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "I", "1":
		return CommodityI, nil
	case "II", "2":
		return CommodityII, nil
	case "III", "3":
		return CommodityIII, nil
	case "IV", "4":
		return CommodityIV, nil
	case "HH", "HIGHHAZARD", "HIGH_HAZARD", "HIGH-HAZARD":
		return CommodityHighHazard, nil
	}
	return "", NewValidationError("commodity_class", "must be I, II, III, IV or HH, got %q", s)
}

// LowClass reports whether the commodity is class I or II.
func (c CommodityClass) LowClass() bool {
	return c == CommodityI || c == CommodityII
}

// SprinklerSpec describes the ceiling (and optional in-rack) protection.
type SprinklerSpec struct {
	System         string  `json:"system"`
	KFactor        string  `json:"k_factor"`
	Temperature    string  `json:"temperature"`
	MinPressurePSI int     `json:"min_pressure_psi"`
	InRack         bool    `json:"in_rack"`
	InRackKFactor  string  `json:"in_rack_k_factor,omitempty"`
	InRackLevelsFt []int   `json:"in_rack_levels_ft,omitempty"`
	MaxHeightFt    float64 `json:"max_height_ft"`
}

// FlueSpace is the clear gap between loads, in inches.
type FlueSpace struct {
	TransverseIn   float64 `json:"transverse_in"`
	LongitudinalIn float64 `json:"longitudinal_in"`
}

// FireRequirements is the fire and life-safety profile for a storage
// configuration. Every rule-derived field keeps its confidence tag.
type FireRequirements struct {
	StorageHeightFt      Traced[float64]        `json:"storage_height_ft"`
	Commodity            Traced[CommodityClass] `json:"commodity_class"`
	HighPile             Traced[bool]           `json:"high_pile"`
	HighPileThresholdFt  float64                `json:"high_pile_threshold_ft"`
	PermitRequired       bool                   `json:"permit_required"`
	Sprinkler            Traced[SprinklerSpec]  `json:"sprinkler"`
	SprinklerClearanceIn Traced[float64]        `json:"sprinkler_clearance_in"`
	FlueSpace            Traced[FlueSpace]      `json:"flue_space"`
	AccessAisleRequired  Traced[bool]           `json:"access_aisle_required"`
	AccessAisleWidthFt   float64                `json:"access_aisle_width_ft"`
	BafflesRequired      Traced[bool]           `json:"fire_baffles_required"`
	BaffleSpacingBays    int                    `json:"fire_baffle_spacing_bays,omitempty"`
	MinAisleWidthFt      Traced[float64]        `json:"min_aisle_width_ft"`
	MaxHighHazardSqft    float64                `json:"max_high_hazard_sqft,omitempty"`
	Notes                []string               `json:"notes"`
	Advisories           Advisories             `json:"advisories"`
}

// PermitAssessment lists the permits and engineering work a project needs.
type PermitAssessment struct {
	BuildingPermit        bool     `json:"building_permit_required"`
	HighPilePermit        bool     `json:"high_pile_storage_permit"`
	FireProtectionPlan    bool     `json:"fire_protection_plan"`
	StructuralEngineering bool     `json:"structural_engineering_required"`
	PrelimEngineering     bool     `json:"prelim_engineering_required"`
	SeismicAnalysis       bool     `json:"seismic_analysis_required"`
	AnchorInspection      bool     `json:"anchor_inspection_required"`
	SprinklerModification bool     `json:"sprinkler_modification_permit"`
	SlabAnalysis          bool     `json:"slab_analysis_required"`
	TypicalPermitWeeks    int      `json:"typical_permit_weeks"`
	Notes                 []string `json:"notes"`
}

// RackRecommendation is the outcome of a used-vs-new assessment.
type RackRecommendation string

const (
	RecommendNew    RackRecommendation = "new"
	RecommendEither RackRecommendation = "either"
)

// UsedRackAssessment weighs used rack against new for a site.
type UsedRackAssessment struct {
	Recommended       RackRecommendation `json:"recommended"`
	CostSavingsPct    float64            `json:"cost_savings_pct"`
	LeadTimeWeeksNew  int                `json:"lead_time_weeks_new"`
	LeadTimeWeeksUsed int                `json:"lead_time_weeks_used"`
	Risks             []string           `json:"risks"`
	Requirements      []string           `json:"requirements"`
	Notes             []string           `json:"notes"`
}
