package models

import (
	"fmt"
	"strings"
	"time"
)

// SDC is a Seismic Design Category, A (least severe) through F.
type SDC string

const (
	SDCA SDC = "A"
	SDCB SDC = "B"
	SDCC SDC = "C"
	SDCD SDC = "D"
	SDCE SDC = "E"
	SDCF SDC = "F"
)

// AllSDCs lists every category from least to most severe.
var AllSDCs = []SDC{SDCA, SDCB, SDCC, SDCD, SDCE, SDCF}

// ParseSDC normalizes a category letter.
func ParseSDC(s string) (SDC, error) {
	v := SDC(strings.ToUpper(strings.TrimSpace(s)))
	if v.Rank() < 0 {
		return "", NewValidationError("sdc", "must be one of A-F, got %q", s)
	}
	return v, nil
}

// Rank returns 0 for A through 5 for F, or -1 for an unknown category.
func (s SDC) Rank() int {
	for i, v := range AllSDCs {
		if v == s {
			return i
		}
	}
	return -1
}

// AtLeast reports whether s is as severe as other or more.
func (s SDC) AtLeast(other SDC) bool {
	return s.Rank() >= other.Rank()
}

// MoreSevere returns the more severe of two categories.
func MoreSevere(a, b SDC) SDC {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// RiskCategory is the ASCE 7 risk category, I through IV.
type RiskCategory string

const (
	RiskCategoryI   RiskCategory = "I"
	RiskCategoryII  RiskCategory = "II"
	RiskCategoryIII RiskCategory = "III"
	RiskCategoryIV  RiskCategory = "IV"
)

// Valid reports whether the risk category is known.
func (r RiskCategory) Valid() bool {
	switch r {
	case RiskCategoryI, RiskCategoryII, RiskCategoryIII, RiskCategoryIV:
		return true
	}
	return false
}

// SiteClass is the ASCE 7-22 site soil class.
type SiteClass string

var siteClasses = map[SiteClass]bool{
	"A": true, "B": true, "BC": true, "C": true, "CD": true, "D": true, "DE": true, "E": true, "Default": true,
}

// Valid reports whether the site class is accepted by the hazard service.
func (c SiteClass) Valid() bool {
	return siteClasses[c]
}

// BuildingCode is the governing model building code.
type BuildingCode string

const (
	CodeIBC BuildingCode = "IBC"
	CodeCBC BuildingCode = "CBC"
)

// Jurisdiction is the building and fire code profile for a site.
type Jurisdiction struct {
	BuildingCode     BuildingCode `json:"building_code"`
	BuildingCodeName string       `json:"building_code_name"`
	FireCode         string       `json:"fire_code"`
	RackSection      string       `json:"rack_section"`
	State            string       `json:"state,omitempty"`
}

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name,omitempty"`
}

// Key is a stable coordinate key rounded to four decimal places.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// HazardValues holds the design spectral parameters from a hazard query.
type HazardValues struct {
	SS  float64 `json:"ss"`
	S1  float64 `json:"s1"`
	SDS float64 `json:"sds"`
	SD1 float64 `json:"sd1"`
	SMS float64 `json:"sms"`
	SM1 float64 `json:"sm1"`
	PGA float64 `json:"pgam"`
	// ReportedSDC is the category returned by the hazard service, if any.
	ReportedSDC SDC `json:"reported_sdc,omitempty"`
}

// SiteOverrides are caller-supplied values that take precedence over lookups.
type SiteOverrides struct {
	RiskCategory RiskCategory
	SiteClass    SiteClass
	SDC          SDC
}

// Site is the resolved seismic and jurisdiction profile for an address.
// It is immutable once returned by the resolver.
type Site struct {
	Address      string               `json:"address"`
	Coordinates  *Coordinates         `json:"coordinates,omitempty"`
	RiskCategory RiskCategory         `json:"risk_category"`
	SiteClass    SiteClass            `json:"site_class"`
	SDS          *Traced[float64]     `json:"sds,omitempty"`
	SD1          *Traced[float64]     `json:"sd1,omitempty"`
	SDC          Traced[SDC]          `json:"sdc"`
	Jurisdiction Traced[Jurisdiction] `json:"jurisdiction"`
	Market       string               `json:"market,omitempty"`
	Confidence   Confidence           `json:"confidence"`
	Advisories   Advisories           `json:"advisories"`
	ResolvedAt   time.Time            `json:"resolved_at"`
}

// EngineeringRequirements is the anchor and bracing specification for an SDC.
type EngineeringRequirements struct {
	SDC                       SDC        `json:"sdc"`
	AnchorsPerBasePlate       int        `json:"anchors_per_base_plate"`
	AnchorsPerFrame           int        `json:"anchors_per_frame"`
	AnchorType                string     `json:"anchor_type"`
	AnchorSize                string     `json:"anchor_size"`
	AnchorEmbedDepth          string     `json:"anchor_embed"`
	BasePlateBolts            int        `json:"base_plate_bolts"`
	Bracing                   string     `json:"bracing"`
	RowSpacersRequired        bool       `json:"row_spacers_required"`
	PrelimEngineeringRequired bool       `json:"prelim_engineering_required"`
	BuildingCode              string     `json:"building_code"`
	Source                    Source     `json:"source"`
	Confidence                Confidence `json:"confidence"`
	Reference                 string     `json:"reference"`
}
