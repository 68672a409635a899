// Package reference holds the immutable, versioned engineering tables the
// design pipeline reads: seismic anchor rules, frame and beam sizes, aisle
// widths, fire rules, supplier roles and regional market defaults.
//
// Tables are exposed through functions that return copies so no caller can
// mutate shared state.
package reference

import (
	"fmt"

	"github.com/stwalsh4118/rackplan/internal/models"
)

// Version stamps every table in this package. Advisories cite it so an
// engineer can tell which rule set produced a value.
const Version = "rackplan-tables/2024.10"

// Table names cited in advisories.
const (
	TableSDCAnchors     = "sdc-anchor-table"
	TableSDCClassify    = "asce7-22 tables 11.6-1/11.6-2"
	TableFrameHeights   = "standard-frame-heights"
	TableAisleWidths    = "forklift-aisle-widths"
	TablePallets        = "pallet-beam-table"
	TableSprinklers     = "sprinkler-height-bands"
	TableFlue           = "flue-space-table"
	TableHighPile       = "high-pile-thresholds"
	TableBaffles        = "fire-baffle-rule"
	TableAccessAisle    = "fire-access-aisle-rule"
	TableMarkets        = "market-defaults"
	TableLayoutDefaults = "layout-defaults"
	TableSuppliers      = "supplier-roles"
	TablePricing        = "pricing-defaults"
)

// Cite formats a table reference for an advisory.
func Cite(table string) string {
	return fmt.Sprintf("%s@%s", table, Version)
}

// AnchorSpec is one row of the SDC anchor table.
type AnchorSpec struct {
	AnchorsPerBasePlate int
	AnchorType          string
	AnchorSize          string
	EmbedDepth          string
	Bracing             string
	// SeismicDetailing marks rows that need row spacers and preliminary
	// engineering.
	SeismicDetailing bool
}

// BasePlatesPerFrame is the number of footplates on one upright frame.
const BasePlatesPerFrame = 2

var (
	anchorsLow = AnchorSpec{
		AnchorsPerBasePlate: 1,
		AnchorType:          "wedge",
		AnchorSize:          `1/2" x 4"`,
		EmbedDepth:          `2.25"`,
		Bracing:             "standard",
	}
	anchorsModerate = AnchorSpec{
		AnchorsPerBasePlate: 2,
		AnchorType:          "Hilti Kwik Bolt TZ2",
		AnchorSize:          `1/2" x 4"`,
		EmbedDepth:          `2.25"`,
		Bracing:             "enhanced",
		SeismicDetailing:    true,
	}
	anchorsHigh = AnchorSpec{
		AnchorsPerBasePlate: 4,
		AnchorType:          "Hilti Kwik Bolt TZ2",
		AnchorSize:          `5/8" x 4.5"`,
		EmbedDepth:          `3.75"`,
		Bracing:             "full seismic",
		SeismicDetailing:    true,
	}

	sdcAnchorTable = map[models.SDC]AnchorSpec{
		models.SDCA: anchorsLow,
		models.SDCB: anchorsLow,
		models.SDCC: anchorsModerate,
		models.SDCD: anchorsHigh,
		models.SDCE: anchorsHigh,
		models.SDCF: anchorsHigh,
	}
)

// AnchorsFor returns the single anchor-table row that applies to sdc.
func AnchorsFor(sdc models.SDC) (AnchorSpec, error) {
	spec, ok := sdcAnchorTable[sdc]
	if !ok {
		return AnchorSpec{}, models.NewValidationError("sdc", "no anchor table row for %q", sdc)
	}
	return spec, nil
}

// Requirements maps an SDC to the engineering requirements for a site under
// the given building code.
func Requirements(sdc models.SDC, code models.BuildingCode, source models.Source, confidence models.Confidence) (models.EngineeringRequirements, error) {
	spec, err := AnchorsFor(sdc)
	if err != nil {
		return models.EngineeringRequirements{}, err
	}
	return models.EngineeringRequirements{
		SDC:                       sdc,
		AnchorsPerBasePlate:       spec.AnchorsPerBasePlate,
		AnchorsPerFrame:           spec.AnchorsPerBasePlate * BasePlatesPerFrame,
		AnchorType:                spec.AnchorType,
		AnchorSize:                spec.AnchorSize,
		AnchorEmbedDepth:          spec.EmbedDepth,
		BasePlateBolts:            spec.AnchorsPerBasePlate,
		Bracing:                   spec.Bracing,
		RowSpacersRequired:        spec.SeismicDetailing,
		PrelimEngineeringRequired: spec.SeismicDetailing,
		BuildingCode:              string(code),
		Source:                    source,
		Confidence:                confidence,
		Reference:                 Cite(TableSDCAnchors),
	}, nil
}

// Hazard-service defaults applied when the caller does not override them.
const (
	DefaultRiskCategory = models.RiskCategoryII
	DefaultSiteClass    = models.SiteClass("D")
	// FallbackSDC is used when neither a lookup nor a market match is
	// available. It is deliberately conservative.
	FallbackSDC = models.SDCD
)

// sdcBand is one row of a two-parameter classification table: values below
// Below map to the category for the risk category group.
type sdcBand struct {
	Below    float64
	Standard models.SDC // risk categories I-III
	Critical models.SDC // risk category IV
}

// ASCE 7-22 Table 11.6-1 (SDS) and Table 11.6-2 (SD1).
var (
	sdsBands = []sdcBand{
		{Below: 0.167, Standard: models.SDCA, Critical: models.SDCA},
		{Below: 0.33, Standard: models.SDCB, Critical: models.SDCC},
		{Below: 0.50, Standard: models.SDCC, Critical: models.SDCD},
	}
	sd1Bands = []sdcBand{
		{Below: 0.067, Standard: models.SDCA, Critical: models.SDCA},
		{Below: 0.133, Standard: models.SDCB, Critical: models.SDCC},
		{Below: 0.20, Standard: models.SDCC, Critical: models.SDCD},
	}
)

// NearFaultS1 is the mapped S1 at or above which categories E/F apply.
const NearFaultS1 = 0.75

func classifyBand(bands []sdcBand, v float64, critical bool) models.SDC {
	for _, b := range bands {
		if v < b.Below {
			if critical {
				return b.Critical
			}
			return b.Standard
		}
	}
	return models.SDCD
}

// ClassifySDC applies the two-table classification: each parameter yields a
// category and the more severe governs. Sites with S1 >= 0.75 are E for risk
// categories I-III and F for IV.
func ClassifySDC(sds, sd1, s1 float64, rc models.RiskCategory) models.SDC {
	critical := rc == models.RiskCategoryIV
	if s1 >= NearFaultS1 {
		if critical {
			return models.SDCF
		}
		return models.SDCE
	}
	return models.MoreSevere(classifyBand(sdsBands, sds, critical), classifyBand(sd1Bands, sd1, critical))
}

// California bounding box used for the CBC/IBC jurisdiction test.
const (
	CaliforniaMinLat = 32.5
	CaliforniaMaxLat = 42.0
	CaliforniaMinLon = -124.5
	CaliforniaMaxLon = -114.1
)

// InCalifornia reports whether a point falls in the California bounding box.
func InCalifornia(lat, lon float64) bool {
	return lat >= CaliforniaMinLat && lat <= CaliforniaMaxLat &&
		lon >= CaliforniaMinLon && lon <= CaliforniaMaxLon
}

// JurisdictionFor returns the code profile for a building code.
func JurisdictionFor(code models.BuildingCode, state string) models.Jurisdiction {
	if code == models.CodeCBC {
		return models.Jurisdiction{
			BuildingCode:     models.CodeCBC,
			BuildingCodeName: "CBC 2022",
			FireCode:         "CFC 2022",
			RackSection:      "2022 CBC Section 2209",
			State:            state,
		}
	}
	return models.Jurisdiction{
		BuildingCode:     models.CodeIBC,
		BuildingCodeName: "IBC 2021",
		FireCode:         "IFC 2021",
		RackSection:      "2021 IBC Section 2209 / ASCE 7-22",
		State:            state,
	}
}
