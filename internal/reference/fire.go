package reference

import "github.com/stwalsh4118/rackplan/internal/models"

// FireAdvisory is attached to every sprinkler-band result. The sprinkler
// tables are partial and never authoritative.
const FireAdvisory = "verify with fire protection engineer"

// High-pile and fire-rule thresholds.
const (
	HighPileThresholdFt      = 12.0
	HighPileThresholdHHFt    = 6.0
	PermitAreaSqft           = 500.0
	PermitAreaHHSqft         = 200.0
	AccessAisleAreaSqft      = 12000.0
	AccessAisleWidthFt       = 8.0
	BaffleHeightFt           = 15.0
	BaffleSpacingBays        = 10
	FlueHeightSplitFt        = 20.0
	WideAisleHeightFt        = 20.0
	MinAisleWidthFt          = 4.0
	WideMinAisleWidthFt      = 8.0
	MaxHHSqftSprinklered     = 2500.0
	MaxHHSqftUnsprinklered   = 500.0
	ESFRClearanceIn          = 36.0
	StandardClearanceMinIn   = 18.0
	StandardClearanceRecomIn = 24.0
)

// HighPileThreshold returns the storage height above which a commodity is
// high-piled.
func HighPileThreshold(c models.CommodityClass) float64 {
	if c == models.CommodityHighHazard {
		return HighPileThresholdHHFt
	}
	return HighPileThresholdFt
}

// PermitAreaThreshold returns the high-pile area above which a permit is
// required.
func PermitAreaThreshold(c models.CommodityClass) float64 {
	if c == models.CommodityHighHazard {
		return PermitAreaHHSqft
	}
	return PermitAreaSqft
}

// sprinklerBand is one row of the height-band table. Storage heights up to
// and including MaxHeightFt fall in the band.
type sprinklerBand struct {
	MaxHeightFt float64
	LowClass    models.SprinklerSpec
	HighClass   models.SprinklerSpec
}

var (
	esfrK252 = models.SprinklerSpec{
		System: "ESFR", KFactor: "K25.2", Temperature: "165F", MinPressurePSI: 25,
	}
	esfrK28 = models.SprinklerSpec{
		System: "ESFR", KFactor: "K28", Temperature: "165F", MinPressurePSI: 40,
	}
	esfrInRack10 = models.SprinklerSpec{
		System: "ESFR+IR", KFactor: "K25.2", Temperature: "165F", MinPressurePSI: 25,
		InRack: true, InRackKFactor: "K8.0", InRackLevelsFt: []int{10},
	}
	esfrInRack1020 = models.SprinklerSpec{
		System: "ESFR+IR", KFactor: "K25.2", Temperature: "165F", MinPressurePSI: 25,
		InRack: true, InRackKFactor: "K8.0", InRackLevelsFt: []int{10, 20},
	}

	sprinklerBands = []sprinklerBand{
		{MaxHeightFt: 25, LowClass: esfrK252, HighClass: esfrK252},
		{MaxHeightFt: 30, LowClass: esfrK28, HighClass: esfrInRack10},
	}
	sprinklerTop = esfrInRack1020
)

// SprinklerFor returns the sprinkler class for a storage height and
// commodity. Results are always low confidence.
func SprinklerFor(storageHeightFt float64, c models.CommodityClass) models.SprinklerSpec {
	spec := sprinklerTop
	spec.MaxHeightFt = 0
	for _, band := range sprinklerBands {
		if storageHeightFt <= band.MaxHeightFt {
			if c.LowClass() {
				spec = band.LowClass
			} else {
				spec = band.HighClass
			}
			spec.MaxHeightFt = band.MaxHeightFt
			break
		}
	}
	spec.InRackLevelsFt = append([]int(nil), spec.InRackLevelsFt...)
	return spec
}

// FlueFor returns transverse and longitudinal flue spaces.
func FlueFor(storageHeightFt float64, c models.CommodityClass) models.FlueSpace {
	if storageHeightFt <= FlueHeightSplitFt && c.LowClass() {
		return models.FlueSpace{TransverseIn: 3, LongitudinalIn: 3}
	}
	return models.FlueSpace{TransverseIn: 3, LongitudinalIn: 6}
}

// SprinklerClearance returns the minimum clearance below deflectors.
func SprinklerClearance(spec models.SprinklerSpec) float64 {
	if spec.System == "ESFR" || spec.System == "ESFR+IR" {
		return ESFRClearanceIn
	}
	return StandardClearanceMinIn
}

// BafflesRequired reports whether fire baffles are triggered.
func BafflesRequired(storageHeightFt float64, c models.CommodityClass) bool {
	if storageHeightFt <= BaffleHeightFt {
		return false
	}
	switch c {
	case models.CommodityIII, models.CommodityIV, models.CommodityHighHazard:
		return true
	}
	return false
}
