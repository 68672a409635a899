package reference

import (
	"math"
	"sort"

	"github.com/stwalsh4118/rackplan/internal/models"
)

var standardFrameHeightsIn = []int{96, 120, 144, 168, 192, 216, 240, 264, 288, 336}

// StandardFrameHeights returns the stocked upright heights in inches,
// ascending.
func StandardFrameHeights() []int {
	return append([]int(nil), standardFrameHeightsIn...)
}

// SelectFrameHeight returns the tallest standard frame no taller than maxIn.
// ok is false when even the shortest frame does not fit.
func SelectFrameHeight(maxIn float64) (height int, ok bool) {
	for i := len(standardFrameHeightsIn) - 1; i >= 0; i-- {
		if float64(standardFrameHeightsIn[i]) <= maxIn {
			return standardFrameHeightsIn[i], true
		}
	}
	return 0, false
}

var aisleWidthsIn = map[models.ForkliftType]int{
	models.ForkliftSitDown:     144,
	models.ForkliftReach:       120,
	models.ForkliftNarrowAisle: 72,
	models.ForkliftVNA:         66,
}

// AisleWidth returns the working aisle width in inches for a forklift type.
func AisleWidth(f models.ForkliftType) (int, bool) {
	w, ok := aisleWidthsIn[f]
	return w, ok
}

var uprightWidthsIn = map[models.RackStyle]int{
	models.RackTeardrop:   3,
	models.RackStructural: 4,
}

// UprightWidth returns the upright column width in inches for a rack style.
func UprightWidth(s models.RackStyle) (int, bool) {
	w, ok := uprightWidthsIn[s]
	return w, ok
}

// PalletSpec is one row of the pallet-size table.
type PalletSpec struct {
	BeamLengthIn  int
	PalletsPerBay int
}

// DefaultPalletSize is applied when a request does not name one.
const DefaultPalletSize = "48x40"

var palletTable = map[string]PalletSpec{
	"48x40": {BeamLengthIn: 96, PalletsPerBay: 2},
	"48x42": {BeamLengthIn: 96, PalletsPerBay: 2},
	"48x48": {BeamLengthIn: 96, PalletsPerBay: 2},
	"42x42": {BeamLengthIn: 96, PalletsPerBay: 2},
	"40x48": {BeamLengthIn: 96, PalletsPerBay: 2},
	"36x36": {BeamLengthIn: 84, PalletsPerBay: 2},
}

var standardBeamLengthsIn = []int{48, 72, 84, 92, 96, 102, 108, 120, 144}

// StandardBeamLengths returns the stocked beam lengths in inches, ascending.
func StandardBeamLengths() []int {
	return append([]int(nil), standardBeamLengthsIn...)
}

// PalletFor returns the beam length and pallets per bay for a pallet size
// written as "WxD" in inches. Sizes missing from the table get two pallets
// per bay on the shortest stocked beam that clears 2×width + 6". The second
// return value is false when that fallback was used.
func PalletFor(size string) (PalletSpec, bool) {
	if spec, ok := palletTable[size]; ok {
		return spec, true
	}
	var w, d float64
	if n, _ := sscanPallet(size, &w, &d); n != 2 || w <= 0 {
		return palletTable[DefaultPalletSize], false
	}
	need := int(math.Ceil(w*2 + 6))
	i := sort.SearchInts(standardBeamLengthsIn, need)
	if i == len(standardBeamLengthsIn) {
		i = len(standardBeamLengthsIn) - 1
	}
	return PalletSpec{BeamLengthIn: standardBeamLengthsIn[i], PalletsPerBay: 2}, false
}

// Layout defaults. Each one that is applied is cited in an advisory.
const (
	FirstBeamHeightIn     = 88.0
	LevelSpacingIn        = 60.0
	WallClearanceFt       = 4.0
	MinStagingDepthFt     = 50.0
	TunnelEveryBays       = 20
	TunnelBeamLengthIn    = 144
	TunnelPalletsPerLevel = 3
	// TunnelLostLevels is how many beam levels a tunnel bay gives up to
	// forklift clearance.
	TunnelLostLevels     = 2
	CrossAisleWidthFt    = 12.0
	LongitudinalFlueIn   = 6.0
	DefaultShimsPerFrame = 1
	// DeckWidthSplitIn is the frame depth at or below which 46" decks are
	// used; deeper frames take 58" decks.
	DeckWidthSplitIn  = 44.0
	DeckWidthNarrowIn = 46
	DeckWidthWideIn   = 58
	// GuardAnchorsPerGuard anchors each end-of-aisle guard and filler angle.
	GuardAnchorsPerGuard = 4
	GuardAnchorSize      = `3/4" x 4"`
	// BoltsPerBeam is the structural connection hardware count per beam.
	BoltsPerBeam = 4
)

// DeckWidthFor picks the wire-deck width for a frame depth.
func DeckWidthFor(frameDepthIn float64) int {
	if frameDepthIn <= DeckWidthSplitIn {
		return DeckWidthNarrowIn
	}
	return DeckWidthWideIn
}

// DecksPerLevel is the number of wire decks of deckWidthIn that fit along
// one beam level.
func DecksPerLevel(beamLengthIn, deckWidthIn int) int {
	if deckWidthIn <= 0 {
		return 1
	}
	n := beamLengthIn / deckWidthIn
	if n < 1 {
		return 1
	}
	return n
}
