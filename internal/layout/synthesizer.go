// Package layout turns a building shell and rack preferences into rack
// geometry: frame height, beam levels, back-to-back rows, bays and tunnels.
//
// Column grids are recorded but never used to move rows or bays.
package layout

import (
	"fmt"
	"math"

	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
)

// Bay type labels for suggested elevations.
const (
	LabelStandard = "A"
	LabelTunnel   = "T"
)

// settings are the resolved numeric inputs after defaults.
type settings struct {
	clearanceIn   float64
	firstBeamIn   float64
	levelSpacing  float64
	stagingFt     float64
	flueIn        float64
	tunnelEvery   int
	beamLengthIn  int
	palletsPerBay int
	aisleIn       int
	uprightIn     int
}

// Synthesize computes the layout. clearanceIn is the sprinkler clearance
// below deflectors; zero applies the ESFR default. Every default applied is
// reported as an advisory.
func Synthesize(b models.Building, r models.RackRequirements, clearanceIn float64) (*models.Layout, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if clearanceIn < 0 {
		return nil, models.NewValidationError("sprinkler_clearance_in", "must not be negative, got %g", clearanceIn)
	}

	l := &models.Layout{FrameDepthIn: r.FrameDepthIn}
	s := resolve(r, clearanceIn, &l.Advisories)

	// Frame height and beam levels.
	maxFrameIn := b.ClearHeightFt*12 - s.clearanceIn
	frame, ok := reference.SelectFrameHeight(maxFrameIn)
	if !ok {
		return nil, &models.LayoutInfeasibleError{
			Constraint: "clear height less sprinkler clearance is below the shortest standard frame",
			Required:   float64(reference.StandardFrameHeights()[0]),
			Available:  maxFrameIn,
			Unit:       "in",
		}
	}
	if float64(frame) < s.firstBeamIn {
		return nil, &models.LayoutInfeasibleError{
			Constraint: "first beam height is above the selected frame height",
			Required:   s.firstBeamIn,
			Available:  float64(frame),
			Unit:       "in",
		}
	}
	l.FrameHeightIn = frame
	l.BeamLevels = int(math.Floor((float64(frame)-s.firstBeamIn)/s.levelSpacing)) + 1
	if r.MaxBeamLevels > 0 && r.MaxBeamLevels < l.BeamLevels {
		l.BeamLevels = r.MaxBeamLevels
	}
	l.BeamLengthIn = s.beamLengthIn
	l.PalletsPerBay = s.palletsPerBay
	l.AisleWidthIn = s.aisleIn

	l.Notes = append(l.Notes,
		fmt.Sprintf("Frame height: %d\" (%.0fft)", frame, float64(frame)/12),
		fmt.Sprintf("Beam levels: %d", l.BeamLevels),
		fmt.Sprintf("Beam length: %d\"", l.BeamLengthIn),
		fmt.Sprintf("Aisle width: %d\" (%.1fft), %s", s.aisleIn, float64(s.aisleIn)/12, r.ForkliftType),
	)

	if err := placeRows(l, b, r, s); err != nil {
		return nil, err
	}
	if err := placeBays(l, b, s); err != nil {
		return nil, err
	}
	placeColumns(l, b)
	totals(l, b, r, s)
	return l, nil
}

func resolve(r models.RackRequirements, clearanceIn float64, advs *models.Advisories) settings {
	defaults := reference.Cite(reference.TableLayoutDefaults)
	applied := func(field, msg, ref string) {
		advs.Add(models.Advisory{
			Code:       models.AdvisoryDefaultApplied,
			Field:      field,
			Message:    msg,
			Source:     models.SourceEngineDefault,
			Confidence: models.ConfidenceDefault,
			Reference:  ref,
		})
	}

	s := settings{
		clearanceIn:  clearanceIn,
		firstBeamIn:  r.FirstBeamHeightIn,
		levelSpacing: r.LevelSpacingIn,
		stagingFt:    r.MinStagingDepthFt,
		tunnelEvery:  r.TunnelEveryBays,
		flueIn:       r.FlueSpaceIn,
	}
	if s.clearanceIn == 0 {
		s.clearanceIn = reference.ESFRClearanceIn
		applied("sprinkler_clearance_in", fmt.Sprintf("sprinkler clearance defaulted to %g in (ESFR)", s.clearanceIn), reference.Cite(reference.TableSprinklers))
	}
	if s.firstBeamIn == 0 {
		s.firstBeamIn = reference.FirstBeamHeightIn
		applied("first_beam_height_in", fmt.Sprintf("first beam height defaulted to %g in", s.firstBeamIn), defaults)
	}
	if s.levelSpacing == 0 {
		s.levelSpacing = reference.LevelSpacingIn
		applied("level_spacing_in", fmt.Sprintf("level spacing defaulted to %g in", s.levelSpacing), defaults)
	}
	if s.stagingFt == 0 {
		s.stagingFt = reference.MinStagingDepthFt
		applied("min_staging_depth_ft", fmt.Sprintf("staging depth defaulted to %g ft", s.stagingFt), defaults)
	}
	if s.flueIn == 0 {
		s.flueIn = reference.LongitudinalFlueIn
		applied("flue_space_in", fmt.Sprintf("longitudinal flue defaulted to %g in", s.flueIn), reference.Cite(reference.TableFlue))
	}
	if s.tunnelEvery == 0 && !r.NoTunnels {
		s.tunnelEvery = reference.TunnelEveryBays
		applied("tunnel_every_bays", fmt.Sprintf("tunnel spacing defaulted to every %d bays", s.tunnelEvery), defaults)
	}

	size := r.PalletSize
	if size == "" {
		size = reference.DefaultPalletSize
		applied("pallet_size", "pallet size defaulted to "+size, reference.Cite(reference.TablePallets))
	}
	pallet, fromTable := reference.PalletFor(size)
	if !fromTable {
		applied("pallet_size", fmt.Sprintf("pallet size %q not in table, beam length computed as %d in", size, pallet.BeamLengthIn), reference.Cite(reference.TablePallets))
	}
	s.beamLengthIn = pallet.BeamLengthIn
	s.palletsPerBay = pallet.PalletsPerBay

	// Both lookups are covered by RackRequirements.Validate.
	s.aisleIn, _ = reference.AisleWidth(r.ForkliftType)
	s.uprightIn, _ = reference.UprightWidth(r.RackStyle)
	return s
}

func placeRows(l *models.Layout, b models.Building, r models.RackRequirements, s settings) error {
	usableIn := (b.WidthFt - 2*reference.WallClearanceFt) * 12
	pairWidthIn := 2*r.FrameDepthIn + s.flueIn
	moduleIn := pairWidthIn + float64(s.aisleIn)
	l.RowModuleIn = moduleIn

	pairs := 0
	if usableIn > 0 {
		pairs = int(math.Floor(usableIn / moduleIn))
	}
	if pairs == 0 {
		return &models.LayoutInfeasibleError{
			Constraint: "usable width insufficient for one row-pair",
			Required:   moduleIn,
			Available:  math.Max(usableIn, 0),
			Unit:       "in",
		}
	}

	leftoverIn := usableIn - float64(pairs)*moduleIn
	l.RowPairs = pairs
	l.WallRow = leftoverIn >= moduleIn/2
	l.TotalRows = pairs * 2
	if l.WallRow {
		l.TotalRows++
	}

	note := fmt.Sprintf("Row pairs: %d back-to-back", pairs)
	if l.WallRow {
		note += " + 1 wall row"
	} else if leftoverIn > 0 {
		l.Notes = append(l.Notes, fmt.Sprintf("%.0f\" of width left unused, less than half a row module", leftoverIn))
	}
	l.Notes = append(l.Notes, note,
		fmt.Sprintf("Row module: %.0f\" (%.1fft) = 2x%g\" + %g\" flue + %d\" aisle",
			moduleIn, moduleIn/12, r.FrameDepthIn, s.flueIn, s.aisleIn))

	x := reference.WallClearanceFt*12 + float64(s.aisleIn)/2
	id := 0
	for p := 0; p < pairs; p++ {
		l.Rows = append(l.Rows,
			models.Row{ID: id, XFt: round2(x / 12), PairID: p, Side: models.RowLeft},
			models.Row{ID: id + 1, XFt: round2((x + r.FrameDepthIn + s.flueIn) / 12), PairID: p, Side: models.RowRight},
		)
		id += 2
		x += moduleIn
	}
	if l.WallRow {
		wallX := (b.WidthFt-reference.WallClearanceFt)*12 - r.FrameDepthIn
		l.Rows = append(l.Rows, models.Row{ID: id, XFt: round2(wallX / 12), PairID: -1, Side: models.RowWall})
	}
	return nil
}

func placeBays(l *models.Layout, b models.Building, s settings) error {
	usableIn := (b.LengthFt - s.stagingFt - reference.WallClearanceFt) * 12
	bayModuleIn := s.beamLengthIn + s.uprightIn
	tunnelModuleIn := reference.TunnelBeamLengthIn + s.uprightIn
	l.BayModuleIn = bayModuleIn

	bays := 0
	if usableIn > 0 {
		bays = int(math.Floor(usableIn / float64(bayModuleIn)))
	}
	if bays == 0 {
		return &models.LayoutInfeasibleError{
			Constraint: "usable depth insufficient for staging plus one bay",
			Required:   float64(bayModuleIn),
			Available:  math.Max(usableIn, 0),
			Unit:       "in",
		}
	}

	tunnelsFor := func(n int) int {
		if s.tunnelEvery <= 0 {
			return 0
		}
		return n / s.tunnelEvery
	}
	rowLengthIn := func(n int) int {
		t := tunnelsFor(n)
		return (n-t)*bayModuleIn + t*tunnelModuleIn
	}

	// Tunnel bays are longer than the slots they replace.
	dropped := 0
	for bays > 1 && float64(rowLengthIn(bays)) > usableIn {
		bays--
		dropped++
	}
	if dropped > 0 {
		l.Notes = append(l.Notes, fmt.Sprintf("%d bay(s) per row dropped to fit tunnel bays within the usable depth", dropped))
	}

	tunnels := tunnelsFor(bays)
	l.BaysPerRow = bays
	l.TunnelSpacingBays = s.tunnelEvery
	l.TunnelsPerRow = tunnels
	l.TotalTunnels = tunnels * l.TotalRows
	l.TotalBays = bays * l.TotalRows
	if tunnels > 0 {
		l.TunnelBeamLevels = l.BeamLevels - reference.TunnelLostLevels
		if l.TunnelBeamLevels < 0 {
			l.TunnelBeamLevels = 0
		}
	}

	rowLenFt := float64(rowLengthIn(bays)) / 12
	for i := range l.Rows {
		l.Rows[i].YStartFt = s.stagingFt
		l.Rows[i].YEndFt = round2(s.stagingFt + rowLenFt)
		l.Rows[i].Bays = bays
		l.Rows[i].Tunnels = tunnels
	}

	l.Staging = models.StagingArea{
		DepthFt:  s.stagingFt,
		WidthFt:  b.WidthFt,
		AreaSqft: s.stagingFt * b.WidthFt,
	}

	l.Notes = append(l.Notes, fmt.Sprintf("Bays per row: %d (%d\" module, %.0fft)", bays, bayModuleIn, rowLenFt))

	if tunnels == 0 {
		if s.tunnelEvery > 0 {
			l.Notes = append(l.Notes, fmt.Sprintf("No tunnels: %d bays per row is fewer than the %d-bay tunnel spacing", bays, s.tunnelEvery))
		}
		return nil
	}

	positions := make([]int, 0, tunnels)
	for i := 1; i <= tunnels; i++ {
		pos := i * s.tunnelEvery
		positions = append(positions, pos)
		// Bays before this tunnel include i-1 earlier tunnel bays.
		before := (pos-i)*bayModuleIn + (i-1)*tunnelModuleIn
		l.CrossAisles = append(l.CrossAisles, models.CrossAisle{
			BayPosition: pos,
			YFt:         round1(s.stagingFt + float64(before)/12),
			WidthFt:     reference.CrossAisleWidthFt,
		})
	}
	l.Notes = append(l.Notes, fmt.Sprintf("Cross-aisles at bay positions: %v", positions))
	if l.TunnelBeamLevels == 0 {
		l.Warnings = append(l.Warnings, "Tunnel bays carry no beam levels at this frame height")
	}
	return nil
}

func placeColumns(l *models.Layout, b models.Building) {
	gx, gy := b.ColumnGridXFt, b.ColumnGridYFt
	if gx == 0 && gy == 0 {
		return
	}
	if gx > 0 && gy > 0 {
		nx := int(b.WidthFt / gx)
		ny := int(b.LengthFt / gy)
		for ix := 1; ix < nx; ix++ {
			for iy := 1; iy < ny; iy++ {
				l.Columns = append(l.Columns, models.Column{XFt: float64(ix) * gx, YFt: float64(iy) * gy})
			}
		}
	}
	msg := fmt.Sprintf("column grid %gft x %gft (%d columns) recorded but not resolved against rows; check conflicts manually", gx, gy, len(l.Columns))
	l.Advisories.Add(models.Advisory{
		Code:       models.AdvisoryColumnGrid,
		Field:      "building.column_grid",
		Message:    msg,
		Source:     models.SourceCaller,
		Confidence: models.ConfidenceLow,
		Reference:  "building.column_grid_x_ft/column_grid_y_ft",
	})
	l.Notes = append(l.Notes, "Building columns: "+msg)
}

func totals(l *models.Layout, b models.Building, r models.RackRequirements, s settings) {
	standard := l.TotalBays - l.TotalTunnels

	l.EndFrames = l.TotalRows
	l.TotalFrames = l.TotalBays + l.EndFrames
	l.TotalBeams = standard*l.BeamLevels*2 + l.TotalTunnels*l.TunnelBeamLevels*2
	l.TotalPalletPositions = standard*l.BeamLevels*s.palletsPerBay +
		l.TotalTunnels*l.TunnelBeamLevels*reference.TunnelPalletsPerLevel

	footprint := float64(l.TotalBays) * float64(s.beamLengthIn) * r.FrameDepthIn / 144
	l.UtilizationPct = round1(footprint / (b.LengthFt * b.WidthFt) * 100)

	l.BayTypes = SuggestBayTypes(l, r.RackStyle)
	l.Advisories.Add(models.Advisory{
		Code:       models.AdvisoryEndFramesDefault,
		Field:      "bay_types.end_frames",
		Message:    fmt.Sprintf("end frames set to the row count (%d); supply end_frames per bay type to override", l.EndFrames),
		Source:     models.SourceEngineDefault,
		Confidence: models.ConfidenceDefault,
		Reference:  reference.Cite(reference.TableLayoutDefaults),
	})

	l.Notes = append(l.Notes,
		fmt.Sprintf("Total: %d PP across %d bays in %d rows", l.TotalPalletPositions, l.TotalBays, l.TotalRows),
		fmt.Sprintf("Floor utilization: %.1f%%", l.UtilizationPct),
	)

	if r.TargetPalletPositions > 0 && l.TotalPalletPositions < r.TargetPalletPositions {
		short := r.TargetPalletPositions - l.TotalPalletPositions
		l.Warnings = append(l.Warnings,
			fmt.Sprintf("Target PP shortfall: need %d but only fit %d (%d short)", r.TargetPalletPositions, l.TotalPalletPositions, short),
			"Consider: taller frames, narrower aisles, double-deep rack, or reducing staging area",
		)
	}
}

// SuggestBayTypes derives the standard and tunnel elevations from a layout.
// Wire decks per level use the deck width picked for the frame depth. The
// bay types are marked derived; engineering input may replace them.
func SuggestBayTypes(l *models.Layout, style models.RackStyle) []models.BayType {
	supports := func(decks int) int {
		if style == models.RackStructural {
			return decks * 2
		}
		return 0
	}

	deckWidth := reference.DeckWidthFor(l.FrameDepthIn)
	endFrames := l.EndFrames
	standardDecks := l.BeamLevels * reference.DecksPerLevel(l.BeamLengthIn, deckWidth)
	types := []models.BayType{{
		Label:                 LabelStandard,
		BayCount:              l.TotalBays - l.TotalTunnels,
		EndFrames:             &endFrames,
		FrameHeightIn:         l.FrameHeightIn,
		Beams:                 []models.BeamSpec{{LengthIn: l.BeamLengthIn, PerBay: l.BeamLevels * 2}},
		WiredecksPerBay:       standardDecks,
		PalletSupportsPerBay:  supports(standardDecks),
		PalletPositionsPerBay: l.BeamLevels * l.PalletsPerBay,
		Provenance:            models.ProvenanceDerived,
	}}

	if l.TotalTunnels > 0 {
		none := 0
		tunnelDecks := l.TunnelBeamLevels * reference.DecksPerLevel(reference.TunnelBeamLengthIn, deckWidth)
		types = append(types, models.BayType{
			Label:                 LabelTunnel,
			BayCount:              l.TotalTunnels,
			EndFrames:             &none,
			Tunnel:                true,
			FrameHeightIn:         l.FrameHeightIn,
			Beams:                 []models.BeamSpec{{LengthIn: reference.TunnelBeamLengthIn, PerBay: l.TunnelBeamLevels * 2}},
			WiredecksPerBay:       tunnelDecks,
			PalletSupportsPerBay:  supports(tunnelDecks),
			PalletPositionsPerBay: l.TunnelBeamLevels * reference.TunnelPalletsPerLevel,
			Provenance:            models.ProvenanceDerived,
		})
	}
	return types
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
