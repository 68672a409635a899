// Package bom derives bill-of-materials quantities from bay types and
// engineering requirements.
//
// Every derived quantity is a sum over bay types of a per-bay count times the
// bay count, or a per-frame count times the frame total. Manual items are
// passed through untouched.
package bom

import (
	"fmt"
	"strings"

	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
)

// Input is everything the engine needs to derive a BOM.
type Input struct {
	BayTypes []models.BayType
	// RowCount is the end-frame count used when a non-tunnel bay type does
	// not state its own.
	RowCount      int
	Requirements  models.EngineeringRequirements
	RackStyle     models.RackStyle
	FrameHeightIn int
	FrameDepthIn  float64
	// DeckWidthIn of zero picks the width from the frame depth.
	DeckWidthIn int
	// ShimsPerFrame of nil applies the default of one.
	ShimsPerFrame *int
	// StructuralHardware of nil follows the rack style.
	StructuralHardware *bool
	ManualItems        []models.ManualItem
	Suppliers          reference.Suppliers
}

// Validate rejects inputs before any quantity is derived.
func (in Input) Validate() error {
	if len(in.BayTypes) == 0 {
		return models.NewValidationError("bay_types", "at least one bay type is required")
	}
	seen := map[string]bool{}
	for _, bt := range in.BayTypes {
		if err := bt.Validate(); err != nil {
			return err
		}
		if seen[bt.Label] {
			return models.NewValidationError("bay_types.label", "duplicate label %q", bt.Label)
		}
		seen[bt.Label] = true
	}
	switch in.RackStyle {
	case models.RackTeardrop, models.RackStructural:
	default:
		return models.NewValidationError("rack_style", "must be teardrop or structural, got %q", in.RackStyle)
	}
	if in.FrameDepthIn <= 0 {
		return models.NewValidationError("frame_depth_in", "must be positive, got %g", in.FrameDepthIn)
	}
	if in.FrameHeightIn < 0 || in.DeckWidthIn < 0 || in.RowCount < 0 {
		return models.NewValidationError("bom", "frame height, deck width and row count must not be negative")
	}
	if in.ShimsPerFrame != nil && *in.ShimsPerFrame < 0 {
		return models.NewValidationError("shims_per_frame", "must not be negative, got %d", *in.ShimsPerFrame)
	}
	if in.Requirements.AnchorsPerFrame < 0 {
		return models.NewValidationError("anchors_per_frame", "must not be negative, got %d", in.Requirements.AnchorsPerFrame)
	}
	for _, item := range in.ManualItems {
		if err := item.Validate(); err != nil {
			return err
		}
		if item.Category == models.CategoryOtherManual && strings.TrimSpace(item.Description) == "" {
			return models.NewValidationError("manual_items.description", "required for category %q", item.Category)
		}
	}
	return nil
}

// beamGroup accumulates beams that share a BOM line.
type beamGroup struct {
	length int
	rating int
	tunnel bool
	qty    int
}

// Compute derives the BOM. It never invents quantities for manual
// categories.
func Compute(in Input) (*models.BOM, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	out := &models.BOM{}
	suppliers := in.Suppliers.Merge(reference.DefaultSuppliers())
	style := styleLabel(in.RackStyle)
	depth := trimFloat(in.FrameDepthIn)

	deckWidth := in.DeckWidthIn
	if deckWidth == 0 {
		deckWidth = reference.DeckWidthFor(in.FrameDepthIn)
	}

	req := in.Requirements
	if req.AnchorsPerFrame == 0 {
		row, err := reference.Requirements(models.SDCA, models.CodeIBC, models.SourceEngineDefault, models.ConfidenceDefault)
		if err != nil {
			return nil, err
		}
		req.AnchorsPerFrame = row.AnchorsPerFrame
		if req.AnchorSize == "" {
			req.AnchorSize = row.AnchorSize
		}
		out.Advisories.Add(models.Advisory{
			Code:       models.AdvisoryDefaultApplied,
			Field:      "anchors_per_frame",
			Message:    fmt.Sprintf("no engineering requirements supplied, %d anchors per frame assumed (SDC A/B row)", req.AnchorsPerFrame),
			Source:     models.SourceEngineDefault,
			Confidence: models.ConfidenceDefault,
			Reference:  reference.Cite(reference.TableSDCAnchors),
		})
	}

	shims := reference.DefaultShimsPerFrame
	if in.ShimsPerFrame != nil {
		shims = *in.ShimsPerFrame
	} else {
		out.Advisories.Add(models.Advisory{
			Code:       models.AdvisoryDefaultApplied,
			Field:      "shims_per_frame",
			Message:    fmt.Sprintf("shims per frame defaulted to %d", shims),
			Source:     models.SourceEngineDefault,
			Confidence: models.ConfidenceDefault,
			Reference:  reference.Cite(reference.TableLayoutDefaults),
		})
	}

	structural := in.RackStyle == models.RackStructural
	if in.StructuralHardware != nil {
		structural = *in.StructuralHardware
	}

	var (
		s        models.BOMSummary
		frames   = map[int]int{}
		heights  []int
		beams    []*beamGroup
		beamIdx  = map[string]*beamGroup{}
		decks    int
		supports int
	)

	for _, bt := range in.BayTypes {
		endFrames := endFramesFor(bt, in.RowCount, &out.Advisories)

		height := bt.FrameHeightIn
		if height == 0 {
			height = in.FrameHeightIn
		}
		if _, ok := frames[height]; !ok {
			heights = append(heights, height)
		}
		frames[height] += bt.BayCount + endFrames

		s.TotalBays += bt.BayCount
		s.EndFrames += endFrames
		if bt.Tunnel {
			s.TunnelBays += bt.BayCount
		}
		s.PalletPositions += bt.BayCount * bt.PalletPositionsPerBay

		for _, beam := range bt.Beams {
			key := fmt.Sprintf("%s/%t", beam.Key(), bt.Tunnel)
			g, ok := beamIdx[key]
			if !ok {
				g = &beamGroup{length: beam.LengthIn, rating: beam.LoadRatingLbs, tunnel: bt.Tunnel}
				beamIdx[key] = g
				beams = append(beams, g)
			}
			g.qty += bt.BayCount * beam.PerBay
			s.TotalBeams += bt.BayCount * beam.PerBay
		}

		decks += bt.BayCount * decksPerBay(bt, deckWidth)
		supports += bt.BayCount * bt.PalletSupportsPerBay
	}
	s.TotalFrames = s.TotalBays + s.EndFrames
	s.TotalWiredecks = decks
	s.TotalPalletSupports = supports

	add := func(cat models.Category, desc string, qty int, basis string) {
		out.Items = append(out.Items, models.BOMLineItem{
			Category:     cat,
			Description:  desc,
			Manufacturer: suppliers.For(cat),
			Quantity:     qty,
			Provenance:   models.ProvenanceDerived,
			Basis:        basis,
		})
	}

	for _, h := range heights {
		desc := fmt.Sprintf("%s | Frames | %s\"", style, depth)
		if h > 0 {
			desc = fmt.Sprintf("%s | Frames | %s' x %s\"", style, trimFloat(float64(h)/12), depth)
		}
		add(models.CategoryFrame, desc, frames[h], "bays + end frames")
	}

	for _, g := range beams {
		desc := fmt.Sprintf("%s | Beams | %d\"", style, g.length)
		if g.rating > 0 {
			desc += fmt.Sprintf(" | %d lbs", g.rating)
		}
		if g.tunnel {
			desc += " | Tunnel"
		}
		add(models.CategoryBeam, desc, g.qty, "bays x beams per bay")
	}

	if decks > 0 {
		add(models.CategoryWiredeck,
			fmt.Sprintf("%s | Wiredecks | %s\" x %d\"", deckLabel(in.RackStyle), depth, deckWidth),
			decks, "bays x wiredecks per bay")
	}
	if supports > 0 {
		add(models.CategoryPalletSupport, fmt.Sprintf("Pallet Supports | %s\"", depth), supports, "bays x pallet supports per bay")
	}

	s.TotalAnchors = s.TotalFrames * req.AnchorsPerFrame
	if s.TotalAnchors > 0 {
		add(models.CategoryAnchor, "Anchors | "+req.AnchorSize, s.TotalAnchors,
			fmt.Sprintf("frames x %d anchors per frame (SDC %s)", req.AnchorsPerFrame, sdcLabel(req.SDC)))
	}

	if n := s.TotalFrames * shims; n > 0 {
		add(models.CategoryShim, "Shims", n, fmt.Sprintf("frames x %d per frame", shims))
	}

	if structural && s.TotalBeams > 0 {
		bolts := s.TotalBeams * reference.BoltsPerBeam
		basis := fmt.Sprintf("beams x %d", reference.BoltsPerBeam)
		add(models.CategoryHardware, `Hardware | 1/2" x 2" Bolts`, bolts, basis)
		add(models.CategoryHardware, `Hardware | 1/2" Hex Nut`, bolts, basis)
	}

	guarded := 0
	for _, item := range in.ManualItems {
		switch item.Category {
		case models.CategoryEoAGuard:
			guarded += item.Quantity
			s.TotalGuards += item.Quantity
		case models.CategoryFillerAngle:
			guarded += item.Quantity
		}
	}
	if guarded > 0 {
		add(models.CategoryGuardAnchor, "Anchors | "+reference.GuardAnchorSize, guarded*reference.GuardAnchorsPerGuard,
			fmt.Sprintf("(EoA guards + filler angles) x %d", reference.GuardAnchorsPerGuard))
	}

	for _, item := range in.ManualItems {
		manufacturer := item.Manufacturer
		if manufacturer == "" {
			manufacturer = suppliers.For(item.Category)
		}
		out.Items = append(out.Items, models.BOMLineItem{
			Category:     item.Category,
			Description:  manualDescription(item, depth),
			Manufacturer: manufacturer,
			Quantity:     item.Quantity,
			Provenance:   models.ProvenanceManual,
			Basis:        "caller supplied",
		})
	}

	out.Summary = s
	return out, nil
}

// endFramesFor returns a bay type's end frames, recording an advisory when
// the count was not supplied.
func endFramesFor(bt models.BayType, rows int, advs *models.Advisories) int {
	if bt.EndFrames != nil {
		return *bt.EndFrames
	}
	n := rows
	if bt.Tunnel {
		n = 0
	}
	advs.Add(models.Advisory{
		Code:       models.AdvisoryEndFramesDefault,
		Field:      fmt.Sprintf("bay_types[%s].end_frames", bt.Label),
		Message:    fmt.Sprintf("end frames for bay type %s not supplied, %d assumed", bt.Label, n),
		Source:     models.SourceEngineDefault,
		Confidence: models.ConfidenceDefault,
		Reference:  reference.Cite(reference.TableLayoutDefaults),
	})
	return n
}

// decksPerBay derives tunnel wire decks from beam pairs when the bay type
// does not state them.
func decksPerBay(bt models.BayType, deckWidth int) int {
	if bt.WiredecksPerBay > 0 || !bt.Tunnel {
		return bt.WiredecksPerBay
	}
	total := 0
	for _, beam := range bt.Beams {
		total += beam.PerBay / 2 * reference.DecksPerLevel(beam.LengthIn, deckWidth)
	}
	return total
}

func manualDescription(item models.ManualItem, depth string) string {
	if item.Description != "" {
		return item.Description
	}
	switch item.Category {
	case models.CategoryEoAGuard:
		desc := fmt.Sprintf("End of Aisle Guard | %s\"", depth)
		if item.Side != "" {
			desc += " | " + titleCase(item.Side)
		}
		return desc
	case models.CategoryRowSpacer:
		return "Row Spacers"
	case models.CategoryColumnProtect:
		return "Column Protector"
	case models.CategoryFillerAngle:
		return "Filler Angle"
	}
	return string(item.Category)
}

func styleLabel(s models.RackStyle) string {
	return titleCase(string(s))
}

func deckLabel(s models.RackStyle) string {
	if s == models.RackStructural {
		return "Flanged"
	}
	return "Step"
}

func sdcLabel(sdc models.SDC) string {
	if sdc == "" {
		return "unknown"
	}
	return string(sdc)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// trimFloat prints whole numbers without a decimal point.
func trimFloat(v float64) string {
	if v == float64(int(v)) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%g", v)
}
