package bom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
)

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func lowSeismic(t *testing.T) models.EngineeringRequirements {
	t.Helper()
	req, err := reference.Requirements(models.SDCB, models.CodeIBC, models.SourceLiveLookup, models.ConfidenceHigh)
	require.NoError(t, err)
	return req
}

// goldenInput is a 14-row teardrop job: 196 standard bays on 96" beams and
// 14 tunnel bays on 144" beams.
func goldenInput(t *testing.T) Input {
	return Input{
		BayTypes: []models.BayType{
			{
				Label:           "A",
				BayCount:        196,
				EndFrames:       intPtr(14),
				FrameHeightIn:   240,
				Beams:           []models.BeamSpec{{LengthIn: 96, PerBay: 8}},
				WiredecksPerBay: 8,
			},
			{
				Label:         "T",
				BayCount:      14,
				EndFrames:     intPtr(0),
				Tunnel:        true,
				FrameHeightIn: 240,
				Beams:         []models.BeamSpec{{LengthIn: 144, PerBay: 4}},
			},
		},
		RowCount:      14,
		Requirements:  lowSeismic(t),
		RackStyle:     models.RackTeardrop,
		FrameDepthIn:  42,
		ShimsPerFrame: intPtr(1),
	}
}

func TestCompute_GoldenScenario(t *testing.T) {
	// Arrange
	in := goldenInput(t)

	// Act
	out, err := Compute(in)

	// Assert
	require.NoError(t, err)

	assert.Equal(t, 224, out.Summary.TotalFrames)
	assert.Equal(t, 224, out.Quantity(models.CategoryFrame))

	beams96, ok := out.Find(`Teardrop | Beams | 96"`)
	require.True(t, ok)
	assert.Equal(t, 1568, beams96.Quantity)

	beams144, ok := out.Find(`Teardrop | Beams | 144" | Tunnel`)
	require.True(t, ok)
	assert.Equal(t, 56, beams144.Quantity)

	assert.Equal(t, 448, out.Quantity(models.CategoryAnchor))
	assert.Equal(t, 224, out.Quantity(models.CategoryShim))
	assert.Zero(t, out.Quantity(models.CategoryHardware))

	frames, ok := out.Find(`Teardrop | Frames | 20' x 42"`)
	require.True(t, ok)
	assert.Equal(t, reference.DefaultRackManufacturer, frames.Manufacturer)

	anchors, ok := out.Find(`Anchors | 1/2" x 4"`)
	require.True(t, ok)
	assert.Equal(t, reference.DefaultAnchorSupplier, anchors.Manufacturer)

	for _, item := range out.Items {
		assert.Equal(t, models.ProvenanceDerived, item.Provenance, item.Description)
	}
	assert.Empty(t, out.Advisories.ByCode(models.AdvisoryEndFramesDefault))
}

func TestCompute_FrameSumInvariant(t *testing.T) {
	in := goldenInput(t)
	in.BayTypes = append(in.BayTypes, models.BayType{
		Label:     "B",
		BayCount:  40,
		EndFrames: intPtr(6),
		Beams:     []models.BeamSpec{{LengthIn: 120, LoadRatingLbs: 5000, PerBay: 6}},
	})

	out, err := Compute(in)
	require.NoError(t, err)

	want := 0
	for _, bt := range in.BayTypes {
		want += bt.BayCount + *bt.EndFrames
	}
	assert.Equal(t, want, out.Summary.TotalFrames)
	assert.Equal(t, want, out.Quantity(models.CategoryFrame))

	beams, ok := out.Find(`Teardrop | Beams | 120" | 5000 lbs`)
	require.True(t, ok)
	assert.Equal(t, 240, beams.Quantity)
}

func TestCompute_Wiredecks(t *testing.T) {
	out, err := Compute(goldenInput(t))
	require.NoError(t, err)

	// Standard: 196 x 8. Tunnel: 14 bays x 2 beam pairs x floor(144/46).
	decks, ok := out.Find(`Step | Wiredecks | 42" x 46"`)
	require.True(t, ok)
	assert.Equal(t, 196*8+14*2*3, decks.Quantity)
	assert.Equal(t, reference.DefaultDeckingSupplier, decks.Manufacturer)

	in := goldenInput(t)
	in.FrameDepthIn = 48
	out, err = Compute(in)
	require.NoError(t, err)
	decks, ok = out.Find(`Step | Wiredecks | 48" x 58"`)
	require.True(t, ok)
	assert.Equal(t, 196*8+14*2*2, decks.Quantity)
}

func TestCompute_StructuralHardware(t *testing.T) {
	in := goldenInput(t)
	in.RackStyle = models.RackStructural
	in.BayTypes[0].PalletSupportsPerBay = 16

	out, err := Compute(in)
	require.NoError(t, err)

	bolts, ok := out.Find(`Hardware | 1/2" x 2" Bolts`)
	require.True(t, ok)
	assert.Equal(t, (1568+56)*4, bolts.Quantity)
	nuts, ok := out.Find(`Hardware | 1/2" Hex Nut`)
	require.True(t, ok)
	assert.Equal(t, bolts.Quantity, nuts.Quantity)

	supports, ok := out.Find(`Pallet Supports | 42"`)
	require.True(t, ok)
	assert.Equal(t, 196*16, supports.Quantity)

	_, ok = out.Find(`Flanged | Wiredecks | 42" x 46"`)
	assert.True(t, ok)

	in.StructuralHardware = boolPtr(false)
	out, err = Compute(in)
	require.NoError(t, err)
	assert.Zero(t, out.Quantity(models.CategoryHardware))
}

func TestCompute_ManualItemsPassThrough(t *testing.T) {
	manual := []models.ManualItem{
		{Category: models.CategoryEoAGuard, Quantity: 13, Side: "left"},
		{Category: models.CategoryEoAGuard, Quantity: 11, Side: "right"},
		{Category: models.CategoryRowSpacer, Description: `Row Spacers | 12"`, Quantity: 301},
		{Category: models.CategoryColumnProtect, Quantity: 7, Manufacturer: "Acme"},
		{Category: models.CategoryFillerAngle, Quantity: 2},
	}

	for _, rows := range []int{4, 14, 40} {
		in := goldenInput(t)
		in.RowCount = rows
		in.BayTypes[0].BayCount = rows * 10
		in.ManualItems = manual

		out, err := Compute(in)
		require.NoError(t, err)

		var got []models.BOMLineItem
		for _, item := range out.Items {
			if item.Provenance == models.ProvenanceManual {
				got = append(got, item)
			}
		}
		require.Len(t, got, len(manual))
		for i, item := range got {
			assert.Equal(t, manual[i].Category, item.Category)
			assert.Equal(t, manual[i].Quantity, item.Quantity)
		}
		assert.Equal(t, `End of Aisle Guard | 42" | Left`, got[0].Description)
		assert.Equal(t, reference.DefaultDeckingSupplier, got[0].Manufacturer)
		assert.Equal(t, "Acme", got[3].Manufacturer)

		guardAnchors, ok := out.Find(`Anchors | 3/4" x 4"`)
		require.True(t, ok)
		assert.Equal(t, (13+11+2)*4, guardAnchors.Quantity)
		assert.Equal(t, models.CategoryGuardAnchor, guardAnchors.Category)
		assert.Equal(t, 24, out.Summary.TotalGuards)
	}
}

func TestCompute_ManualCategoryCannotBeDerived(t *testing.T) {
	in := goldenInput(t)
	in.ManualItems = []models.ManualItem{{Category: models.CategoryBeam, Quantity: 10}}

	_, err := Compute(in)
	var vErr *models.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "manual_items.category", vErr.Field)
}

func TestCompute_DefaultsAreReported(t *testing.T) {
	in := goldenInput(t)
	in.BayTypes[0].EndFrames = nil
	in.BayTypes[1].EndFrames = nil
	in.ShimsPerFrame = nil
	in.Requirements = models.EngineeringRequirements{}

	out, err := Compute(in)
	require.NoError(t, err)

	assert.Equal(t, 224, out.Summary.TotalFrames)
	assert.Equal(t, 448, out.Summary.TotalAnchors)
	assert.Equal(t, 224, out.Quantity(models.CategoryShim))
	assert.Len(t, out.Advisories.ByCode(models.AdvisoryEndFramesDefault), 2)
	assert.True(t, out.Advisories.Has("anchors_per_frame"))
	assert.True(t, out.Advisories.Has("shims_per_frame"))
}

func TestCompute_HighSeismicAnchors(t *testing.T) {
	in := goldenInput(t)
	req, err := reference.Requirements(models.SDCD, models.CodeCBC, models.SourceLiveLookup, models.ConfidenceHigh)
	require.NoError(t, err)
	in.Requirements = req
	in.Suppliers = reference.Suppliers{Anchor: "Simpson"}

	out, err := Compute(in)
	require.NoError(t, err)

	anchors, ok := out.Find(`Anchors | 5/8" x 4.5"`)
	require.True(t, ok)
	assert.Equal(t, 224*8, anchors.Quantity)
	assert.Equal(t, "Simpson", anchors.Manufacturer)
}

func TestCompute_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"no bay types", func(in *Input) { in.BayTypes = nil }},
		{"negative bays", func(in *Input) { in.BayTypes[0].BayCount = -1 }},
		{"duplicate label", func(in *Input) { in.BayTypes[1].Label = "A" }},
		{"bad style", func(in *Input) { in.RackStyle = "cantilever" }},
		{"no depth", func(in *Input) { in.FrameDepthIn = 0 }},
		{"negative shims", func(in *Input) { in.ShimsPerFrame = intPtr(-1) }},
		{"unnamed other item", func(in *Input) {
			in.ManualItems = []models.ManualItem{{Category: models.CategoryOtherManual, Quantity: 1}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := goldenInput(t)
			tt.mutate(&in)

			_, err := Compute(in)
			var vErr *models.ValidationError
			assert.True(t, errors.As(err, &vErr))
		})
	}
}
