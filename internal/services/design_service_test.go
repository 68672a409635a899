package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/rackplan/internal/logger"
	"github.com/stwalsh4118/rackplan/internal/metrics"
	"github.com/stwalsh4118/rackplan/internal/models"
)

func designRequest() DesignRequest {
	return DesignRequest{
		Address: "1000 E Airport Dr, Ontario, CA",
		Building: models.Building{
			LengthFt:      600,
			WidthFt:       300,
			ClearHeightFt: 32,
			DockSide:      models.DockSouth,
			DockDoors:     15,
		},
		Requirements: models.RackRequirements{
			RackStyle:    models.RackTeardrop,
			RackType:     "selective",
			FrameDepthIn: 42,
			ForkliftType: models.ForkliftReach,
			PalletSize:   "48x40",
			Condition:    models.ConditionNew,
		},
	}
}

func TestDesign_Success(t *testing.T) {
	// Arrange
	resolver := new(MockSiteResolver)
	service := NewDesignService(resolver, logger.New("test"))
	req := designRequest()
	resolver.On("Resolve", mock.Anything, req.Address, models.SiteOverrides{}).
		Return(resolution(t, models.SDCD, models.CodeCBC), nil)

	okBefore := testutil.ToFloat64(metrics.DesignsTotal.WithLabelValues(outcomeOK))

	// Act
	d, err := service.Design(context.Background(), req)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, d.Layout)
	require.NotNil(t, d.BOM)

	assert.Equal(t, models.SDCD, d.Site.SDC.Value)
	assert.Equal(t, d.Layout.TotalFrames, d.BOM.Summary.TotalFrames)
	assert.Equal(t, d.Layout.TotalPalletPositions, d.BOM.Summary.PalletPositions)
	assert.Equal(t, d.BOM.Summary.TotalFrames*8, d.BOM.Summary.TotalAnchors)
	assert.Equal(t, models.RecommendNew, d.UsedVsNew.Recommended)
	assert.True(t, d.Permits.StructuralEngineering)

	// Storage height and commodity were not supplied, so both are defaulted.
	assert.Equal(t, models.SourceEngineDefault, d.Fire.StorageHeightFt.Source)
	assert.True(t, d.Advisories.Has("storage_height_ft"))
	assert.True(t, d.Advisories.Has("commodity_class"))
	assert.NotEmpty(t, d.Advisories.ByCode(models.AdvisoryFireRule))
	assert.Equal(t, models.ConfidenceDefault, d.Confidence)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.DesignsTotal.WithLabelValues(outcomeOK)))
	resolver.AssertExpectations(t)
}

func TestDesign_CallerStorageHeight(t *testing.T) {
	// Arrange
	resolver := new(MockSiteResolver)
	service := NewDesignService(resolver, logger.New("test"))
	req := designRequest()
	req.StorageHeightFt = 24
	req.Commodity = models.CommodityII
	resolver.On("Resolve", mock.Anything, req.Address, models.SiteOverrides{}).
		Return(resolution(t, models.SDCB, models.CodeIBC), nil)

	// Act
	d, err := service.Design(context.Background(), req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 24.0, d.Fire.StorageHeightFt.Value)
	assert.Equal(t, models.SourceCaller, d.Fire.StorageHeightFt.Source)
	assert.False(t, d.Advisories.Has("storage_height_ft"))
	assert.Equal(t, d.BOM.Summary.TotalFrames*2, d.BOM.Summary.TotalAnchors)
}

func TestDesign_ValidationRejectedBeforeLookup(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DesignRequest)
		field  string
	}{
		{"negative length", func(r *DesignRequest) { r.Building.LengthFt = -1 }, "building.length_ft"},
		{"unknown forklift", func(r *DesignRequest) { r.Requirements.ForkliftType = "crane" }, "requirements.forklift_type"},
		{"negative storage height", func(r *DesignRequest) { r.StorageHeightFt = -4 }, "storage_height_ft"},
		{"negative flue", func(r *DesignRequest) { r.Requirements.FlueSpaceIn = -3 }, "requirements.flue_space_in"},
		{"duplicate bay type", func(r *DesignRequest) {
			r.BayTypes = []models.BayType{{Label: "A", BayCount: 1}, {Label: "A", BayCount: 2}}
		}, "bay_types.label"},
		{"derived manual item", func(r *DesignRequest) {
			r.ManualItems = []models.ManualItem{{Category: models.CategoryFrame, Quantity: 4}}
		}, "manual_items.category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(MockSiteResolver)
			service := NewDesignService(resolver, logger.New("test"))
			req := designRequest()
			tt.mutate(&req)

			d, err := service.Design(context.Background(), req)

			assert.Nil(t, d)
			var vErr *models.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDesign_DeepFramesCountWideDecks(t *testing.T) {
	// Arrange
	resolver := new(MockSiteResolver)
	service := NewDesignService(resolver, logger.New("test"))
	req := designRequest()
	req.Building = models.Building{LengthFt: 300, WidthFt: 200, ClearHeightFt: 32, DockSide: models.DockSouth, DockDoors: 10}
	req.Requirements.FrameDepthIn = 48
	resolver.On("Resolve", mock.Anything, req.Address, models.SiteOverrides{}).
		Return(resolution(t, models.SDCB, models.CodeIBC), nil)

	// Act
	d, err := service.Design(context.Background(), req)

	// Assert
	require.NoError(t, err)
	l := d.Layout
	require.Positive(t, l.TotalTunnels)

	// One 58" deck per 96" level, two per 144" tunnel level.
	want := (l.TotalBays-l.TotalTunnels)*l.BeamLevels + l.TotalTunnels*l.TunnelBeamLevels*2
	decks, ok := d.BOM.Find(`Step | Wiredecks | 48" x 58"`)
	require.True(t, ok)
	assert.Equal(t, want, decks.Quantity)
	assert.Equal(t, want, d.BOM.Summary.TotalWiredecks)
}

func TestDesign_EngineeredBayTypesReplaceSuggestions(t *testing.T) {
	// Arrange
	resolver := new(MockSiteResolver)
	service := NewDesignService(resolver, logger.New("test"))
	req := designRequest()
	endFrames := 10
	req.BayTypes = []models.BayType{{
		Label:                 "E1",
		BayCount:              100,
		EndFrames:             &endFrames,
		FrameHeightIn:         288,
		Beams:                 []models.BeamSpec{{LengthIn: 96, PerBay: 8}},
		WiredecksPerBay:       8,
		PalletPositionsPerBay: 8,
	}}
	resolver.On("Resolve", mock.Anything, req.Address, models.SiteOverrides{}).
		Return(resolution(t, models.SDCB, models.CodeIBC), nil)

	// Act
	d, err := service.Design(context.Background(), req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 100, d.BOM.Summary.TotalBays)
	assert.Equal(t, 110, d.BOM.Summary.TotalFrames)
	assert.Equal(t, 800, d.BOM.Summary.PalletPositions)
	assert.Equal(t, 800, d.BOM.Summary.TotalWiredecks)
	assert.Equal(t, models.ProvenanceDerived, d.Layout.BayTypes[0].Provenance)
	assert.Empty(t, req.BayTypes[0].Provenance)
}

func TestEngineered(t *testing.T) {
	in := []models.BayType{{Label: "A"}, {Label: "T", Provenance: models.ProvenanceDerived}}

	out := engineered(in)

	assert.Equal(t, models.ProvenanceManual, out[0].Provenance)
	assert.Equal(t, models.ProvenanceDerived, out[1].Provenance)
	assert.Empty(t, in[0].Provenance)
}

func TestDesign_FlueFromFireStage(t *testing.T) {
	tests := []struct {
		name       string
		flueIn     float64
		wantModule float64
	}{
		{"fire stage flue", 0, 2*42 + 3 + 120},
		{"caller flue wins", 6, 2*42 + 6 + 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(MockSiteResolver)
			service := NewDesignService(resolver, logger.New("test"))
			req := designRequest()
			req.StorageHeightFt = 18
			req.Commodity = models.CommodityII
			req.Requirements.FlueSpaceIn = tt.flueIn
			resolver.On("Resolve", mock.Anything, req.Address, models.SiteOverrides{}).
				Return(resolution(t, models.SDCB, models.CodeIBC), nil)

			d, err := service.Design(context.Background(), req)

			require.NoError(t, err)
			assert.Equal(t, 3.0, d.Fire.FlueSpace.Value.LongitudinalIn)
			assert.Equal(t, tt.wantModule, d.Layout.RowModuleIn)
			assert.False(t, d.Advisories.Has("flue_space_in"))
		})
	}
}

func TestDesign_LayoutInfeasible(t *testing.T) {
	// Arrange
	resolver := new(MockSiteResolver)
	service := NewDesignService(resolver, logger.New("test"))
	req := designRequest()
	req.Building.ClearHeightFt = 9
	resolver.On("Resolve", mock.Anything, req.Address, models.SiteOverrides{}).
		Return(resolution(t, models.SDCC, models.CodeIBC), nil)

	before := testutil.ToFloat64(metrics.DesignsTotal.WithLabelValues(outcomeInfeasible))

	// Act
	d, err := service.Design(context.Background(), req)

	// Assert
	assert.Nil(t, d)
	var infeasible *models.LayoutInfeasibleError
	require.ErrorAs(t, err, &infeasible)
	assert.Equal(t, 96.0, infeasible.Required)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DesignsTotal.WithLabelValues(outcomeInfeasible)))
}

func TestDesign_CancelledDuringResolve(t *testing.T) {
	// Arrange
	resolver := new(MockSiteResolver)
	service := NewDesignService(resolver, logger.New("test"))
	req := designRequest()
	resolver.On("Resolve", mock.Anything, req.Address, models.SiteOverrides{}).Return(nil, models.ErrCancelled)

	// Act
	d, err := service.Design(context.Background(), req)

	// Assert
	assert.Nil(t, d)
	assert.ErrorIs(t, err, models.ErrCancelled)
}

func TestDesign_CancelledAfterResolve(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	resolver := new(MockSiteResolver)
	req := designRequest()
	resolver.On("Resolve", mock.Anything, req.Address, models.SiteOverrides{}).
		Return(resolution(t, models.SDCD, models.CodeCBC), nil).
		Run(func(mock.Arguments) { cancel() })
	service := NewDesignService(resolver, logger.New("test"))

	before := testutil.ToFloat64(metrics.DesignsTotal.WithLabelValues(outcomeCancelled))

	// Act
	d, err := service.Design(ctx, req)

	// Assert
	assert.Nil(t, d, "no partial design may be returned")
	assert.ErrorIs(t, err, models.ErrCancelled)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DesignsTotal.WithLabelValues(outcomeCancelled)))
}

func TestOutcomeFor(t *testing.T) {
	assert.Equal(t, outcomeOK, outcomeFor(nil))
	assert.Equal(t, outcomeCancelled, outcomeFor(models.ErrCancelled))
	assert.Equal(t, outcomeInvalid, outcomeFor(models.NewValidationError("x", "bad")))
	assert.Equal(t, outcomeInfeasible, outcomeFor(&models.LayoutInfeasibleError{Constraint: "width"}))
	assert.Equal(t, outcomeError, outcomeFor(errors.New("boom")))
}
