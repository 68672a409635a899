package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/rackplan/internal/logger"
	"github.com/stwalsh4118/rackplan/internal/models"
)

func layoutRequest() LayoutRequest {
	req := designRequest()
	return LayoutRequest{
		Building:     req.Building,
		Requirements: req.Requirements,
		ProjectName:  "Wesco Ontario",
	}
}

func TestFloorPlan_Success(t *testing.T) {
	// Arrange
	service := NewLayoutService(logger.New("test"))
	req := layoutRequest()

	// Act
	plan, err := service.FloorPlan(req)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, plan.Layout)
	assert.Equal(t, 33, plan.Layout.TotalRows)
	assert.True(t, strings.HasPrefix(string(plan.Data), "<?xml"))
	assert.Contains(t, string(plan.Data), "Wesco Ontario")
	assert.False(t, plan.Layout.Advisories.Has("flue_space_in"))
	assert.False(t, plan.Layout.Advisories.Has("sprinkler_clearance_in"))
}

func TestFloorPlan_UsesFireStageFlue(t *testing.T) {
	service := NewLayoutService(logger.New("test"))
	req := layoutRequest()
	req.StorageHeightFt = 18
	req.Commodity = models.CommodityI

	plan, err := service.FloorPlan(req)

	require.NoError(t, err)
	assert.Equal(t, 2*42.0+3+120, plan.Layout.RowModuleIn)
}

func TestFloorPlan_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LayoutRequest)
		field  string
	}{
		{"unknown code", func(r *LayoutRequest) { r.Code = "NFPA" }, "building_code"},
		{"negative scale", func(r *LayoutRequest) { r.Scale = -1 }, "scale"},
		{"zero width", func(r *LayoutRequest) { r.Building.WidthFt = 0 }, "building.width_ft"},
		{"unknown rack style", func(r *LayoutRequest) { r.Requirements.RackStyle = "cantilever" }, "requirements.rack_style"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewLayoutService(logger.New("test"))
			req := layoutRequest()
			tt.mutate(&req)

			plan, err := service.FloorPlan(req)

			assert.Nil(t, plan)
			var vErr *models.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestFloorPlan_Infeasible(t *testing.T) {
	service := NewLayoutService(logger.New("test"))
	req := layoutRequest()
	req.Building.WidthFt = 12

	plan, err := service.FloorPlan(req)

	assert.Nil(t, plan)
	var infeasible *models.LayoutInfeasibleError
	require.ErrorAs(t, err, &infeasible)
}
