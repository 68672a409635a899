package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/rackplan/internal/logger"
	"github.com/stwalsh4118/rackplan/internal/models"
)

func TestFireAssess_HighPileCalifornia(t *testing.T) {
	// Arrange
	service := NewFireService(logger.New("test"))
	req := FireRequest{
		StorageHeightFt: 28,
		Commodity:       models.CommodityII,
		StorageAreaSqft: 180000,
		Code:            models.CodeCBC,
		State:           "CA",
		SDC:             models.SDCD,
		RackStyle:       models.RackTeardrop,
		TotalFrames:     2145,
		FrameHeightIn:   336,
	}

	// Act
	out, err := service.Assess(req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.CodeCBC, out.Jurisdiction.BuildingCode)
	assert.True(t, out.Fire.HighPile.Value)
	assert.True(t, out.Permits.HighPilePermit)
	assert.True(t, out.Permits.SeismicAnalysis)
	assert.Equal(t, models.RecommendNew, out.UsedVsNew.Recommended)
	assert.Contains(t, out.Fire.Notes, "California amendments to IBC apply")
}

func TestFireAssess_LowStorageDefaultsToIBC(t *testing.T) {
	service := NewFireService(logger.New("test"))

	out, err := service.Assess(FireRequest{StorageHeightFt: 10, StorageAreaSqft: 5000})

	require.NoError(t, err)
	assert.Equal(t, models.CodeIBC, out.Jurisdiction.BuildingCode)
	assert.False(t, out.Fire.HighPile.Value)
	assert.False(t, out.Permits.HighPilePermit)
	assert.False(t, out.Permits.StructuralEngineering)
	assert.Equal(t, models.RecommendEither, out.UsedVsNew.Recommended)
	assert.True(t, out.Fire.Advisories.Has("commodity_class"))
}

func TestFireAssess_Invalid(t *testing.T) {
	service := NewFireService(logger.New("test"))

	tests := []struct {
		name  string
		req   FireRequest
		field string
	}{
		{"unknown code", FireRequest{StorageHeightFt: 20, Code: "UBC"}, "building_code"},
		{"unknown sdc", FireRequest{StorageHeightFt: 20, SDC: "Z"}, "sdc"},
		{"no height", FireRequest{}, "storage_height_ft"},
		{"negative frames", FireRequest{StorageHeightFt: 20, TotalFrames: -1}, "fire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Assess(tt.req)

			var vErr *models.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}
