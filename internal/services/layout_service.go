package services

import (
	"fmt"

	"github.com/stwalsh4118/rackplan/internal/export"
	"github.com/stwalsh4118/rackplan/internal/fire"
	"github.com/stwalsh4118/rackplan/internal/layout"
	"github.com/stwalsh4118/rackplan/internal/logger"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
)

// LayoutRequest lays out a building without a site lookup.
type LayoutRequest struct {
	Building     models.Building
	Requirements models.RackRequirements
	Commodity    models.CommodityClass
	// StorageHeightFt of zero is estimated from the clear height.
	StorageHeightFt float64
	Unsprinklered   bool
	// Code of "" applies IBC.
	Code        models.BuildingCode
	State       string
	ProjectName string
	// Scale is pixels per foot; zero uses the export default.
	Scale float64
}

// FloorPlan is a rendered layout drawing.
type FloorPlan struct {
	Data   []byte
	Layout *models.Layout
}

// LayoutService synthesizes layouts and draws them.
type LayoutService interface {
	FloorPlan(req LayoutRequest) (*FloorPlan, error)
}

type layoutService struct {
	log *logger.Logger
}

// NewLayoutService creates a new instance of LayoutService.
func NewLayoutService(log *logger.Logger) LayoutService {
	return &layoutService{log: log.Component("layout")}
}

func (s *layoutService) FloorPlan(req LayoutRequest) (*FloorPlan, error) {
	code := req.Code
	switch code {
	case "":
		code = models.CodeIBC
	case models.CodeIBC, models.CodeCBC:
	default:
		return nil, models.NewValidationError("building_code", "must be IBC or CBC, got %q", req.Code)
	}
	if req.Scale < 0 {
		return nil, models.NewValidationError("scale", "must not be negative, got %g", req.Scale)
	}
	if err := req.Building.Validate(); err != nil {
		return nil, err
	}

	fireReq, err := fire.Evaluate(fire.Input{
		StorageHeightFt: req.StorageHeightFt,
		ClearHeightFt:   req.Building.ClearHeightFt,
		Commodity:       req.Commodity,
		StorageAreaSqft: req.Building.LengthFt * req.Building.WidthFt,
		Jurisdiction:    reference.JurisdictionFor(code, req.State),
		Unsprinklered:   req.Unsprinklered,
	})
	if err != nil {
		return nil, err
	}

	l, err := synthesize(req.Building, req.Requirements, fireReq)
	if err != nil {
		return nil, err
	}

	data, err := export.FloorPlan(req.ProjectName, req.Building, l, req.Scale)
	if err != nil {
		s.log.Error("Failed to render floor plan", err, map[string]interface{}{"project": req.ProjectName})
		return nil, fmt.Errorf("failed to render floor plan: %w", err)
	}

	s.log.Debug("Floor plan rendered", map[string]interface{}{
		"rows":  l.TotalRows,
		"bays":  l.TotalBays,
		"bytes": len(data),
	})
	return &FloorPlan{Data: data, Layout: l}, nil
}

// synthesize lays out the building under the fire stage's sprinkler
// clearance. The fire stage's longitudinal flue is used unless the caller
// set one.
func synthesize(b models.Building, rack models.RackRequirements, fireReq models.FireRequirements) (*models.Layout, error) {
	if rack.FlueSpaceIn == 0 {
		rack.FlueSpaceIn = fireReq.FlueSpace.Value.LongitudinalIn
	}
	return layout.Synthesize(b, rack, fireReq.SprinklerClearanceIn.Value)
}
