package services

import (
	"fmt"

	"github.com/stwalsh4118/rackplan/internal/bom"
	"github.com/stwalsh4118/rackplan/internal/logger"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
)

// BOMRequest computes a BOM from caller-supplied bay types, outside the full
// design pipeline.
type BOMRequest struct {
	BayTypes []models.BayType
	RowCount int
	// SDC selects the anchor row. Empty applies the engine default.
	SDC                models.SDC
	Code               models.BuildingCode
	RackStyle          models.RackStyle
	FrameHeightIn      int
	FrameDepthIn       float64
	DeckWidthIn        int
	ShimsPerFrame      *int
	StructuralHardware *bool
	ManualItems        []models.ManualItem
	Suppliers          reference.Suppliers
}

// BOMService derives bills of materials.
type BOMService interface {
	Compute(req BOMRequest) (*models.BOM, error)
}

type bomService struct {
	log *logger.Logger
}

// NewBOMService creates a new instance of BOMService.
func NewBOMService(log *logger.Logger) BOMService {
	return &bomService{log: log.Component("bom")}
}

func (s *bomService) Compute(req BOMRequest) (*models.BOM, error) {
	var reqs models.EngineeringRequirements
	if req.SDC != "" {
		code := req.Code
		if code == "" {
			code = models.CodeIBC
		}
		var err error
		reqs, err = reference.Requirements(req.SDC, code, models.SourceCaller, models.ConfidenceHigh)
		if err != nil {
			return nil, err
		}
	}

	out, err := bom.Compute(bom.Input{
		BayTypes:           req.BayTypes,
		RowCount:           req.RowCount,
		Requirements:       reqs,
		RackStyle:          req.RackStyle,
		FrameHeightIn:      req.FrameHeightIn,
		FrameDepthIn:       req.FrameDepthIn,
		DeckWidthIn:        req.DeckWidthIn,
		ShimsPerFrame:      req.ShimsPerFrame,
		StructuralHardware: req.StructuralHardware,
		ManualItems:        req.ManualItems,
		Suppliers:          req.Suppliers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute bom: %w", err)
	}

	s.log.Debug("BOM computed", map[string]interface{}{
		"bay_types":  len(req.BayTypes),
		"items":      len(out.Items),
		"frames":     out.Summary.TotalFrames,
		"anchors":    out.Summary.TotalAnchors,
		"advisories": len(out.Advisories),
	})
	return out, nil
}
