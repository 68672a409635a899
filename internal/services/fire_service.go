package services

import (
	"github.com/stwalsh4118/rackplan/internal/fire"
	"github.com/stwalsh4118/rackplan/internal/logger"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
)

// FireRequest is a standalone fire and permitting assessment.
type FireRequest struct {
	StorageHeightFt  float64
	ClearHeightFt    float64
	Commodity        models.CommodityClass
	StorageAreaSqft  float64
	BuildingAreaSqft float64
	Code             models.BuildingCode
	State            string
	Unsprinklered    bool
	// SDC of empty skips the seismic parts of the permit assessment.
	SDC           models.SDC
	RackStyle     models.RackStyle
	TotalFrames   int
	FrameHeightIn int
}

// FireAssessment bundles the fire rules with the permit and used-rack views.
type FireAssessment struct {
	Jurisdiction models.Jurisdiction       `json:"jurisdiction"`
	Fire         models.FireRequirements   `json:"fire"`
	Permits      models.PermitAssessment   `json:"permits"`
	UsedVsNew    models.UsedRackAssessment `json:"used_vs_new"`
}

// FireService evaluates fire and life-safety rules outside a full design.
type FireService interface {
	Assess(req FireRequest) (*FireAssessment, error)
}

type fireService struct {
	log *logger.Logger
}

// NewFireService creates a new instance of FireService.
func NewFireService(log *logger.Logger) FireService {
	return &fireService{log: log.Component("fire")}
}

func (s *fireService) Assess(req FireRequest) (*FireAssessment, error) {
	code := req.Code
	if code == "" {
		code = models.CodeIBC
	}
	if code != models.CodeIBC && code != models.CodeCBC {
		return nil, models.NewValidationError("building_code", "must be IBC or CBC, got %q", req.Code)
	}
	if req.SDC != "" && req.SDC.Rank() < 0 {
		return nil, models.NewValidationError("sdc", "must be one of A-F, got %q", req.SDC)
	}
	if req.TotalFrames < 0 || req.FrameHeightIn < 0 || req.BuildingAreaSqft < 0 {
		return nil, models.NewValidationError("fire", "frame counts and areas must not be negative")
	}
	j := reference.JurisdictionFor(code, req.State)

	fr, err := fire.Evaluate(fire.Input{
		StorageHeightFt: req.StorageHeightFt,
		ClearHeightFt:   req.ClearHeightFt,
		Commodity:       req.Commodity,
		StorageAreaSqft: req.StorageAreaSqft,
		Jurisdiction:    j,
		Unsprinklered:   req.Unsprinklered,
	})
	if err != nil {
		return nil, err
	}

	area := req.BuildingAreaSqft
	if area == 0 {
		area = req.StorageAreaSqft
	}
	out := &FireAssessment{
		Jurisdiction: j,
		Fire:         fr,
		Permits: fire.AssessPermits(fire.PermitInput{
			SDC:              req.SDC,
			StorageHeightFt:  fr.StorageHeightFt.Value,
			HighPile:         fr.HighPile.Value,
			BuildingAreaSqft: area,
			Jurisdiction:     j,
			AddingSprinklers: req.Unsprinklered,
		}),
		UsedVsNew: fire.AssessUsedVsNew(fire.UsedRackInput{
			SDC:           req.SDC,
			RackStyle:     req.RackStyle,
			TotalFrames:   req.TotalFrames,
			FrameHeightIn: req.FrameHeightIn,
		}),
	}

	s.log.Debug("Fire assessment complete", map[string]interface{}{
		"storage_height_ft": fr.StorageHeightFt.Value,
		"commodity":         fr.Commodity.Value,
		"high_pile":         fr.HighPile.Value,
		"code":              code,
	})
	return out, nil
}
