package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/stwalsh4118/rackplan/internal/bom"
	"github.com/stwalsh4118/rackplan/internal/fire"
	"github.com/stwalsh4118/rackplan/internal/logger"
	"github.com/stwalsh4118/rackplan/internal/metrics"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
)

// Design outcomes recorded in metrics.
const (
	outcomeOK         = "ok"
	outcomeInvalid    = "invalid"
	outcomeInfeasible = "infeasible"
	outcomeCancelled  = "cancelled"
	outcomeError      = "error"
)

// DesignRequest is one run of the design pipeline.
type DesignRequest struct {
	Address      string
	Overrides    models.SiteOverrides
	Building     models.Building
	Requirements models.RackRequirements
	Commodity    models.CommodityClass
	// StorageHeightFt of zero is estimated from the clear height.
	StorageHeightFt float64
	Unsprinklered   bool
	// BayTypes are engineered elevations. When present they replace the
	// layout's suggested bay types in the BOM.
	BayTypes      []models.BayType
	ManualItems   []models.ManualItem
	ShimsPerFrame *int
	Suppliers     reference.Suppliers
}

// Validate rejects a request before any stage runs.
func (r DesignRequest) Validate() error {
	if err := r.Building.Validate(); err != nil {
		return err
	}
	if err := r.Requirements.Validate(); err != nil {
		return err
	}
	if r.StorageHeightFt < 0 {
		return models.NewValidationError("storage_height_ft", "must not be negative, got %g", r.StorageHeightFt)
	}
	if r.Commodity != "" {
		if _, err := models.ParseCommodityClass(string(r.Commodity)); err != nil {
			return err
		}
	}
	seen := map[string]bool{}
	for _, bt := range r.BayTypes {
		if err := bt.Validate(); err != nil {
			return err
		}
		if seen[bt.Label] {
			return models.NewValidationError("bay_types.label", "duplicate label %q", bt.Label)
		}
		seen[bt.Label] = true
	}
	for _, item := range r.ManualItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Design is the complete pipeline output. It is only ever returned whole.
type Design struct {
	Site         models.Site                    `json:"site"`
	Requirements models.EngineeringRequirements `json:"requirements"`
	Fire         models.FireRequirements        `json:"fire"`
	Permits      models.PermitAssessment        `json:"permits"`
	UsedVsNew    models.UsedRackAssessment      `json:"used_vs_new"`
	Layout       *models.Layout                 `json:"layout"`
	BOM          *models.BOM                    `json:"bom"`
	Confidence   models.Confidence              `json:"confidence"`
	Advisories   models.Advisories              `json:"advisories"`
}

// DesignService runs the design derivation pipeline.
type DesignService interface {
	// Design resolves the site, applies the fire rules, synthesizes the
	// layout and derives the BOM. Cancellation between stages returns
	// models.ErrCancelled and no partial design.
	Design(ctx context.Context, req DesignRequest) (*Design, error)
}

type designService struct {
	resolver SiteResolver
	log      *logger.Logger
}

// NewDesignService creates a new instance of DesignService.
func NewDesignService(resolver SiteResolver, log *logger.Logger) DesignService {
	return &designService{
		resolver: resolver,
		log:      log.Component("design"),
	}
}

func (s *designService) Design(ctx context.Context, req DesignRequest) (*Design, error) {
	d, err := s.run(ctx, req)
	metrics.RecordDesign(outcomeFor(err))
	if err != nil {
		return nil, err
	}
	for _, adv := range d.Advisories {
		metrics.RecordAdvisory(adv.Code)
	}
	return d, nil
}

func (s *designService) run(ctx context.Context, req DesignRequest) (*Design, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res, err := s.resolver.Resolve(ctx, req.Address, req.Overrides)
	if err != nil {
		return nil, err
	}
	site := res.Site

	if ctx.Err() != nil {
		return nil, models.ErrCancelled
	}
	fireReq, err := fire.Evaluate(fire.Input{
		StorageHeightFt: req.StorageHeightFt,
		ClearHeightFt:   req.Building.ClearHeightFt,
		Commodity:       req.Commodity,
		StorageAreaSqft: req.Building.LengthFt * req.Building.WidthFt,
		Jurisdiction:    site.Jurisdiction.Value,
		Unsprinklered:   req.Unsprinklered,
	})
	if err != nil {
		return nil, fmt.Errorf("fire rules: %w", err)
	}

	if ctx.Err() != nil {
		return nil, models.ErrCancelled
	}
	l, err := synthesize(req.Building, req.Requirements, fireReq)
	if err != nil {
		var infeasible *models.LayoutInfeasibleError
		if errors.As(err, &infeasible) {
			s.log.Info("Layout infeasible", map[string]interface{}{
				"constraint": infeasible.Constraint,
				"required":   infeasible.Required,
				"available":  infeasible.Available,
			})
		}
		return nil, err
	}

	if ctx.Err() != nil {
		return nil, models.ErrCancelled
	}
	bayTypes := l.BayTypes
	if len(req.BayTypes) > 0 {
		bayTypes = engineered(req.BayTypes)
	}
	b, err := bom.Compute(bom.Input{
		BayTypes:      bayTypes,
		RowCount:      l.TotalRows,
		Requirements:  res.Requirements,
		RackStyle:     req.Requirements.RackStyle,
		FrameHeightIn: l.FrameHeightIn,
		FrameDepthIn:  l.FrameDepthIn,
		ShimsPerFrame: req.ShimsPerFrame,
		ManualItems:   req.ManualItems,
		Suppliers:     req.Suppliers,
	})
	if err != nil {
		return nil, fmt.Errorf("bom: %w", err)
	}

	if ctx.Err() != nil {
		return nil, models.ErrCancelled
	}
	d := &Design{
		Site:         site,
		Requirements: res.Requirements,
		Fire:         fireReq,
		Permits: fire.AssessPermits(fire.PermitInput{
			SDC:              site.SDC.Value,
			StorageHeightFt:  fireReq.StorageHeightFt.Value,
			HighPile:         fireReq.HighPile.Value,
			BuildingAreaSqft: req.Building.LengthFt * req.Building.WidthFt,
			Jurisdiction:     site.Jurisdiction.Value,
			AddingSprinklers: req.Unsprinklered,
		}),
		UsedVsNew: fire.AssessUsedVsNew(fire.UsedRackInput{
			SDC:           site.SDC.Value,
			RackStyle:     req.Requirements.RackStyle,
			TotalFrames:   b.Summary.TotalFrames,
			FrameHeightIn: l.FrameHeightIn,
		}),
		Layout: l,
		BOM:    b,
	}

	d.Advisories = append(d.Advisories, site.Advisories...)
	d.Advisories = append(d.Advisories, fireReq.Advisories...)
	d.Advisories = append(d.Advisories, l.Advisories...)
	d.Advisories = append(d.Advisories, b.Advisories...)

	confidences := []models.Confidence{site.Confidence}
	for _, adv := range d.Advisories {
		confidences = append(confidences, adv.Confidence)
	}
	d.Confidence = models.Lowest(confidences...)

	s.log.Info("Design complete", map[string]interface{}{
		"address":          req.Address,
		"sdc":              site.SDC.Value,
		"pallet_positions": l.TotalPalletPositions,
		"bays":             l.TotalBays,
		"frames":           b.Summary.TotalFrames,
		"advisories":       len(d.Advisories),
		"confidence":       d.Confidence,
	})
	return d, nil
}

// engineered tags caller bay types that carry no provenance as manual input.
func engineered(in []models.BayType) []models.BayType {
	out := make([]models.BayType, len(in))
	for i, bt := range in {
		if bt.Provenance == "" {
			bt.Provenance = models.ProvenanceManual
		}
		out[i] = bt
	}
	return out
}

func outcomeFor(err error) string {
	var (
		vErr      *models.ValidationError
		layoutErr *models.LayoutInfeasibleError
	)
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, models.ErrCancelled):
		return outcomeCancelled
	case errors.As(err, &vErr):
		return outcomeInvalid
	case errors.As(err, &layoutErr):
		return outcomeInfeasible
	default:
		return outcomeError
	}
}
