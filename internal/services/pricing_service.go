package services

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/rackplan/internal/export"
	"github.com/stwalsh4118/rackplan/internal/logger"
	"github.com/stwalsh4118/rackplan/internal/metrics"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/pricing"
	"github.com/stwalsh4118/rackplan/internal/reference"
)

// PricingRequest prices a BOM plus install, freight and service rows.
type PricingRequest struct {
	// Margin of nil applies the configured default.
	Margin *decimal.Decimal
	// BOM items become material lines priced from UnitCosts, keyed by item
	// description.
	BOM       *models.BOM
	UnitCosts map[string]decimal.Decimal
	// Lines of nil starts from the default install, freight and service rows.
	Lines []pricing.LineInput
	// PalletPositions of zero is taken from the BOM summary.
	PalletPositions int
	Suppliers       reference.Suppliers
	ProjectName     string
	Client          string
}

// Workbook is a rendered pricing spreadsheet.
type Workbook struct {
	Filename string
	Data     []byte
	Model    *models.PricingModel
}

// PricingService builds pricing models and their spreadsheets.
type PricingService interface {
	Build(req PricingRequest) (*models.PricingModel, error)
	Workbook(req PricingRequest) (*Workbook, error)
}

type pricingService struct {
	margin    decimal.Decimal
	suppliers reference.Suppliers
	log       *logger.Logger
}

// NewPricingService creates a new instance of PricingService. margin and
// suppliers are the defaults applied when a request leaves them out.
func NewPricingService(margin decimal.Decimal, suppliers reference.Suppliers, log *logger.Logger) PricingService {
	return &pricingService{
		margin:    margin,
		suppliers: suppliers.Merge(reference.DefaultSuppliers()),
		log:       log.Component("pricing"),
	}
}

func (s *pricingService) input(req PricingRequest) pricing.Input {
	var advs models.Advisories
	margin := s.margin
	if req.Margin != nil {
		margin = *req.Margin
	} else {
		advs.Add(models.Advisory{
			Code:       models.AdvisoryDefaultApplied,
			Field:      "margin",
			Message:    "margin defaulted to " + margin.String(),
			Source:     models.SourceEngineDefault,
			Confidence: models.ConfidenceDefault,
			Reference:  reference.Cite(reference.TablePricing),
		})
	}

	var lines []pricing.LineInput
	positions := req.PalletPositions
	if req.BOM != nil {
		lines = append(lines, pricing.MaterialLines(req.BOM, req.UnitCosts)...)
		if positions == 0 {
			positions = req.BOM.Summary.PalletPositions
		}
	}
	if req.Lines == nil {
		lines = append(lines, pricing.DefaultLines(req.Suppliers.Merge(s.suppliers))...)
	} else {
		lines = append(lines, req.Lines...)
	}

	return pricing.Input{Margin: margin, Lines: lines, PalletPositions: positions, Advisories: advs}
}

func (s *pricingService) Build(req PricingRequest) (*models.PricingModel, error) {
	in := s.input(req)
	m, err := pricing.Build(in)
	if err != nil {
		return nil, err
	}

	s.log.Debug("Pricing model built", map[string]interface{}{
		"margin":      m.Margin.String(),
		"lines":       len(m.Lines),
		"total_cost":  m.GrandTotalCost.StringFixed(2),
		"total_price": m.GrandTotalPrice.StringFixed(2),
		"advisories":  len(m.Advisories),
	})
	for _, adv := range m.Advisories {
		metrics.RecordAdvisory(adv.Code)
	}
	return m, nil
}

func (s *pricingService) Workbook(req PricingRequest) (*Workbook, error) {
	m, err := s.Build(req)
	if err != nil {
		return nil, err
	}

	project := export.Project{
		Name:            req.ProjectName,
		Client:          req.Client,
		PalletPositions: m.Summary.PalletPositions,
	}
	data, err := export.PricingWorkbook(project, m)
	if err != nil {
		s.log.Error("Failed to render workbook", err, map[string]interface{}{"project": req.ProjectName})
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	return &Workbook{
		Filename: export.Filename(req.ProjectName),
		Data:     data,
		Model:    m,
	}, nil
}
