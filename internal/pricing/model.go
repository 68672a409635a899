// Package pricing turns priced BOM lines and fixed project rows into a
// sectioned pricing model. All arithmetic is exact decimal.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
)

// Fixed row names.
const (
	InstallMainScope   = "Main Scope"
	InstallLiftRental  = "Lift Rental"
	ServiceProjectMgmt = "Project Management"
	ServiceTCO         = "TCO & Project Uncertainties"
	ServiceHighPile    = "High Pile"
	ServicePermits     = "Permit Services"
	ServiceEngineering = "Engineering Calculations"
	ServiceDumpsters   = "Dumpsters"
)

// FreightSuffix is appended to a supplier name for its freight row.
const FreightSuffix = " Freight"

// LineInput is one row to be priced.
type LineInput struct {
	Section      models.Section    `json:"section"`
	Category     models.Category   `json:"category,omitempty"`
	Description  string            `json:"description"`
	Manufacturer string            `json:"manufacturer,omitempty"`
	Quantity     decimal.Decimal   `json:"quantity"`
	Provenance   models.Provenance `json:"provenance,omitempty"`
	// CostSource of models.SourceEngineDefault marks a cost nobody supplied.
	CostSource models.Source   `json:"cost_source,omitempty"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
}

// Input is a full pricing request. Advisories raised while assembling it are
// carried into the model.
type Input struct {
	Margin          decimal.Decimal
	Lines           []LineInput
	PalletPositions int
	Advisories      models.Advisories
}

// MaterialLines prices BOM items from a unit-cost table keyed by item
// description. Items without a cost are priced at zero and tagged with the
// default source.
func MaterialLines(bom *models.BOM, unitCosts map[string]decimal.Decimal) []LineInput {
	lines := make([]LineInput, 0, len(bom.Items))
	for _, item := range bom.Items {
		cost, ok := unitCosts[item.Description]
		source := models.SourceCaller
		if !ok {
			cost = decimal.Zero
			source = models.SourceEngineDefault
		}
		lines = append(lines, LineInput{
			Section:      models.SectionMaterials,
			Category:     item.Category,
			Description:  item.Description,
			Manufacturer: item.Manufacturer,
			Quantity:     decimal.NewFromInt(int64(item.Quantity)),
			Provenance:   item.Provenance,
			CostSource:   source,
			UnitCost:     cost,
		})
	}
	return lines
}

// DefaultLines returns the zero-cost install, freight and services rows a
// project starts with.
func DefaultLines(suppliers reference.Suppliers) []LineInput {
	one := decimal.NewFromInt(1)
	row := func(section models.Section, desc, manufacturer string, qty decimal.Decimal) LineInput {
		return LineInput{Section: section, Description: desc, Manufacturer: manufacturer, Quantity: qty, UnitCost: decimal.Zero}
	}

	lines := []LineInput{
		row(models.SectionInstall, InstallMainScope, "", one),
		row(models.SectionInstall, InstallLiftRental, "", one),
	}
	for _, name := range suppliers.Merge(reference.DefaultSuppliers()).Ordered() {
		lines = append(lines, row(models.SectionFreight, name+FreightSuffix, name, one))
	}
	lines = append(lines,
		row(models.SectionServices, ServiceProjectMgmt, "", decimal.Zero),
		row(models.SectionServices, ServiceTCO, "", decimal.Zero),
		row(models.SectionServices, ServiceHighPile, "", one),
		row(models.SectionServices, ServicePermits, "", one),
		row(models.SectionServices, ServiceEngineering, "", one),
		row(models.SectionServices, ServiceDumpsters, "", one),
	)
	return lines
}

// ValidateMargin rejects margins outside (0,1).
func ValidateMargin(m decimal.Decimal) error {
	if m.LessThanOrEqual(decimal.Zero) || m.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return &models.InvalidMarginError{Margin: m.String()}
	}
	return nil
}

// Price returns cost / (1 - margin).
func Price(cost, margin decimal.Decimal) decimal.Decimal {
	return cost.Div(decimal.NewFromInt(1).Sub(margin))
}

func validateLine(i int, l LineInput) error {
	switch l.Section {
	case models.SectionMaterials, models.SectionInstall, models.SectionFreight, models.SectionServices:
	default:
		return models.NewValidationError("lines.section", "line %d: unknown section %q", i, l.Section)
	}
	if strings.TrimSpace(l.Description) == "" {
		return models.NewValidationError("lines.description", "line %d: must not be empty", i)
	}
	if l.UnitCost.IsNegative() {
		return models.NewValidationError("lines.unit_cost", "line %d (%s): must not be negative, got %s", i, l.Description, l.UnitCost)
	}
	if l.Quantity.IsNegative() {
		return models.NewValidationError("lines.quantity", "line %d (%s): must not be negative, got %s", i, l.Description, l.Quantity)
	}
	return nil
}

// Build prices every line and rolls up sections and the summary. Inputs are
// fully validated before anything is priced.
func Build(in Input) (*models.PricingModel, error) {
	if err := ValidateMargin(in.Margin); err != nil {
		return nil, err
	}
	if in.PalletPositions < 0 {
		return nil, models.NewValidationError("pallet_positions", "must not be negative, got %d", in.PalletPositions)
	}
	for i, l := range in.Lines {
		if err := validateLine(i, l); err != nil {
			return nil, err
		}
	}

	out := &models.PricingModel{
		Margin:          in.Margin,
		GrandTotalCost:  decimal.Zero,
		GrandTotalPrice: decimal.Zero,
		Advisories:      append(models.Advisories{}, in.Advisories...),
	}

	costs := map[models.Section]decimal.Decimal{}
	prices := map[models.Section]decimal.Decimal{}
	for _, l := range in.Lines {
		unitPrice := Price(l.UnitCost, in.Margin)
		line := models.PriceLine{
			Section:      l.Section,
			Category:     l.Category,
			Description:  l.Description,
			Manufacturer: l.Manufacturer,
			Quantity:     l.Quantity,
			Provenance:   l.Provenance,
			CostSource:   l.CostSource,
			UnitCost:     l.UnitCost,
			UnitPrice:    unitPrice,
			TotalCost:    l.UnitCost.Mul(l.Quantity),
			TotalPrice:   unitPrice.Mul(l.Quantity),
		}
		out.Lines = append(out.Lines, line)
		if l.CostSource == models.SourceEngineDefault {
			out.Advisories.Add(models.Advisory{
				Code:       models.AdvisoryUnitCostMissing,
				Field:      "unit_costs[" + l.Description + "]",
				Message:    "no unit cost supplied for " + l.Description + ", priced at 0",
				Source:     models.SourceEngineDefault,
				Confidence: models.ConfidenceDefault,
				Reference:  reference.Cite(reference.TablePricing),
			})
		}
		costs[l.Section] = costs[l.Section].Add(line.TotalCost)
		prices[l.Section] = prices[l.Section].Add(line.TotalPrice)
	}

	for _, s := range models.Sections {
		total := models.SectionTotal{Section: s, Cost: costs[s], Price: prices[s]}
		out.Sections = append(out.Sections, total)
		out.GrandTotalCost = out.GrandTotalCost.Add(total.Cost)
		out.GrandTotalPrice = out.GrandTotalPrice.Add(total.Price)
	}
	out.Profit = out.GrandTotalPrice.Sub(out.GrandTotalCost)
	out.Summary = summarize(out, in.PalletPositions)
	return out, nil
}

func summarize(m *models.PricingModel, palletPositions int) models.PricingSummary {
	s := models.PricingSummary{
		RackMaterial:           m.Section(models.SectionMaterials).Price,
		Installation:           m.Section(models.SectionInstall).Price,
		Freight:                m.Section(models.SectionFreight).Price,
		ManagementAndPermits:   decimal.Zero,
		EngineeringAndHighPile: decimal.Zero,
		PalletPositions:        palletPositions,
	}
	for _, l := range m.Lines {
		if l.Section != models.SectionServices {
			continue
		}
		if l.Description == ServiceEngineering || l.Description == ServiceHighPile {
			s.EngineeringAndHighPile = s.EngineeringAndHighPile.Add(l.TotalPrice)
		} else {
			s.ManagementAndPermits = s.ManagementAndPermits.Add(l.TotalPrice)
		}
	}
	s.ProjectTotal = s.RackMaterial.Add(s.Installation).Add(s.Freight).
		Add(s.ManagementAndPermits).Add(s.EngineeringAndHighPile)
	if palletPositions > 0 {
		per := s.ProjectTotal.Div(decimal.NewFromInt(int64(palletPositions))).Round(2)
		s.CostPerPosition = &per
	}

	idx := map[string]int{}
	for _, l := range m.Lines {
		if l.Manufacturer == "" || (l.Section != models.SectionMaterials && l.Section != models.SectionFreight) {
			continue
		}
		i, ok := idx[l.Manufacturer]
		if !ok {
			i = len(s.ByManufacturer)
			idx[l.Manufacturer] = i
			s.ByManufacturer = append(s.ByManufacturer, models.ManufacturerTotal{
				Manufacturer: l.Manufacturer,
				Materials:    decimal.Zero,
				Freight:      decimal.Zero,
			})
		}
		if l.Section == models.SectionMaterials {
			s.ByManufacturer[i].Materials = s.ByManufacturer[i].Materials.Add(l.TotalCost)
		} else {
			s.ByManufacturer[i].Freight = s.ByManufacturer[i].Freight.Add(l.TotalCost)
		}
	}
	return s
}
