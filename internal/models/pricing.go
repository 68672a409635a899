package models

import "github.com/shopspring/decimal"

// Section groups pricing lines.
type Section string

const (
	SectionMaterials Section = "materials"
	SectionInstall   Section = "install"
	SectionFreight   Section = "freight"
	SectionServices  Section = "services"
)

// Sections lists pricing sections in report order.
var Sections = []Section{SectionMaterials, SectionInstall, SectionFreight, SectionServices}

// PriceLine is a single priced row.
type PriceLine struct {
	Section      Section         `json:"section"`
	Category     Category        `json:"category,omitempty"`
	Description  string          `json:"description"`
	Manufacturer string          `json:"manufacturer,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Provenance   Provenance      `json:"provenance,omitempty"`
	CostSource   Source          `json:"cost_source,omitempty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// SectionTotal is the cost and price of one section.
type SectionTotal struct {
	Section Section         `json:"section"`
	Cost    decimal.Decimal `json:"cost"`
	Price   decimal.Decimal `json:"price"`
}

// ManufacturerTotal is the material and freight spend for one supplier.
type ManufacturerTotal struct {
	Manufacturer string          `json:"manufacturer"`
	Materials    decimal.Decimal `json:"materials"`
	Freight      decimal.Decimal `json:"freight"`
}

// PricingSummary is the rollup shown beside the priced lines.
type PricingSummary struct {
	RackMaterial           decimal.Decimal     `json:"rack_material"`
	Installation           decimal.Decimal     `json:"installation"`
	Freight                decimal.Decimal     `json:"freight"`
	ManagementAndPermits   decimal.Decimal     `json:"pm_and_permit_services"`
	EngineeringAndHighPile decimal.Decimal     `json:"engineering_and_high_pile"`
	ProjectTotal           decimal.Decimal     `json:"project_total"`
	PalletPositions        int                 `json:"pallet_positions"`
	CostPerPosition        *decimal.Decimal    `json:"cost_per_pallet_position,omitempty"`
	ByManufacturer         []ManufacturerTotal `json:"by_manufacturer"`
}

// PricingModel is the priced, sectioned project.
type PricingModel struct {
	Margin          decimal.Decimal `json:"margin"`
	Lines           []PriceLine     `json:"lines"`
	Sections        []SectionTotal  `json:"sections"`
	GrandTotalCost  decimal.Decimal `json:"grand_total_cost"`
	GrandTotalPrice decimal.Decimal `json:"grand_total_price"`
	Profit          decimal.Decimal `json:"profit"`
	Summary         PricingSummary  `json:"summary"`
	Advisories      Advisories      `json:"advisories"`
}

// Section returns the totals for one section.
func (p PricingModel) Section(s Section) SectionTotal {
	for _, t := range p.Sections {
		if t.Section == s {
			return t
		}
	}
	return SectionTotal{Section: s, Cost: decimal.Zero, Price: decimal.Zero}
}
