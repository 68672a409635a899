// Package fire derives fire and life-safety requirements for a storage
// configuration from the reference fire tables, plus the permit and
// used-rack assessments that hang off the same inputs.
package fire

import (
	"fmt"
	"math"

	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
)

// DefaultCommodity is assumed when a request does not name one.
const DefaultCommodity = models.CommodityII

// clearanceAllowanceIn is taken off clear height when storage height has to
// be estimated.
const clearanceAllowanceIn = 36.0

// Input describes what is stored and where.
type Input struct {
	// StorageHeightFt is the top of the highest pallet. Zero estimates it
	// from ClearHeightFt.
	StorageHeightFt float64
	ClearHeightFt   float64
	Commodity       models.CommodityClass
	StorageAreaSqft float64
	Jurisdiction    models.Jurisdiction
	Unsprinklered   bool
}

// Validate rejects inputs the rules cannot evaluate.
func (in Input) Validate() error {
	if in.StorageHeightFt < 0 {
		return models.NewValidationError("storage_height_ft", "must not be negative, got %g", in.StorageHeightFt)
	}
	if in.StorageHeightFt == 0 && in.ClearHeightFt <= 0 {
		return models.NewValidationError("storage_height_ft", "storage height or clear height is required")
	}
	if in.StorageAreaSqft < 0 {
		return models.NewValidationError("storage_area_sqft", "must not be negative, got %g", in.StorageAreaSqft)
	}
	if in.Commodity != "" {
		if _, err := models.ParseCommodityClass(string(in.Commodity)); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate applies the fire rules. Sprinkler and baffle results are always
// low confidence and carry an advisory.
func Evaluate(in Input) (models.FireRequirements, error) {
	if err := in.Validate(); err != nil {
		return models.FireRequirements{}, err
	}

	var req models.FireRequirements

	if in.StorageHeightFt > 0 {
		req.StorageHeightFt = models.Trace(in.StorageHeightFt, models.SourceCaller, models.ConfidenceHigh, "")
	} else {
		h := math.Round((in.ClearHeightFt*12-clearanceAllowanceIn)/12*10) / 10
		if h < 0 {
			h = 0
		}
		ref := reference.Cite(reference.TableLayoutDefaults)
		req.StorageHeightFt = models.Trace(h, models.SourceEngineDefault, models.ConfidenceDefault, ref)
		req.Advisories.Add(models.Advisory{
			Code:       models.AdvisoryDefaultApplied,
			Field:      "storage_height_ft",
			Message:    fmt.Sprintf("storage height estimated as clear height less %g in: %.1f ft", clearanceAllowanceIn, h),
			Source:     models.SourceEngineDefault,
			Confidence: models.ConfidenceDefault,
			Reference:  ref,
		})
	}
	height := req.StorageHeightFt.Value

	commodity := DefaultCommodity
	if in.Commodity != "" {
		commodity, _ = models.ParseCommodityClass(string(in.Commodity))
		req.Commodity = models.Trace(commodity, models.SourceCaller, models.ConfidenceHigh, "")
	} else {
		ref := reference.Cite(reference.TableHighPile)
		req.Commodity = models.Trace(commodity, models.SourceEngineDefault, models.ConfidenceDefault, ref)
		req.Advisories.Add(models.Advisory{
			Code:       models.AdvisoryDefaultApplied,
			Field:      "commodity_class",
			Message:    "commodity class not supplied, assumed class II",
			Source:     models.SourceEngineDefault,
			Confidence: models.ConfidenceDefault,
			Reference:  ref,
		})
	}

	highPileRef := reference.Cite(reference.TableHighPile)
	req.HighPileThresholdFt = reference.HighPileThreshold(commodity)
	highPile := height > req.HighPileThresholdFt
	req.HighPile = models.Trace(highPile, models.SourceReferenceTable, models.ConfidenceMedium, highPileRef)
	req.PermitRequired = highPile && in.StorageAreaSqft > reference.PermitAreaThreshold(commodity)

	sprinklerRef := reference.Cite(reference.TableSprinklers)
	spec := reference.SprinklerFor(height, commodity)
	req.Sprinkler = models.Trace(spec, models.SourceReferenceTable, models.ConfidenceLow, sprinklerRef)
	req.Advisories.Add(models.Advisory{
		Code:       models.AdvisoryFireRule,
		Field:      "sprinkler",
		Message:    fmt.Sprintf("%s %s for %.1f ft storage: %s", spec.System, spec.KFactor, height, reference.FireAdvisory),
		Source:     models.SourceReferenceTable,
		Confidence: models.ConfidenceLow,
		Reference:  sprinklerRef,
	})
	req.SprinklerClearanceIn = models.Trace(reference.SprinklerClearance(spec), models.SourceReferenceTable, models.ConfidenceMedium, sprinklerRef)

	req.FlueSpace = models.Trace(reference.FlueFor(height, commodity), models.SourceReferenceTable, models.ConfidenceMedium, reference.Cite(reference.TableFlue))

	accessRef := reference.Cite(reference.TableAccessAisle)
	access := in.StorageAreaSqft > reference.AccessAisleAreaSqft
	req.AccessAisleRequired = models.Trace(access, models.SourceReferenceTable, models.ConfidenceMedium, accessRef)
	if access {
		req.AccessAisleWidthFt = reference.AccessAisleWidthFt
	}

	baffleRef := reference.Cite(reference.TableBaffles)
	baffles := reference.BafflesRequired(height, commodity)
	req.BafflesRequired = models.Trace(baffles, models.SourceReferenceTable, models.ConfidenceLow, baffleRef)
	if baffles {
		req.BaffleSpacingBays = reference.BaffleSpacingBays
		req.Advisories.Add(models.Advisory{
			Code:       models.AdvisoryFireRule,
			Field:      "fire_baffles_required",
			Message:    fmt.Sprintf("fire baffles every %d bays for class %s above %g ft: %s", reference.BaffleSpacingBays, commodity, reference.BaffleHeightFt, reference.FireAdvisory),
			Source:     models.SourceReferenceTable,
			Confidence: models.ConfidenceLow,
			Reference:  baffleRef,
		})
	}

	minAisle := reference.MinAisleWidthFt
	if height > reference.WideAisleHeightFt {
		minAisle = reference.WideMinAisleWidthFt
	}
	req.MinAisleWidthFt = models.Trace(minAisle, models.SourceReferenceTable, models.ConfidenceMedium, highPileRef)

	if commodity == models.CommodityHighHazard {
		req.MaxHighHazardSqft = reference.MaxHHSqftSprinklered
		if in.Unsprinklered {
			req.MaxHighHazardSqft = reference.MaxHHSqftUnsprinklered
		}
	}

	req.Notes = notes(req, in.Jurisdiction)
	return req, nil
}

func notes(req models.FireRequirements, j models.Jurisdiction) []string {
	var out []string
	if req.HighPile.Value {
		out = append(out, fmt.Sprintf("High-pile storage: %.1f ft exceeds the %g ft threshold", req.StorageHeightFt.Value, req.HighPileThresholdFt))
	}
	if req.PermitRequired {
		out = append(out, "High-pile storage permit required")
	}
	if req.AccessAisleRequired.Value {
		out = append(out, fmt.Sprintf("Fire department access aisles required, %g ft minimum", req.AccessAisleWidthFt))
	}
	out = append(out, JurisdictionNotes(j)...)
	return out
}

// JurisdictionNotes returns the code-specific reminders for a jurisdiction.
func JurisdictionNotes(j models.Jurisdiction) []string {
	if j.BuildingCode == models.CodeCBC {
		return []string{
			"California amendments to IBC apply",
			"DSA review may be required for certain occupancies",
			"Stricter seismic anchorage requirements",
			"Title 24 energy compliance may affect lighting in rack aisles",
		}
	}
	if j.BuildingCode == models.CodeIBC {
		return []string{"Standard IBC requirements apply"}
	}
	return nil
}

// PermitInput is what AssessPermits needs to know about a project.
type PermitInput struct {
	SDC              models.SDC
	StorageHeightFt  float64
	HighPile         bool
	BuildingAreaSqft float64
	Jurisdiction     models.Jurisdiction
	AddingSprinklers bool
}

// Permit durations in weeks.
const (
	permitWeeksLowSeismic  = 2
	permitWeeksHighSeismic = 4
	permitWeeksCalifornia  = 4
	permitWeeksLargeSite   = 6
	largeSiteSqft          = 50000.0
	slabAnalysisHeightFt   = 20.0
)

// AssessPermits lists the permits and engineering a project will need.
func AssessPermits(in PermitInput) models.PermitAssessment {
	a := models.PermitAssessment{
		BuildingPermit:        true,
		HighPilePermit:        in.HighPile,
		FireProtectionPlan:    in.HighPile,
		SprinklerModification: in.AddingSprinklers,
		TypicalPermitWeeks:    permitWeeksLowSeismic,
	}

	if in.SDC.AtLeast(models.SDCC) {
		a.StructuralEngineering = true
		a.PrelimEngineering = true
		a.SeismicAnalysis = true
		a.AnchorInspection = true
		a.Notes = append(a.Notes, fmt.Sprintf("SDC %s: structural engineering and anchor inspection required", in.SDC))
	}
	if in.SDC.AtLeast(models.SDCD) {
		a.TypicalPermitWeeks = permitWeeksHighSeismic
		a.Notes = append(a.Notes, "High seismic: expect longer plan review")
	}
	if in.StorageHeightFt > slabAnalysisHeightFt || in.SDC.AtLeast(models.SDCD) {
		a.SlabAnalysis = true
		a.Notes = append(a.Notes, "Slab analysis required for rack point loads")
	}
	if in.HighPile {
		a.Notes = append(a.Notes, "High-pile storage permit and fire protection plan required")
	}
	if in.Jurisdiction.BuildingCode == models.CodeCBC && a.TypicalPermitWeeks < permitWeeksCalifornia {
		a.TypicalPermitWeeks = permitWeeksCalifornia
	}
	if in.BuildingAreaSqft > largeSiteSqft && a.TypicalPermitWeeks < permitWeeksLargeSite {
		a.TypicalPermitWeeks = permitWeeksLargeSite
		a.Notes = append(a.Notes, "Large project: extended review likely")
	}
	return a
}

// UsedRackInput describes the rack a used-vs-new decision is made for.
type UsedRackInput struct {
	SDC           models.SDC
	RackStyle     models.RackStyle
	TotalFrames   int
	FrameHeightIn int
}

// Used-vs-new defaults.
const (
	usedSavingsPct       = 30.0
	structuralSavingsPct = 0.8
	leadTimeNewWeeks     = 8
	leadTimeUsedWeeks    = 2
	leadTimeUsedTall     = 3
	largeProjectFrames   = 500
	tallFrameIn          = 240
)

// AssessUsedVsNew weighs used rack against new. High seismic sites always
// get new rack.
func AssessUsedVsNew(in UsedRackInput) models.UsedRackAssessment {
	a := models.UsedRackAssessment{
		Recommended:       models.RecommendEither,
		CostSavingsPct:    usedSavingsPct,
		LeadTimeWeeksNew:  leadTimeNewWeeks,
		LeadTimeWeeksUsed: leadTimeUsedWeeks,
	}

	switch {
	case in.SDC.AtLeast(models.SDCD):
		a.Recommended = models.RecommendNew
		a.CostSavingsPct = 0
		a.Risks = append(a.Risks, "Used rack rarely carries seismic certification for SDC "+string(in.SDC))
		a.Requirements = append(a.Requirements, "New rack with stamped seismic calculations")
		a.Notes = append(a.Notes, "Used rack not recommended in high seismic zones")
	case in.SDC == models.SDCC:
		a.Requirements = append(a.Requirements, "Engineering review of used rack capacity and condition")
		a.Notes = append(a.Notes, "Used rack viable with engineering review")
	default:
		a.Notes = append(a.Notes, "Used rack viable in low seismic zones")
	}

	if in.RackStyle == models.RackStructural && a.CostSavingsPct > 0 {
		a.CostSavingsPct = math.Round(a.CostSavingsPct*structuralSavingsPct*10) / 10
		a.Notes = append(a.Notes, "Structural used rack supply is thinner, savings reduced")
	}
	if in.TotalFrames > largeProjectFrames {
		a.Risks = append(a.Risks, fmt.Sprintf("Sourcing %d matching used frames may be difficult", in.TotalFrames))
	}
	if in.FrameHeightIn > tallFrameIn {
		a.LeadTimeWeeksUsed = leadTimeUsedTall
		a.Risks = append(a.Risks, "Tall used frames are less common")
	}
	return a
}
