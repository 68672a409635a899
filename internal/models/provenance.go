package models

// Source identifies where a resolved value came from.
type Source string

const (
	SourceLiveLookup     Source = "live-lookup"
	SourceMarketDefault  Source = "market-default"
	SourceUserOverride   Source = "user-override"
	SourceCaller         Source = "caller"
	SourceReferenceTable Source = "reference-table"
	SourceEngineDefault  Source = "default"
	SourceComputed       Source = "computed"
)

// Confidence grades how much a resolved value can be relied on without an
// engineer's review.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceDefault Confidence = "default"
)

// rank orders confidences from least to most reliable.
func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Lowest returns the least reliable of the given confidences.
// An empty argument list yields ConfidenceHigh.
func Lowest(cs ...Confidence) Confidence {
	lowest := ConfidenceHigh
	for _, c := range cs {
		if c.rank() < lowest.rank() {
			lowest = c
		}
	}
	return lowest
}

// Traced wraps a resolved value with its source and confidence so consumers
// can tell computed values from defaults.
type Traced[T any] struct {
	Value      T          `json:"value"`
	Source     Source     `json:"source"`
	Confidence Confidence `json:"confidence"`
	Reference  string     `json:"reference,omitempty"`
}

// Trace builds a Traced value.
func Trace[T any](value T, source Source, confidence Confidence, reference string) Traced[T] {
	return Traced[T]{Value: value, Source: source, Confidence: confidence, Reference: reference}
}

// Advisory is a non-fatal finding that accompanies a successful result.
// Reference names the table or default an engineer must check to override it.
type Advisory struct {
	Code       string     `json:"code"`
	Field      string     `json:"field"`
	Message    string     `json:"message"`
	Source     Source     `json:"source"`
	Confidence Confidence `json:"confidence"`
	Reference  string     `json:"reference"`
}

// Advisory codes.
const (
	AdvisoryLookupFallback   = "LOOKUP_FALLBACK"
	AdvisorySDCMismatch      = "SDC_MISMATCH"
	AdvisoryFireRule         = "FIRE_RULE_UNVERIFIED"
	AdvisoryDefaultApplied   = "DEFAULT_APPLIED"
	AdvisoryEndFramesDefault = "END_FRAMES_DEFAULTED"
	AdvisoryColumnGrid       = "COLUMN_GRID_UNRESOLVED"
	AdvisoryUnitCostMissing  = "UNIT_COST_MISSING"
)

// Advisories is an ordered, queryable advisory list.
type Advisories []Advisory

// Add appends an advisory.
func (a *Advisories) Add(adv Advisory) {
	*a = append(*a, adv)
}

// ByField returns the advisories attached to a field.
func (a Advisories) ByField(field string) Advisories {
	var out Advisories
	for _, adv := range a {
		if adv.Field == field {
			out = append(out, adv)
		}
	}
	return out
}

// ByCode returns the advisories carrying a code.
func (a Advisories) ByCode(code string) Advisories {
	var out Advisories
	for _, adv := range a {
		if adv.Code == code {
			out = append(out, adv)
		}
	}
	return out
}

// Has reports whether any advisory is attached to field.
func (a Advisories) Has(field string) bool {
	return len(a.ByField(field)) > 0
}
