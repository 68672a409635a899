// Package seismic resolves a site address into seismic design parameters,
// engineering requirements and a code jurisdiction.
package seismic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stwalsh4118/rackplan/internal/logger"
	"github.com/stwalsh4118/rackplan/internal/metrics"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
)

// Resolution is a resolved site and the requirements derived from it.
type Resolution struct {
	Site         models.Site                    `json:"site"`
	Requirements models.EngineeringRequirements `json:"requirements"`
}

// Options configure a Resolver.
type Options struct {
	Policy   RetryPolicy
	CacheTTL time.Duration
	// Store persists completed lookups. Optional.
	Store Store
}

// Resolver turns addresses into Sites. It is safe for concurrent use; the
// only state it shares between requests is its lookup caches.
type Resolver struct {
	geocoder Geocoder
	hazard   HazardService
	geocodes *Cache[models.Coordinates]
	hazards  *Cache[models.HazardValues]
	policy   RetryPolicy
	log      *logger.Logger
	now      func() time.Time
}

// NewResolver creates a Resolver.
func NewResolver(geocoder Geocoder, hazard HazardService, opts Options, log *logger.Logger) *Resolver {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.Policy.Timeout <= 0 {
		opts.Policy = DefaultRetryPolicy()
	}
	return &Resolver{
		geocoder: geocoder,
		hazard:   hazard,
		geocodes: NewCache[models.Coordinates]("geocode", opts.CacheTTL, opts.Store, log),
		hazards:  NewCache[models.HazardValues]("hazard", opts.CacheTTL, opts.Store, log),
		policy:   opts.Policy,
		log:      log,
		now:      time.Now,
	}
}

// Resolve looks up address and classifies the site. Lookup failures never
// fail the call: the site falls back to a market default and carries
// confidence "default". Only cancellation and invalid overrides are errors.
func (r *Resolver) Resolve(ctx context.Context, address string, ov models.SiteOverrides) (*Resolution, error) {
	if ctx.Err() != nil {
		return nil, models.ErrCancelled
	}
	if err := validateOverrides(ov); err != nil {
		return nil, err
	}

	address = strings.TrimSpace(address)
	site := models.Site{Address: address, ResolvedAt: r.now()}
	var adv models.Advisories

	site.RiskCategory = ov.RiskCategory
	if site.RiskCategory == "" {
		site.RiskCategory = reference.DefaultRiskCategory
		adv.Add(defaultAdvisory("risk_category", fmt.Sprintf("risk category %s assumed for hazard query", site.RiskCategory)))
	}
	site.SiteClass = ov.SiteClass
	if site.SiteClass == "" {
		site.SiteClass = reference.DefaultSiteClass
		adv.Add(defaultAdvisory("site_class", fmt.Sprintf("site class %s assumed for hazard query", site.SiteClass)))
	}

	var (
		coords    *models.Coordinates
		hazard    *models.HazardValues
		lookupErr error
	)
	if address == "" {
		lookupErr = &models.LookupError{Service: "geocoder", Err: errors.New("no address supplied")}
	} else {
		coords, hazard, lookupErr = r.lookup(ctx, address, site.RiskCategory, site.SiteClass)
	}
	if ctx.Err() != nil || (lookupErr != nil && isContextErr(lookupErr)) {
		r.log.Info("Site resolution cancelled", map[string]interface{}{"address": address})
		return nil, models.ErrCancelled
	}
	site.Coordinates = coords

	var market *reference.MarketMatch
	if hazard != nil {
		r.classify(&site, hazard, &adv)
	} else {
		market = r.findMarket(coords, address)
		if ov.SDC == "" {
			r.fallback(&site, market, lookupErr, &adv)
		} else {
			adv.Add(models.Advisory{
				Code:       models.AdvisoryLookupFallback,
				Field:      "sds",
				Message:    fmt.Sprintf("hazard values unavailable (%v); caller SDC used", lookupErr),
				Source:     models.SourceEngineDefault,
				Confidence: models.ConfidenceDefault,
				Reference:  reference.Cite(reference.TableSDCClassify),
			})
		}
	}

	if ov.SDC != "" {
		if hazard != nil && site.SDC.Value != ov.SDC {
			adv.Add(models.Advisory{
				Code:       models.AdvisorySDCMismatch,
				Field:      "sdc",
				Message:    fmt.Sprintf("caller SDC %s overrides looked-up SDC %s", ov.SDC, site.SDC.Value),
				Source:     models.SourceUserOverride,
				Confidence: models.ConfidenceHigh,
				Reference:  reference.Cite(reference.TableSDCClassify),
			})
		}
		site.SDC = models.Trace(ov.SDC, models.SourceUserOverride, models.ConfidenceHigh, "caller")
	}

	site.Jurisdiction = r.jurisdiction(coords, market, &adv)
	if market != nil {
		site.Market = market.Market.Name
	}

	reqs, err := reference.Requirements(site.SDC.Value, site.Jurisdiction.Value.BuildingCode, site.SDC.Source, site.SDC.Confidence)
	if err != nil {
		return nil, fmt.Errorf("failed to map SDC to requirements: %w", err)
	}

	site.Confidence = models.Lowest(site.SDC.Confidence, site.Jurisdiction.Confidence)
	site.Advisories = adv
	for _, a := range adv {
		metrics.RecordAdvisory(a.Code)
	}

	r.log.Info("Site resolved", map[string]interface{}{
		"address":    address,
		"sdc":        site.SDC.Value,
		"source":     site.SDC.Source,
		"confidence": site.Confidence,
		"code":       site.Jurisdiction.Value.BuildingCode,
		"advisories": len(adv),
	})

	return &Resolution{Site: site, Requirements: reqs}, nil
}

// FromMarket builds a resolution from market defaults without any lookup.
// It returns nil when location matches no market.
func (r *Resolver) FromMarket(location string) (*Resolution, error) {
	match, err := reference.MatchMarket(location)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, nil
	}

	site := models.Site{
		Address:      location,
		RiskCategory: reference.DefaultRiskCategory,
		SiteClass:    reference.DefaultSiteClass,
		Market:       match.Market.Name,
		ResolvedAt:   r.now(),
	}
	if match.SubMarket != nil {
		site.Coordinates = &models.Coordinates{
			Latitude:    match.SubMarket.Latitude,
			Longitude:   match.SubMarket.Longitude,
			DisplayName: match.SubMarket.Name(),
		}
	}

	var adv models.Advisories
	r.fallback(&site, match, nil, &adv)
	site.Jurisdiction = r.jurisdiction(nil, match, &adv)
	site.Confidence = models.Lowest(site.SDC.Confidence, site.Jurisdiction.Confidence)
	site.Advisories = adv

	reqs, err := reference.Requirements(site.SDC.Value, site.Jurisdiction.Value.BuildingCode, site.SDC.Source, site.SDC.Confidence)
	if err != nil {
		return nil, err
	}
	return &Resolution{Site: site, Requirements: reqs}, nil
}

func (r *Resolver) lookup(ctx context.Context, address string, rc models.RiskCategory, sc models.SiteClass) (*models.Coordinates, *models.HazardValues, error) {
	coords, err := r.geocodes.Get(ctx, geocodeKey(address), func(ctx context.Context) (models.Coordinates, error) {
		c, err := do(ctx, r.policy, "geocoder", r.log, func(ctx context.Context) (*models.Coordinates, error) {
			return r.geocoder.Geocode(ctx, address)
		})
		if err != nil {
			return models.Coordinates{}, err
		}
		return *c, nil
	})
	if err != nil {
		return nil, nil, err
	}

	hz, err := r.hazards.Get(ctx, hazardKey(coords, rc, sc), func(ctx context.Context) (models.HazardValues, error) {
		h, err := do(ctx, r.policy, "hazard", r.log, func(ctx context.Context) (*models.HazardValues, error) {
			return r.hazard.Query(ctx, coords, rc, sc)
		})
		if err != nil {
			return models.HazardValues{}, err
		}
		return *h, nil
	})
	if err != nil {
		return &coords, nil, err
	}
	return &coords, &hz, nil
}

// classify sets SDS, SD1 and SDC from a live hazard result. The category is
// computed from the two-table procedure; if the service reported a
// different one the more severe governs.
func (r *Resolver) classify(site *models.Site, hz *models.HazardValues, adv *models.Advisories) {
	sds := models.Trace(hz.SDS, models.SourceLiveLookup, models.ConfidenceHigh, "usgs asce7-22 design maps")
	sd1 := models.Trace(hz.SD1, models.SourceLiveLookup, models.ConfidenceHigh, "usgs asce7-22 design maps")
	site.SDS = &sds
	site.SD1 = &sd1

	computed := reference.ClassifySDC(hz.SDS, hz.SD1, hz.S1, site.RiskCategory)
	sdc, confidence := computed, models.ConfidenceHigh
	if hz.ReportedSDC != "" && hz.ReportedSDC != computed {
		sdc = models.MoreSevere(computed, hz.ReportedSDC)
		confidence = models.ConfidenceMedium
		adv.Add(models.Advisory{
			Code:       models.AdvisorySDCMismatch,
			Field:      "sdc",
			Message:    fmt.Sprintf("hazard service reported SDC %s, tables give %s; using %s", hz.ReportedSDC, computed, sdc),
			Source:     models.SourceLiveLookup,
			Confidence: confidence,
			Reference:  reference.Cite(reference.TableSDCClassify),
		})
	}
	site.SDC = models.Trace(sdc, models.SourceLiveLookup, confidence, reference.Cite(reference.TableSDCClassify))
}

func (r *Resolver) findMarket(coords *models.Coordinates, address string) *reference.MarketMatch {
	var match *reference.MarketMatch
	var err error
	if coords != nil {
		match, err = reference.NearestMarket(coords.Latitude, coords.Longitude)
	} else {
		match, err = reference.MatchMarket(address)
	}
	if err != nil {
		r.log.Error("Failed to read market table", err, nil)
		return nil
	}
	return match
}

// fallback sets the SDC from a market default, or the global default when no
// market matches. It always leaves an advisory.
func (r *Resolver) fallback(site *models.Site, market *reference.MarketMatch, cause error, adv *models.Advisories) {
	reason := "no live lookup"
	if cause != nil {
		reason = cause.Error()
	}

	if market != nil {
		sdc, err := market.Market.DesignSDC()
		if err == nil {
			site.SDC = models.Trace(sdc, models.SourceMarketDefault, models.ConfidenceDefault, reference.Cite(reference.TableMarkets))
			adv.Add(models.Advisory{
				Code:       models.AdvisoryLookupFallback,
				Field:      "sdc",
				Message:    fmt.Sprintf("SDC %s taken from market %q typical range %s (%s)", sdc, market.Market.Name, market.Market.TypicalSDC, reason),
				Source:     models.SourceEngineDefault,
				Confidence: models.ConfidenceDefault,
				Reference:  reference.Cite(reference.TableMarkets) + "#" + market.Market.ID,
			})
			metrics.RecordFallback(string(models.SourceMarketDefault))
			r.log.Warn("Seismic lookup fell back to market default", map[string]interface{}{
				"address": site.Address,
				"market":  market.Market.ID,
				"sdc":     sdc,
				"reason":  reason,
			})
			return
		}
	}

	site.SDC = models.Trace(reference.FallbackSDC, models.SourceEngineDefault, models.ConfidenceDefault, reference.Cite(reference.TableMarkets))
	adv.Add(models.Advisory{
		Code:       models.AdvisoryLookupFallback,
		Field:      "sdc",
		Message:    fmt.Sprintf("no lookup or market match; conservative SDC %s assumed (%s)", reference.FallbackSDC, reason),
		Source:     models.SourceEngineDefault,
		Confidence: models.ConfidenceDefault,
		Reference:  reference.Cite(reference.TableMarkets),
	})
	metrics.RecordFallback(string(models.SourceEngineDefault))
	r.log.Warn("Seismic lookup fell back to global default", map[string]interface{}{
		"address": site.Address,
		"sdc":     reference.FallbackSDC,
		"reason":  reason,
	})
}

// jurisdiction applies the California bounding-box test when coordinates are
// known, otherwise the matched market's code, otherwise IBC.
func (r *Resolver) jurisdiction(coords *models.Coordinates, market *reference.MarketMatch, adv *models.Advisories) models.Traced[models.Jurisdiction] {
	if coords != nil {
		code := models.CodeIBC
		if reference.InCalifornia(coords.Latitude, coords.Longitude) {
			code = models.CodeCBC
		}
		return models.Trace(reference.JurisdictionFor(code, ""), models.SourceLiveLookup, models.ConfidenceHigh, "california bounding box")
	}

	if market != nil {
		code := models.BuildingCode(market.Market.BuildingCode)
		if code != models.CodeCBC {
			code = models.CodeIBC
		}
		return models.Trace(reference.JurisdictionFor(code, market.Market.State), models.SourceMarketDefault, models.ConfidenceDefault, reference.Cite(reference.TableMarkets))
	}

	adv.Add(defaultAdvisory("jurisdiction", "no coordinates or market; IBC assumed"))
	return models.Trace(reference.JurisdictionFor(models.CodeIBC, ""), models.SourceEngineDefault, models.ConfidenceDefault, "")
}

func validateOverrides(ov models.SiteOverrides) error {
	if ov.RiskCategory != "" && !ov.RiskCategory.Valid() {
		return models.NewValidationError("risk_category", "must be I, II, III or IV, got %q", ov.RiskCategory)
	}
	if ov.SiteClass != "" && !ov.SiteClass.Valid() {
		return models.NewValidationError("site_class", "unknown site class %q", ov.SiteClass)
	}
	if ov.SDC != "" && ov.SDC.Rank() < 0 {
		return models.NewValidationError("sdc", "must be one of A-F, got %q", ov.SDC)
	}
	return nil
}

func defaultAdvisory(field, message string) models.Advisory {
	return models.Advisory{
		Code:       models.AdvisoryDefaultApplied,
		Field:      field,
		Message:    message,
		Source:     models.SourceEngineDefault,
		Confidence: models.ConfidenceDefault,
		Reference:  reference.Cite(reference.TableSDCClassify),
	}
}

func geocodeKey(address string) string {
	return "geo:" + strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

func hazardKey(c models.Coordinates, rc models.RiskCategory, sc models.SiteClass) string {
	return fmt.Sprintf("hazard:%s,%s,%s", c.Key(), rc, sc)
}
