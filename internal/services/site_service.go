package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stwalsh4118/rackplan/internal/logger"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
	"github.com/stwalsh4118/rackplan/internal/seismic"
)

// Service-level errors
var (
	ErrMarketNotFound = errors.New("market not found")
	ErrEmptyLocation  = errors.New("location is required")
)

// SiteResolver resolves addresses and market names into sites.
// *seismic.Resolver implements it.
type SiteResolver interface {
	Resolve(ctx context.Context, address string, ov models.SiteOverrides) (*seismic.Resolution, error)
	FromMarket(location string) (*seismic.Resolution, error)
}

// SiteService defines the seismic and jurisdiction lookups exposed by the API.
type SiteService interface {
	// Lookup resolves an address. Lookup failures degrade to market defaults
	// and are reported as advisories; only cancellation and invalid
	// overrides are errors.
	Lookup(ctx context.Context, address string, ov models.SiteOverrides) (*seismic.Resolution, error)

	// Market resolves a city or market name from the market table without
	// any external lookup. Returns ErrMarketNotFound when nothing matches.
	Market(location string) (*seismic.Resolution, error)

	// Markets returns the full market table.
	Markets() ([]reference.Market, error)

	// Requirements maps an SDC to engineering requirements.
	Requirements(sdc models.SDC, code models.BuildingCode) (models.EngineeringRequirements, error)
}

type siteService struct {
	resolver SiteResolver
	log      *logger.Logger
}

// NewSiteService creates a new instance of SiteService.
func NewSiteService(resolver SiteResolver, log *logger.Logger) SiteService {
	return &siteService{
		resolver: resolver,
		log:      log,
	}
}

func (s *siteService) Lookup(ctx context.Context, address string, ov models.SiteOverrides) (*seismic.Resolution, error) {
	s.log.Info("Resolving site", map[string]interface{}{
		"address":       address,
		"risk_category": ov.RiskCategory,
		"site_class":    ov.SiteClass,
		"sdc_override":  ov.SDC,
	})

	res, err := s.resolver.Resolve(ctx, address, ov)
	if err != nil {
		if !errors.Is(err, models.ErrCancelled) {
			s.log.Warn("Site resolution failed", map[string]interface{}{
				"address": address,
				"error":   err.Error(),
			})
		}
		return nil, err
	}
	return res, nil
}

func (s *siteService) Market(location string) (*seismic.Resolution, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrEmptyLocation
	}

	res, err := s.resolver.FromMarket(location)
	if err != nil {
		s.log.Error("Failed to match market", err, map[string]interface{}{"location": location})
		return nil, fmt.Errorf("failed to match market: %w", err)
	}
	if res == nil {
		s.log.Debug("No market matched", map[string]interface{}{"location": location})
		return nil, fmt.Errorf("%w: %q", ErrMarketNotFound, location)
	}
	return res, nil
}

func (s *siteService) Markets() ([]reference.Market, error) {
	markets, err := reference.Markets()
	if err != nil {
		s.log.Error("Failed to load market table", err, nil)
		return nil, fmt.Errorf("failed to load market table: %w", err)
	}
	return markets, nil
}

func (s *siteService) Requirements(sdc models.SDC, code models.BuildingCode) (models.EngineeringRequirements, error) {
	if code == "" {
		code = models.CodeIBC
	}
	if code != models.CodeIBC && code != models.CodeCBC {
		return models.EngineeringRequirements{}, models.NewValidationError("code", "must be IBC or CBC, got %q", code)
	}
	return reference.Requirements(sdc, code, models.SourceCaller, models.ConfidenceHigh)
}
