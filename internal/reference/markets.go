package reference

import (
	_ "embed"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/stwalsh4118/rackplan/internal/models"
)

//go:embed markets.yaml
var marketsYAML []byte

// SubMarket is a known submarket location inside a market.
type SubMarket struct {
	ID             string  `yaml:"id" json:"id"`
	Latitude       float64 `yaml:"lat" json:"lat"`
	Longitude      float64 `yaml:"lon" json:"lon"`
	TypicalClearFt float64 `yaml:"typical_clear_ft" json:"typical_clear_ft"`
}

// Name renders the submarket ID as a place name.
func (s SubMarket) Name() string {
	words := strings.Split(s.ID, "_")
	for i, w := range words {
		if len(w) == 2 && i == len(words)-1 {
			words[i] = strings.ToUpper(w)
			continue
		}
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Market is a regional market with typical seismic and code defaults.
type Market struct {
	ID                   string      `yaml:"id" json:"id"`
	Name                 string      `yaml:"name" json:"name"`
	State                string      `yaml:"state" json:"state"`
	BuildingCode         string      `yaml:"building_code" json:"building_code"`
	FireCode             string      `yaml:"fire_code" json:"fire_code"`
	TypicalSDC           string      `yaml:"typical_sdc" json:"typical_sdc"`
	TypicalClearHeightFt []float64   `yaml:"typical_clear_height_ft" json:"typical_clear_height_ft"`
	SubMarkets           []SubMarket `yaml:"sub_markets" json:"sub_markets"`
}

// DesignSDC returns the most severe category in the market's typical range.
func (m Market) DesignSDC() (models.SDC, error) {
	var worst models.SDC
	for _, part := range strings.Split(m.TypicalSDC, "-") {
		sdc, err := models.ParseSDC(part)
		if err != nil {
			return "", fmt.Errorf("market %s: %w", m.ID, err)
		}
		worst = models.MoreSevere(worst, sdc)
	}
	return worst, nil
}

// MarketMatch is the result of a market lookup.
type MarketMatch struct {
	Market    Market
	SubMarket *SubMarket
	// DistanceDeg is the planar distance in degrees, set for coordinate matches.
	DistanceDeg float64
}

type marketTable struct {
	Version string   `yaml:"version"`
	Markets []Market `yaml:"markets"`
}

var (
	marketsOnce sync.Once
	markets     marketTable
	marketsErr  error
)

func loadMarkets() (marketTable, error) {
	marketsOnce.Do(func() {
		marketsErr = yaml.Unmarshal(marketsYAML, &markets)
		if marketsErr != nil {
			marketsErr = fmt.Errorf("failed to parse market table: %w", marketsErr)
			return
		}
		for _, m := range markets.Markets {
			if _, err := m.DesignSDC(); err != nil {
				marketsErr = err
				return
			}
		}
	})
	return markets, marketsErr
}

// Markets returns a copy of the market table.
func Markets() ([]Market, error) {
	t, err := loadMarkets()
	if err != nil {
		return nil, err
	}
	out := make([]Market, len(t.Markets))
	for i, m := range t.Markets {
		m.TypicalClearHeightFt = append([]float64(nil), m.TypicalClearHeightFt...)
		m.SubMarkets = append([]SubMarket(nil), m.SubMarkets...)
		out[i] = m
	}
	return out, nil
}

// MarketsVersion returns the version stamp of the market table.
func MarketsVersion() string {
	t, err := loadMarkets()
	if err != nil {
		return ""
	}
	return t.Version
}

// NearestMarket returns the market owning the submarket closest to the
// coordinates, using planar distance in degrees.
func NearestMarket(lat, lon float64) (*MarketMatch, error) {
	all, err := Markets()
	if err != nil {
		return nil, err
	}

	var best *MarketMatch
	for _, m := range all {
		for i := range m.SubMarkets {
			sm := m.SubMarkets[i]
			d := math.Hypot(lat-sm.Latitude, lon-sm.Longitude)
			if best == nil || d < best.DistanceDeg {
				best = &MarketMatch{Market: m, SubMarket: &sm, DistanceDeg: d}
			}
		}
	}
	return best, nil
}

// MatchMarket finds a market by free text: a submarket name, market ID,
// market name or two-letter state found in the text. It returns nil when
// nothing matches.
func MatchMarket(text string) (*MarketMatch, error) {
	all, err := Markets()
	if err != nil {
		return nil, err
	}

	needle := normalize(text)
	if needle == "" {
		return nil, nil
	}

	// Submarket names are the most specific, so they are checked first. The
	// longest matching name wins ("Aurora CO" over "Aurora").
	var best *MarketMatch
	bestLen := 0
	for _, m := range all {
		for i := range m.SubMarkets {
			sm := m.SubMarkets[i]
			name := normalize(sm.Name())
			hit := strings.Contains(needle, name) || (len(needle) >= 3 && strings.Contains(name, needle))
			if hit && len(name) > bestLen {
				best = &MarketMatch{Market: m, SubMarket: &sm}
				bestLen = len(name)
			}
		}
	}
	if best != nil {
		return best, nil
	}
	for _, m := range all {
		name := normalize(m.Name)
		if needle == normalize(m.ID) || strings.Contains(needle, name) || (len(needle) >= 3 && strings.Contains(name, needle)) {
			return &MarketMatch{Market: m}, nil
		}
	}
	// State codes must be written in capitals so "in" and "or" in prose
	// are not read as Indiana and Oregon.
	for _, token := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '.'
	}) {
		if len(token) != 2 || token != strings.ToUpper(token) {
			continue
		}
		for _, m := range all {
			for _, st := range strings.Split(m.State, "/") {
				if st == token {
					return &MarketMatch{Market: m}, nil
				}
			}
		}
	}
	return nil, nil
}

func normalize(s string) string {
	s = strings.NewReplacer("_", " ", ",", " ", ".", " ", "/", " ").Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}
