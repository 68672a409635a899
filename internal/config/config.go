package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Lookup   LookupConfig
	Pricing  PricingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration. The database
// only persists the lookup cache, so it is off unless Enabled is set.
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// LookupConfig holds geocoder and hazard-service settings.
type LookupConfig struct {
	GeocoderURL        string
	HazardURL          string
	UserAgent          string
	Timeout            time.Duration
	MaxRetries         int
	Backoff            time.Duration
	CacheTTL           time.Duration
	GeocoderRatePerSec float64
}

// PricingConfig holds pricing defaults.
type PricingConfig struct {
	DefaultMargin    decimal.Decimal
	RackManufacturer string
	AnchorSupplier   string
	DeckingSupplier  string
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "rackplan")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("HAZARD_URL", "https://earthquake.usgs.gov/ws/designmaps/asce7-22.json")
	v.SetDefault("LOOKUP_USER_AGENT", "rackplan/1.0")
	v.SetDefault("LOOKUP_TIMEOUT", "15s")
	v.SetDefault("LOOKUP_MAX_RETRIES", 2)
	v.SetDefault("LOOKUP_BACKOFF", "200ms")
	v.SetDefault("LOOKUP_CACHE_TTL", "1h")
	v.SetDefault("GEOCODER_RATE_PER_SEC", 1.0)
	v.SetDefault("DEFAULT_MARGIN", "0.25")
	v.SetDefault("RACK_MANUFACTURER", "Mecalux")
	v.SetDefault("ANCHOR_SUPPLIER", "Hilti")
	v.SetDefault("DECKING_SUPPLIER", "WWMH")

	// Bind environment variables
	v.AutomaticEnv()

	margin, err := decimal.NewFromString(v.GetString("DEFAULT_MARGIN"))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_MARGIN must be a decimal: %w", err)
	}

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Enabled:  v.GetBool("DB_ENABLED"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Lookup: LookupConfig{
			GeocoderURL:        v.GetString("GEOCODER_URL"),
			HazardURL:          v.GetString("HAZARD_URL"),
			UserAgent:          v.GetString("LOOKUP_USER_AGENT"),
			Timeout:            v.GetDuration("LOOKUP_TIMEOUT"),
			MaxRetries:         v.GetInt("LOOKUP_MAX_RETRIES"),
			Backoff:            v.GetDuration("LOOKUP_BACKOFF"),
			CacheTTL:           v.GetDuration("LOOKUP_CACHE_TTL"),
			GeocoderRatePerSec: v.GetFloat64("GEOCODER_RATE_PER_SEC"),
		},
		Pricing: PricingConfig{
			DefaultMargin:    margin,
			RackManufacturer: v.GetString("RACK_MANUFACTURER"),
			AnchorSupplier:   v.GetString("ANCHOR_SUPPLIER"),
			DeckingSupplier:  v.GetString("DECKING_SUPPLIER"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Enabled {
		if err := c.Database.validate(); err != nil {
			return err
		}
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Lookup.GeocoderURL == "" {
		return fmt.Errorf("GEOCODER_URL is required")
	}
	if c.Lookup.HazardURL == "" {
		return fmt.Errorf("HAZARD_URL is required")
	}
	if c.Lookup.UserAgent == "" {
		return fmt.Errorf("LOOKUP_USER_AGENT is required")
	}
	if c.Lookup.Timeout <= 0 {
		return fmt.Errorf("LOOKUP_TIMEOUT must be positive")
	}
	if c.Lookup.MaxRetries < 0 {
		return fmt.Errorf("LOOKUP_MAX_RETRIES must be non-negative")
	}
	if c.Lookup.Backoff < 0 {
		return fmt.Errorf("LOOKUP_BACKOFF must be non-negative")
	}
	if c.Lookup.CacheTTL <= 0 {
		return fmt.Errorf("LOOKUP_CACHE_TTL must be positive")
	}
	if c.Lookup.GeocoderRatePerSec < 0 {
		return fmt.Errorf("GEOCODER_RATE_PER_SEC must be non-negative")
	}

	one := decimal.NewFromInt(1)
	if !c.Pricing.DefaultMargin.IsPositive() || c.Pricing.DefaultMargin.GreaterThanOrEqual(one) {
		return fmt.Errorf("DEFAULT_MARGIN must be between 0 and 1 exclusive, got %s", c.Pricing.DefaultMargin)
	}

	return nil
}

func (d DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
