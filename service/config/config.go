package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/chiatax/service/price"
)

// Limits for the explorer page size.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Config holds everything a report run needs. It is built once at startup
// and passed by value; nothing mutates it afterwards.
type Config struct {
	// Lookup configuration
	Address  string
	PriceAPI price.Kind
	Limit    int
	Location *time.Location // zone used for report timestamps

	// Credentials
	APIKey string

	// External API roots; empty selects the public endpoints.
	SpaceScanURL string
	CoinGeckoURL string

	// Diagnostics
	Debug       bool
	MetricsFile string
}

// Validate checks if the configuration is valid.
// All problems are reported together.
func (c Config) Validate() error {
	var errs []error

	if c.Address == "" {
		errs = append(errs, fmt.Errorf("address is required"))
	}

	if c.Limit < 1 || c.Limit > MaxLimit {
		errs = append(errs, fmt.Errorf("limit must be between 1 and %d, got %d", MaxLimit, c.Limit))
	}

	// ParseKind never yields other kinds; this catches Configs built directly.
	if c.PriceAPI != price.KindSpaceScan && c.PriceAPI != price.KindCoinGecko {
		errs = append(errs, fmt.Errorf("unknown price API %q", c.PriceAPI))
	}

	if c.APIKey == "" {
		errs = append(errs, fmt.Errorf("API key is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// LogLevel returns the slog level for the run.
func (c Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// TimeZone returns the configured report zone, defaulting to the process's
// local zone.
func (c Config) TimeZone() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// ParseLocation resolves a time zone name. An empty name or "Local" selects
// the process's local zone.
func ParseLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", name, err)
	}
	return loc, nil
}
