// Package price looks up the historical USD price of XCH.
//
// Two providers are available, SpaceScan and CoinGecko. The provider is
// chosen once when a report starts and then used for every transaction.
package price

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brojonat/chiatax/service/metrics"
	"github.com/shopspring/decimal"
)

// Moment is the point in time a price is requested for, in the two
// representations providers consume.
type Moment struct {
	Timestamp string // ISO-8601 UTC as returned by the explorer
	Unix      int64
}

// Provider returns the historical USD price of one XCH.
// Implementations issue exactly one request per call and never cache.
type Provider interface {
	HistoricalPrice(ctx context.Context, at Moment) (decimal.Decimal, error)
	Name() string
}

// Kind identifies a price provider.
type Kind string

const (
	KindSpaceScan Kind = "SpaceScan"
	KindCoinGecko Kind = "CoinGecko"
)

// ParseKind maps free text to a provider kind, ignoring case.
// Anything that is not recognised as CoinGecko selects SpaceScan.
func ParseKind(s string) Kind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "S", "SS", "SPACESCAN", "SPACESCAN.IO":
		return KindSpaceScan
	case "C", "CG", "COINGECKO", "COINGECKO.COM":
		return KindCoinGecko
	default:
		return KindSpaceScan
	}
}

// Options configure a provider.
type Options struct {
	SpaceScanURL string // empty selects the public API
	CoinGeckoURL string // empty selects the public API
	APIKey       string // CoinGecko demo API key
	HTTPClient   *http.Client
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// New builds the provider for kind.
func New(kind Kind, opts Options) Provider {
	switch kind {
	case KindCoinGecko:
		return NewCoinGecko(opts.CoinGeckoURL, opts.APIKey, opts.HTTPClient, opts.Metrics, opts.Logger)
	default:
		return NewSpaceScan(opts.SpaceScanURL, opts.HTTPClient, opts.Metrics, opts.Logger)
	}
}
