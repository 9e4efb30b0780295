package price

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/brojonat/chiatax/client"
	"github.com/brojonat/chiatax/service/metrics"
	"github.com/brojonat/chiatax/service/timeconv"
	"github.com/shopspring/decimal"
)

// CoinGecko docs: https://docs.coingecko.com/v3.0.1/reference/coins-id-history
// Auth header: "x-cg-demo-api-key: <KEY>"
// Endpoint used: /coins/chia/history?date=DD-MM-YYYY

// DefaultCoinGeckoURL is the public CoinGecko API root.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

const coinGeckoCoinID = "chia"

var coinGeckoPrice = mustField(".market_data.current_price.usd")

// CoinGecko quotes the XCH price for the UTC calendar day of a timestamp.
type CoinGecko struct {
	baseURL string
	apiKey  string
	client  *client.Client
}

// NewCoinGecko creates a CoinGecko price provider. An empty baseURL selects
// DefaultCoinGeckoURL.
func NewCoinGecko(baseURL, apiKey string, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGecko{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client.NewClient("coingecko", httpClient, m, logger),
	}
}

func (c *CoinGecko) Name() string { return string(KindCoinGecko) }

// coinGeckoDoc is the raw history response; any "error" field is a failure.
type coinGeckoDoc map[string]any

func (d coinGeckoDoc) Check() error {
	if e, ok := d["error"]; ok {
		return fmt.Errorf("error %v", e)
	}
	return nil
}

func (c *CoinGecko) HistoricalPrice(ctx context.Context, at Moment) (decimal.Decimal, error) {
	date, err := timeconv.ISOToProviderDate(at.Timestamp)
	if err != nil {
		return decimal.Decimal{}, err
	}

	q := url.Values{}
	q.Set("date", date)

	header := http.Header{}
	header.Set("accept", "application/json")
	header.Set("x-cg-demo-api-key", c.apiKey)

	var doc coinGeckoDoc
	err = c.client.GetJSON(ctx, client.Request{
		Endpoint: "history",
		URL:      fmt.Sprintf("%s/coins/%s/history", c.baseURL, coinGeckoCoinID),
		Query:    q,
		Header:   header,
	}, &doc)
	if err != nil {
		return decimal.Decimal{}, err
	}

	p, err := coinGeckoPrice.decimal(map[string]any(doc))
	if err != nil {
		return decimal.Decimal{}, &client.ProviderError{API: "coingecko", Endpoint: "history", Message: err.Error()}
	}
	return p, nil
}
