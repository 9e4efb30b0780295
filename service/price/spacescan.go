package price

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/brojonat/chiatax/client"
	"github.com/brojonat/chiatax/service/metrics"
	"github.com/shopspring/decimal"
)

// SpaceScan docs: https://docs.spacescan.io/api/stats/price
// Endpoint used: /stats/price?currency=USD&period=<unix>&network=mainnet

var spaceScanPrice = mustField(".price")

// SpaceScan quotes the XCH price at a Unix timestamp.
type SpaceScan struct {
	baseURL string
	client  *client.Client
}

// NewSpaceScan creates a SpaceScan price provider. An empty baseURL selects
// the public API.
func NewSpaceScan(baseURL string, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *SpaceScan {
	if baseURL == "" {
		baseURL = client.DefaultSpaceScanURL
	}
	return &SpaceScan{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client.NewClient("spacescan", httpClient, m, logger),
	}
}

func (s *SpaceScan) Name() string { return string(KindSpaceScan) }

// spaceScanDoc is the raw price response; it must carry status "success".
type spaceScanDoc map[string]any

func (d spaceScanDoc) Check() error {
	if status, _ := d["status"].(string); status != "success" {
		return fmt.Errorf("status %q", fmt.Sprint(d["status"]))
	}
	return nil
}

func (s *SpaceScan) HistoricalPrice(ctx context.Context, at Moment) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("currency", "USD")
	q.Set("period", strconv.FormatInt(at.Unix, 10))
	q.Set("network", "mainnet")

	var doc spaceScanDoc
	err := s.client.GetJSON(ctx, client.Request{
		Endpoint: "price",
		URL:      s.baseURL + "/stats/price",
		Query:    q,
	}, &doc)
	if err != nil {
		return decimal.Decimal{}, err
	}

	p, err := spaceScanPrice.decimal(map[string]any(doc))
	if err != nil {
		return decimal.Decimal{}, &client.ProviderError{API: "spacescan", Endpoint: "price", Message: err.Error()}
	}
	return p, nil
}
