package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/brojonat/chiatax/service/metrics"
	"github.com/shopspring/decimal"
)

// DefaultSpaceScanURL is the SpaceScan API root.
const DefaultSpaceScanURL = "https://api.spacescan.io"

// Transaction is one inbound transfer as reported by the block explorer.
// Transactions are read-only once decoded.
type Transaction struct {
	CoinID string          `json:"coin_id"`
	Time   string          `json:"time"` // ISO-8601 UTC, e.g. 2024-10-23T07:21:34.000Z
	Amount decimal.Decimal `json:"amount_xch"`
	Memo   *string         `json:"memo"` // nil when the coin carries no memo
}

// Page is one batch of received transactions.
type Page struct {
	Transactions []Transaction
	// NextCursor is the token for the following page, nil on the last page.
	NextCursor *string
	// TotalCount is the explorer's total-count hint; zero means "not reported".
	TotalCount int64
}

// Last reports whether no further page follows this one.
func (p *Page) Last() bool { return p.NextCursor == nil }

// Explorer is a SpaceScan block-explorer client.
type Explorer struct {
	baseURL string
	client  *Client
}

// NewExplorer creates a SpaceScan explorer client. An empty baseURL selects
// DefaultSpaceScanURL.
func NewExplorer(baseURL string, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *Explorer {
	if baseURL == "" {
		baseURL = DefaultSpaceScanURL
	}
	return &Explorer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  NewClient("spacescan", httpClient, m, logger),
	}
}

// statusEnvelope is embedded by every SpaceScan response.
type statusEnvelope struct {
	Status string `json:"status"`
}

func (e *statusEnvelope) Check() error {
	if e.Status != "success" {
		return fmt.Errorf("status %q", e.Status)
	}
	return nil
}

type balanceResponse struct {
	statusEnvelope
	Mojo int64 `json:"mojo"`
}

// Balance returns the current balance of address in mojo (1 XCH = 10^12 mojo).
func (e *Explorer) Balance(ctx context.Context, address string) (int64, error) {
	var resp balanceResponse
	err := e.client.GetJSON(ctx, Request{
		Endpoint: "xch-balance",
		URL:      fmt.Sprintf("%s/address/xch-balance/%s", e.baseURL, url.PathEscape(address)),
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Mojo, nil
}

type transactionsResponse struct {
	statusEnvelope
	Received struct {
		TotalCount   json.Number      `json:"total_count"`
		NextCursor   *json.RawMessage `json:"next_cursor"`
		Transactions []Transaction    `json:"transactions"`
	} `json:"received_transactions"`
}

// ReceivedTransactions fetches one page of non-dust inbound transactions,
// starting at cursor ("0" for the first page). Sent and dust transfers are
// excluded by the request filters.
func (e *Explorer) ReceivedTransactions(ctx context.Context, address, cursor string, limit int) (*Page, error) {
	q := url.Values{}
	q.Set("include_received", "true")
	q.Set("include_received_dust", "false")
	q.Set("include_send", "false")
	q.Set("include_send_dust", "false")
	q.Set("count", strconv.Itoa(limit))
	q.Set("received_cursor", cursor)

	var resp transactionsResponse
	err := e.client.GetJSON(ctx, Request{
		Endpoint: "xch-transaction",
		URL:      fmt.Sprintf("%s/address/xch-transaction/%s", e.baseURL, url.PathEscape(address)),
		Query:    q,
	}, &resp)
	if err != nil {
		return nil, err
	}

	page := &Page{Transactions: resp.Received.Transactions}
	if resp.Received.TotalCount != "" {
		total, err := resp.Received.TotalCount.Int64()
		if err != nil {
			return nil, &ProviderError{API: e.client.API(), Endpoint: "xch-transaction", Message: fmt.Sprintf("invalid total_count %q", resp.Received.TotalCount)}
		}
		page.TotalCount = total
	}
	if next, ok := cursorParam(resp.Received.NextCursor); ok {
		page.NextCursor = &next
	}
	return page, nil
}

// cursorParam turns the explorer's next_cursor into a query value.
// The cursor may be a JSON number or string; null or absent means no more pages.
func cursorParam(raw *json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}
	s := strings.TrimSpace(string(*raw))
	if s == "" || s == "null" {
		return "", false
	}
	var str string
	if err := json.Unmarshal(*raw, &str); err == nil {
		return str, true
	}
	return s, true
}
