package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brojonat/chiatax/service/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalance_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/address/xch-balance/xch1abc", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"mojo":   1750000000000,
			"xch":    1.75,
		})
	}))
	defer server.Close()

	explorer := NewExplorer(server.URL, nil, nil, nil)
	mojo, err := explorer.Balance(context.Background(), "xch1abc")
	require.NoError(t, err)
	assert.Equal(t, int64(1750000000000), mojo)
}

func TestBalance_FailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "failed",
			"message": "invalid address",
		})
	}))
	defer server.Close()

	explorer := NewExplorer(server.URL, nil, nil, nil)
	_, err := explorer.Balance(context.Background(), "bogus")
	require.Error(t, err)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "spacescan", perr.API)
	assert.Equal(t, "xch-balance", perr.Endpoint)
	assert.Contains(t, err.Error(), `"failed"`)
}

func TestBalance_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "rate limited",
		})
	}))
	defer server.Close()

	explorer := NewExplorer(server.URL, nil, nil, nil)
	_, err := explorer.Balance(context.Background(), "xch1abc")
	require.Error(t, err)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestBalance_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>oops</html>"))
	}))
	defer server.Close()

	explorer := NewExplorer(server.URL, nil, nil, nil)
	_, err := explorer.Balance(context.Background(), "xch1abc")

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Message, "failed to decode response")
}

func TestReceivedTransactions_RequestParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/address/xch-transaction/xch1abc", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("include_received"))
		assert.Equal(t, "false", q.Get("include_received_dust"))
		assert.Equal(t, "false", q.Get("include_send"))
		assert.Equal(t, "false", q.Get("include_send_dust"))
		assert.Equal(t, "25", q.Get("count"))
		assert.Equal(t, "0", q.Get("received_cursor"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "success",
			"received_transactions": {
				"total_count": 2,
				"next_cursor": 1729668094,
				"transactions": [
					{"coin_id": "aa11", "time": "2024-10-23T07:21:34.000Z", "amount_xch": 1.5, "memo": null},
					{"coin_id": "bb22", "time": "2024-10-22T01:00:00.000Z", "amount_xch": "0.000000000001", "memo": "invoice 7"}
				]
			}
		}`))
	}))
	defer server.Close()

	explorer := NewExplorer(server.URL, nil, nil, nil)
	page, err := explorer.ReceivedTransactions(context.Background(), "xch1abc", "0", 25)
	require.NoError(t, err)

	assert.Equal(t, int64(2), page.TotalCount)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "1729668094", *page.NextCursor)
	assert.False(t, page.Last())

	require.Len(t, page.Transactions, 2)
	assert.Equal(t, "aa11", page.Transactions[0].CoinID)
	assert.True(t, decimal.RequireFromString("1.5").Equal(page.Transactions[0].Amount))
	assert.Nil(t, page.Transactions[0].Memo)

	assert.True(t, decimal.RequireFromString("0.000000000001").Equal(page.Transactions[1].Amount))
	require.NotNil(t, page.Transactions[1].Memo)
	assert.Equal(t, "invoice 7", *page.Transactions[1].Memo)
}

func TestReceivedTransactions_NullCursorIsLastPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.URL.Query().Get("received_cursor"))
		w.Write([]byte(`{"status":"success","received_transactions":{"total_count":0,"next_cursor":null,"transactions":[]}}`))
	}))
	defer server.Close()

	explorer := NewExplorer(server.URL, nil, nil, nil)
	page, err := explorer.ReceivedTransactions(context.Background(), "xch1abc", "abc", 10)
	require.NoError(t, err)
	assert.True(t, page.Last())
	assert.Equal(t, int64(0), page.TotalCount)
	assert.Empty(t, page.Transactions)
}

func TestCursorParam(t *testing.T) {
	raw := func(s string) *json.RawMessage {
		m := json.RawMessage(s)
		return &m
	}

	tests := []struct {
		name   string
		raw    *json.RawMessage
		want   string
		wantOK bool
	}{
		{name: "absent", raw: nil, wantOK: false},
		{name: "null", raw: raw("null"), wantOK: false},
		{name: "number", raw: raw("1729668094"), want: "1729668094", wantOK: true},
		{name: "string", raw: raw(`"eyJwIjoxfQ=="`), want: "eyJwIjoxfQ==", wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cursorParam(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetJSON_DebugEchoesPayloads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","mojo":42}`))
	}))
	defer server.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	explorer := NewExplorer(server.URL, nil, nil, logger)
	_, err := explorer.Balance(context.Background(), "xch1abc")
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "calling API")
	assert.Contains(t, logs.String(), "/address/xch-balance/xch1abc")
	assert.Contains(t, logs.String(), `"mojo\":42`)
}

func TestGetJSON_RecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","mojo":42}`))
	}))
	defer server.Close()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	explorer := NewExplorer(server.URL, nil, m, nil)
	_, err := explorer.Balance(context.Background(), "xch1abc")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(registry, "chiatax_api_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
