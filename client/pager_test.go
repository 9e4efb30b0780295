package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves a fixed list of transactions in pages of the requested size.
// The cursor is the index of the first transaction of the next page.
type fakeFetcher struct {
	txns    []Transaction
	failAt  int // 1-based page number that fails, 0 for never
	calls   int
	cursors []string
}

func (f *fakeFetcher) ReceivedTransactions(ctx context.Context, address, cursor string, limit int) (*Page, error) {
	f.calls++
	f.cursors = append(f.cursors, cursor)
	if f.failAt == f.calls {
		return nil, &ProviderError{API: "spacescan", Endpoint: "xch-transaction", Message: `status "failed"`}
	}

	var start int
	fmt.Sscanf(cursor, "%d", &start)
	end := min(start+limit, len(f.txns))

	page := &Page{
		Transactions: f.txns[start:end],
		TotalCount:   int64(len(f.txns)),
	}
	if end < len(f.txns) {
		next := fmt.Sprintf("%d", end)
		page.NextCursor = &next
	}
	return page, nil
}

func makeTransactions(n int) []Transaction {
	txns := make([]Transaction, n)
	for i := range txns {
		txns[i] = Transaction{
			CoinID: fmt.Sprintf("coin%02d", i),
			Time:   fmt.Sprintf("2024-10-%02dT00:00:00Z", 28-i),
			Amount: decimal.NewFromInt(int64(i + 1)),
		}
	}
	return txns
}

func collect(t *testing.T, p *Pager) ([]string, error) {
	t.Helper()
	var ids []string
	for txn, err := range p.All(context.Background()) {
		if err != nil {
			return ids, err
		}
		ids = append(ids, txn.CoinID)
	}
	return ids, nil
}

func TestPager_ThreeTransactionsPageSizeTwo(t *testing.T) {
	fetcher := &fakeFetcher{txns: makeTransactions(3)}
	pager := NewPager(fetcher, "xch1abc", 2, nil)

	ids, err := collect(t, pager)
	require.NoError(t, err)

	assert.Equal(t, []string{"coin00", "coin01", "coin02"}, ids)
	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, []string{"0", "2"}, fetcher.cursors)
	assert.Equal(t, 2, pager.Pages())
	assert.Equal(t, int64(3), pager.Total())
	assert.True(t, pager.Done())
}

func TestPager_PreservesOrderAcrossPages(t *testing.T) {
	for _, size := range []int{1, 2, 3, 7, 10, 100} {
		t.Run(fmt.Sprintf("page size %d", size), func(t *testing.T) {
			txns := makeTransactions(10)
			fetcher := &fakeFetcher{txns: txns}
			pager := NewPager(fetcher, "xch1abc", size, nil)

			ids, err := collect(t, pager)
			require.NoError(t, err)

			want := make([]string, len(txns))
			for i, txn := range txns {
				want[i] = txn.CoinID
			}
			assert.Equal(t, want, ids)

			maxFetches := (len(txns) + size - 1) / size
			assert.LessOrEqual(t, fetcher.calls, maxFetches)
		})
	}
}

func TestPager_EmptyHistory(t *testing.T) {
	fetcher := &fakeFetcher{}
	pager := NewPager(fetcher, "xch1abc", 10, nil)

	ids, err := collect(t, pager)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, int64(0), pager.Total())
}

func TestPager_ErrorOnSecondPageKeepsFirstPage(t *testing.T) {
	fetcher := &fakeFetcher{txns: makeTransactions(6), failAt: 2}
	pager := NewPager(fetcher, "xch1abc", 2, nil)

	ids, err := collect(t, pager)
	require.Error(t, err)

	var perr *ProviderError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, []string{"coin00", "coin01"}, ids)
	assert.True(t, pager.Done())

	// Done is terminal: ranging again neither fetches nor yields.
	again, err := collect(t, pager)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, 2, fetcher.calls)
}

func TestPager_IsLazy(t *testing.T) {
	fetcher := &fakeFetcher{txns: makeTransactions(5)}
	pager := NewPager(fetcher, "xch1abc", 2, nil)

	for txn, err := range pager.All(context.Background()) {
		require.NoError(t, err)
		assert.Equal(t, "coin00", txn.CoinID)
		break
	}
	assert.Equal(t, 1, fetcher.calls)
}

func TestPager_DefaultPageSize(t *testing.T) {
	fetcher := &fakeFetcher{txns: makeTransactions(3)}
	pager := NewPager(fetcher, "xch1abc", 0, nil)

	_, err := collect(t, pager)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
}

func TestPager_KeepsLastNonZeroTotal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("received_cursor") {
		case "0":
			w.Write([]byte(`{"status":"success","received_transactions":{"total_count":3,"next_cursor":"p2","transactions":[
				{"coin_id":"c1","time":"2024-10-23T07:21:34.000Z","amount_xch":1,"memo":null},
				{"coin_id":"c2","time":"2024-10-22T07:21:34.000Z","amount_xch":2,"memo":null}]}}`))
		case "p2":
			w.Write([]byte(`{"status":"success","received_transactions":{"total_count":0,"next_cursor":null,"transactions":[
				{"coin_id":"c3","time":"2024-10-21T07:21:34.000Z","amount_xch":3,"memo":null}]}}`))
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("received_cursor"))
		}
	}))
	defer server.Close()

	explorer := NewExplorer(server.URL, nil, nil, nil)
	pager := NewPager(explorer, "xch1abc", 2, nil)

	ids, err := collect(t, pager)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, ids)
	assert.Equal(t, int64(3), pager.Total())
	assert.Equal(t, 2, pager.Pages())
}
