package client

import (
	"context"
	"iter"

	"github.com/brojonat/chiatax/service/metrics"
)

// DefaultPageSize is the number of transactions requested per page.
const DefaultPageSize = 100

// PageFetcher fetches one page of received transactions.
// *Explorer implements it; tests substitute their own.
type PageFetcher interface {
	ReceivedTransactions(ctx context.Context, address, cursor string, limit int) (*Page, error)
}

// Pager follows the explorer's received-transaction cursor.
//
// A Pager is either paging or done. It starts paging at cursor "0" and is
// done once a page arrives without a next cursor, or after any error. The
// sequence returned by All is lazy: a page is only requested once every
// transaction of the previous page has been consumed. A Pager cannot be
// rewound; create a new one to read the history again.
type Pager struct {
	fetcher PageFetcher
	address string
	limit   int
	metrics *metrics.Metrics

	cursor string
	done   bool
	total  int64
	pages  int
}

// NewPager creates a pager over the received transactions of address.
// A limit below 1 selects DefaultPageSize. If m is nil, no metrics are recorded.
func NewPager(fetcher PageFetcher, address string, limit int, m *metrics.Metrics) *Pager {
	if limit < 1 {
		limit = DefaultPageSize
	}
	return &Pager{
		fetcher: fetcher,
		address: address,
		limit:   limit,
		metrics: m,
		cursor:  "0",
	}
}

// All yields every remaining transaction in the order the explorer returns
// them (newest first). A fetch error is yielded once and ends the sequence.
func (p *Pager) All(ctx context.Context) iter.Seq2[Transaction, error] {
	return func(yield func(Transaction, error) bool) {
		for !p.done {
			page, err := p.fetcher.ReceivedTransactions(ctx, p.address, p.cursor, p.limit)
			if err != nil {
				p.done = true
				yield(Transaction{}, err)
				return
			}

			p.pages++
			if p.metrics != nil {
				p.metrics.RecordPageFetched()
			}
			if page.TotalCount != 0 {
				p.total = page.TotalCount
			}
			if page.Last() {
				p.done = true
			} else {
				p.cursor = *page.NextCursor
			}

			for _, txn := range page.Transactions {
				if !yield(txn, nil) {
					return
				}
			}
		}
	}
}

// Total returns the most recent non-zero total-count hint seen so far.
func (p *Pager) Total() int64 { return p.total }

// Pages returns the number of pages fetched so far.
func (p *Pager) Pages() int { return p.pages }

// Done reports whether the pager has reached the last page.
func (p *Pager) Done() bool { return p.done }
