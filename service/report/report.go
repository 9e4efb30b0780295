// Package report turns a stream of received transactions into a CSV-like tax
// report, pricing every transaction at the moment it was received.
package report

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/brojonat/chiatax/client"
	"github.com/brojonat/chiatax/service/metrics"
	"github.com/brojonat/chiatax/service/price"
	"github.com/brojonat/chiatax/service/timeconv"
	"github.com/shopspring/decimal"
)

// CoinURLPrefix is prepended to a coin id to link the explorer page.
const CoinURLPrefix = "https://www.spacescan.io/en/coin/0x"

// Source yields transactions in explorer order and reports the total-count
// hint once exhausted. *client.Pager implements it.
type Source interface {
	All(ctx context.Context) iter.Seq2[client.Transaction, error]
	Total() int64
}

// Row is one enriched transaction.
type Row struct {
	Timestamp string // display time in the report zone
	Amount    decimal.Decimal
	UnitPrice decimal.Decimal
	FiatValue decimal.Decimal
	URL       string
	Memo      *string
}

// String renders the row as
// timestamp,amount,$unit_price,$fiat_value,url[,,,,memo].
// The amount is printed as the explorer reported it; prices always carry a
// fractional digit.
// The four empty fields before the memo keep it in its own column.
func (r Row) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s,%s,$%s,$%s,%s",
		r.Timestamp,
		r.Amount.String(),
		formatDecimal(r.UnitPrice),
		formatDecimal(r.FiatValue),
		r.URL,
	)
	if r.Memo != nil {
		b.WriteString(",,,,")
		b.WriteString(*r.Memo)
	}
	return b.String()
}

// formatDecimal prints d exactly, always with a fractional part (30 -> 30.0).
func formatDecimal(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Summary describes a finished run.
type Summary struct {
	Rows  int   // rows written
	Total int64 // explorer's count of qualifying transactions
}

// Line is the trailing summary line of the report.
func (s Summary) Line() string {
	return fmt.Sprintf("Total non-dust receive transactions = %d", s.Total)
}

// Pipeline enriches transactions one at a time and streams rows to a writer.
type Pipeline struct {
	source   Source
	provider price.Provider
	loc      *time.Location
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewPipeline creates a pipeline. A nil loc renders timestamps in the
// process's local zone. If m is nil, no metrics are recorded.
func NewPipeline(source Source, provider price.Provider, loc *time.Location, m *metrics.Metrics, logger *slog.Logger) *Pipeline {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Pipeline{
		source:   source,
		provider: provider,
		loc:      loc,
		metrics:  m,
		logger:   logger,
	}
}

// Enrich prices a single transaction.
func (p *Pipeline) Enrich(ctx context.Context, txn client.Transaction) (Row, error) {
	unix, err := timeconv.ISOToUnix(txn.Time)
	if err != nil {
		return Row{}, fmt.Errorf("coin %s: %w", txn.CoinID, err)
	}

	unitPrice, err := p.provider.HistoricalPrice(ctx, price.Moment{Timestamp: txn.Time, Unix: unix})
	if err != nil {
		return Row{}, fmt.Errorf("coin %s: failed to fetch %s price: %w", txn.CoinID, p.provider.Name(), err)
	}

	return Row{
		Timestamp: timeconv.UnixToDisplay(unix, p.loc),
		Amount:    txn.Amount,
		UnitPrice: unitPrice,
		FiatValue: txn.Amount.Mul(unitPrice),
		URL:       CoinURLPrefix + txn.CoinID,
		Memo:      txn.Memo,
	}, nil
}

// Run writes one line per transaction as soon as it is priced, then the
// summary line. On error it stops immediately; lines already written stay
// valid and the summary line is not written.
func (p *Pipeline) Run(ctx context.Context, w io.Writer) (Summary, error) {
	var summary Summary

	for txn, err := range p.source.All(ctx) {
		if err != nil {
			return summary, fmt.Errorf("failed to fetch transactions: %w", err)
		}

		row, err := p.Enrich(ctx, txn)
		if err != nil {
			return summary, err
		}

		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return summary, fmt.Errorf("failed to write report row: %w", err)
		}
		summary.Rows++
		if p.metrics != nil {
			p.metrics.RecordReportRow(row.FiatValue.InexactFloat64())
		}

		p.logger.DebugContext(ctx, "reported transaction",
			"coin_id", txn.CoinID,
			"time", txn.Time,
			"unit_price", row.UnitPrice.String(),
		)
	}

	summary.Total = p.source.Total()
	if _, err := fmt.Fprintln(w, summary.Line()); err != nil {
		return summary, fmt.Errorf("failed to write summary: %w", err)
	}
	return summary, nil
}
