package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
)

// BucketOptions shapes a period series.
type BucketOptions struct {
	// From starts the series at the bucket containing From. Earlier
	// transactions are folded into the opening state of that bucket.
	From time.Time
	// Through extends the series to the bucket containing Through.
	// Transactions dated after the end of that bucket still extend the series.
	Through time.Time
	// SkipEmpty omits buckets without transactions. State is still carried
	// across them.
	SkipEmpty bool
}

// Bucket partitions date-ordered transactions into calendar buckets.
//
// P&L and cash flow cover only each bucket's own transactions. The balance
// sheet is cumulative to the end of each bucket, and bucket n begins with the
// ending cash of bucket n-1. The series is dense from its first to its last
// bucket unless opts.SkipEmpty is set. Results are not validated.
func Bucket(txns []model.Transaction, g Granularity, openingCash decimal.Decimal, seed *model.OpeningBalance, opts BucketOptions) []model.PeriodStatement {
	periods := []model.PeriodStatement{}

	start, end, ok := seriesBounds(txns, g, opts)
	if !ok {
		return periods
	}

	cash := openingCash
	pos := openingPosition(openingCash, seed)
	i := 0

	// Fold anything before the series into the opening state.
	if i < len(txns) && txns[i].Date.Before(start) {
		pre := newAccumulator(cash, pos)
		for i < len(txns) && txns[i].Date.Before(start) {
			pre.add(txns[i])
			i++
		}
		cash = pre.statements().CashFlow.EndingCash
		pos = pre.closing()
	}

	for cur := start; !cur.After(end); cur = g.Next(cur) {
		next := g.Next(cur)
		acc := newAccumulator(cash, pos)
		for i < len(txns) && txns[i].Date.Before(next) {
			acc.add(txns[i])
			i++
		}
		set := acc.statements()
		cash = set.CashFlow.EndingCash
		pos = acc.closing()

		if opts.SkipEmpty && acc.count == 0 {
			continue
		}
		periods = append(periods, model.PeriodStatement{
			Period:      cur,
			PeriodLabel: g.Label(cur),
			Statements:  set,
		})
	}
	return periods
}

// seriesBounds returns the first and last bucket starts of the series.
func seriesBounds(txns []model.Transaction, g Granularity, opts BucketOptions) (start, end time.Time, ok bool) {
	if len(txns) > 0 {
		start = g.Start(txns[0].Date)
		end = g.Start(txns[len(txns)-1].Date)
		ok = true
	}
	if !opts.From.IsZero() {
		from := g.Start(opts.From)
		if !ok {
			start, end, ok = from, from, true
		}
		start = from
	}
	if !opts.Through.IsZero() {
		through := g.Start(opts.Through)
		if !ok {
			start, end, ok = through, through, true
		}
		if through.After(end) {
			end = through
		}
	}
	if ok && end.Before(start) {
		end = start
	}
	return start, end, ok
}
