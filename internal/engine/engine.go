// Package engine derives Profit & Loss, Balance Sheet and Cash Flow statements
// from an append-only transaction ledger.
//
// Everything here is a pure function of its arguments: no clock, no I/O and no
// state between calls. Recomputing from the same ledger always gives the same
// statements, which is what lets callers delete stored statements and rebuild
// them from the ledger at any time. Concurrent calls over separate ledgers need
// no coordination.
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
)

// Options tunes a calculation.
type Options struct {
	Epsilon   decimal.Decimal
	Opening   *model.OpeningBalance // snapshots only; period series take the seed directly
	From      time.Time             // period series only
	Through   time.Time             // cut-off for snapshots, series extent for periods
	SkipEmpty bool                  // period series only
}

// Option sets a field of Options.
type Option func(*Options)

// WithEpsilon sets the tolerance of the identity checks.
func WithEpsilon(eps decimal.Decimal) Option {
	return func(o *Options) { o.Epsilon = eps }
}

// WithOpening seeds a snapshot's balance sheet.
func WithOpening(seed *model.OpeningBalance) Option {
	return func(o *Options) { o.Opening = seed }
}

// WithFrom starts a period series at the bucket containing from.
func WithFrom(from time.Time) Option {
	return func(o *Options) { o.From = from }
}

// WithThrough sets the as-of date of a snapshot, or extends a period series
// through the bucket containing through.
func WithThrough(through time.Time) Option {
	return func(o *Options) { o.Through = through }
}

// WithSkipEmpty omits buckets without transactions from a period series.
func WithSkipEmpty() Option {
	return func(o *Options) { o.SkipEmpty = true }
}

func buildOptions(opts []Option) Options {
	o := Options{Epsilon: DefaultEpsilon}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// CalculateFinancials normalizes raw records, sorts them by date and returns
// the validated cumulative statements as of the latest transaction (or as of
// the WithThrough date). Only malformed records produce an error.
func CalculateFinancials(raw []model.RawTransaction, openingCash decimal.Decimal, opts ...Option) (model.StatementSet, error) {
	txns, err := NormalizeAll(raw)
	if err != nil {
		return model.StatementSet{}, fmt.Errorf("normalizing ledger: %w", err)
	}
	return Financials(txns, openingCash, opts...), nil
}

// Financials is CalculateFinancials over already normalized transactions.
// The input slice is not modified.
func Financials(txns []model.Transaction, openingCash decimal.Decimal, opts ...Option) model.StatementSet {
	o := buildOptions(opts)
	sorted := SortByDate(txns)
	if !o.Through.IsZero() {
		cutoff := dayOf(o.Through)
		n := 0
		for n < len(sorted) && !sorted[n].Date.After(cutoff) {
			n++
		}
		sorted = sorted[:n]
	}
	return Validate(accumulate(sorted, openingCash, o.Opening), o.Epsilon)
}

// CalculateFinancialsByPeriod normalizes raw records, sorts them by date and
// returns one validated PeriodStatement per bucket. seed may be nil.
func CalculateFinancialsByPeriod(raw []model.RawTransaction, g Granularity, openingCash decimal.Decimal, seed *model.OpeningBalance, opts ...Option) ([]model.PeriodStatement, error) {
	txns, err := NormalizeAll(raw)
	if err != nil {
		return nil, fmt.Errorf("normalizing ledger: %w", err)
	}
	return FinancialsByPeriod(txns, g, openingCash, seed, opts...), nil
}

// FinancialsByPeriod is CalculateFinancialsByPeriod over already normalized
// transactions. The input slice is not modified.
func FinancialsByPeriod(txns []model.Transaction, g Granularity, openingCash decimal.Decimal, seed *model.OpeningBalance, opts ...Option) []model.PeriodStatement {
	o := buildOptions(opts)
	periods := Bucket(SortByDate(txns), g, openingCash, seed, BucketOptions{
		From:      o.From,
		Through:   o.Through,
		SkipEmpty: o.SkipEmpty,
	})
	for i := range periods {
		periods[i].Statements = Validate(periods[i].Statements, o.Epsilon)
	}
	return periods
}
