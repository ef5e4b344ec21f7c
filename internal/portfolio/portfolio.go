// Package portfolio recomputes the statements of several companies
// concurrently and consolidates them into one set.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/finstate/internal/engine"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
)

// DefaultConcurrency bounds the number of companies computed at once.
const DefaultConcurrency = 4

// ErrMisaligned is returned when period series to consolidate do not cover
// the same buckets.
var ErrMisaligned = errors.New("period series are not aligned")

// Source yields a company's raw ledger. *ledger.Service and store.Ledger
// satisfy it.
type Source interface {
	ReadAll(ctx context.Context) ([]model.RawTransaction, error)
}

// Company is one member of the portfolio.
type Company struct {
	Name        string
	Source      Source
	OpeningCash decimal.Decimal
	Opening     *model.OpeningBalance
}

// Request selects what Recompute derives.
type Request struct {
	Granularity engine.Granularity
	Through     time.Time
	Epsilon     decimal.Decimal
	Concurrency int
}

// CompanyResult holds one company's statements.
type CompanyResult struct {
	Name       string                  `json:"name"`
	Statements model.StatementSet      `json:"statements"`
	Periods    []model.PeriodStatement `json:"periods"`
}

// Result holds every company's statements, in input order, and the
// consolidated view.
type Result struct {
	Companies    []CompanyResult         `json:"companies"`
	Consolidated model.StatementSet      `json:"consolidated"`
	Periods      []model.PeriodStatement `json:"periods"`
}

// Recompute loads and derives every company's statements concurrently. All
// period series span the same buckets, from the portfolio's earliest
// transaction to its latest (or to req.Through), so they can be consolidated
// bucket by bucket. The first failing company cancels the rest.
func Recompute(ctx context.Context, companies []Company, req Request) (*Result, error) {
	log := logger.FromContext(ctx)
	limit := req.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	// Load and normalize.
	ledgers := make([][]model.Transaction, len(companies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, c := range companies {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raws, err := c.Source.ReadAll(gctx)
			if err != nil {
				return fmt.Errorf("loading %s: %w", c.Name, err)
			}
			txns, err := engine.NormalizeAll(raws)
			if err != nil {
				return fmt.Errorf("normalizing %s: %w", c.Name, err)
			}
			ledgers[i] = txns
			log.Debug().Str("company", c.Name).Int("transactions", len(txns)).Msg("loaded")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	from, through := span(ledgers, req.Through)
	opts := []engine.Option{engine.WithEpsilon(req.Epsilon)}
	periodOpts := append([]engine.Option{engine.WithFrom(from), engine.WithThrough(through)}, opts...)
	snapshotOpts := opts
	if !req.Through.IsZero() {
		snapshotOpts = append([]engine.Option{engine.WithThrough(req.Through)}, opts...)
	}

	// Derive.
	results := make([]CompanyResult, len(companies))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, c := range companies {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			own := append([]engine.Option{engine.WithOpening(c.Opening)}, snapshotOpts...)
			set := engine.Financials(ledgers[i], c.OpeningCash, own...)
			periods := engine.FinancialsByPeriod(ledgers[i], req.Granularity, c.OpeningCash, c.Opening, periodOpts...)
			results[i] = CompanyResult{Name: c.Name, Statements: set, Periods: periods}
			if !set.IsValid {
				log.Warn().Str("company", c.Name).Strs("errors", set.Errors).Msg("statements do not validate")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sets := make([]model.StatementSet, len(results))
	series := make([][]model.PeriodStatement, len(results))
	for i, r := range results {
		sets[i] = r.Statements
		series[i] = r.Periods
	}
	periods, err := ConsolidatePeriods(series, req.Epsilon)
	if err != nil {
		return nil, err
	}

	log.Info().Int("companies", len(companies)).Int("periods", len(periods)).Msg("recomputed portfolio")
	return &Result{
		Companies:    results,
		Consolidated: Consolidate(sets, req.Epsilon),
		Periods:      periods,
	}, nil
}

// span returns the earliest transaction date across ledgers and the later of
// the latest transaction date and through. Zero when there is nothing.
func span(ledgers [][]model.Transaction, through time.Time) (from, to time.Time) {
	for _, txns := range ledgers {
		for _, t := range txns {
			if from.IsZero() || t.Date.Before(from) {
				from = t.Date
			}
			if t.Date.After(to) {
				to = t.Date
			}
		}
	}
	if through.After(to) {
		to = through
	}
	return from, to
}

// Consolidate sums statement sets line by line and validates the sum.
func Consolidate(sets []model.StatementSet, epsilon decimal.Decimal) model.StatementSet {
	var total model.StatementSet
	for _, s := range sets {
		total.PL = total.PL.Add(s.PL)
		total.BalanceSheet = total.BalanceSheet.Add(s.BalanceSheet)
		total.CashFlow = total.CashFlow.Add(s.CashFlow)
	}
	return engine.Validate(total, epsilon)
}

// ConsolidatePeriods sums aligned period series bucket by bucket.
func ConsolidatePeriods(series [][]model.PeriodStatement, epsilon decimal.Decimal) ([]model.PeriodStatement, error) {
	out := []model.PeriodStatement{}
	if len(series) == 0 {
		return out, nil
	}
	n := len(series[0])
	for _, s := range series[1:] {
		if len(s) != n {
			return nil, fmt.Errorf("%w: %d buckets vs %d", ErrMisaligned, len(s), n)
		}
	}

	for b := 0; b < n; b++ {
		sets := make([]model.StatementSet, len(series))
		for i, s := range series {
			if !s[b].Period.Equal(series[0][b].Period) {
				return nil, fmt.Errorf("%w: %s vs %s", ErrMisaligned, s[b].PeriodLabel, series[0][b].PeriodLabel)
			}
			sets[i] = s[b].Statements
		}
		out = append(out, model.PeriodStatement{
			Period:      series[0][b].Period,
			PeriodLabel: series[0][b].PeriodLabel,
			Statements:  Consolidate(sets, epsilon),
		})
	}
	return out, nil
}
