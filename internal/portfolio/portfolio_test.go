package portfolio

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finstate/internal/engine"
	"github.com/cleared-dev/finstate/internal/ledger"
	"github.com/cleared-dev/finstate/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

type staticSource struct {
	rows []model.RawTransaction
	err  error
}

func (s staticSource) ReadAll(ctx context.Context) ([]model.RawTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.rows, s.err
}

func rawTxn(on, typ, amount string) model.RawTransaction {
	return model.RawTransaction{Date: on, Type: typ, Amount: amount}
}

func twoCompanies() []Company {
	return []Company{
		{
			Name:   "Alpha",
			Source: staticSource{rows: []model.RawTransaction{rawTxn("2025-01-15", "revenue", "100")}},
		},
		{
			Name:        "Beta",
			Source:      staticSource{rows: []model.RawTransaction{rawTxn("2025-03-02", "expense", "30")}},
			OpeningCash: dec("50"),
		},
	}
}

func TestRecompute(t *testing.T) {
	res, err := Recompute(context.Background(), twoCompanies(), Request{Granularity: engine.Monthly})
	require.NoError(t, err)

	require.Len(t, res.Companies, 2)
	assert.Equal(t, "Alpha", res.Companies[0].Name)
	assert.Equal(t, "Beta", res.Companies[1].Name)

	total := res.Consolidated
	assert.True(t, total.IsValid, "errors: %v", total.Errors)
	assert.True(t, total.BalanceSheet.Cash.Equal(dec("120")), "cash %s", total.BalanceSheet.Cash)
	assert.True(t, total.PL.NetProfit.Equal(dec("70")))

	require.Len(t, res.Periods, 3, "both series span January to March")
	for _, c := range res.Companies {
		require.Len(t, c.Periods, 3, c.Name)
	}
	jan, mar := res.Periods[0].Statements, res.Periods[2].Statements
	assert.Equal(t, "January 2025", res.Periods[0].PeriodLabel)
	assert.True(t, jan.CashFlow.BeginningCash.Equal(dec("50")))
	assert.True(t, jan.CashFlow.EndingCash.Equal(dec("150")))
	assert.True(t, mar.PL.OperatingExpenses.Equal(dec("30")))
	assert.True(t, mar.CashFlow.EndingCash.Equal(dec("120")))
	for _, p := range res.Periods {
		assert.True(t, p.Statements.IsValid, "%s: %v", p.PeriodLabel, p.Statements.Errors)
	}
}

func TestRecompute_Through(t *testing.T) {
	res, err := Recompute(context.Background(), twoCompanies(), Request{Granularity: engine.Quarterly, Through: date(2025, 2, 28)})
	require.NoError(t, err)
	assert.True(t, res.Consolidated.BalanceSheet.Cash.Equal(dec("150")), "March expense is after the cut-off")
	require.Len(t, res.Periods, 1, "series still covers the latest transaction")
	assert.Equal(t, "Q1 2025", res.Periods[0].PeriodLabel)
}

func TestRecompute_SourceError(t *testing.T) {
	companies := twoCompanies()
	boom := errors.New("disk on fire")
	companies[1].Source = staticSource{err: boom}

	_, err := Recompute(context.Background(), companies, Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "loading Beta")
}

func TestRecompute_MalformedLedger(t *testing.T) {
	companies := twoCompanies()
	companies[0].Source = staticSource{rows: []model.RawTransaction{rawTxn("2025-01-15", "revenue", "lots")}}

	_, err := Recompute(context.Background(), companies, Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrMalformedTransaction)
	assert.Contains(t, err.Error(), "normalizing Alpha")
}

func TestRecompute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Recompute(ctx, twoCompanies(), Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecompute_Empty(t *testing.T) {
	res, err := Recompute(context.Background(), nil, Request{})
	require.NoError(t, err)
	assert.Empty(t, res.Companies)
	assert.NotNil(t, res.Periods)
	assert.True(t, res.Consolidated.IsValid)
}

type slowSource struct {
	active, peak *int32
}

func (s slowSource) ReadAll(context.Context) ([]model.RawTransaction, error) {
	n := atomic.AddInt32(s.active, 1)
	for {
		p := atomic.LoadInt32(s.peak)
		if n <= p || atomic.CompareAndSwapInt32(s.peak, p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	atomic.AddInt32(s.active, -1)
	return nil, nil
}

func TestRecompute_BoundedConcurrency(t *testing.T) {
	var active, peak int32
	companies := make([]Company, 6)
	for i := range companies {
		companies[i] = Company{Name: "c", Source: slowSource{active: &active, peak: &peak}}
	}
	_, err := Recompute(context.Background(), companies, Request{Concurrency: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&peak), int32(1))
}

func TestRecompute_LedgerSource(t *testing.T) {
	svc := ledger.NewService(t.TempDir())
	_, err := svc.Add(context.Background(), ledger.AddParams{Date: date(2025, 4, 1), Type: model.TypeEquity, Amount: dec("1000")})
	require.NoError(t, err)

	res, err := Recompute(context.Background(), []Company{{Name: "Gamma", Source: svc}}, Request{Granularity: engine.Yearly})
	require.NoError(t, err)
	assert.True(t, res.Consolidated.BalanceSheet.ContributedCapital.Equal(dec("1000")))
	require.Len(t, res.Periods, 1)
	assert.Equal(t, "2025", res.Periods[0].PeriodLabel)
}

func TestConsolidatePeriods_Misaligned(t *testing.T) {
	a := []model.PeriodStatement{{Period: date(2025, 1, 1), PeriodLabel: "January 2025"}}
	b := []model.PeriodStatement{{Period: date(2025, 2, 1), PeriodLabel: "February 2025"}}

	_, err := ConsolidatePeriods([][]model.PeriodStatement{a, b}, decimal.Zero)
	assert.ErrorIs(t, err, ErrMisaligned)

	_, err = ConsolidatePeriods([][]model.PeriodStatement{a, append(b, b...)}, decimal.Zero)
	assert.ErrorIs(t, err, ErrMisaligned)
}

func TestConsolidate_DetectsImbalance(t *testing.T) {
	good := engine.Accumulate(nil, dec("10"))
	bad := good
	bad.BalanceSheet.TotalAssets = dec("11")

	assert.True(t, Consolidate([]model.StatementSet{good, good}, decimal.Zero).IsValid)
	assert.False(t, Consolidate([]model.StatementSet{good, bad}, decimal.Zero).IsValid)
}
