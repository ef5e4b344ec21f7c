package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
)

// DefaultEpsilon is the tolerance for identity checks: one minor unit of a
// two-decimal currency.
var DefaultEpsilon = decimal.New(1, -2)

// Validate checks a StatementSet and returns a copy carrying the diagnostics.
// Diagnostics are derived from the figures alone, so validating twice gives
// the same result. Computed figures are never changed and Validate never
// fails: an out-of-balance set is still returned, flagged with IsValid false.
//
// The accounting identity is checked against book equity (recorded equity
// plus retained earnings), not against the TotalEquity plug, which would
// balance by construction.
func Validate(set model.StatementSet, epsilon decimal.Decimal) model.StatementSet {
	if !epsilon.IsPositive() {
		epsilon = DefaultEpsilon
	}
	out := set
	out.Errors = []string{}

	bs := set.BalanceSheet
	rhs := bs.TotalLiabilities.Add(bs.BookEquity)
	out.BalanceSheet.Balances = within(bs.TotalAssets, rhs, epsilon)
	if !out.BalanceSheet.Balances {
		out.Errors = append(out.Errors, fmt.Sprintf("Balance sheet does not balance: assets=%s, liabilities+equity=%s",
			bs.TotalAssets.StringFixed(2), rhs.StringFixed(2)))
	}

	if !within(bs.UnreconciledCash, decimal.Zero, epsilon) {
		out.Errors = append(out.Errors, fmt.Sprintf("Cash postings outside the cash flow statement: %s",
			bs.UnreconciledCash.StringFixed(2)))
	}

	cf := set.CashFlow
	if sum := cf.OperatingCashFlow.Add(cf.InvestingCashFlow).Add(cf.FinancingCashFlow); !within(cf.NetCashFlow, sum, epsilon) {
		out.Errors = append(out.Errors, fmt.Sprintf("Net cash flow %s does not equal operating+investing+financing=%s",
			cf.NetCashFlow.StringFixed(2), sum.StringFixed(2)))
	}
	if want := cf.BeginningCash.Add(cf.NetCashFlow); !within(cf.EndingCash, want, epsilon) {
		out.Errors = append(out.Errors, fmt.Sprintf("Ending cash %s does not equal beginning cash plus net cash flow=%s",
			cf.EndingCash.StringFixed(2), want.StringFixed(2)))
	}
	if !within(bs.Cash, cf.EndingCash, epsilon) {
		out.Errors = append(out.Errors, fmt.Sprintf("Balance sheet cash %s does not reconcile to ending cash %s",
			bs.Cash.StringFixed(2), cf.EndingCash.StringFixed(2)))
	}

	pl := set.PL
	if want := pl.Revenue.Sub(pl.COGS).Sub(pl.OperatingExpenses); !within(pl.NetProfit, want, epsilon) {
		out.Errors = append(out.Errors, fmt.Sprintf("Net profit %s does not equal revenue-cogs-operating expenses=%s",
			pl.NetProfit.StringFixed(2), want.StringFixed(2)))
	}

	out.IsValid = len(out.Errors) == 0
	return out
}

func within(a, b, epsilon decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(epsilon)
}
