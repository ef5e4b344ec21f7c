package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProfitAndLoss is the flow statement of operating results.
type ProfitAndLoss struct {
	Revenue           decimal.Decimal `json:"revenue"`
	COGS              decimal.Decimal `json:"cogs"`
	OperatingExpenses decimal.Decimal `json:"operatingExpenses"`
	NetProfit         decimal.Decimal `json:"netProfit"`
}

// BalanceSheet is the point-in-time snapshot of positions.
//
// TotalEquity is the plug (assets minus liabilities). BookEquity is tracked
// independently from recorded equity and retained earnings; the validator
// compares the two.
type BalanceSheet struct {
	Cash               decimal.Decimal `json:"cash"`
	AccountsReceivable decimal.Decimal `json:"accountsReceivable"`
	FixedAssets        decimal.Decimal `json:"fixedAssets"`
	OtherAssets        decimal.Decimal `json:"otherAssets"`
	AccountsPayable    decimal.Decimal `json:"accountsPayable"`
	ShortTermDebt      decimal.Decimal `json:"shortTermDebt"`
	LongTermDebt       decimal.Decimal `json:"longTermDebt"`
	OtherLiabilities   decimal.Decimal `json:"otherLiabilities"`
	TotalAssets        decimal.Decimal `json:"totalAssets"`
	TotalLiabilities   decimal.Decimal `json:"totalLiabilities"`
	TotalEquity        decimal.Decimal `json:"totalEquity"`
	ContributedCapital decimal.Decimal `json:"contributedCapital"`
	RetainedEarnings   decimal.Decimal `json:"retainedEarnings"`
	BookEquity         decimal.Decimal `json:"bookEquity"`
	// UnreconciledCash sums cash postings that hit the balance sheet without
	// going through the cash flow statement.
	UnreconciledCash decimal.Decimal `json:"unreconciledCash"`
	Balances         bool            `json:"balances"`
}

// CashFlow is the flow statement of cash movements.
type CashFlow struct {
	BeginningCash     decimal.Decimal `json:"beginningCash"`
	OperatingCashFlow decimal.Decimal `json:"operatingCashFlow"`
	InvestingCashFlow decimal.Decimal `json:"investingCashFlow"`
	FinancingCashFlow decimal.Decimal `json:"financingCashFlow"`
	NetCashFlow       decimal.Decimal `json:"netCashFlow"`
	EndingCash        decimal.Decimal `json:"endingCash"`
}

// StatementSet holds the three derived statements plus their diagnostics.
// It is recomputed from the ledger on demand and never the source of truth.
type StatementSet struct {
	PL           ProfitAndLoss `json:"pl"`
	BalanceSheet BalanceSheet  `json:"balanceSheet"`
	CashFlow     CashFlow      `json:"cashFlow"`
	IsValid      bool          `json:"isValid"`
	Errors       []string      `json:"errors"`
}

// PeriodStatement is one bucket of a period series.
type PeriodStatement struct {
	Period      time.Time    `json:"period"`
	PeriodLabel string       `json:"periodLabel"`
	Statements  StatementSet `json:"statements"`
}

// OpeningBalance seeds the balance sheet before the first transaction.
// Cash is seeded separately. When both equity fields are zero the opening
// retained earnings are taken as the seed's own plug, so a seed balances
// unless the caller states its equity.
type OpeningBalance struct {
	AccountsReceivable decimal.Decimal `json:"accountsReceivable" yaml:"accounts_receivable,omitempty"`
	FixedAssets        decimal.Decimal `json:"fixedAssets" yaml:"fixed_assets,omitempty"`
	OtherAssets        decimal.Decimal `json:"otherAssets" yaml:"other_assets,omitempty"`
	AccountsPayable    decimal.Decimal `json:"accountsPayable" yaml:"accounts_payable,omitempty"`
	ShortTermDebt      decimal.Decimal `json:"shortTermDebt" yaml:"short_term_debt,omitempty"`
	LongTermDebt       decimal.Decimal `json:"longTermDebt" yaml:"long_term_debt,omitempty"`
	OtherLiabilities   decimal.Decimal `json:"otherLiabilities" yaml:"other_liabilities,omitempty"`
	ContributedCapital decimal.Decimal `json:"contributedCapital" yaml:"contributed_capital,omitempty"`
	RetainedEarnings   decimal.Decimal `json:"retainedEarnings" yaml:"retained_earnings,omitempty"`
}

// IsZero reports whether no line of the seed is set.
func (o OpeningBalance) IsZero() bool {
	for _, d := range []decimal.Decimal{
		o.AccountsReceivable, o.FixedAssets, o.OtherAssets,
		o.AccountsPayable, o.ShortTermDebt, o.LongTermDebt, o.OtherLiabilities,
		o.ContributedCapital, o.RetainedEarnings,
	} {
		if !d.IsZero() {
			return false
		}
	}
	return true
}

// Add returns the line-by-line sum of two P&L statements.
func (p ProfitAndLoss) Add(o ProfitAndLoss) ProfitAndLoss {
	return ProfitAndLoss{
		Revenue:           p.Revenue.Add(o.Revenue),
		COGS:              p.COGS.Add(o.COGS),
		OperatingExpenses: p.OperatingExpenses.Add(o.OperatingExpenses),
		NetProfit:         p.NetProfit.Add(o.NetProfit),
	}
}

// Add returns the line-by-line sum of two balance sheets. Balances is reset;
// the sum has to be validated again.
func (b BalanceSheet) Add(o BalanceSheet) BalanceSheet {
	return BalanceSheet{
		Cash:               b.Cash.Add(o.Cash),
		AccountsReceivable: b.AccountsReceivable.Add(o.AccountsReceivable),
		FixedAssets:        b.FixedAssets.Add(o.FixedAssets),
		OtherAssets:        b.OtherAssets.Add(o.OtherAssets),
		AccountsPayable:    b.AccountsPayable.Add(o.AccountsPayable),
		ShortTermDebt:      b.ShortTermDebt.Add(o.ShortTermDebt),
		LongTermDebt:       b.LongTermDebt.Add(o.LongTermDebt),
		OtherLiabilities:   b.OtherLiabilities.Add(o.OtherLiabilities),
		TotalAssets:        b.TotalAssets.Add(o.TotalAssets),
		TotalLiabilities:   b.TotalLiabilities.Add(o.TotalLiabilities),
		TotalEquity:        b.TotalEquity.Add(o.TotalEquity),
		ContributedCapital: b.ContributedCapital.Add(o.ContributedCapital),
		RetainedEarnings:   b.RetainedEarnings.Add(o.RetainedEarnings),
		BookEquity:         b.BookEquity.Add(o.BookEquity),
		UnreconciledCash:   b.UnreconciledCash.Add(o.UnreconciledCash),
	}
}

// Add returns the line-by-line sum of two cash flow statements.
func (c CashFlow) Add(o CashFlow) CashFlow {
	return CashFlow{
		BeginningCash:     c.BeginningCash.Add(o.BeginningCash),
		OperatingCashFlow: c.OperatingCashFlow.Add(o.OperatingCashFlow),
		InvestingCashFlow: c.InvestingCashFlow.Add(o.InvestingCashFlow),
		FinancingCashFlow: c.FinancingCashFlow.Add(o.FinancingCashFlow),
		NetCashFlow:       c.NetCashFlow.Add(o.NetCashFlow),
		EndingCash:        c.EndingCash.Add(o.EndingCash),
	}
}
