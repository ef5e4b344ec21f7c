package engine

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
)

// position is the balance-sheet state carried from one fold to the next.
// Cash is not part of it: the cash line is always the cash flow's ending cash.
type position struct {
	accountsReceivable decimal.Decimal
	fixedAssets        decimal.Decimal
	otherAssets        decimal.Decimal
	accountsPayable    decimal.Decimal
	shortTermDebt      decimal.Decimal
	longTermDebt       decimal.Decimal
	otherLiabilities   decimal.Decimal
	contributedCapital decimal.Decimal
	retainedEarnings   decimal.Decimal
	unreconciledCash   decimal.Decimal
}

// openingPosition builds the starting position from a seed. Without stated
// equity the seed's own plug becomes opening retained earnings.
func openingPosition(cash decimal.Decimal, seed *model.OpeningBalance) position {
	if seed == nil {
		return position{retainedEarnings: cash}
	}
	p := position{
		accountsReceivable: seed.AccountsReceivable,
		fixedAssets:        seed.FixedAssets,
		otherAssets:        seed.OtherAssets,
		accountsPayable:    seed.AccountsPayable,
		shortTermDebt:      seed.ShortTermDebt,
		longTermDebt:       seed.LongTermDebt,
		otherLiabilities:   seed.OtherLiabilities,
		contributedCapital: seed.ContributedCapital,
		retainedEarnings:   seed.RetainedEarnings,
	}
	if p.contributedCapital.IsZero() && p.retainedEarnings.IsZero() {
		p.retainedEarnings = cash.Add(p.assets()).Sub(p.liabilities())
	}
	return p
}

// assets excludes cash.
func (p position) assets() decimal.Decimal {
	return p.accountsReceivable.Add(p.fixedAssets).Add(p.otherAssets)
}

func (p position) liabilities() decimal.Decimal {
	return p.accountsPayable.Add(p.shortTermDebt).Add(p.longTermDebt).Add(p.otherLiabilities)
}

// accumulator folds transactions into flow totals for one interval and the
// running balance-sheet position.
type accumulator struct {
	pl    model.ProfitAndLoss
	cf    model.CashFlow
	pos   position
	count int
}

func newAccumulator(beginningCash decimal.Decimal, pos position) *accumulator {
	return &accumulator{
		cf:  model.CashFlow{BeginningCash: beginningCash},
		pos: pos,
	}
}

func (a *accumulator) add(t model.Transaction) {
	a.count++
	if t.AffectsPL {
		a.postPL(t)
	}
	if t.AffectsCashFlow {
		a.postCashFlow(t)
	}
	if t.AffectsBalance {
		a.postBalance(t)
	}
}

func (a *accumulator) postPL(t model.Transaction) {
	switch t.Type {
	case model.TypeRevenue:
		a.pl.Revenue = a.pl.Revenue.Add(t.Amount)
	case model.TypeExpense:
		if t.Kind.IsCOGS() {
			a.pl.COGS = a.pl.COGS.Add(t.Amount)
		} else {
			a.pl.OperatingExpenses = a.pl.OperatingExpenses.Add(t.Amount)
		}
	}
}

func (a *accumulator) postCashFlow(t model.Transaction) {
	cf := &a.cf
	switch t.Type {
	case model.TypeRevenue:
		cf.OperatingCashFlow = cf.OperatingCashFlow.Add(t.Amount)
	case model.TypeExpense:
		cf.OperatingCashFlow = cf.OperatingCashFlow.Sub(t.Amount)
	case model.TypeAsset:
		switch {
		case t.Kind == model.CategoryCash:
			cf.OperatingCashFlow = cf.OperatingCashFlow.Add(t.Amount)
		case t.Kind.IsFixedAsset():
			cf.InvestingCashFlow = cf.InvestingCashFlow.Sub(t.Amount)
		default:
			// Receivables and other operating assets tie up cash.
			cf.OperatingCashFlow = cf.OperatingCashFlow.Sub(t.Amount)
		}
	case model.TypeLiability:
		switch {
		case t.Kind.IsDebt():
			cf.FinancingCashFlow = cf.FinancingCashFlow.Add(t.Amount)
		case t.Kind == model.CategoryAccountsPayable:
			cf.OperatingCashFlow = cf.OperatingCashFlow.Sub(t.Amount)
		default:
			cf.OperatingCashFlow = cf.OperatingCashFlow.Add(t.Amount)
		}
	case model.TypeEquity:
		cf.FinancingCashFlow = cf.FinancingCashFlow.Add(t.Amount)
	}
}

// CashSign is the direction in which a settled posting of a positive amount
// moves cash: +1 when cash comes in, -1 when it goes out. It follows the
// cash-flow rules of the fold, so an amount of sign*delta moves cash by delta.
func CashSign(typ model.TransactionType, kind model.Category) int {
	switch typ {
	case model.TypeRevenue, model.TypeEquity:
		return 1
	case model.TypeAsset:
		if kind == model.CategoryCash {
			return 1
		}
		return -1
	case model.TypeLiability:
		if kind == model.CategoryAccountsPayable {
			return -1
		}
		return 1
	default:
		return -1
	}
}

func (a *accumulator) postBalance(t model.Transaction) {
	p := &a.pos
	switch t.Type {
	case model.TypeRevenue:
		if t.Settlement() == model.Accrued {
			p.accountsReceivable = p.accountsReceivable.Add(t.Amount)
		}
	case model.TypeExpense:
		if t.Settlement() == model.Accrued {
			p.accountsPayable = p.accountsPayable.Add(t.Amount)
		}
	case model.TypeAsset:
		switch {
		case t.Kind == model.CategoryCash:
			if t.Settlement() == model.Accrued {
				p.unreconciledCash = p.unreconciledCash.Add(t.Amount)
			}
		case t.Kind == model.CategoryAccountsReceivable:
			p.accountsReceivable = p.accountsReceivable.Add(t.Amount)
		case t.Kind.IsFixedAsset():
			p.fixedAssets = p.fixedAssets.Add(t.Amount)
		default:
			p.otherAssets = p.otherAssets.Add(t.Amount)
		}
	case model.TypeLiability:
		switch t.Kind {
		case model.CategoryAccountsPayable:
			p.accountsPayable = p.accountsPayable.Add(t.Amount)
		case model.CategoryShortTermDebt:
			p.shortTermDebt = p.shortTermDebt.Add(t.Amount)
		case model.CategoryLongTermDebt:
			p.longTermDebt = p.longTermDebt.Add(t.Amount)
		default:
			p.otherLiabilities = p.otherLiabilities.Add(t.Amount)
		}
	case model.TypeEquity:
		p.contributedCapital = p.contributedCapital.Add(t.Amount)
	}
}

// closing returns the position after this interval, with the interval's
// profit rolled into retained earnings.
func (a *accumulator) closing() position {
	p := a.pos
	p.retainedEarnings = p.retainedEarnings.Add(a.netProfit())
	return p
}

func (a *accumulator) netProfit() decimal.Decimal {
	return a.pl.Revenue.Sub(a.pl.COGS).Sub(a.pl.OperatingExpenses)
}

// statements materializes the StatementSet. Diagnostics are left to Validate.
func (a *accumulator) statements() model.StatementSet {
	pl := a.pl
	pl.NetProfit = a.netProfit()

	cf := a.cf
	cf.NetCashFlow = cf.OperatingCashFlow.Add(cf.InvestingCashFlow).Add(cf.FinancingCashFlow)
	cf.EndingCash = cf.BeginningCash.Add(cf.NetCashFlow)

	p := a.closing()
	bs := model.BalanceSheet{
		Cash:               cf.EndingCash,
		AccountsReceivable: p.accountsReceivable,
		FixedAssets:        p.fixedAssets,
		OtherAssets:        p.otherAssets,
		AccountsPayable:    p.accountsPayable,
		ShortTermDebt:      p.shortTermDebt,
		LongTermDebt:       p.longTermDebt,
		OtherLiabilities:   p.otherLiabilities,
		ContributedCapital: p.contributedCapital,
		RetainedEarnings:   p.retainedEarnings,
		UnreconciledCash:   p.unreconciledCash,
	}
	bs.TotalAssets = bs.Cash.Add(p.assets())
	bs.TotalLiabilities = p.liabilities()
	bs.TotalEquity = bs.TotalAssets.Sub(bs.TotalLiabilities)
	bs.BookEquity = bs.ContributedCapital.Add(bs.RetainedEarnings)

	return model.StatementSet{
		PL:           pl,
		BalanceSheet: bs,
		CashFlow:     cf,
		Errors:       []string{},
	}
}

// Accumulate folds date-ordered transactions into one StatementSet in a
// single forward pass. The result is not validated.
func Accumulate(txns []model.Transaction, beginningCash decimal.Decimal) model.StatementSet {
	return accumulate(txns, beginningCash, nil)
}

func accumulate(txns []model.Transaction, beginningCash decimal.Decimal, seed *model.OpeningBalance) model.StatementSet {
	a := newAccumulator(beginningCash, openingPosition(beginningCash, seed))
	for _, t := range txns {
		a.add(t)
	}
	return a.statements()
}
