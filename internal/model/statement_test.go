package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestOpeningBalance_IsZero(t *testing.T) {
	assert.True(t, OpeningBalance{}.IsZero())
	assert.False(t, OpeningBalance{OtherLiabilities: d("1")}.IsZero())
}

func TestBalanceSheet_AddResetsBalances(t *testing.T) {
	a := BalanceSheet{Cash: d("10"), TotalAssets: d("10"), RetainedEarnings: d("10"), BookEquity: d("10"), Balances: true}
	b := BalanceSheet{Cash: d("5"), LongTermDebt: d("5"), TotalAssets: d("5"), TotalLiabilities: d("5"), Balances: true}

	sum := a.Add(b)
	assert.True(t, sum.Cash.Equal(d("15")))
	assert.True(t, sum.TotalLiabilities.Equal(d("5")))
	assert.True(t, sum.BookEquity.Equal(d("10")))
	assert.False(t, sum.Balances)
}

func TestFlowStatements_Add(t *testing.T) {
	pl := ProfitAndLoss{Revenue: d("100"), COGS: d("20"), NetProfit: d("80")}.
		Add(ProfitAndLoss{Revenue: d("1"), OperatingExpenses: d("2"), NetProfit: d("-1")})
	assert.True(t, pl.NetProfit.Equal(d("79")))
	assert.True(t, pl.OperatingExpenses.Equal(d("2")))

	cf := CashFlow{BeginningCash: d("10"), OperatingCashFlow: d("5"), NetCashFlow: d("5"), EndingCash: d("15")}.
		Add(CashFlow{BeginningCash: d("1"), InvestingCashFlow: d("-1"), NetCashFlow: d("-1"), EndingCash: d("0")})
	assert.True(t, cf.EndingCash.Equal(d("15")))
	assert.True(t, cf.InvestingCashFlow.Equal(d("-1")))
}

func TestStatementSet_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(StatementSet{Errors: []string{}})
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"pl", "balanceSheet", "cashFlow", "isValid", "errors"} {
		assert.Contains(t, fields, key)
	}
	assert.JSONEq(t, `[]`, string(fields["errors"]))
}
