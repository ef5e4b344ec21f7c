package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/finstate/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func ptr[T any](v T) *T { return &v }

// txn builds a normalized transaction with all three flags set.
func txn(on time.Time, typ model.TransactionType, category, amount string) model.Transaction {
	return model.Transaction{
		ID:              on.Format("2006-01-02") + "-" + string(typ) + "-" + category,
		Date:            on,
		Type:            typ,
		Category:        category,
		Kind:            model.ParseCategory(category),
		Amount:          dec(amount),
		AffectsPL:       true,
		AffectsCashFlow: true,
		AffectsBalance:  true,
	}
}

func flags(t model.Transaction, pl, cash, balance bool) model.Transaction {
	t.AffectsPL = pl
	t.AffectsCashFlow = cash
	t.AffectsBalance = balance
	return t
}

func raw(on, typ, category, amount string, pl, cash, balance bool) model.RawTransaction {
	return model.RawTransaction{
		Date:            on,
		Type:            typ,
		Category:        ptr(category),
		Amount:          amount,
		AffectsPL:       ptr(pl),
		AffectsCashFlow: ptr(cash),
		AffectsBalance:  ptr(balance),
	}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}
