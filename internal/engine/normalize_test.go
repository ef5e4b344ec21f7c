package engine

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finstate/internal/model"
)

func TestNormalize_Defaults(t *testing.T) {
	got, err := Normalize(model.RawTransaction{
		ID:     "2025-01-001",
		Date:   "2025-01-15",
		Type:   "revenue",
		Amount: "1000.50",
	}, 0)
	require.NoError(t, err)

	assert.Equal(t, "2025-01-001", got.ID)
	assert.Equal(t, date(2025, 1, 15), got.Date)
	assert.Equal(t, model.TypeRevenue, got.Type)
	assert.Equal(t, model.Uncategorized, got.Category)
	assert.Equal(t, model.CategoryOther, got.Kind)
	assertDec(t, "1000.50", got.Amount, "amount")
	assert.True(t, got.AffectsPL, "nil flag defaults to true")
	assert.True(t, got.AffectsCashFlow, "nil flag defaults to true")
	assert.True(t, got.AffectsBalance, "nil flag defaults to true")
}

func TestNormalize_ExplicitFalseFlags(t *testing.T) {
	got, err := Normalize(model.RawTransaction{
		Date:            "2025-01-15",
		Type:            "expense",
		Category:        ptr("  Infrastructure Costs "),
		Amount:          "10",
		AffectsPL:       ptr(false),
		AffectsCashFlow: ptr(false),
		AffectsBalance:  ptr(true),
	}, 3)
	require.NoError(t, err)

	assert.Equal(t, "Infrastructure Costs", got.Category)
	assert.Equal(t, model.CategoryInfrastructureCosts, got.Kind)
	assert.False(t, got.AffectsPL)
	assert.False(t, got.AffectsCashFlow)
	assert.True(t, got.AffectsBalance)
}

func TestNormalize_BlankCategory(t *testing.T) {
	got, err := Normalize(model.RawTransaction{Date: "2025-01-15", Type: "expense", Category: ptr("   "), Amount: "1"}, 0)
	require.NoError(t, err)
	assert.Equal(t, model.Uncategorized, got.Category)
}

func TestNormalize_UnknownTypeFallsBackToExpense(t *testing.T) {
	got, err := Normalize(model.RawTransaction{Date: "2025-01-15", Type: "transfer", Amount: "25"}, 0)
	require.NoError(t, err)
	assert.Equal(t, model.TypeExpense, got.Type)
	assert.Equal(t, model.CategoryOther, got.Kind)
}

func TestNormalize_AmountKinds(t *testing.T) {
	tests := []struct {
		name   string
		amount any
		want   string
	}{
		{"string", " -12.34 ", "-12.34"},
		{"float64", 12.5, "12.5"},
		{"float32", float32(0.25), "0.25"},
		{"int", 42, "42"},
		{"int32", int32(-7), "-7"},
		{"int64", int64(9000000000), "9000000000"},
		{"uint32", uint32(3), "3"},
		{"json.Number", json.Number("100.01"), "100.01"},
		{"decimal", dec("0.1"), "0.1"},
		{"*decimal", ptr(dec("0.2")), "0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(model.RawTransaction{Date: "2025-01-01", Type: "revenue", Amount: tt.amount}, 0)
			require.NoError(t, err)
			assertDec(t, tt.want, got.Amount, "amount")
		})
	}
}

func TestNormalize_MalformedAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount any
	}{
		{"nil", nil},
		{"empty", "  "},
		{"word", "twelve"},
		{"nan", math.NaN()},
		{"inf", math.Inf(1)},
		{"bool", true},
		{"nil decimal pointer", (*decimal.Decimal)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(model.RawTransaction{ID: "x-1", Date: "2025-01-01", Type: "revenue", Amount: tt.amount}, 7)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedTransaction)

			var mte *MalformedTransactionError
			require.ErrorAs(t, err, &mte)
			assert.Equal(t, "amount", mte.Field)
			assert.Equal(t, 7, mte.Index)
			assert.Equal(t, "x-1", mte.ID)
			assert.Contains(t, err.Error(), "#7 (x-1)")
		})
	}
}

func TestNormalize_Dates(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		paris = time.FixedZone("CET", 3600)
	}
	tests := []struct {
		name string
		in   any
		want time.Time
	}{
		{"iso", "2025-03-09", date(2025, 3, 9)},
		{"lenient", "2025-3-9", date(2025, 3, 9)},
		{"rfc3339", "2025-03-09T23:30:00Z", date(2025, 3, 9)},
		{"time keeps local day", time.Date(2025, 3, 10, 0, 30, 0, 0, paris), date(2025, 3, 10)},
		{"time pointer", ptr(time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC)), date(2025, 3, 9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(model.RawTransaction{Date: tt.in, Type: "revenue", Amount: "1"}, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Date)
		})
	}
}

func TestNormalize_MalformedDate(t *testing.T) {
	for _, in := range []any{nil, "", "09/03/2025", time.Time{}, 20250309} {
		_, err := Normalize(model.RawTransaction{Date: in, Type: "revenue", Amount: "1"}, 0)
		var mte *MalformedTransactionError
		require.ErrorAs(t, err, &mte, "date %v", in)
		assert.Equal(t, "date", mte.Field)
	}
}

func TestNormalize_DerivedIDIsDeterministic(t *testing.T) {
	r := model.RawTransaction{Date: "2025-01-15", Type: "revenue", Amount: "10", Description: "invoice 7"}
	a, err := Normalize(r, 4)
	require.NoError(t, err)
	b, err := Normalize(r, 4)
	require.NoError(t, err)
	c, err := Normalize(r, 5)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID, "position distinguishes identical records")
}

func TestNormalizeAll_KeepsWellFormedRecords(t *testing.T) {
	raws := []model.RawTransaction{
		{Date: "2025-01-01", Type: "revenue", Amount: "1"},
		{Date: "bad", Type: "revenue", Amount: "1"},
		{Date: "2025-01-02", Type: "revenue", Amount: "oops"},
		{Date: "2025-01-03", Type: "revenue", Amount: "3"},
	}
	txns, err := NormalizeAll(raws)
	require.Error(t, err)
	require.Len(t, txns, 2)
	assertDec(t, "1", txns[0].Amount, "first")
	assertDec(t, "3", txns[1].Amount, "last")

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.Len(t, joined.Unwrap(), 2)
}

func TestNormalizeAll_NoErrors(t *testing.T) {
	txns, err := NormalizeAll([]model.RawTransaction{{Date: "2025-01-01", Type: "equity", Amount: 5}})
	require.NoError(t, err)
	require.Len(t, txns, 1)
}

func TestSortByDate_StableAndCopy(t *testing.T) {
	in := []model.Transaction{
		{ID: "c", Date: date(2025, 2, 1)},
		{ID: "a", Date: date(2025, 1, 1)},
		{ID: "b", Date: date(2025, 1, 1)},
	}
	out := SortByDate(in)
	assert.Equal(t, []string{"a", "b", "c"}, []string{out[0].ID, out[1].ID, out[2].ID})
	assert.Equal(t, "c", in[0].ID, "input untouched")
}
