package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/finstate/internal/model"
)

func row(txnID, on, typ, amount string) model.RawTransaction {
	return model.RawTransaction{ID: txnID, Date: on, Type: typ, Amount: amount}
}

func rules(errs []ValidationError) []int {
	out := make([]int, len(errs))
	for i, e := range errs {
		out[i] = e.Rule
	}
	return out
}

func TestValidateRows_Valid(t *testing.T) {
	errs := ValidateRows([]model.RawTransaction{
		row("2025-01-001", "2025-01-01", "revenue", "100.00"),
		row("2025-01-002", "2025-01-31", "Expense", "12.5"),
	}, 2025, 1)
	assert.Empty(t, errs)
}

func TestValidateRows_Rules(t *testing.T) {
	tests := []struct {
		name string
		rows []model.RawTransaction
		want []int
	}{
		{
			name: "malformed ID",
			rows: []model.RawTransaction{row("abc", "2025-01-01", "revenue", "1")},
			want: []int{1},
		},
		{
			name: "ID from another month",
			rows: []model.RawTransaction{row("2025-02-001", "2025-01-01", "revenue", "1")},
			want: []int{1},
		},
		{
			name: "duplicate ID",
			rows: []model.RawTransaction{
				row("2025-01-001", "2025-01-01", "revenue", "1"),
				row("2025-01-001", "2025-01-02", "revenue", "1"),
			},
			want: []int{1},
		},
		{
			name: "sequence gap",
			rows: []model.RawTransaction{
				row("2025-01-001", "2025-01-01", "revenue", "1"),
				row("2025-01-003", "2025-01-02", "revenue", "1"),
			},
			want: []int{2},
		},
		{
			name: "date outside month",
			rows: []model.RawTransaction{row("2025-01-001", "2025-02-01", "revenue", "1")},
			want: []int{3},
		},
		{
			name: "unparseable date",
			rows: []model.RawTransaction{row("2025-01-001", "01/05/2025", "revenue", "1")},
			want: []int{3},
		},
		{
			name: "unknown type",
			rows: []model.RawTransaction{row("2025-01-001", "2025-01-05", "transfer", "1")},
			want: []int{4},
		},
		{
			name: "unparseable amount",
			rows: []model.RawTransaction{row("2025-01-001", "2025-01-05", "revenue", "ten")},
			want: []int{5},
		},
		{
			name: "sub-cent amount",
			rows: []model.RawTransaction{row("2025-01-001", "2025-01-05", "revenue", "1.005")},
			want: []int{5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rules(ValidateRows(tt.rows, 2025, 1)))
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Rule: 4, ID: "2025-01-001", Description: `unknown type "gift"`}
	assert.Equal(t, `rule 4 [2025-01-001]: unknown type "gift"`, e.Error())
}
