package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies ledger transactions by the account family they touch.
type TransactionType string

const (
	TypeRevenue   TransactionType = "revenue"
	TypeExpense   TransactionType = "expense"
	TypeAsset     TransactionType = "asset"
	TypeLiability TransactionType = "liability"
	TypeEquity    TransactionType = "equity"
)

// ParseTransactionType returns the type for a label and whether it was recognized.
func ParseTransactionType(label string) (TransactionType, bool) {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(label))); t {
	case TypeRevenue, TypeExpense, TypeAsset, TypeLiability, TypeEquity:
		return t, true
	default:
		return "", false
	}
}

// Uncategorized is the label given to transactions recorded without a category.
const Uncategorized = "Uncategorized"

// Settlement tells whether a transaction's cash effect is recognized with it.
type Settlement int

const (
	// Settled transactions move cash when they are recorded.
	Settled Settlement = iota
	// Accrued transactions are open receivables or payables until cash moves.
	Accrued
)

func (s Settlement) String() string {
	if s == Accrued {
		return "accrued"
	}
	return "settled"
}

// Transaction is one immutable entry of the append-only ledger.
type Transaction struct {
	ID              string
	Date            time.Time // UTC midnight
	Type            TransactionType
	Category        string   // label as recorded
	Kind            Category // closed classification of Category
	Amount          decimal.Decimal
	Description     string
	AffectsPL       bool
	AffectsCashFlow bool
	AffectsBalance  bool
}

// Settlement derives the accrual/settlement decision from AffectsCashFlow.
func (t Transaction) Settlement() Settlement {
	if t.AffectsCashFlow {
		return Settled
	}
	return Accrued
}

// RawTransaction is a ledger record as it arrives from storage or an import,
// before normalization. Nil flags mean the flag was not recorded.
type RawTransaction struct {
	ID              string
	Date            any // time.Time or a date string
	Type            string
	Category        *string
	Amount          any // string, number, json.Number or decimal.Decimal
	Description     string
	AffectsPL       *bool
	AffectsCashFlow *bool
	AffectsBalance  *bool
}
