package importer

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// SimpleParser reads a minimal export with "date", "description" and "amount"
// columns, dates as YYYY-MM-DD. Column order does not matter.
type SimpleParser struct{}

// Format returns the parser name.
func (p *SimpleParser) Format() string { return "simple" }

// Parse reads a simple CSV and returns BankTransactions.
func (p *SimpleParser) Parse(r io.Reader) ([]BankTransaction, error) {
	t, err := readTable(r, "simple")
	if err != nil || t == nil {
		return nil, err
	}

	dateCol, err := t.column("date")
	if err != nil {
		return nil, err
	}
	descCol, err := t.column("description", "memo")
	if err != nil {
		return nil, err
	}
	amountCol, err := t.column("amount")
	if err != nil {
		return nil, err
	}

	var txns []BankTransaction
	for i, rec := range t.rows {
		date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, rec[dateCol], err)
		}
		amount, err := parseAmount(rec[amountCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", i+2, rec[amountCol], err)
		}
		desc := strings.TrimSpace(rec[descCol])
		txns = append(txns, BankTransaction{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Reference:   makeRef("simple", date, desc),
		})
	}
	return txns, nil
}
