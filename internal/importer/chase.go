package importer

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ChaseParser parses Chase CSV exports. Both the checking layout ("Posting
// Date", "Type") and the card layout ("Post Date") are recognized by header.
type ChaseParser struct{}

const chaseDateFormat = "01/02/2006"

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV and returns BankTransactions.
func (p *ChaseParser) Parse(r io.Reader) ([]BankTransaction, error) {
	t, err := readTable(r, "chase")
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}

	dateCol, err := t.column("Posting Date", "Post Date")
	if err != nil {
		return nil, err
	}
	descCol, err := t.column("Description")
	if err != nil {
		return nil, err
	}
	amountCol, err := t.column("Amount")
	if err != nil {
		return nil, err
	}
	typeCol, _ := t.column("Type")

	var txns []BankTransaction
	for i, rec := range t.rows {
		date, err := time.Parse(chaseDateFormat, strings.TrimSpace(rec[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, rec[dateCol], err)
		}
		amount, err := parseAmount(rec[amountCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", i+2, rec[amountCol], err)
		}
		bt := BankTransaction{
			Date:        date,
			Description: strings.TrimSpace(rec[descCol]),
			Amount:      amount,
		}
		if typeCol >= 0 {
			bt.Type = rec[typeCol]
		}
		bt.Reference = makeRef("chase", date, bt.Description)
		txns = append(txns, bt)
	}
	return txns, nil
}
