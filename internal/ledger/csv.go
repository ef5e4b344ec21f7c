package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
)

// Header is the CSV header for ledger.csv.
const Header = "id,date,type,category,amount,description,affects_pl,affects_cash_flow,affects_balance"

const (
	numFields      = 9
	dateFormat     = "2006-01-02"
	colID          = 0
	colDate        = 1
	colType        = 2
	colCategory    = 3
	colAmount      = 4
	colDesc        = 5
	colAffectsPL   = 6
	colAffectsCash = 7
	colAffectsBal  = 8
)

// ReadRows reads all rows from a ledger.csv reader.
//
// Values are kept raw: date and amount stay strings, blank category and blank
// flags stay nil. Only the CSV structure and the flag columns are checked here.
func ReadRows(r io.Reader) ([]model.RawTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var rows []model.RawTransaction
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRows writes rows to a ledger.csv writer (including header).
func WriteRows(w io.Writer, rows []model.RawTransaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// AppendRows appends rows to an existing ledger.csv writer (no header).
func AppendRows(w io.Writer, rows []model.RawTransaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}

// MarshalRow converts a RawTransaction to a CSV row ([]string).
func MarshalRow(raw model.RawTransaction) []string {
	row := make([]string, numFields)
	row[colID] = raw.ID
	row[colDate] = formatDate(raw.Date)
	row[colType] = raw.Type
	if raw.Category != nil {
		row[colCategory] = *raw.Category
	}
	row[colAmount] = formatAmount(raw.Amount)
	row[colDesc] = raw.Description
	row[colAffectsPL] = formatFlag(raw.AffectsPL)
	row[colAffectsCash] = formatFlag(raw.AffectsCashFlow)
	row[colAffectsBal] = formatFlag(raw.AffectsBalance)
	return row
}

// UnmarshalRow converts a CSV row to a RawTransaction.
func UnmarshalRow(record []string) (model.RawTransaction, error) {
	if len(record) != numFields {
		return model.RawTransaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	pl, err := parseFlag(record[colAffectsPL])
	if err != nil {
		return model.RawTransaction{}, fmt.Errorf("parsing affects_pl %q: %w", record[colAffectsPL], err)
	}
	cash, err := parseFlag(record[colAffectsCash])
	if err != nil {
		return model.RawTransaction{}, fmt.Errorf("parsing affects_cash_flow %q: %w", record[colAffectsCash], err)
	}
	bal, err := parseFlag(record[colAffectsBal])
	if err != nil {
		return model.RawTransaction{}, fmt.Errorf("parsing affects_balance %q: %w", record[colAffectsBal], err)
	}

	raw := model.RawTransaction{
		ID:              record[colID],
		Date:            record[colDate],
		Type:            record[colType],
		Amount:          record[colAmount],
		Description:     record[colDesc],
		AffectsPL:       pl,
		AffectsCashFlow: cash,
		AffectsBalance:  bal,
	}
	if c := record[colCategory]; c != "" {
		raw.Category = &c
	}
	return raw, nil
}

func formatDate(v any) string {
	switch d := v.(type) {
	case time.Time:
		return d.Format(dateFormat)
	case string:
		return d
	case nil:
		return ""
	default:
		return fmt.Sprint(d)
	}
}

func formatAmount(v any) string {
	switch a := v.(type) {
	case decimal.Decimal:
		return a.StringFixed(2)
	case string:
		return a
	case nil:
		return ""
	default:
		return fmt.Sprint(a)
	}
}

func formatFlag(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func parseFlag(s string) (*bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
