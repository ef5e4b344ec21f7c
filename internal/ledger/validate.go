package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/id"
	"github.com/cleared-dev/finstate/internal/model"
)

// ValidationError describes a single rule violation in a month file.
type ValidationError struct {
	Rule        int
	ID          string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("rule %d [%s]: %s", e.Rule, e.ID, e.Description)
}

// ValidateRows enforces the storage rules on the rows of one month file:
//
//  1. IDs are well-formed, belong to the month and are unique.
//  2. Sequences are contiguous 1..N.
//  3. Dates parse as YYYY-MM-DD and fall within the month.
//  4. Types are one of the five transaction types.
//  5. Amounts parse and carry at most two decimal places.
//
// These rules guard the files. The engine itself tolerates unknown types.
func ValidateRows(rows []model.RawTransaction, year, month int) []ValidationError {
	var errs []ValidationError

	// Rule 1: well-formed, in-month, unique IDs.
	seen := make(map[string]bool)
	seqSeen := make(map[int]bool)
	for _, row := range rows {
		_, _, seq, err := id.Parse(row.ID)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{
				Rule:        1,
				ID:          row.ID,
				Description: fmt.Sprintf("invalid transaction ID: %v", err),
			})
			continue
		case !id.InMonth(row.ID, year, month):
			errs = append(errs, ValidationError{
				Rule:        1,
				ID:          row.ID,
				Description: fmt.Sprintf("ID does not belong to %04d-%02d", year, month),
			})
		case seen[row.ID]:
			errs = append(errs, ValidationError{
				Rule:        1,
				ID:          row.ID,
				Description: "duplicate transaction ID",
			})
		}
		seen[row.ID] = true
		seqSeen[seq] = true
	}

	// Rule 2: contiguous sequences.
	for i := 1; i <= len(seqSeen); i++ {
		if !seqSeen[i] {
			errs = append(errs, ValidationError{
				Rule:        2,
				ID:          fmt.Sprintf("seq %d", i),
				Description: fmt.Sprintf("missing sequence %d in 1..%d", i, len(seqSeen)),
			})
		}
	}

	hundred := decimal.NewFromInt(100)
	for _, row := range rows {
		// Rule 3: date within month.
		ds, _ := row.Date.(string)
		on, err := time.Parse(dateFormat, strings.TrimSpace(ds))
		if err != nil {
			errs = append(errs, ValidationError{
				Rule:        3,
				ID:          row.ID,
				Description: fmt.Sprintf("invalid date %q", ds),
			})
		} else if on.Year() != year || int(on.Month()) != month {
			errs = append(errs, ValidationError{
				Rule:        3,
				ID:          row.ID,
				Description: fmt.Sprintf("date %s not in %04d-%02d", on.Format(dateFormat), year, month),
			})
		}

		// Rule 4: known type.
		if _, ok := model.ParseTransactionType(row.Type); !ok {
			errs = append(errs, ValidationError{
				Rule:        4,
				ID:          row.ID,
				Description: fmt.Sprintf("unknown type %q", row.Type),
			})
		}

		// Rule 5: exact decimals.
		as, _ := row.Amount.(string)
		amount, err := decimal.NewFromString(strings.TrimSpace(as))
		if err != nil {
			errs = append(errs, ValidationError{
				Rule:        5,
				ID:          row.ID,
				Description: fmt.Sprintf("invalid amount %q", as),
			})
		} else if !amount.Mul(hundred).Equal(amount.Mul(hundred).Floor()) {
			errs = append(errs, ValidationError{
				Rule:        5,
				ID:          row.ID,
				Description: fmt.Sprintf("amount %s has more than 2 decimal places", amount),
			})
		}
	}

	return errs
}
