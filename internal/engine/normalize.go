package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
)

// ErrMalformedTransaction matches every *MalformedTransactionError.
var ErrMalformedTransaction = errors.New("malformed transaction")

// MalformedTransactionError reports a raw record that cannot be normalized.
type MalformedTransactionError struct {
	Index int    // position of the record in its input slice
	ID    string // record ID, if it had one
	Field string // "amount" or "date"
	Value any
	Err   error
}

func (e *MalformedTransactionError) Error() string {
	ref := fmt.Sprintf("#%d", e.Index)
	if e.ID != "" {
		ref = fmt.Sprintf("#%d (%s)", e.Index, e.ID)
	}
	return fmt.Sprintf("malformed transaction %s: invalid %s %v: %v", ref, e.Field, e.Value, e.Err)
}

func (e *MalformedTransactionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrMalformedTransaction) hold.
func (e *MalformedTransactionError) Is(target error) bool {
	return target == ErrMalformedTransaction
}

// Accepted date layouts, most specific first.
var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano, "2006-1-2"}

// idNamespace scopes the IDs derived for records stored without one.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://cleared.dev/finstate/transaction"))

// Normalize converts a raw record into a Transaction. index is the record's
// position in its input and only feeds error reports and derived IDs.
//
// Missing category becomes "Uncategorized", missing flags default to true and
// an unknown type falls back to a generic expense. Only an amount or date that
// cannot be coerced is an error.
func Normalize(raw model.RawTransaction, index int) (model.Transaction, error) {
	amount, err := coerceAmount(raw.Amount)
	if err != nil {
		return model.Transaction{}, &MalformedTransactionError{Index: index, ID: raw.ID, Field: "amount", Value: raw.Amount, Err: err}
	}
	on, err := coerceDate(raw.Date)
	if err != nil {
		return model.Transaction{}, &MalformedTransactionError{Index: index, ID: raw.ID, Field: "date", Value: raw.Date, Err: err}
	}

	typ, ok := model.ParseTransactionType(raw.Type)
	if !ok {
		typ = model.TypeExpense
	}

	category := model.Uncategorized
	if raw.Category != nil && strings.TrimSpace(*raw.Category) != "" {
		category = strings.TrimSpace(*raw.Category)
	}

	txn := model.Transaction{
		ID:              strings.TrimSpace(raw.ID),
		Date:            on,
		Type:            typ,
		Category:        category,
		Kind:            model.ParseCategory(category),
		Amount:          amount,
		Description:     raw.Description,
		AffectsPL:       flag(raw.AffectsPL),
		AffectsCashFlow: flag(raw.AffectsCashFlow),
		AffectsBalance:  flag(raw.AffectsBalance),
	}
	if txn.ID == "" {
		txn.ID = derivedID(txn, index)
	}
	return txn, nil
}

// NormalizeAll normalizes every record. Records that fail are left out of the
// result and reported together in the joined error, so a caller can either
// abort or carry on with the well-formed remainder.
func NormalizeAll(raws []model.RawTransaction) ([]model.Transaction, error) {
	txns := make([]model.Transaction, 0, len(raws))
	var errs []error
	for i, raw := range raws {
		txn, err := Normalize(raw, i)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		txns = append(txns, txn)
	}
	return txns, errors.Join(errs...)
}

// SortByDate returns a copy of txns in ascending date order. Same-day
// transactions keep their input order.
func SortByDate(txns []model.Transaction) []model.Transaction {
	sorted := make([]model.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

func flag(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}

func derivedID(t model.Transaction, index int) string {
	key := fmt.Sprintf("%d|%s|%s|%s|%s|%s", index, t.Date.Format("2006-01-02"), t.Type, t.Category, t.Amount.String(), t.Description)
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

func coerceAmount(v any) (decimal.Decimal, error) {
	switch a := v.(type) {
	case nil:
		return decimal.Zero, errors.New("missing amount")
	case decimal.Decimal:
		return a, nil
	case *decimal.Decimal:
		if a == nil {
			return decimal.Zero, errors.New("missing amount")
		}
		return *a, nil
	case string:
		s := strings.TrimSpace(a)
		if s == "" {
			return decimal.Zero, errors.New("missing amount")
		}
		return decimal.NewFromString(s)
	case json.Number:
		return decimal.NewFromString(a.String())
	case float64:
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return decimal.Zero, errors.New("not a finite number")
		}
		return decimal.NewFromFloat(a), nil
	case float32:
		if math.IsNaN(float64(a)) || math.IsInf(float64(a), 0) {
			return decimal.Zero, errors.New("not a finite number")
		}
		return decimal.NewFromFloat32(a), nil
	case int:
		return decimal.NewFromInt(int64(a)), nil
	case int32:
		return decimal.NewFromInt32(a), nil
	case int64:
		return decimal.NewFromInt(a), nil
	case uint32:
		return decimal.NewFromInt(int64(a)), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", v)
	}
}

func coerceDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, errors.New("missing date")
	case time.Time:
		if d.IsZero() {
			return time.Time{}, errors.New("missing date")
		}
		return dayOf(d), nil
	case *time.Time:
		if d == nil || d.IsZero() {
			return time.Time{}, errors.New("missing date")
		}
		return dayOf(*d), nil
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, errors.New("missing date")
		}
		for _, layout := range dateLayouts {
			if on, err := time.Parse(layout, s); err == nil {
				return dayOf(on), nil
			}
		}
		return time.Time{}, fmt.Errorf("want format %q", dateLayouts[0])
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

// dayOf keeps the calendar day as seen in t's own location.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
