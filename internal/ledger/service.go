// Package ledger stores the append-only transaction ledger as one CSV file per
// month under <repo>/ledger/YYYY/MM/ledger.csv.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/id"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
)

// Dir is the ledger directory relative to the repo root.
const Dir = "ledger"

const fileName = "ledger.csv"

// Service appends to and reads the ledger of one company repo.
type Service struct {
	repoRoot string
}

// NewService creates a ledger Service.
func NewService(repoRoot string) *Service {
	return &Service{repoRoot: repoRoot}
}

// Month identifies one month file.
type Month struct {
	Year  int
	Month int
}

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, m.Month) }

// AddParams holds the fields of a new transaction. Nil flags are stored blank
// and default to true when the ledger is normalized.
type AddParams struct {
	Date            time.Time
	Type            model.TransactionType
	Category        string
	Amount          decimal.Decimal
	Description     string
	AffectsPL       *bool
	AffectsCashFlow *bool
	AffectsBalance  *bool
}

// Add validates and appends one transaction. Returns its ID.
func (s *Service) Add(ctx context.Context, params AddParams) (string, error) {
	ids, err := s.AddBatch(ctx, []AddParams{params})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// AddBatch appends transactions, possibly spanning several months. Every
// month file is validated with its new rows before anything is written, so a
// rejected batch leaves the ledger untouched. Returns the assigned IDs in
// input order.
func (s *Service) AddBatch(ctx context.Context, params []AddParams) ([]string, error) {
	log := logger.FromContext(ctx)

	byMonth := make(map[Month][]int)
	var order []Month
	for i, p := range params {
		m := Month{Year: p.Date.Year(), Month: int(p.Date.Month())}
		if _, ok := byMonth[m]; !ok {
			order = append(order, m)
		}
		byMonth[m] = append(byMonth[m], i)
	}

	ids := make([]string, len(params))
	pending := make(map[Month][]model.RawTransaction, len(order))
	for _, m := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		existing, err := s.ReadMonth(m.Year, m.Month)
		if err != nil {
			return nil, err
		}
		seq := nextSeq(existing)

		var rows []model.RawTransaction
		for _, i := range byMonth[m] {
			ids[i] = id.Format(m.Year, m.Month, seq)
			seq++
			rows = append(rows, toRow(ids[i], params[i]))
		}

		all := append(existing, rows...)
		if verrs := ValidateRows(all, m.Year, m.Month); len(verrs) > 0 {
			msgs := make([]string, len(verrs))
			for i, ve := range verrs {
				msgs[i] = ve.Error()
			}
			return nil, fmt.Errorf("validation failed for %s: %s", m, strings.Join(msgs, "; "))
		}
		pending[m] = rows
	}

	for _, m := range order {
		if err := s.appendMonth(m, pending[m]); err != nil {
			return nil, err
		}
		log.Debug().Str("month", m.String()).Int("rows", len(pending[m])).Msg("appended to ledger")
	}
	return ids, nil
}

func toRow(txnID string, p AddParams) model.RawTransaction {
	amount := p.Amount.String()
	if p.Amount.Equal(p.Amount.Round(2)) {
		amount = p.Amount.StringFixed(2)
	}
	row := model.RawTransaction{
		ID:              txnID,
		Date:            p.Date.Format(dateFormat),
		Type:            string(p.Type),
		Amount:          amount,
		Description:     p.Description,
		AffectsPL:       p.AffectsPL,
		AffectsCashFlow: p.AffectsCashFlow,
		AffectsBalance:  p.AffectsBalance,
	}
	if c := strings.TrimSpace(p.Category); c != "" {
		row.Category = &c
	}
	return row
}

func (s *Service) appendMonth(m Month, rows []model.RawTransaction) error {
	path := s.monthPath(m.Year, m.Month)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	if err := AppendRows(f, rows); err != nil {
		return fmt.Errorf("appending rows: %w", err)
	}
	return nil
}

// ReadMonth reads all rows for a given year/month. A missing file is an empty
// month.
func (s *Service) ReadMonth(year, month int) ([]model.RawTransaction, error) {
	path := s.monthPath(year, month)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return rows, nil
}

// Months lists the months that have a ledger file, oldest first.
func (s *Service) Months() ([]Month, error) {
	root := filepath.Join(s.repoRoot, Dir)
	years, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger dir: %w", err)
	}

	var months []Month
	for _, y := range years {
		year, err := strconv.Atoi(y.Name())
		if !y.IsDir() || err != nil {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(root, y.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading ledger dir %s: %w", y.Name(), err)
		}
		for _, e := range entries {
			month, err := strconv.Atoi(e.Name())
			if !e.IsDir() || err != nil || month < 1 || month > 12 {
				continue
			}
			if _, err := os.Stat(s.monthPath(year, month)); err == nil {
				months = append(months, Month{Year: year, Month: month})
			}
		}
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year < months[j].Year
		}
		return months[i].Month < months[j].Month
	})
	return months, nil
}

// ReadAll reads every month file in chronological order.
func (s *Service) ReadAll(ctx context.Context) ([]model.RawTransaction, error) {
	months, err := s.Months()
	if err != nil {
		return nil, err
	}

	var rows []model.RawTransaction
	for _, m := range months {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		monthRows, err := s.ReadMonth(m.Year, m.Month)
		if err != nil {
			return nil, err
		}
		rows = append(rows, monthRows...)
	}
	log := logger.FromContext(ctx)
	log.Debug().Int("months", len(months)).Int("rows", len(rows)).Msg("read ledger")
	return rows, nil
}

// Check validates every month file. The returned map only holds months with
// violations.
func (s *Service) Check(ctx context.Context) (map[Month][]ValidationError, error) {
	months, err := s.Months()
	if err != nil {
		return nil, err
	}

	result := make(map[Month][]ValidationError)
	for _, m := range months {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := s.ReadMonth(m.Year, m.Month)
		if err != nil {
			return nil, err
		}
		if verrs := ValidateRows(rows, m.Year, m.Month); len(verrs) > 0 {
			result[m] = verrs
		}
	}
	return result, nil
}

// NextSeq returns the next available sequence number for a month.
func (s *Service) NextSeq(year, month int) (int, error) {
	rows, err := s.ReadMonth(year, month)
	if err != nil {
		return 0, err
	}
	return nextSeq(rows), nil
}

func nextSeq(rows []model.RawTransaction) int {
	maxSeq := 0
	for _, row := range rows {
		_, _, seq, err := id.Parse(row.ID)
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1
}

func (s *Service) monthPath(year, month int) string {
	return filepath.Join(s.repoRoot, Dir, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), fileName)
}
